package movement

import (
	"github.com/akmonengine/gravitywalk/vecgeom"
	"github.com/go-gl/mathgl/mgl64"
)

// GravitySpec combines a constant world gravity along Z with a free
// "dynamic" gravity vector (a planet, a rotating station).
type GravitySpec struct {
	WorldGravityZ               float64
	DynamicGravity              mgl64.Vec3
	IgnoreWorldGravityIfDynamic bool
}

func (g GravitySpec) WorldGravity() mgl64.Vec3 {
	return vecgeom.Up.Mul(g.WorldGravityZ)
}

// Gravity is the dynamic gravity alone when it is set and told to override
// the world, the sum of both otherwise.
func (g GravitySpec) Gravity() mgl64.Vec3 {
	if g.IgnoreWorldGravityIfDynamic && !vecgeom.IsZero(g.DynamicGravity) {
		return g.DynamicGravity
	}
	return g.WorldGravity().Add(g.DynamicGravity)
}

func (g GravitySpec) GravityNormal() mgl64.Vec3 {
	return vecgeom.SafeNormal(g.Gravity())
}

func (g GravitySpec) WorldGravityNormal() mgl64.Vec3 {
	if g.WorldGravityZ >= 0 {
		return vecgeom.Up
	}
	return vecgeom.Down
}

func (g GravitySpec) DynamicGravityNormal() mgl64.Vec3 {
	return vecgeom.SafeNormal(g.DynamicGravity)
}

// ResolveVerticalDirection returns the first candidate that is a unit vector,
// normalized, or world up when none is.
func ResolveVerticalDirection(candidates ...mgl64.Vec3) mgl64.Vec3 {
	for _, candidate := range candidates {
		if vecgeom.IsNormalized(candidate) {
			return candidate.Normalize()
		}
	}
	return vecgeom.Up
}

// WalkableFloorNormalFor resolves a floor normal mode. A FloorImpactNormal
// mode without a walkable floor gives the zero vector, as NoFloor does.
func WalkableFloorNormalFor(mode WalkableFloorNormalMode, g GravitySpec, actorUp mgl64.Vec3, floor FloorResult, custom mgl64.Vec3) mgl64.Vec3 {
	switch mode {
	case FloorNormalGravity:
		return g.GravityNormal().Mul(-1)
	case FloorNormalDynamicGravity:
		return g.DynamicGravityNormal().Mul(-1)
	case FloorNormalWorldGravity:
		return g.WorldGravityNormal().Mul(-1)
	case FloorNormalCharacterRotation:
		return actorUp
	case FloorNormalFloorImpactNormal:
		if floor.WalkableFloor {
			return floor.HitResult.ImpactNormal
		}
		return vecgeom.Zero
	case FloorNormalNoFloor:
		return vecgeom.Zero
	default:
		return custom
	}
}

// JumpDirectionFor resolves a jump direction mode
func JumpDirectionFor(mode JumpDirectionMode, g GravitySpec, verticalDirection, custom mgl64.Vec3) mgl64.Vec3 {
	switch mode {
	case JumpGravity:
		return g.GravityNormal().Mul(-1)
	case JumpDynamicGravity:
		return g.DynamicGravityNormal().Mul(-1)
	case JumpWorldGravity:
		return g.WorldGravityNormal().Mul(-1)
	case JumpVerticalDirection:
		return verticalDirection
	default:
		return custom
	}
}

// RotationUpFor resolves the up vector PhysicsRotation levels the body to
func RotationUpFor(mode RotationVerticalMode, g GravitySpec, verticalDirection, custom mgl64.Vec3) mgl64.Vec3 {
	switch mode {
	case RotationUpGravity:
		return g.GravityNormal().Mul(-1)
	case RotationUpWorldGravity:
		return g.WorldGravityNormal().Mul(-1)
	case RotationUpDynamicGravity:
		return g.DynamicGravityNormal().Mul(-1)
	case RotationUpVerticalDirection:
		return verticalDirection
	default:
		return custom
	}
}
