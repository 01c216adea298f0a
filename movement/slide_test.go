package movement

import (
	"testing"

	"github.com/akmonengine/gravitywalk/actor"
	"github.com/akmonengine/gravitywalk/vecgeom"
	"github.com/go-gl/mathgl/mgl64"
)

// openSpace never blocks anything
type openSpace struct{}

func (openSpace) SweepCapsule(_ CapsuleShape, start, end mgl64.Vec3, _ mgl64.Quat, _ QueryParams) HitResult {
	return NoHit(start, end)
}

func (openSpace) LineTrace(start, end mgl64.Vec3, _ QueryParams) HitResult {
	return NoHit(start, end)
}

func (openSpace) OverlapTest(CapsuleShape, mgl64.Vec3, mgl64.Quat, QueryParams) bool {
	return false
}

func capsuleComponent(mode MovementMode, rotation mgl64.Quat, settings Settings) *Component {
	body := actor.NewBody(
		actor.NewTransformAt(mgl64.Vec3{0, 0, 100}, rotation),
		&actor.Capsule{Radius: 34, HalfHeight: 88},
		actor.MobilityKinematic,
	)
	c := NewComponent(body, openSpace{}, settings)
	c.State.Mode = mode
	return c
}

func wallHit(normal mgl64.Vec3, time float64) HitResult {
	return HitResult{Blocking: true, Time: time, Normal: normal, ImpactNormal: normal}
}

func TestGroundSlideNormal(t *testing.T) {
	onFloor := FloorResult{BlockingHit: true, WalkableFloor: true, FloorDist: 1, HitResult: wallHit(vecgeom.Up, 0)}
	rampFloor := FloorResult{BlockingHit: true, WalkableFloor: true, FloorDist: 1, HitResult: wallHit(mgl64.Vec3{0.6, 0, 0.8}, 0)}

	tests := []struct {
		name   string
		floor  FloorResult
		delta  mgl64.Vec3
		normal mgl64.Vec3
		want   mgl64.Vec3
	}{
		{
			name:   "walkable ramp kept",
			floor:  onFloor,
			delta:  mgl64.Vec3{100, 0, 0},
			normal: mgl64.Vec3{-0.6, 0, 0.8},
			want:   mgl64.Vec3{-0.6, 0, 0.8},
		},
		{
			name:   "unwalkable slope flattened",
			floor:  onFloor,
			delta:  mgl64.Vec3{100, 0, 0},
			normal: mgl64.Vec3{-0.8, 0, 0.6},
			want:   mgl64.Vec3{-0.8, 0, 0},
		},
		{
			// the axis part is added again, not removed
			name:   "upper capsule impact doubles the axis part",
			floor:  onFloor,
			delta:  mgl64.Vec3{100, 0, 0},
			normal: mgl64.Vec3{-0.6, 0, -0.8},
			want:   mgl64.Vec3{-0.6, 0, -1.6},
		},
		{
			name:   "upper capsule impact against an opposing floor",
			floor:  rampFloor,
			delta:  mgl64.Vec3{-100, 0, 0},
			normal: mgl64.Vec3{0, 0, -1},
			want:   mgl64.Vec3{-0.6, 0, -1.6},
		},
		{
			name:   "upper capsule impact while away from the floor",
			floor:  FloorResult{BlockingHit: true, FloorDist: 5, HitResult: wallHit(vecgeom.Up, 0)},
			delta:  mgl64.Vec3{100, 0, 0},
			normal: mgl64.Vec3{-0.6, 0, -0.8},
			want:   mgl64.Vec3{-0.6, 0, -0.8},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := capsuleComponent(MovementWalking, mgl64.QuatIdent(), DefaultSettings())
			c.State.CurrentFloor = tt.floor

			got := c.groundSlideNormal(tt.delta, tt.normal, wallHit(tt.normal, 0))
			if !vecNear(got, tt.want, 1e-9) {
				t.Errorf("groundSlideNormal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTwoWallAdjust(t *testing.T) {
	settings := DefaultSettings()
	maxStep := settings.MaxStepHeight

	tests := []struct {
		name         string
		mode         MovementMode
		delta        mgl64.Vec3
		hit          HitResult
		oldHitNormal mgl64.Vec3
		want         mgl64.Vec3
	}{
		{
			name:         "corner follows the crease",
			mode:         MovementFalling,
			delta:        mgl64.Vec3{10, 10, -50},
			hit:          wallHit(mgl64.Vec3{0, -1, 0}, 0.5),
			oldHitNormal: mgl64.Vec3{-1, 0, 0},
			want:         mgl64.Vec3{0, 0, -25},
		},
		{
			name:         "second wall opposing the move stops it",
			mode:         MovementFalling,
			delta:        mgl64.Vec3{100, 0, 0},
			hit:          wallHit(mgl64.Vec3{-1, 0, 0}, 0),
			oldHitNormal: mgl64.Vec3{-1, 0.01, 0}.Normalize(),
			want:         vecgeom.Zero,
		},
		{
			// planar speed kept up the ramp, then capped by the step height
			name:         "walkable ramp on the ground",
			mode:         MovementWalking,
			delta:        mgl64.Vec3{100, 0, 0},
			hit:          wallHit(mgl64.Vec3{-0.6, 0, 0.8}, 0),
			oldHitNormal: mgl64.Vec3{-0.8, 0, 0.6},
			want:         mgl64.Vec3{100, 0, 75}.Mul(maxStep / 48),
		},
		{
			name:         "unwalkable slope on the ground acts as a wall",
			mode:         MovementWalking,
			delta:        mgl64.Vec3{100, 0, 0},
			hit:          wallHit(mgl64.Vec3{-0.8, 0, 0.6}, 0),
			oldHitNormal: mgl64.Vec3{-0.6, 0, 0.8},
			want:         mgl64.Vec3{36, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := capsuleComponent(tt.mode, mgl64.QuatIdent(), settings)

			got := c.TwoWallAdjust(tt.delta, tt.hit, tt.oldHitNormal)
			if !vecNear(got, tt.want, 1e-6) {
				t.Errorf("TwoWallAdjust() = %v, want %v", got, tt.want)
			}
		})
	}
}
