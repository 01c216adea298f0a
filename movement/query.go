package movement

import (
	"slices"

	"github.com/akmonengine/gravitywalk/actor"
	"github.com/akmonengine/gravitywalk/vecgeom"
	"github.com/go-gl/mathgl/mgl64"
)

// CapsuleShape is the collision volume used by queries, its axis is the local
// Z axis of the query rotation.
type CapsuleShape struct {
	Radius     float64
	HalfHeight float64
}

func (s CapsuleShape) IsNearlyZero() bool {
	return s.Radius < vecgeom.KINDA_SMALL_NUMBER && s.HalfHeight < vecgeom.KINDA_SMALL_NUMBER
}

// QueryParams filter the bodies a query can hit
type QueryParams struct {
	Channel      actor.Channel
	IgnoreBodies []int
	// IgnoreInitialOverlapWhenMovingOut drops start penetrating hits when the
	// sweep direction leaves the penetrated body.
	IgnoreInitialOverlapWhenMovingOut bool
}

func (p QueryParams) Ignores(id int) bool {
	return slices.Contains(p.IgnoreBodies, id)
}

// HitResult describes the first blocking contact of a sweep or a trace
type HitResult struct {
	Blocking         bool
	StartPenetrating bool
	// Time is the fraction of the query travelled before the contact, in [0, 1]
	Time     float64
	Distance float64
	// Location is the capsule center at the contact
	Location    mgl64.Vec3
	ImpactPoint mgl64.Vec3
	// Normal is the capsule surface normal at the contact, ImpactNormal the
	// normal of the surface that was hit.
	Normal           mgl64.Vec3
	ImpactNormal     mgl64.Vec3
	PenetrationDepth float64
	TraceStart       mgl64.Vec3
	TraceEnd         mgl64.Vec3
	Body             *actor.Body
}

// NoHit is the result of a query that travelled freely from start to end
func NoHit(start, end mgl64.Vec3) HitResult {
	return HitResult{
		Time:       1,
		Location:   end,
		TraceStart: start,
		TraceEnd:   end,
		Distance:   end.Sub(start).Len(),
	}
}

// IsValidBlockingHit is a blocking hit that did not start in penetration
func (h HitResult) IsValidBlockingHit() bool {
	return h.Blocking && !h.StartPenetrating
}

// CollisionQuery is the scene the component moves in
type CollisionQuery interface {
	SweepCapsule(shape CapsuleShape, start, end mgl64.Vec3, rotation mgl64.Quat, params QueryParams) HitResult
	LineTrace(start, end mgl64.Vec3, params QueryParams) HitResult
	OverlapTest(shape CapsuleShape, location mgl64.Vec3, rotation mgl64.Quat, params QueryParams) bool
}
