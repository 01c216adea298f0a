package movement

import (
	"math"
	"testing"

	"github.com/akmonengine/gravitywalk/vecgeom"
	"github.com/go-gl/mathgl/mgl64"
)

func approxEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func vecNear(a, b mgl64.Vec3, tolerance float64) bool {
	return vecgeom.NearlyEqual(a, b, tolerance)
}

func TestResolveVerticalDirection(t *testing.T) {
	tests := []struct {
		name       string
		candidates []mgl64.Vec3
		want       mgl64.Vec3
	}{
		{"no candidate", nil, vecgeom.Up},
		{"first unit wins", []mgl64.Vec3{{1, 0, 0}, {0, 1, 0}}, mgl64.Vec3{1, 0, 0}},
		{"zero skipped", []mgl64.Vec3{{}, {0, -1, 0}}, mgl64.Vec3{0, -1, 0}},
		{"non unit skipped", []mgl64.Vec3{{0, 0, 2}, {0, 0, -1}}, mgl64.Vec3{0, 0, -1}},
		{"all invalid", []mgl64.Vec3{{}, {3, 0, 0}}, vecgeom.Up},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveVerticalDirection(tt.candidates...)
			if !vecNear(got, tt.want, 1e-9) {
				t.Errorf("ResolveVerticalDirection() = %v, want %v", got, tt.want)
			}
			if !approxEqual(got.Len(), 1, 1e-9) {
				t.Errorf("|%v| = %f, want 1", got, got.Len())
			}
		})
	}
}

func TestGravitySpec(t *testing.T) {
	tests := []struct {
		name string
		g    GravitySpec
		want mgl64.Vec3
	}{
		{"world only", GravitySpec{WorldGravityZ: -980}, mgl64.Vec3{0, 0, -980}},
		{"sum", GravitySpec{WorldGravityZ: -980, DynamicGravity: mgl64.Vec3{100, 0, 0}}, mgl64.Vec3{100, 0, -980}},
		{"dynamic overrides", GravitySpec{WorldGravityZ: -980, DynamicGravity: mgl64.Vec3{100, 0, 0}, IgnoreWorldGravityIfDynamic: true}, mgl64.Vec3{100, 0, 0}},
		{"override without dynamic", GravitySpec{WorldGravityZ: -980, IgnoreWorldGravityIfDynamic: true}, mgl64.Vec3{0, 0, -980}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.g.Gravity(); !vecNear(got, tt.want, 1e-9) {
				t.Errorf("Gravity() = %v, want %v", got, tt.want)
			}
		})
	}

	if got := (GravitySpec{WorldGravityZ: 0}).WorldGravityNormal(); got != vecgeom.Up {
		t.Errorf("WorldGravityNormal() of a zero gravity = %v, want up", got)
	}
}

func TestWalkableFloorNormalFor(t *testing.T) {
	g := GravitySpec{WorldGravityZ: -980, DynamicGravity: mgl64.Vec3{-500, 0, 0}, IgnoreWorldGravityIfDynamic: true}
	actorUp := mgl64.Vec3{0, 1, 0}
	custom := mgl64.Vec3{0, 0, -1}
	walkable := FloorResult{WalkableFloor: true, HitResult: HitResult{ImpactNormal: mgl64.Vec3{0, 0.6, 0.8}}}

	tests := []struct {
		name  string
		mode  WalkableFloorNormalMode
		floor FloorResult
		want  mgl64.Vec3
	}{
		{"gravity", FloorNormalGravity, FloorResult{}, mgl64.Vec3{1, 0, 0}},
		{"dynamic gravity", FloorNormalDynamicGravity, FloorResult{}, mgl64.Vec3{1, 0, 0}},
		{"world gravity", FloorNormalWorldGravity, FloorResult{}, vecgeom.Up},
		{"character rotation", FloorNormalCharacterRotation, FloorResult{}, actorUp},
		{"impact normal", FloorNormalFloorImpactNormal, walkable, mgl64.Vec3{0, 0.6, 0.8}},
		{"impact normal without floor", FloorNormalFloorImpactNormal, FloorResult{}, vecgeom.Zero},
		{"no floor", FloorNormalNoFloor, walkable, vecgeom.Zero},
		{"custom", FloorNormalCustom, FloorResult{}, custom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WalkableFloorNormalFor(tt.mode, g, actorUp, tt.floor, custom)
			if !vecNear(got, tt.want, 1e-9) {
				t.Errorf("WalkableFloorNormalFor(%v) = %v, want %v", tt.mode, got, tt.want)
			}
		})
	}
}

func TestJumpDirectionFor(t *testing.T) {
	g := GravitySpec{WorldGravityZ: -980}
	vertical := mgl64.Vec3{1, 0, 0}
	custom := mgl64.Vec3{0, 1, 0}

	tests := []struct {
		mode JumpDirectionMode
		want mgl64.Vec3
	}{
		{JumpGravity, vecgeom.Up},
		{JumpWorldGravity, vecgeom.Up},
		{JumpDynamicGravity, vecgeom.Zero},
		{JumpVerticalDirection, vertical},
		{JumpCustom, custom},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			if got := JumpDirectionFor(tt.mode, g, vertical, custom); !vecNear(got, tt.want, 1e-9) {
				t.Errorf("JumpDirectionFor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSlopeBoostRemainder(t *testing.T) {
	v := mgl64.Vec3{3, -4, 5}

	// cardinal axes remove exactly the axis part
	for _, axis := range []mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}} {
		got := slopeBoostRemainder(v, axis)
		want := vecgeom.Planar(v, axis)
		if !vecNear(got, want, 1e-12) {
			t.Errorf("slopeBoostRemainder(%v, %v) = %v, want %v", v, axis, got, want)
		}
	}

	// a diagonal axis keeps part of it
	diagonal := mgl64.Vec3{1, 1, 0}.Normalize()
	got := slopeBoostRemainder(v, diagonal)
	if vecNear(got, vecgeom.Planar(v, diagonal), 1e-3) {
		t.Errorf("slopeBoostRemainder(%v, %v) = %v, expected it to differ from the projection", v, diagonal, got)
	}
}

func TestPenetrationAdjustment(t *testing.T) {
	tests := []struct {
		name string
		hit  HitResult
		want mgl64.Vec3
	}{
		{"not penetrating", HitResult{Normal: vecgeom.Up}, vecgeom.Zero},
		{"with depth", HitResult{StartPenetrating: true, PenetrationDepth: 2, Normal: vecgeom.Up}, mgl64.Vec3{0, 0, 2 + PENETRATION_PULLBACK}},
		{"unknown depth", HitResult{StartPenetrating: true, Normal: mgl64.Vec3{1, 0, 0}}, mgl64.Vec3{2 * PENETRATION_PULLBACK, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := penetrationAdjustment(tt.hit); !vecNear(got, tt.want, 1e-12) {
				t.Errorf("penetrationAdjustment() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsWithinEdgeTolerance(t *testing.T) {
	center := mgl64.Vec3{0, 0, 100}

	tests := []struct {
		name   string
		axis   mgl64.Vec3
		impact mgl64.Vec3
		want   bool
	}{
		{"under the center", vecgeom.Up, mgl64.Vec3{0, 0, 0}, true},
		{"inside the rim", vecgeom.Up, mgl64.Vec3{33, 0, 0}, true},
		{"on the rim", vecgeom.Up, mgl64.Vec3{33.9, 0, 0}, false},
		{"sideways axis", mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 0, 100}, true},
		{"sideways axis far", mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 0, 40}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsWithinEdgeTolerance(tt.axis, center, tt.impact, 34); got != tt.want {
				t.Errorf("IsWithinEdgeTolerance() = %v, want %v", got, tt.want)
			}
		})
	}
}
