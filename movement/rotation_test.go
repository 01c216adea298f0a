package movement

import (
	"testing"

	"github.com/akmonengine/gravitywalk/vecgeom"
	"github.com/go-gl/mathgl/mgl64"
)

func TestPhysicsRotation_DynamicGravityUp(t *testing.T) {
	tests := []struct {
		name     string
		dynamic  mgl64.Vec3
		wantKept bool
	}{
		{"zero dynamic gravity keeps the rotation", mgl64.Vec3{}, true},
		{"dynamic gravity levels the body", mgl64.Vec3{-980, 0, 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := DefaultSettings()
			settings.OrientRotationToMovement = true
			settings.PhysicsRotationVerticalDirectionMode = RotationUpDynamicGravity
			settings.DynamicGravity = tt.dynamic

			start := vecgeom.NewRotator(20, 30, 10).Quat()
			c := capsuleComponent(MovementFalling, start, settings)
			c.State.Acceleration = mgl64.Vec3{0, 1000, 0}

			c.PhysicsRotation(1.0 / 60)

			angle := vecgeom.QuatAngleDeg(start, c.Rotation())
			if tt.wantKept && angle > 1e-4 {
				t.Errorf("rotation turned by %f degrees, want it kept", angle)
			}
			if !tt.wantKept && angle < 1 {
				t.Errorf("rotation turned by %f degrees, want it leveled", angle)
			}
		})
	}
}
