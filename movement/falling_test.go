package movement

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestNudgeOutOfDitch(t *testing.T) {
	settings := DefaultSettings()
	c := capsuleComponent(MovementFalling, mgl64.QuatIdent(), settings)
	up := mgl64.Vec3{1, 0, 0}

	wantUp := settings.JumpZVelocity * 0.25
	maxLateral := 0.25 * settings.MaxWalkSpeed * math.Sqrt(3) / 2

	moved := false
	for range 20 {
		c.State.Velocity = mgl64.Vec3{}
		c.nudgeOutOfDitch(up)

		v := c.State.Velocity
		if !approxEqual(v.Dot(up), wantUp, 1e-9) {
			t.Fatalf("velocity along up = %f, want %f", v.Dot(up), wantUp)
		}
		lateral := v.Sub(up.Mul(v.Dot(up)))
		if lateral.Len() > maxLateral+1e-9 {
			t.Fatalf("lateral velocity %v exceeds %f", lateral, maxLateral)
		}
		if lateral.Len() > 0 {
			moved = true
		}
	}
	if !moved {
		t.Errorf("nudge never added lateral velocity")
	}
}
