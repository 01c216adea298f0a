package movement

import (
	"github.com/akmonengine/gravitywalk/vecgeom"
	"github.com/go-gl/mathgl/mgl64"
)

// rotationTolerance in degrees, per rotator component
const rotationTolerance = 1e-3

// ComputeOrientToMovementRotation faces the acceleration, the ground velocity
// or the requested velocity, keeping the current up axis. Without any of
// them the current rotation is kept.
func (c *Component) ComputeOrientToMovementRotation(current mgl64.Quat) mgl64.Quat {
	z := vecgeom.AxisZ(current)

	x := c.State.Acceleration
	if vecgeom.IsNearlyZero(x, vecgeom.KINDA_SMALL_NUMBER) && c.IsMovingOnGround() {
		x = c.State.Velocity
	}

	if x.LenSqr() > vecgeom.KINDA_SMALL_NUMBER {
		return vecgeom.MakeFromZX(z, vecgeom.SafeNormal(x))
	}
	if c.State.HasRequestedVelocity && c.State.RequestedVelocity.LenSqr() > vecgeom.KINDA_SMALL_NUMBER {
		return vecgeom.MakeFromZX(z, vecgeom.SafeNormal(c.State.RequestedVelocity))
	}

	return current
}

// shouldRemainVertical re-levels the body on its up axis while walking or falling
func (c *Component) shouldRemainVertical() bool {
	return c.IsMovingOnGround() || c.IsFalling()
}

// PhysicsRotation turns the body toward the movement or the view rotation,
// re-leveled on the configured up axis, by RotationAdjustIntensity per second.
func (c *Component) PhysicsRotation(deltaTime float64) {
	if !(c.Settings.OrientRotationToMovement || c.Settings.UseControllerDesiredRotation) || !c.HasValidData() {
		return
	}

	current := c.Rotation()
	var desired mgl64.Quat
	switch {
	case c.Settings.OrientRotationToMovement:
		desired = c.ComputeOrientToMovementRotation(current)
	case c.View != nil:
		desired = c.View.ViewRotation().Quat()
	default:
		return
	}

	if c.shouldRemainVertical() {
		up := vecgeom.SafeNormal(RotationUpFor(c.Settings.PhysicsRotationVerticalDirectionMode, c.Gravity(), c.State.VerticalDirection, c.Settings.CustomPhysicsRotationVerticalDirection))
		if vecgeom.IsZero(up) {
			// no up axis to level on, e.g. a zero dynamic gravity
			return
		}
		desired = vecgeom.MakeFromZX(up, vecgeom.AxisX(desired))
	}

	currentRotator := vecgeom.RotatorFromQuat(current).Normalize()
	desiredRotator := vecgeom.RotatorFromQuat(desired).Normalize()
	if currentRotator.Equals(desiredRotator, rotationTolerance) {
		return
	}

	result := vecgeom.SlerpToward(current, desired, deltaTime, c.Settings.RotationAdjustIntensity)
	c.moveUpdated(vecgeom.Zero, result, false)
}
