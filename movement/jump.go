package movement

import (
	"math"
	"math/rand/v2"

	"github.com/akmonengine/gravitywalk/actor"
	"github.com/akmonengine/gravitywalk/vecgeom"
	"github.com/go-gl/mathgl/mgl64"
)

// Jump presses the jump input, applied during the next tick
func (c *Component) Jump() {
	c.State.PressedJump = true
	c.State.JumpKeyHoldTime = 0
}

// StopJumping releases the jump input
func (c *Component) StopJumping() {
	c.State.PressedJump = false
	c.ResetJumpState()
}

// ResetJumpState forgets the current jump. The jump count survives while
// falling so air jumps stay limited by JumpMaxCount.
func (c *Component) ResetJumpState() {
	c.State.PressedJump = false
	c.State.WasJumping = false
	c.State.JumpKeyHoldTime = 0
	c.State.JumpForceTimeRemaining = 0

	if !c.IsFalling() {
		c.State.JumpCurrentCount = 0
	}
}

// IsJumpProvidingForce is true while the held jump still pushes
func (c *Component) IsJumpProvidingForce() bool {
	return c.State.JumpForceTimeRemaining > 0
}

// CanJump tells whether a jump may start or continue now
func (c *Component) CanJump() bool {
	return !c.State.IsCrouched && c.jumpIsAllowed()
}

func (c *Component) jumpIsAllowed() bool {
	if c.State.WantsToCrouch || !(c.IsMovingOnGround() || c.IsFalling()) {
		return false
	}

	maxHoldTime := c.Settings.JumpMaxHoldTime
	maxCount := c.Settings.JumpMaxCount
	count := c.State.JumpCurrentCount

	if !c.State.WasJumping || maxHoldTime <= 0 {
		if count == 0 && c.IsFalling() {
			// walking off a ledge spends the first jump
			return count+1 < maxCount
		}
		return count < maxCount
	}

	// the jump is held, keep pushing within the hold window
	held := c.State.PressedJump && c.State.JumpKeyHoldTime < maxHoldTime
	return held && (count < maxCount || (c.State.WasJumping && count == maxCount))
}

// CheckJumpInput starts or continues a jump when the input is pressed
func (c *Component) CheckJumpInput() {
	if !c.State.PressedJump {
		return
	}

	if c.State.JumpCurrentCount == 0 && c.IsFalling() {
		c.State.JumpCurrentCount++
	}

	didJump := c.CanJump() && c.DoJump()
	if didJump && !c.State.WasJumping {
		c.State.JumpCurrentCount++
		c.State.JumpForceTimeRemaining = c.Settings.JumpMaxHoldTime
		if c.Notifier != nil {
			c.Notifier.Jumped()
		}
	}
	c.State.WasJumping = didJump
}

// ClearJumpInput ends the press once held for JumpMaxHoldTime
func (c *Component) ClearJumpInput(deltaTime float64) {
	if c.State.PressedJump {
		c.State.JumpKeyHoldTime += deltaTime
		if c.State.JumpKeyHoldTime >= c.Settings.JumpMaxHoldTime {
			c.State.PressedJump = false
		}
		return
	}

	c.State.JumpForceTimeRemaining = 0
	c.State.WasJumping = false
}

// DoJump sets the velocity along the jump direction to at least
// JumpZVelocity and starts falling.
func (c *Component) DoJump() bool {
	jumpNormal := c.JumpDirection()
	if !vecgeom.IsNormalized(jumpNormal) {
		return false
	}

	vertical := c.State.Velocity.Dot(jumpNormal)
	c.State.Velocity = c.State.Velocity.Sub(jumpNormal.Mul(vertical)).Add(jumpNormal.Mul(math.Max(vertical, c.Settings.JumpZVelocity)))
	c.SetMovementMode(MovementFalling)
	c.UpdateVerticalDirection()
	c.State.NotifyApex = true

	return true
}

// JumpOff pushes the character off a base it cannot stand on
func (c *Component) JumpOff(base *actor.Body) {
	if c.State.performingJumpOff {
		return
	}
	c.State.performingJumpOff = true
	defer func() { c.State.performingJumpOff = false }()

	axis := c.State.VerticalDirection
	maxSpeed := c.MaxSpeed() * 0.85
	c.State.Velocity = c.State.Velocity.Add(c.bestDirectionOff(base).Mul(maxSpeed))

	if vecgeom.Planar(c.State.Velocity, axis).Len() > maxSpeed {
		c.State.Velocity = vecgeom.SafeNormal(c.State.Velocity).Mul(maxSpeed)
	}
	c.State.Velocity = vecgeom.Planar(c.State.Velocity, axis).Add(axis.Mul(c.Settings.JumpOffJumpZFactor * c.Settings.JumpZVelocity))
	c.SetMovementMode(MovementFalling)
}

// bestDirectionOff is a random planar direction tilted up. A body that is
// off-center gives the direction away from its center.
func (c *Component) bestDirectionOff(base *actor.Body) mgl64.Vec3 {
	axis := c.State.VerticalDirection

	away := vecgeom.Zero
	if base != nil {
		away = vecgeom.PlanarSafeNormal(c.Location().Sub(base.Center()), axis)
	}
	if vecgeom.IsZero(away) {
		forward := vecgeom.PlanarSafeNormal(c.ActorForward(), axis)
		if vecgeom.IsZero(forward) {
			forward = vecgeom.PlanarSafeNormal(vecgeom.AxisY(c.Rotation()), axis)
		}
		away = vecgeom.RotateAngleAxis(forward, rand.Float64()*360, axis)
	}

	return vecgeom.SafeNormal(away.Add(axis.Mul(0.5)))
}
