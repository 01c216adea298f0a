package movement

import (
	"math"

	"github.com/akmonengine/gravitywalk/vecgeom"
	"github.com/go-gl/mathgl/mgl64"
)

// AddInputVector accumulates a movement request for the next tick, in world
// space, usually with a length up to 1.
func (c *Component) AddInputVector(v mgl64.Vec3) {
	c.State.pendingInput = c.State.pendingInput.Add(v)
}

func (c *Component) consumeInputVector() mgl64.Vec3 {
	v := c.State.pendingInput
	c.State.pendingInput = vecgeom.Zero
	return v
}

// ConstrainInputAcceleration drops the vertical part of the input of a
// walking or falling character.
func (c *Component) ConstrainInputAcceleration(input mgl64.Vec3) mgl64.Vec3 {
	vertical := vecgeom.ProjectOnToNormal(input, c.State.VerticalDirection)
	if !vecgeom.IsNearlyZero(vertical, vecgeom.KINDA_SMALL_NUMBER) && (c.IsMovingOnGround() || c.IsFalling()) {
		return input.Sub(vertical)
	}
	return input
}

// ScaleInputAcceleration turns an input vector into an acceleration
func (c *Component) ScaleInputAcceleration(input mgl64.Vec3) mgl64.Vec3 {
	return vecgeom.ClampToMaxSize(input, 1).Mul(c.Settings.MaxAcceleration)
}

// RequestDirectMove asks for a velocity instead of an acceleration, for path
// following. Walking requests lose their vertical part.
func (c *Component) RequestDirectMove(velocity mgl64.Vec3, forceMaxSpeed bool) {
	if velocity.LenSqr() < vecgeom.KINDA_SMALL_NUMBER {
		return
	}

	switch {
	case c.IsMovingOnGround():
		velocity = vecgeom.Planar(velocity, c.State.VerticalDirection)
	case c.IsFalling():
		velocity = velocity.Sub(vecgeom.ProjectOnTo(velocity, c.Gravity().Gravity()))
	}

	c.State.RequestedVelocity = velocity
	c.State.HasRequestedVelocity = true
	c.State.RequestedMoveWithMaxSpeed = forceMaxSpeed
}

func (c *Component) isExceedingMaxSpeed(maxSpeed float64) bool {
	maxSpeed = math.Max(0, maxSpeed)
	// 1% error tolerance
	return c.State.Velocity.LenSqr() > maxSpeed*maxSpeed*1.01*1.01
}

// CalcVelocity updates the velocity from acceleration, friction and braking
func (c *Component) CalcVelocity(deltaTime, friction, brakingDeceleration float64) {
	if c.hasRootMotion() || deltaTime < MIN_TICK_TIME {
		return
	}

	friction = math.Max(0, friction)
	maxAccel := c.Settings.MaxAcceleration
	maxSpeed := c.MaxSpeed()

	requestedAccel, requestedSpeed, hasRequested := c.applyRequestedMove(deltaTime, maxAccel, maxSpeed, friction)

	accel := c.State.Acceleration
	zeroAcceleration := vecgeom.IsZero(accel)
	velocityOverMax := c.isExceedingMaxSpeed(maxSpeed)

	if (zeroAcceleration && !hasRequested) || velocityOverMax {
		oldVelocity := c.State.Velocity
		brakingFriction := friction
		if c.Settings.UseSeparateBrakingFriction {
			brakingFriction = c.Settings.BrakingFriction
		}
		c.applyVelocityBraking(deltaTime, brakingFriction, brakingDeceleration)

		// don't brake below max speed while accelerating
		if velocityOverMax && c.State.Velocity.LenSqr() < maxSpeed*maxSpeed && accel.Dot(oldVelocity) > 0 {
			c.State.Velocity = vecgeom.SafeNormal(oldVelocity).Mul(maxSpeed)
		}
	} else if !zeroAcceleration {
		// friction turns the velocity toward the acceleration
		accelDir := vecgeom.SafeNormal(accel)
		speed := c.State.Velocity.Len()
		c.State.Velocity = c.State.Velocity.Sub(c.State.Velocity.Sub(accelDir.Mul(speed)).Mul(math.Min(deltaTime*friction, 1)))
	}

	if !zeroAcceleration {
		newMaxInputSpeed := maxSpeed
		if c.isExceedingMaxSpeed(maxSpeed) {
			newMaxInputSpeed = c.State.Velocity.Len()
		}
		c.State.Velocity = vecgeom.ClampToMaxSize(c.State.Velocity.Add(accel.Mul(deltaTime)), newMaxInputSpeed)
	}

	if hasRequested {
		newMaxRequestedSpeed := requestedSpeed
		if c.isExceedingMaxSpeed(requestedSpeed) {
			newMaxRequestedSpeed = c.State.Velocity.Len()
		}
		c.State.Velocity = vecgeom.ClampToMaxSize(c.State.Velocity.Add(requestedAccel.Mul(deltaTime)), newMaxRequestedSpeed)
	}
}

// applyRequestedMove steers toward the requested velocity. It returns the
// acceleration still needed to reach it.
func (c *Component) applyRequestedMove(deltaTime, maxAccel, maxSpeed, friction float64) (mgl64.Vec3, float64, bool) {
	if !c.State.HasRequestedVelocity {
		return vecgeom.Zero, 0, false
	}

	requestedSpeedSq := c.State.RequestedVelocity.LenSqr()
	if requestedSpeedSq < vecgeom.KINDA_SMALL_NUMBER {
		return vecgeom.Zero, 0, false
	}

	requestedSpeed := math.Sqrt(requestedSpeedSq)
	moveDir := c.State.RequestedVelocity.Mul(1 / requestedSpeed)
	if c.State.RequestedMoveWithMaxSpeed {
		requestedSpeed = maxSpeed
	} else {
		requestedSpeed = math.Min(maxSpeed, requestedSpeed)
	}
	moveVelocity := moveDir.Mul(requestedSpeed)

	currentSpeedSq := c.State.Velocity.LenSqr()
	if c.Settings.RequestedMoveUseAcceleration && currentSpeedSq < (requestedSpeed*1.01)*(requestedSpeed*1.01) {
		speed := math.Sqrt(currentSpeedSq)
		c.State.Velocity = c.State.Velocity.Sub(c.State.Velocity.Sub(moveDir.Mul(speed)).Mul(math.Min(deltaTime*friction, 1)))

		accel := moveVelocity.Sub(c.State.Velocity).Mul(1 / deltaTime)
		return vecgeom.ClampToMaxSize(accel, maxAccel), requestedSpeed, true
	}

	// decelerate instantly
	c.State.Velocity = moveVelocity
	return vecgeom.Zero, requestedSpeed, false
}

// applyVelocityBraking slows the velocity down in fixed sub-steps
func (c *Component) applyVelocityBraking(deltaTime, friction, brakingDeceleration float64) {
	if vecgeom.IsZero(c.State.Velocity) || c.hasRootMotion() || deltaTime < MIN_TICK_TIME {
		return
	}

	friction = math.Max(0, friction*math.Max(0, c.Settings.BrakingFrictionFactor))
	brakingDeceleration = math.Max(0, brakingDeceleration)
	zeroFriction := friction == 0
	zeroBraking := brakingDeceleration == 0
	if zeroFriction && zeroBraking {
		return
	}

	oldVelocity := c.State.Velocity
	remaining := deltaTime
	maxTimeStep := mgl64.Clamp(c.Settings.BrakingSubStepTime, 1.0/75.0, 1.0/20.0)

	revAccel := vecgeom.Zero
	if !zeroBraking {
		revAccel = vecgeom.SafeNormal(c.State.Velocity).Mul(-brakingDeceleration)
	}

	for remaining >= MIN_TICK_TIME {
		dt := remaining
		if remaining > maxTimeStep && !zeroFriction {
			dt = math.Min(maxTimeStep, remaining*0.5)
		}
		remaining -= dt

		c.State.Velocity = c.State.Velocity.Add(c.State.Velocity.Mul(-friction).Add(revAccel).Mul(dt))

		// don't reverse direction
		if c.State.Velocity.Dot(oldVelocity) <= 0 {
			c.State.Velocity = vecgeom.Zero
			return
		}
	}

	speedSq := c.State.Velocity.LenSqr()
	if speedSq <= vecgeom.KINDA_SMALL_NUMBER || (!zeroBraking && speedSq <= BRAKE_TO_STOP_VELOCITY*BRAKE_TO_STOP_VELOCITY) {
		c.State.Velocity = vecgeom.Zero
	}
}

// simulationTimeStep splits a long remaining time into sub-steps
func (c *Component) simulationTimeStep(remaining float64, iterations int) float64 {
	if remaining > c.Settings.MaxSimulationTimeStep && iterations < c.Settings.MaxSimulationIterations {
		// split evenly rather than leave a tiny last step
		remaining = math.Min(c.Settings.MaxSimulationTimeStep, remaining*0.5)
	}
	return math.Max(MIN_TICK_TIME, remaining)
}

// NewFallVelocity integrates gravity over deltaTime, capped at the terminal
// velocity along the gravity direction.
func (c *Component) NewFallVelocity(initial, gravity mgl64.Vec3, deltaTime float64) mgl64.Vec3 {
	result := initial
	if deltaTime <= 0 {
		return result
	}

	result = result.Add(gravity.Mul(deltaTime))
	gravityDir := vecgeom.SafeNormal(gravity)
	terminal := math.Abs(c.Settings.TerminalVelocity)
	if result.Dot(gravityDir) > terminal {
		result = vecgeom.Planar(result, gravityDir).Add(gravityDir.Mul(terminal))
	}

	return result
}

// Launch replaces the velocity at the start of the next movement, adding the
// current planar and vertical velocity unless overridden.
func (c *Component) Launch(velocity mgl64.Vec3, planarOverride, verticalOverride bool) {
	axis := c.State.VerticalDirection
	final := velocity
	if !planarOverride {
		final = final.Add(vecgeom.Planar(c.State.Velocity, axis))
	}
	if !verticalOverride {
		final = final.Add(vecgeom.ProjectOnToNormal(c.State.Velocity, axis))
	}
	c.State.PendingLaunch = final
}

// AddImpulse applies an impulse, or a direct velocity change, next movement
func (c *Component) AddImpulse(impulse mgl64.Vec3, velocityChange bool) {
	if vecgeom.IsZero(impulse) || c.State.Mode == MovementNone {
		return
	}
	if !velocityChange {
		if c.Settings.Mass <= vecgeom.SMALL_NUMBER {
			return
		}
		impulse = impulse.Mul(1 / c.Settings.Mass)
	}
	c.State.PendingImpulse = c.State.PendingImpulse.Add(impulse)
}

// AddForce applies a force during the next movement
func (c *Component) AddForce(force mgl64.Vec3) {
	if vecgeom.IsZero(force) || c.State.Mode == MovementNone || c.Settings.Mass <= vecgeom.SMALL_NUMBER {
		return
	}
	c.State.PendingForce = c.State.PendingForce.Add(force.Mul(1 / c.Settings.Mass))
}

// ClearAccumulatedForces drops pending impulses, forces and launches
func (c *Component) ClearAccumulatedForces() {
	c.State.PendingImpulse = vecgeom.Zero
	c.State.PendingForce = vecgeom.Zero
	c.State.PendingLaunch = vecgeom.Zero
}

// applyAccumulatedForces lifts off a walking character when a vertical push
// beats gravity, then adds the pending impulses and forces.
func (c *Component) applyAccumulatedForces(deltaTime float64) {
	axis := c.State.VerticalDirection
	verticalImpulse := vecgeom.ProjectOnToNormal(c.State.PendingImpulse, axis)
	verticalForce := vecgeom.ProjectOnToNormal(c.State.PendingForce, axis)

	if !vecgeom.IsZero(verticalImpulse) || !vecgeom.IsZero(verticalForce) {
		gravity := c.Gravity().Gravity()
		if c.IsMovingOnGround() && verticalImpulse.Mul(1+deltaTime).Add(gravity.Mul(deltaTime)).LenSqr() > vecgeom.SMALL_NUMBER {
			c.SetMovementMode(MovementFalling)
		}
	}

	c.State.Velocity = c.State.Velocity.Add(c.State.PendingImpulse).Add(c.State.PendingForce.Mul(deltaTime))
	c.State.PendingImpulse = vecgeom.Zero
	c.State.PendingForce = vecgeom.Zero
}

func (c *Component) handlePendingLaunch() bool {
	if vecgeom.IsZero(c.State.PendingLaunch) || !c.HasValidData() {
		return false
	}
	c.State.Velocity = c.State.PendingLaunch
	c.SetMovementMode(MovementFalling)
	c.State.PendingLaunch = vecgeom.Zero
	c.State.ForceNextFloorCheck = true

	return true
}

func (c *Component) hasRootMotion() bool {
	return c.RootMotion != nil && c.RootMotion.HasRootMotion()
}

// applyRootMotionToVelocity replaces the velocity with the root motion one.
// Falling keeps its gravity part; a walking character lifted by root motion
// beyond what gravity takes this tick starts falling.
func (c *Component) applyRootMotionToVelocity(deltaTime float64) {
	if !c.hasRootMotion() || deltaTime <= 0 {
		return
	}

	old := c.State.Velocity
	velocity := c.RootMotion.RootMotionVelocity()
	if c.IsFalling() {
		gravity := c.Gravity().Gravity()
		velocity = velocity.Sub(vecgeom.ProjectOnTo(velocity, gravity)).Add(vecgeom.ProjectOnTo(old, gravity))
	}
	c.State.Velocity = velocity

	applied := velocity.Sub(old).Dot(c.State.VerticalDirection)
	if applied != 0 && c.IsMovingOnGround() {
		liftoffBound := math.Max(c.Settings.GravityZ*c.Settings.GravityScale*deltaTime, vecgeom.SMALL_NUMBER)
		if applied > liftoffBound {
			c.SetMovementMode(MovementFalling)
		}
	}
}

// maintainHorizontalGroundVelocity removes the vertical velocity, keeping the
// speed when MaintainHorizontalGroundVelocity is off.
func (c *Component) maintainHorizontalGroundVelocity() {
	vertical := vecgeom.ProjectOnToNormal(c.State.Velocity, c.State.VerticalDirection)
	if vecgeom.IsNearlyZero(vertical, vecgeom.KINDA_SMALL_NUMBER) {
		return
	}

	if c.Settings.MaintainHorizontalGroundVelocity {
		c.State.Velocity = c.State.Velocity.Sub(vertical)
		return
	}
	speed := c.State.Velocity.Len()
	c.State.Velocity = vecgeom.SafeNormal(c.State.Velocity.Sub(vertical)).Mul(speed)
}
