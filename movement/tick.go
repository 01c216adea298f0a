package movement

import (
	"github.com/akmonengine/gravitywalk/vecgeom"
	"github.com/go-gl/mathgl/mgl64"
)

// Snapshot is a read-only copy of the state worth showing after a tick
type Snapshot struct {
	Location          mgl64.Vec3
	Rotation          mgl64.Quat
	Velocity          mgl64.Vec3
	Mode              MovementMode
	VerticalDirection mgl64.Vec3
	Floor             FloorResult
	IsCrouched        bool
}

func (c *Component) Snapshot() Snapshot {
	return Snapshot{
		Location:          c.Location(),
		Rotation:          c.Rotation(),
		Velocity:          c.State.Velocity,
		Mode:              c.State.Mode,
		VerticalDirection: c.State.VerticalDirection,
		Floor:             c.State.CurrentFloor,
		IsCrouched:        c.State.IsCrouched,
	}
}

// Tick runs one movement update of deltaTime seconds. It resolves the
// vertical axis, turns the pending input into an acceleration and moves the
// body. A simulated proxy replays the replicated state instead.
func (c *Component) Tick(deltaTime float64) {
	if !c.HasValidData() || deltaTime < MIN_TICK_TIME {
		return
	}

	c.UpdateVerticalDirection()

	if c.Replication != nil && c.Replication.IsSimulatedProxy() {
		c.SimulateMovement(deltaTime)
		return
	}

	input := c.consumeInputVector()
	c.CheckJumpInput()
	c.State.Acceleration = c.ScaleInputAcceleration(c.ConstrainInputAcceleration(input))

	c.PerformMovement(deltaTime)

	c.ClearJumpInput(deltaTime)
}

// PerformMovement carries the body with its base, applies pending forces and
// the crouch request, then runs the stepper of the current mode and rotates.
func (c *Component) PerformMovement(deltaTime float64) {
	if !c.HasValidData() {
		return
	}
	if c.State.Mode == MovementNone {
		c.ClearAccumulatedForces()
		return
	}

	c.updateBasedMovement()

	c.applyAccumulatedForces(deltaTime)
	c.updateCrouchBeforeMovement()
	c.handlePendingLaunch()
	c.ClearAccumulatedForces()

	c.startNewPhysics(deltaTime, 0)
	if !c.HasValidData() {
		return
	}

	c.updateCrouchAfterMovement()
	if !c.hasRootMotion() {
		c.PhysicsRotation(deltaTime)
	}

	// the requested velocity lasts one tick
	c.State.HasRequestedVelocity = false
	c.saveBaseLocation()
}

// startNewPhysics runs the stepper of the current mode
func (c *Component) startNewPhysics(deltaTime float64, iterations int) {
	if deltaTime < MIN_TICK_TIME || iterations >= c.Settings.MaxSimulationIterations || !c.HasValidData() {
		return
	}

	switch c.State.Mode {
	case MovementWalking:
		c.PhysWalking(deltaTime, iterations)
	case MovementFalling:
		c.PhysFalling(deltaTime, iterations)
	case MovementSwimming:
		if c.Swimming != nil {
			c.Swimming.Phys(c, deltaTime, iterations)
		}
	case MovementCustom:
		if c.Custom != nil {
			c.Custom.Phys(c, deltaTime, iterations)
		}
	}
}

// updateBasedMovement moves the body by the displacement of a movable base
// since the last tick.
func (c *Component) updateBasedMovement() {
	base := c.State.Base
	if base == nil || !base.IsMovable() {
		return
	}

	delta := base.Transform.Position.Sub(c.State.BaseLocation)
	if vecgeom.IsNearlyZero(delta, vecgeom.SMALL_NUMBER) {
		return
	}

	// the base itself must not block the carry
	params := c.queryParams()
	params.IgnoreBodies = append(params.IgnoreBodies, base.ID)
	start := c.Location()
	hit := c.Query.SweepCapsule(c.shape(), start, start.Add(delta), c.Rotation(), params)
	if hit.Blocking && !hit.StartPenetrating {
		c.Body.MoveTo(hit.Location, c.Rotation())
		c.handleImpact(hit)
	} else {
		c.Body.MoveTo(start.Add(delta), c.Rotation())
	}

	c.State.BaseLocation = base.Transform.Position
	c.State.ForceNextFloorCheck = true
}

func (c *Component) saveBaseLocation() {
	if c.State.Base != nil {
		c.State.BaseLocation = c.State.Base.Transform.Position
	}
}

// MoveSmooth moves by velocity without physics: along the floor when
// walking, otherwise a swept move sliding along what it hits.
func (c *Component) MoveSmooth(velocity mgl64.Vec3, deltaTime float64, stepDown *StepDownResult) {
	if !c.HasValidData() {
		return
	}

	if c.State.Mode == MovementCustom {
		if c.Custom != nil {
			c.Custom.Phys(c, deltaTime, 0)
		}
		return
	}

	delta := velocity.Mul(deltaTime)
	if vecgeom.IsZero(delta) {
		return
	}

	if c.IsMovingOnGround() {
		c.MoveAlongFloor(velocity, deltaTime, stepDown)
		return
	}

	hit := c.SafeMove(delta, c.Rotation(), true)
	if hit.IsValidBlockingHit() {
		c.SlideAlongSurface(delta, 1-hit.Time, hit.Normal, hit, false)
	}
}

// SimulateMovement extrapolates a simulated proxy from the last replicated
// state: no input, a lightweight floor check and the landing or fall rules.
func (c *Component) SimulateMovement(deltaTime float64) {
	if !c.HasValidData() || c.Replication == nil {
		return
	}

	if update, ok := c.Replication.ConsumeUpdate(); ok {
		c.replicated = update
		c.hasReplicated = true

		c.Body.MoveTo(update.Location, update.Rotation)
		c.State.Velocity = update.Velocity

		if update.ModeChanged {
			c.SetMovementMode(update.Mode)
		} else {
			c.State.JustTeleported = false
			c.updateFloorFromAdjustment()
		}
	} else if c.State.ForceNextFloorCheck {
		c.updateFloorFromAdjustment()
	}

	// nothing to extrapolate from yet
	if !c.hasReplicated {
		return
	}

	c.updateCrouchBeforeMovement()
	if c.State.Mode != MovementNone {
		c.handlePendingLaunch()
	}
	c.ClearAccumulatedForces()

	if c.State.Mode == MovementNone {
		return
	}

	simGravityDisabled := c.replicated.SimGravityDisabled
	zeroReplicatedGroundVelocity := c.IsMovingOnGround() && vecgeom.IsZero(c.replicated.Velocity)
	if simGravityDisabled || zeroReplicatedGroundVelocity {
		c.State.Velocity = vecgeom.Zero
	}

	c.updateBasedMovement()

	c.simulateProxyStep(deltaTime, simGravityDisabled)

	c.updateCrouchAfterMovement()
	c.State.HasRequestedVelocity = false
	c.saveBaseLocation()
	c.State.JustTeleported = false
}

func (c *Component) simulateProxyStep(deltaTime float64, simGravityDisabled bool) {
	var stepDown StepDownResult
	c.MoveSmooth(c.State.Velocity, deltaTime, &stepDown)

	if !c.IsMovingOnGround() && !c.IsFalling() {
		return
	}

	axis := c.State.VerticalDirection
	switch {
	case stepDown.ComputedFloor:
		c.State.CurrentFloor = stepDown.FloorResult
	case c.IsMovingOnGround() || c.State.Velocity.Dot(axis) <= 0:
		c.State.CurrentFloor = c.FindFloor(c.Location(), vecgeom.IsZero(c.State.Velocity), nil)
	default:
		c.State.CurrentFloor.Clear()
	}

	gravity := c.Gravity().Gravity()
	if !c.State.CurrentFloor.IsWalkableFloor() {
		if !simGravityDisabled {
			// no floor, must fall
			if c.State.Velocity.Dot(axis) <= 0 || c.Settings.ApplyGravityWhileJumping || !c.IsJumpProvidingForce() {
				c.State.Velocity = c.NewFallVelocity(c.State.Velocity, gravity, deltaTime)
			}
		}
		c.SetMovementMode(MovementFalling)
		return
	}

	switch {
	case c.IsMovingOnGround():
		c.AdjustFloorHeight()
		c.setBaseFromFloor(c.State.CurrentFloor)
	case c.IsFalling():
		floorDist := c.State.CurrentFloor.FloorDist
		if floorDist <= MIN_FLOOR_DIST || (simGravityDisabled && floorDist <= MAX_FLOOR_DIST) {
			c.setPostLandedPhysics()
			return
		}
		if !simGravityDisabled {
			c.State.Velocity = c.NewFallVelocity(c.State.Velocity, gravity, deltaTime)
		}
		c.State.CurrentFloor.Clear()
	}
}

// updateFloorFromAdjustment refreshes the floor after a replicated correction
func (c *Component) updateFloorFromAdjustment() {
	if c.IsMovingOnGround() {
		c.State.CurrentFloor = c.FindFloor(c.Location(), false, nil)
	} else {
		c.State.CurrentFloor.Clear()
	}
	c.State.ForceNextFloorCheck = false
}
