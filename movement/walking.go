package movement

import (
	"github.com/akmonengine/gravitywalk/actor"
	"github.com/akmonengine/gravitywalk/vecgeom"
	"github.com/go-gl/mathgl/mgl64"
)

// CanWalkOffLedges is false while crouching unless crouched characters may
func (c *Component) CanWalkOffLedges() bool {
	if !c.Settings.CanWalkOffLedgesWhenCrouching && c.IsCrouching() {
		return false
	}
	return c.Settings.CanWalkOffLedges
}

// PhysWalking moves a walking character over deltaTime in sub-steps: it
// updates the velocity, moves along the floor, finds the new floor and
// starts falling when there is none.
func (c *Component) PhysWalking(deltaTime float64, iterations int) {
	if deltaTime < MIN_TICK_TIME {
		return
	}
	if !c.Body.QueryEnabled {
		c.SetMovementMode(MovementWalking)
		return
	}

	c.State.JustTeleported = false
	checkedFall := false
	triedLedgeMove := false
	remainingTime := deltaTime

	for remainingTime >= MIN_TICK_TIME && iterations < c.Settings.MaxSimulationIterations {
		iterations++
		c.State.JustTeleported = false
		timeTick := c.simulationTimeStep(remainingTime, iterations)
		remainingTime -= timeTick

		oldBase := c.State.Base
		previousBaseLocation := vecgeom.Zero
		if oldBase != nil {
			previousBaseLocation = oldBase.Transform.Position
		}
		oldLocation := c.Location()
		oldFloor := c.State.CurrentFloor

		c.maintainHorizontalGroundVelocity()
		c.State.Acceleration = vecgeom.Planar(c.State.Acceleration, c.State.VerticalDirection)

		if !c.hasRootMotion() {
			c.CalcVelocity(timeTick, c.Settings.GroundFriction, c.maxBrakingDeceleration())
		}
		c.applyRootMotionToVelocity(timeTick)

		if c.IsFalling() {
			// root motion lifted us off, nothing moved yet
			c.startNewPhysics(remainingTime+timeTick, iterations-1)
			return
		}

		moveVelocity := c.State.Velocity
		delta := moveVelocity.Mul(timeTick)
		zeroDelta := vecgeom.IsNearlyZero(delta, vecgeom.KINDA_SMALL_NUMBER)
		var stepDown StepDownResult

		if zeroDelta {
			remainingTime = 0
		} else {
			c.MoveAlongFloor(moveVelocity, timeTick, &stepDown)

			if c.IsFalling() {
				// give back the time the move did not use
				desiredDist := delta.Len()
				if desiredDist > vecgeom.KINDA_SMALL_NUMBER {
					actualDist := c.Location().Sub(oldLocation).Len()
					remainingTime += timeTick * (1 - min(1, actualDist/desiredDist))
				}
				c.startNewPhysics(remainingTime, iterations)
				return
			}
			if c.IsSwimming() {
				c.startNewPhysics(remainingTime, iterations)
				return
			}
		}

		if stepDown.ComputedFloor {
			c.State.CurrentFloor = stepDown.FloorResult
		} else {
			c.State.CurrentFloor = c.FindFloor(c.Location(), zeroDelta, nil)
		}

		checkLedges := !c.CanWalkOffLedges()
		if checkLedges && !c.State.CurrentFloor.IsWalkableFloor() {
			newDelta := vecgeom.Zero
			if !triedLedgeMove {
				newDelta = c.GetLedgeMove(oldLocation, delta, c.State.VerticalDirection.Mul(-1))
			}
			if !vecgeom.IsZero(newDelta) {
				c.RevertMove(oldLocation, oldBase, previousBaseLocation, oldFloor, false)
				triedLedgeMove = true

				// try the new direction
				c.State.Velocity = newDelta.Mul(1 / timeTick)
				remainingTime += timeTick
				continue
			}

			mustJump := zeroDelta || oldBase == nil || (!oldBase.QueryEnabled && oldBase.IsMovable())
			if (mustJump || !checkedFall) && c.checkFall(oldFloor, delta, oldLocation, remainingTime, timeTick, iterations, mustJump) {
				return
			}
			checkedFall = true

			c.RevertMove(oldLocation, oldBase, previousBaseLocation, oldFloor, true)
			break
		}

		floor := c.State.CurrentFloor
		if floor.IsWalkableFloor() {
			c.AdjustFloorHeight()
			c.setBaseFromFloor(c.State.CurrentFloor)
		} else if floor.HitResult.StartPenetrating && remainingTime <= 0 {
			// the floor sweep started in penetration, pop out instead of moving down
			hit := floor.HitResult
			hit.TraceEnd = hit.TraceStart.Add(c.State.VerticalDirection.Mul(MAX_FLOOR_DIST))
			c.resolvePenetration(penetrationAdjustment(hit), hit, c.Rotation())
			c.State.ForceNextFloorCheck = true
		}

		if c.IsSwimming() {
			c.startNewPhysics(remainingTime, iterations)
			return
		}

		if !c.State.CurrentFloor.IsWalkableFloor() && !c.State.CurrentFloor.HitResult.StartPenetrating {
			mustJump := c.State.JustTeleported || zeroDelta || oldBase == nil || (!oldBase.QueryEnabled && oldBase.IsMovable())
			if (mustJump || !checkedFall) && c.checkFall(oldFloor, delta, oldLocation, remainingTime, timeTick, iterations, mustJump) {
				return
			}
			checkedFall = true
		}

		if c.IsMovingOnGround() && !c.State.JustTeleported && !c.hasRootMotion() && timeTick >= MIN_TICK_TIME {
			// velocity reflects the actual move
			c.State.Velocity = c.Location().Sub(oldLocation).Mul(1 / timeTick)
			c.maintainHorizontalGroundVelocity()
		}

		// stuck, further iterations would be too
		if c.Location() == oldLocation {
			break
		}
	}

	if c.IsMovingOnGround() {
		c.maintainHorizontalGroundVelocity()
	}
}

// ComputeGroundMovementDelta turns a planar delta into a move parallel to a
// walkable ramp. With MaintainHorizontalGroundVelocity the planar speed is
// kept, otherwise the total speed.
func (c *Component) ComputeGroundMovementDelta(delta mgl64.Vec3, rampHit HitResult, hitFromLineTrace bool) mgl64.Vec3 {
	axis := c.State.VerticalDirection
	floorNormal := rampHit.ImpactNormal
	floorNormalZ := floorNormal.Dot(axis)
	contactNormalZ := rampHit.Normal.Dot(axis)

	if floorNormalZ < 1-vecgeom.KINDA_SMALL_NUMBER && floorNormalZ > vecgeom.KINDA_SMALL_NUMBER &&
		contactNormalZ > vecgeom.KINDA_SMALL_NUMBER && !hitFromLineTrace && c.IsWalkable(rampHit) {
		floorDotDelta := floorNormal.Dot(delta)
		ramp := vecgeom.Planar(delta, axis).Add(axis.Mul(-floorDotDelta / floorNormalZ))

		if c.Settings.MaintainHorizontalGroundVelocity {
			return ramp
		}
		return vecgeom.SafeNormal(ramp).Mul(delta.Len())
	}

	return delta
}

// MoveAlongFloor moves by the planar part of velocity over the current floor,
// following ramps, stepping up obstacles and sliding along walls.
func (c *Component) MoveAlongFloor(velocity mgl64.Vec3, deltaTime float64, stepDown *StepDownResult) {
	if !c.State.CurrentFloor.IsWalkableFloor() {
		return
	}

	axis := c.State.VerticalDirection
	delta := vecgeom.Planar(velocity, axis).Mul(deltaTime)
	ramp := c.ComputeGroundMovementDelta(delta, c.State.CurrentFloor.HitResult, c.State.CurrentFloor.LineTrace)
	hit := c.SafeMove(ramp, c.Rotation(), true)

	if hit.StartPenetrating {
		// deflect off it rather than hitch for the rest of the update
		c.handleImpact(hit)
		_, hit = c.SlideAlongSurface(delta, 1, hit.Normal, hit, true)

		if hit.StartPenetrating {
			c.debug("stuck in geometry", "location", c.Location())
			if c.Notifier != nil {
				c.Notifier.StuckInGeometry(hit)
			}
		}
		return
	}

	if !hit.IsValidBlockingHit() {
		return
	}

	percentTimeApplied := hit.Time
	if hit.Time > 0 && hit.Normal.Dot(axis) > vecgeom.KINDA_SMALL_NUMBER && c.IsWalkable(hit) {
		// another walkable ramp
		initialPercentRemaining := 1 - percentTimeApplied
		ramp = c.ComputeGroundMovementDelta(delta.Mul(initialPercentRemaining), hit, false)
		hit = c.SafeMove(ramp, c.Rotation(), true)

		secondHitPercent := hit.Time * initialPercentRemaining
		percentTimeApplied = vecgeom.Clamp01(percentTimeApplied + secondHitPercent)
	}

	if !hit.IsValidBlockingHit() {
		return
	}

	switch {
	case c.CanStepUp(hit) || (c.State.Base != nil && c.State.Base == hit.Body):
		// a barrier, try to step over it
		if !c.StepUp(axis.Mul(-1), delta.Mul(1-percentTimeApplied), hit, stepDown) {
			c.handleImpact(hit)
			c.SlideAlongSurface(delta, 1-percentTimeApplied, hit.Normal, hit, true)
		} else {
			c.State.JustTeleported = c.State.JustTeleported || !c.Settings.MaintainHorizontalGroundVelocity
		}
	case hit.Body != nil && !hit.Body.CanStepUpOn:
		c.handleImpact(hit)
		c.SlideAlongSurface(delta, 1-percentTimeApplied, hit.Normal, hit, true)
	}
}

// checkFall starts falling when the character must or may walk off the floor
func (c *Component) checkFall(oldFloor FloorResult, delta, oldLocation mgl64.Vec3, remainingTime, timeTick float64, iterations int, mustJump bool) bool {
	if !c.HasValidData() {
		return false
	}
	if !mustJump && !c.CanWalkOffLedges() {
		return false
	}

	if c.Notifier != nil {
		c.Notifier.WalkingOffLedge(oldFloor.HitResult.ImpactNormal)
	}
	if c.IsMovingOnGround() {
		c.startFalling(iterations, remainingTime, timeTick, delta, oldLocation)
	}
	return true
}

// startFalling gives back the unused part of the sub-step and switches to
// the falling stepper.
func (c *Component) startFalling(iterations int, remainingTime, timeTick float64, delta, subLocation mgl64.Vec3) {
	desiredDist := delta.Len()
	actualDist := vecgeom.PlanarSize(c.Location().Sub(subLocation), c.State.VerticalDirection)
	if desiredDist < vecgeom.KINDA_SMALL_NUMBER {
		remainingTime = 0
	} else {
		remainingTime += timeTick * (1 - min(1, actualDist/desiredDist))
	}

	if c.IsMovingOnGround() {
		c.SetMovementMode(MovementFalling)
	}
	c.startNewPhysics(remainingTime, iterations)
}

// RevertMove teleports back to oldLocation and restores the old floor when
// the old base did not move meanwhile. failMove also stops the character.
func (c *Component) RevertMove(oldLocation mgl64.Vec3, oldBase *actor.Body, previousBaseLocation mgl64.Vec3, oldFloor FloorResult, failMove bool) {
	c.Body.MoveTo(oldLocation, c.Rotation())
	c.State.JustTeleported = false

	if oldBase != nil && (!oldBase.IsMovable() || oldBase.Transform.Position == previousBaseLocation) {
		c.State.CurrentFloor = oldFloor
		c.setBase(oldBase)
	} else {
		c.setBase(nil)
	}

	if failMove {
		c.State.Velocity = vecgeom.Zero
		c.State.Acceleration = vecgeom.Zero
	}
}

// GetLedgeMove tries to move sideways along a ledge instead of off it, on
// either side of delta. It returns the zero vector when neither side has a
// floor.
func (c *Component) GetLedgeMove(oldLocation, delta, gravityDir mgl64.Vec3) mgl64.Vec3 {
	if !c.HasValidData() || vecgeom.IsZero(delta) {
		return vecgeom.Zero
	}

	side := delta.Cross(gravityDir.Mul(-1))
	side = vecgeom.SafeNormal(vecgeom.Planar(side, gravityDir)).Mul(delta.Len())

	if c.checkLedgeDirection(oldLocation, side, gravityDir) {
		return side
	}
	side = side.Mul(-1)
	if c.checkLedgeDirection(oldLocation, side, gravityDir) {
		return side
	}

	return vecgeom.Zero
}

// checkLedgeDirection tells whether moving by sideStep keeps a walkable floor
// within MaxStepHeight below.
func (c *Component) checkLedgeDirection(oldLocation, sideStep, gravityDir mgl64.Vec3) bool {
	sideDest := oldLocation.Add(sideStep)
	params := c.queryParams()
	shape := c.shape()
	rotation := c.Rotation()

	hit := c.Query.SweepCapsule(shape, oldLocation, sideDest, rotation, params)
	if hit.Blocking && !c.IsWalkable(hit) {
		return false
	}
	if !hit.Blocking {
		hit = c.Query.SweepCapsule(shape, sideDest, sideDest.Add(gravityDir.Mul(c.Settings.MaxStepHeight+LEDGE_CHECK_THRESHOLD)), rotation, params)
	}

	return hit.Blocking && hit.Time < 1 && c.IsWalkable(hit)
}
