package movement

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// CanStepUp tells whether the body may try to step up onto the surface of hit
func (c *Component) CanStepUp(hit HitResult) bool {
	if !hit.IsValidBlockingHit() || !c.HasValidData() || c.IsFalling() {
		return false
	}
	if hit.Body == nil {
		return true
	}
	return hit.Body.CanStepUpOn
}

// StepUp climbs over the obstacle of hit while moving by delta: up by at most
// MaxStepHeight against floorDirection, forward, then back down. Every
// rejection puts the body back where it started. When stepDown is not nil and
// a floor is found on the way down, it is stored there.
func (c *Component) StepUp(floorDirection, delta mgl64.Vec3, hit HitResult, stepDown *StepDownResult) bool {
	if !c.CanStepUp(hit) || c.Settings.MaxStepHeight <= 0 {
		return false
	}

	up := floorDirection.Mul(-1)
	oldLocation := c.Location()
	oldLocationZ := oldLocation.Dot(up)
	radius, halfHeight := c.CapsuleSize()
	halfHeight *= math.Abs(floorDirection.Dot(c.ActorUp()))

	// don't bother if the top of the capsule is hitting something
	initialImpactZ := hit.ImpactPoint.Dot(up)
	if initialImpactZ > oldLocationZ+(halfHeight-radius) {
		return false
	}
	if floorDirection.LenSqr() == 0 {
		return false
	}

	maxStepHeight := c.Settings.MaxStepHeight
	stepTravelUpHeight := maxStepHeight
	stepTravelDownHeight := stepTravelUpHeight
	stepSideZ := -hit.ImpactNormal.Dot(floorDirection)
	initialFloorBaseZ := oldLocationZ - halfHeight
	floorPointZ := initialFloorBaseZ

	floor := c.State.CurrentFloor
	if c.IsMovingOnGround() && floor.IsWalkableFloor() {
		// the capsule floats over the floor, measure the step from the floor itself
		floorDist := math.Max(0, floor.DistanceToFloor())
		initialFloorBaseZ -= floorDist
		stepTravelUpHeight = math.Max(stepTravelUpHeight-floorDist, 0)
		stepTravelDownHeight = maxStepHeight + MAX_FLOOR_DIST*2

		hitVerticalFace := !c.isWithinEdgeTolerance(hit.Location, hit.ImpactPoint, radius)
		if !floor.LineTrace && !hitVerticalFace {
			floorPointZ = floor.HitResult.ImpactPoint.Dot(up)
		} else {
			floorPointZ -= floor.FloorDist
		}
	}

	// the impact is below us
	if initialImpactZ <= initialFloorBaseZ {
		return false
	}

	tx := c.BeginMove()
	rotation := c.Rotation()

	// step up, treating the obstacle as a vertical wall
	sweepUpHit := c.moveUpdated(up.Mul(stepTravelUpHeight), rotation, true)
	if sweepUpHit.StartPenetrating {
		tx.Revert()
		c.debug("step up rejected", "reason", "penetrating on the way up")
		return false
	}

	// step forward
	forwardHit := c.moveUpdated(delta, rotation, true)
	if forwardHit.Blocking {
		if forwardHit.StartPenetrating {
			tx.Revert()
			return false
		}

		if sweepUpHit.Blocking {
			c.handleImpact(sweepUpHit)
		}
		c.handleImpact(forwardHit)
		if c.IsFalling() {
			tx.Commit()
			return true
		}

		forwardHitTime := forwardHit.Time
		forwardSlideAmount, _ := c.SlideAlongSurface(delta, 1-forwardHit.Time, forwardHit.Normal, forwardHit, true)

		if c.IsFalling() {
			tx.Revert()
			return false
		}

		// neither the forward move nor the deflection got anywhere
		if forwardHitTime == 0 && forwardSlideAmount == 0 {
			tx.Revert()
			return false
		}
	}

	// step down
	downHit := c.moveUpdated(floorDirection.Mul(stepTravelDownHeight), c.Rotation(), true)
	if downHit.StartPenetrating {
		tx.Revert()
		return false
	}

	var result StepDownResult
	if downHit.IsValidBlockingHit() {
		hitImpactPointZ := downHit.ImpactPoint.Dot(up)
		hitLocationZ := downHit.Location.Dot(up)

		deltaZ := hitImpactPointZ - floorPointZ
		if deltaZ > maxStepHeight {
			tx.Revert()
			c.debug("step up rejected", "reason", "too high", "height", deltaZ)
			return false
		}

		if !c.IsWalkable(downHit) {
			// unwalkable normal opposed to the movement
			if delta.Dot(downHit.ImpactNormal) < 0 {
				tx.Revert()
				c.debug("step up rejected", "reason", "unwalkable normal opposed to movement")
				return false
			}
			// stepping down onto an unwalkable surface below is fine, above is not
			if hitLocationZ > oldLocationZ {
				tx.Revert()
				c.debug("step up rejected", "reason", "unwalkable normal above old position")
				return false
			}
		}

		if !c.isWithinEdgeTolerance(downHit.Location, downHit.ImpactPoint, radius) {
			tx.Revert()
			c.debug("step up rejected", "reason", "outside edge tolerance")
			return false
		}

		if deltaZ > 0 && !c.CanStepUp(downHit) {
			tx.Revert()
			return false
		}

		if stepDown != nil {
			result.FloorResult = c.FindFloor(c.Location(), false, &downHit)

			// an actual step we cannot perch on, slide along it instead
			if hitLocationZ > oldLocationZ && !result.FloorResult.BlockingHit && stepSideZ < MAX_STEP_SIDE_Z {
				tx.Revert()
				return false
			}
			result.ComputedFloor = true
		}
	}

	if stepDown != nil {
		*stepDown = result
	}
	tx.Commit()

	c.State.JustTeleported = c.State.JustTeleported || !c.Settings.MaintainHorizontalGroundVelocity

	return true
}
