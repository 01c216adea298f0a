package movement

import (
	"math"

	"github.com/akmonengine/gravitywalk/vecgeom"
)

// crouchSweepInflation grows the standing capsule a little when testing
// whether it fits.
const crouchSweepInflation = vecgeom.KINDA_SMALL_NUMBER * 10

// Crouch requests crouching, applied during the next tick
func (c *Component) Crouch() {
	if c.Settings.CanCrouch {
		c.State.WantsToCrouch = true
	}
}

// UnCrouch requests standing up, applied once the standing capsule fits
func (c *Component) UnCrouch() {
	c.State.WantsToCrouch = false
}

// CanCrouchInCurrentState is true while walking or falling
func (c *Component) CanCrouchInCurrentState() bool {
	if !c.Settings.CanCrouch {
		return false
	}
	return c.IsFalling() || c.IsMovingOnGround()
}

// updateCrouchBeforeMovement applies the crouch request
func (c *Component) updateCrouchBeforeMovement() {
	crouching := c.IsCrouching()
	if crouching && (!c.State.WantsToCrouch || !c.CanCrouchInCurrentState()) {
		c.doUnCrouch()
	} else if !crouching && c.State.WantsToCrouch && c.CanCrouchInCurrentState() {
		c.doCrouch()
	}
}

// updateCrouchAfterMovement stands up when the new mode cannot crouch
func (c *Component) updateCrouchAfterMovement() {
	if c.IsCrouching() && !c.CanCrouchInCurrentState() {
		c.doUnCrouch()
	}
}

// doCrouch shrinks the capsule to CrouchedHalfHeight, moving it down along
// the body axis to keep its base in place when walking.
func (c *Component) doCrouch() {
	if !c.HasValidData() || !c.CanCrouchInCurrentState() {
		return
	}

	radius, oldHalfHeight := c.CapsuleSize()
	if oldHalfHeight == c.Settings.CrouchedHalfHeight {
		c.State.IsCrouched = true
		c.notifyStartCrouch(0)
		return
	}

	// never shorter than the radius
	crouchedHalfHeight := math.Max(0, math.Max(radius, c.Settings.CrouchedHalfHeight))
	c.setCapsuleSize(radius, crouchedHalfHeight)
	halfHeightAdjust := oldHalfHeight - crouchedHalfHeight
	down := c.ActorUp().Mul(-1)

	if crouchedHalfHeight > oldHalfHeight {
		encroached := c.Query.OverlapTest(c.shape(), c.Location().Add(down.Mul(halfHeightAdjust)), c.Rotation(), c.queryParams())
		if encroached {
			c.setCapsuleSize(radius, oldHalfHeight)
			return
		}
	}

	if c.State.CrouchMaintainsBaseLocation {
		c.moveUpdated(down.Mul(halfHeightAdjust), c.Rotation(), true)
	}

	c.State.IsCrouched = true
	c.State.ForceNextFloorCheck = true

	c.notifyStartCrouch(c.standingHalfHeight - crouchedHalfHeight)
}

// doUnCrouch grows the capsule back to its standing size if it fits, either
// in place or pushed down toward the floor.
func (c *Component) doUnCrouch() {
	if !c.HasValidData() {
		return
	}

	radius, currentHalfHeight := c.CapsuleSize()
	if currentHalfHeight == c.standingHalfHeight {
		c.State.IsCrouched = false
		c.notifyEndCrouch(0)
		return
	}

	halfHeightAdjust := c.standingHalfHeight - currentHalfHeight
	location := c.Location()
	rotation := c.Rotation()
	params := c.queryParams()
	down := c.ActorUp().Mul(-1)

	standing := CapsuleShape{Radius: radius, HalfHeight: currentHalfHeight + crouchSweepInflation + halfHeightAdjust}
	var encroached bool

	if !c.State.CrouchMaintainsBaseLocation {
		// expand in place
		encroached = c.Query.OverlapTest(standing, location, rotation, params)

		if encroached && halfHeightAdjust > 0 {
			// sweep a short capsule down to the base and try to stand from there
			shrinkHalfHeight := currentHalfHeight - radius
			traceDist := currentHalfHeight - shrinkHalfHeight
			short := CapsuleShape{Radius: radius, HalfHeight: shrinkHalfHeight}

			hit := c.Query.SweepCapsule(short, location, location.Add(down.Mul(traceDist)), rotation, params)
			if hit.StartPenetrating {
				encroached = true
			} else {
				distanceToBase := hit.Time*traceDist + short.HalfHeight
				newLocation := location.Sub(down.Mul(-distanceToBase + standing.HalfHeight + crouchSweepInflation + MIN_FLOOR_DIST/2))
				encroached = c.Query.OverlapTest(standing, newLocation, rotation, params)
				if !encroached {
					c.Body.MoveTo(newLocation, rotation)
				}
			}
		}
	} else {
		// expand keeping the base location
		standingLocation := location.Sub(down.Mul(standing.HalfHeight - currentHalfHeight))
		encroached = c.Query.OverlapTest(standing, standingLocation, rotation, params)

		if encroached && c.IsMovingOnGround() {
			// something barely overhead, try closer to the floor
			const minFloorDist = vecgeom.KINDA_SMALL_NUMBER * 10
			floor := c.State.CurrentFloor
			if floor.BlockingHit && floor.FloorDist > minFloorDist {
				standingLocation = standingLocation.Add(down.Mul(floor.FloorDist - minFloorDist))
				encroached = c.Query.OverlapTest(standing, standingLocation, rotation, params)
			}
		}

		if !encroached {
			c.Body.MoveTo(standingLocation, rotation)
			c.State.ForceNextFloorCheck = true
		}
	}

	if encroached {
		return
	}

	c.State.IsCrouched = false
	c.setCapsuleSize(radius, c.standingHalfHeight)
	c.notifyEndCrouch(halfHeightAdjust)
}

func (c *Component) notifyStartCrouch(halfHeightAdjust float64) {
	c.debug("start crouch", "half_height_adjust", halfHeightAdjust)
	if c.Notifier != nil {
		c.Notifier.StartCrouch(halfHeightAdjust)
	}
}

func (c *Component) notifyEndCrouch(halfHeightAdjust float64) {
	c.debug("end crouch", "half_height_adjust", halfHeightAdjust)
	if c.Notifier != nil {
		c.Notifier.EndCrouch(halfHeightAdjust)
	}
}
