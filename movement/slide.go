package movement

import (
	"math"

	"github.com/akmonengine/gravitywalk/vecgeom"
	"github.com/go-gl/mathgl/mgl64"
)

// ComputeSlideVector projects delta on the plane of normal, scaled by time.
// A falling character can't use the slide to climb higher than intended.
func (c *Component) ComputeSlideVector(delta mgl64.Vec3, time float64, normal mgl64.Vec3, hit HitResult) mgl64.Vec3 {
	result := vecgeom.Planar(delta, normal).Mul(time)
	if c.IsFalling() {
		result = c.handleSlopeBoosting(result, delta, time, normal, hit)
	}
	return result
}

// slopeBoostRemainder removes the axis part of v component-wise. This is a
// true projection only for cardinal axes.
func slopeBoostRemainder(v, axis mgl64.Vec3) mgl64.Vec3 {
	return vecgeom.ComponentMul(v, vecgeom.One.Sub(axis))
}

// handleSlopeBoosting limits the rise of a slide result to the rise of the
// original delta, against the inverse gravity direction.
func (c *Component) handleSlopeBoosting(slideResult, delta mgl64.Vec3, time float64, normal mgl64.Vec3, hit HitResult) mgl64.Vec3 {
	up := c.Gravity().GravityNormal().Mul(-1)

	result := slideResult
	resultZ := result.Dot(up)
	if resultZ <= 0 {
		return result
	}

	zLimit := delta.Dot(up) * time
	if resultZ-zLimit <= vecgeom.KINDA_SMALL_NUMBER {
		return result
	}

	if zLimit > 0 {
		// rescale the entire vector to keep its direction
		result = result.Mul(zLimit / resultZ)
	} else {
		// heading down but deflected upwards
		result = vecgeom.Zero
	}

	// the remainder of the slide goes along the impact plane, kept level
	remainder := slopeBoostRemainder(slideResult.Sub(result), up)
	normalPlanar := vecgeom.PlanarSafeNormal(normal, up)

	return result.Add(vecgeom.Planar(remainder, normalPlanar))
}

// SlideAlongSurface moves along the surface hit by a previous move, with one
// extra deflection when a second wall is met. It returns the fraction of time
// applied and the last hit.
func (c *Component) SlideAlongSurface(delta mgl64.Vec3, time float64, normal mgl64.Vec3, hit HitResult, handleImpact bool) (float64, HitResult) {
	if !hit.Blocking {
		return 0, hit
	}

	if c.IsMovingOnGround() {
		normal = c.groundSlideNormal(delta, normal, hit)
	}

	return c.slideAlongSurface(delta, time, vecgeom.SafeNormal(normal), hit, handleImpact)
}

// groundSlideNormal adjusts the slide normal of a grounded character. The
// result is not normalized.
func (c *Component) groundSlideNormal(delta, normal mgl64.Vec3, hit HitResult) mgl64.Vec3 {
	axis := c.State.VerticalDirection
	normalVertical := normal.Dot(axis)

	if normalVertical > 0 {
		// don't get pushed up an unwalkable surface
		if !c.IsWalkable(hit) {
			normal = vecgeom.Planar(normal, axis)
		}
		return normal
	}

	if normalVertical < -vecgeom.KINDA_SMALL_NUMBER {
		// don't push down into the floor when the impact is on the upper capsule
		floor := c.State.CurrentFloor
		if floor.FloorDist < MIN_FLOOR_DIST && floor.BlockingHit {
			floorNormal := floor.HitResult.Normal
			if delta.Dot(floorNormal) < 0 && floorNormal.Dot(axis) < 1-vecgeom.SMALL_NUMBER {
				normal = floorNormal.Mul(-1)
			}
			// adds the axis part a second time instead of removing it
			normal = normal.Add(vecgeom.ProjectOnToNormal(normal, axis))
		}
	}
	return normal
}

func (c *Component) slideAlongSurface(delta mgl64.Vec3, time float64, normal mgl64.Vec3, hit HitResult, handleImpact bool) (float64, HitResult) {
	oldHitNormal := normal
	slideDelta := c.ComputeSlideVector(delta, time, normal, hit)
	if slideDelta.Dot(delta) <= 0 {
		return 0, hit
	}

	rotation := c.Rotation()
	hit = c.SafeMove(slideDelta, rotation, true)
	firstHitPercent := hit.Time
	percentApplied := firstHitPercent

	if hit.IsValidBlockingHit() {
		if handleImpact {
			c.handleImpact(hit)
		}

		slideDelta = c.TwoWallAdjust(slideDelta, hit, oldHitNormal)

		// only proceed if the new direction is of significant length and not in reverse
		if !vecgeom.IsNearlyZero(slideDelta, 1e-3) && slideDelta.Dot(delta) > 0 {
			hit = c.SafeMove(slideDelta, rotation, true)
			percentApplied += hit.Time * (1 - firstHitPercent)

			if handleImpact && hit.Blocking {
				c.handleImpact(hit)
			}
		}
	}

	return vecgeom.Clamp01(percentApplied), hit
}

// TwoWallAdjust deflects a slide that met a second wall. On the ground,
// walkable ramps keep the planar speed and unwalkable slopes act as vertical
// walls.
func (c *Component) TwoWallAdjust(delta mgl64.Vec3, hit HitResult, oldHitNormal mgl64.Vec3) mgl64.Vec3 {
	inDelta := delta
	delta = c.twoWallAdjust(delta, hit, oldHitNormal)

	if !c.IsMovingOnGround() {
		return delta
	}

	axis := c.State.VerticalDirection
	deltaZ := delta.Dot(axis)
	hitNormalZ := hit.Normal.Dot(axis)

	if deltaZ > 0 {
		if (hitNormalZ >= c.Settings.WalkableFloorZ() || c.IsWalkable(hit)) && hitNormalZ > vecgeom.KINDA_SMALL_NUMBER {
			// maintain horizontal velocity
			time := 1 - hit.Time
			scaledDeltaZ := vecgeom.SafeNormal(delta).Mul(inDelta.Len()).Dot(axis)
			delta = vecgeom.Planar(inDelta, axis).Add(axis.Mul(scaledDeltaZ / hitNormalZ)).Mul(time)

			// never exceed MaxStepHeight vertically
			if deltaZ > c.Settings.MaxStepHeight {
				delta = delta.Mul(c.Settings.MaxStepHeight / deltaZ)
			}
		} else {
			delta = vecgeom.Planar(delta, axis)
		}
	} else if deltaZ < 0 {
		// don't push down into the floor
		floor := c.State.CurrentFloor
		if floor.FloorDist < MIN_FLOOR_DIST && floor.BlockingHit {
			delta = vecgeom.Planar(delta, axis)
		}
	}

	return delta
}

func (c *Component) twoWallAdjust(delta mgl64.Vec3, hit HitResult, oldHitNormal mgl64.Vec3) mgl64.Vec3 {
	hitNormal := hit.Normal

	if oldHitNormal.Dot(hitNormal) <= 0 {
		// 90 degrees or less corner, use the crease direction
		desired := delta
		crease := vecgeom.SafeNormal(hitNormal.Cross(oldHitNormal))
		delta = crease.Mul(delta.Dot(crease) * (1 - hit.Time))
		if desired.Dot(delta) < 0 {
			delta = delta.Mul(-1)
		}
		return delta
	}

	desired := delta
	delta = c.ComputeSlideVector(delta, 1-hit.Time, hitNormal, hit)
	if delta.Dot(desired) <= 0 {
		return vecgeom.Zero
	}
	if math.Abs(hitNormal.Dot(oldHitNormal)-1) < vecgeom.KINDA_SMALL_NUMBER {
		// same wall again, nudge away from it
		delta = delta.Add(hitNormal.Mul(0.01))
	}

	return delta
}
