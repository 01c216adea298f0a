package movement

import (
	"math"

	"github.com/akmonengine/gravitywalk/vecgeom"
	"github.com/go-gl/mathgl/mgl64"
)

// FloorResult is the outcome of a floor check
type FloorResult struct {
	BlockingHit   bool
	WalkableFloor bool
	// LineTrace is set when the floor comes from the line trace fallback
	LineTrace bool
	// FloorDist is the sweep distance to the floor, negative in penetration
	FloorDist float64
	LineDist  float64
	HitResult HitResult
}

func (f *FloorResult) Clear() {
	*f = FloorResult{}
}

func (f FloorResult) IsWalkableFloor() bool {
	return f.BlockingHit && f.WalkableFloor
}

// DistanceToFloor prefers the line trace distance when the floor came from it
func (f FloorResult) DistanceToFloor() float64 {
	if f.LineTrace {
		return f.LineDist
	}
	return f.FloorDist
}

// Normal is the impact normal of the floor, zero without a hit
func (f FloorResult) Normal() mgl64.Vec3 {
	if !f.BlockingHit {
		return vecgeom.Zero
	}
	return f.HitResult.ImpactNormal
}

func (f *FloorResult) SetFromSweep(hit HitResult, sweepFloorDist float64, walkable bool) {
	f.BlockingHit = hit.IsValidBlockingHit()
	f.WalkableFloor = walkable
	f.LineTrace = false
	f.FloorDist = sweepFloorDist
	f.LineDist = 0
	f.HitResult = hit
}

// SetFromLineTrace keeps the sweep geometry and takes the normals of the line hit
func (f *FloorResult) SetFromLineTrace(hit HitResult, sweepFloorDist, lineDist float64, walkable bool) {
	if !f.HitResult.Blocking || !hit.Blocking {
		return
	}
	old := f.HitResult
	f.HitResult = hit
	f.HitResult.Time = old.Time
	f.HitResult.ImpactPoint = old.ImpactPoint
	f.HitResult.Location = old.Location
	f.HitResult.TraceStart = old.TraceStart
	f.HitResult.TraceEnd = old.TraceEnd

	f.LineTrace = true
	f.FloorDist = sweepFloorDist
	f.LineDist = lineDist
	f.WalkableFloor = walkable
}

// StepDownResult carries a floor computed while stepping up
type StepDownResult struct {
	ComputedFloor bool
	FloorResult   FloorResult
}

// IsWalkable tests a hit against the walkable floor normal of the component
func (c *Component) IsWalkable(hit HitResult) bool {
	return c.IsWalkableAlong(c.WalkableFloorNormal(), hit)
}

// IsWalkableAlong tests the impact normal of hit against axis: never walkable
// when vertical or overhanging, otherwise when its dot product with axis
// reaches the walkable cosine, after the slope override of the hit body.
func (c *Component) IsWalkableAlong(axis mgl64.Vec3, hit HitResult) bool {
	if !hit.IsValidBlockingHit() {
		return false
	}

	impactVertical := hit.ImpactNormal.Dot(axis)
	if impactVertical < vecgeom.KINDA_SMALL_NUMBER {
		return false
	}

	walkableZ := c.Settings.WalkableFloorZ()
	if hit.Body != nil {
		walkableZ = hit.Body.SlopeOverride.ModifyWalkableFloorZ(walkableZ)
	}

	return impactVertical >= walkableZ
}

// IsWithinEdgeTolerance tells whether an impact point is far enough inside
// the capsule rim, measured in the plane orthogonal to axis.
func IsWithinEdgeTolerance(axis, capsuleLocation, impactPoint mgl64.Vec3, capsuleRadius float64) bool {
	fromCenter := vecgeom.Planar(impactPoint.Sub(capsuleLocation), axis)
	reducedRadius := math.Max(SWEEP_EDGE_REJECT_DISTANCE+vecgeom.KINDA_SMALL_NUMBER, capsuleRadius-SWEEP_EDGE_REJECT_DISTANCE)

	return fromCenter.LenSqr() < reducedRadius*reducedRadius
}

func (c *Component) isWithinEdgeTolerance(capsuleLocation, impactPoint mgl64.Vec3, capsuleRadius float64) bool {
	return IsWithinEdgeTolerance(c.WalkableFloorNormal(), capsuleLocation, impactPoint, capsuleRadius)
}

// pawnHalfHeightAlong is the capsule half height scaled by how much its axis
// lines up with axis.
func (c *Component) pawnHalfHeightAlong(axis mgl64.Vec3, rotation mgl64.Quat) (float64, float64) {
	radius, halfHeight := c.CapsuleSize()
	return radius, halfHeight * math.Abs(axis.Dot(vecgeom.AxisZ(rotation)))
}

func (c *Component) perchRadiusThreshold() float64 {
	return math.Max(0, c.Settings.PerchRadiusThreshold)
}

// validPerchRadius is the radius of the reduced capsule used to perch
func (c *Component) validPerchRadius() float64 {
	radius, _ := c.CapsuleSize()
	return mgl64.Clamp(radius-c.perchRadiusThreshold(), 0.11, radius)
}

// FindFloor checks for a floor under location along the walkable floor normal
func (c *Component) FindFloor(location mgl64.Vec3, zeroDelta bool, downwardSweep *HitResult) FloorResult {
	if !c.HasValidData() {
		return FloorResult{}
	}
	return c.FindFloorAlong(c.WalkableFloorNormal(), c.Rotation(), location, zeroDelta, downwardSweep)
}

// FindFloorAlong sweeps the capsule down -axis to find a floor, falls back
// to a line trace and tries to perch on edges the full capsule cannot stand
// on. With zeroDelta and no forced check it reuses the current floor while
// the base is static and still blocks.
func (c *Component) FindFloorAlong(axis mgl64.Vec3, rotation mgl64.Quat, location mgl64.Vec3, zeroDelta bool, downwardSweep *HitResult) FloorResult {
	var floor FloorResult
	if !c.HasValidData() || !c.Body.QueryEnabled {
		return floor
	}

	heightCheckAdjust := -MAX_FLOOR_DIST
	if c.IsMovingOnGround() {
		heightCheckAdjust = MAX_FLOOR_DIST + vecgeom.KINDA_SMALL_NUMBER
	}
	sweepDist := math.Max(MAX_FLOOR_DIST, c.Settings.MaxStepHeight+heightCheckAdjust)
	lineDist := sweepDist
	radius, _ := c.CapsuleSize()
	needToValidate := true

	if c.Settings.AlwaysCheckFloor || !zeroDelta || c.State.ForceNextFloorCheck || c.State.JustTeleported {
		c.State.ForceNextFloorCheck = false
		floor = c.ComputeFloorDist(axis, rotation, location, lineDist, sweepDist, radius, downwardSweep)
	} else {
		base := c.State.Base
		if base != nil {
			c.State.ForceNextFloorCheck = !base.QueryEnabled || !base.Blocks(c.Channel) || base.IsMovable()
		}

		if !c.State.ForceNextFloorCheck && base != nil {
			floor = c.State.CurrentFloor
			needToValidate = false
		} else {
			c.State.ForceNextFloorCheck = false
			floor = c.ComputeFloorDist(axis, rotation, location, lineDist, sweepDist, radius, downwardSweep)
		}
	}

	if needToValidate && floor.BlockingHit && !floor.LineTrace && c.shouldComputePerchResult(axis, floor.HitResult, true) {
		maxPerchFloorDist := math.Max(MAX_FLOOR_DIST, c.Settings.MaxStepHeight+heightCheckAdjust)
		if c.IsMovingOnGround() {
			maxPerchFloorDist += math.Max(0, c.Settings.PerchAdditionalHeight)
		}

		if perch, ok := c.computePerchResult(axis, rotation, c.validPerchRadius(), floor.HitResult, maxPerchFloorDist); ok {
			// keep the height adjustment within the perch distance
			avgFloorDist := (MIN_FLOOR_DIST + MAX_FLOOR_DIST) * 0.5
			moveUpDist := avgFloorDist - floor.FloorDist
			if moveUpDist+perch.FloorDist >= maxPerchFloorDist {
				floor.FloorDist = avgFloorDist
			}

			if !floor.WalkableFloor {
				floor.SetFromLineTrace(perch.HitResult, floor.FloorDist, math.Min(perch.FloorDist, perch.LineDist), true)
			}
		} else {
			floor.WalkableFloor = false
		}
	}

	return floor
}

func (c *Component) shouldComputePerchResult(axis mgl64.Vec3, hit HitResult, checkRadius bool) bool {
	if !hit.IsValidBlockingHit() {
		return false
	}
	if c.perchRadiusThreshold() <= SWEEP_EDGE_REJECT_DISTANCE {
		return false
	}

	if checkRadius {
		deltaImpact := vecgeom.Planar(hit.ImpactPoint.Sub(hit.Location), axis)
		standOnEdgeRadius := c.validPerchRadius()
		if deltaImpact.LenSqr() <= standOnEdgeRadius*standOnEdgeRadius {
			// already within perch radius
			return false
		}
	}

	return true
}

func (c *Component) computePerchResult(axis mgl64.Vec3, rotation mgl64.Quat, testRadius float64, hit HitResult, maxFloorDist float64) (FloorResult, bool) {
	if maxFloorDist <= 0 {
		return FloorResult{}, false
	}

	radius, halfHeight := c.pawnHalfHeightAlong(axis, rotation)

	hitAboveBase := math.Max(0, hit.ImpactPoint.Dot(axis)-(hit.Location.Dot(axis)-halfHeight))
	perchLineDist := math.Max(0, maxFloorDist-hitAboveBase)
	perchSweepDist := math.Max(0, maxFloorDist)

	perch := c.ComputeFloorDist(axis, rotation, hit.Location, perchLineDist, perchSweepDist+radius, testRadius, nil)
	if !perch.IsWalkableFloor() {
		return perch, false
	}
	if hitAboveBase+perch.FloorDist > maxFloorDist {
		// hit something past max distance
		perch.WalkableFloor = false
		return perch, false
	}

	return perch, true
}

// ComputeFloorDist sweeps a shrunk capsule down -axis over sweepDistance and
// falls back to a line trace over lineDistance. A downward sweep already made
// by the caller is reused when it lands within the edge tolerance.
func (c *Component) ComputeFloorDist(axis mgl64.Vec3, rotation mgl64.Quat, location mgl64.Vec3, lineDistance, sweepDistance, sweepRadius float64, downwardSweep *HitResult) FloorResult {
	var floor FloorResult
	if !c.HasValidData() {
		return floor
	}

	sweepDistance = math.Max(sweepDistance, 0)
	lineDistance = mgl64.Clamp(lineDistance, 0, sweepDistance)
	sweepRadius = math.Max(sweepRadius, 0)

	radius, halfHeight := c.pawnHalfHeightAlong(axis, rotation)

	skipSweep := false
	if downwardSweep != nil && downwardSweep.IsValidBlockingHit() {
		if IsWithinEdgeTolerance(axis, downwardSweep.Location, downwardSweep.ImpactPoint, radius) {
			skipSweep = true

			walkable := c.IsWalkableAlong(axis, *downwardSweep)
			floorDist := location.Sub(downwardSweep.Location).Dot(axis)
			floor.SetFromSweep(*downwardSweep, floorDist, walkable)
			if walkable {
				return floor
			}
		}
	}

	params := c.queryParams()
	params.IgnoreInitialOverlapWhenMovingOut = false

	if !skipSweep && sweepDistance > 0 && sweepRadius > 0 {
		// a shorter capsule avoids odd results when starting on a surface
		// and lets the result go negative to pull out of penetrations
		const shrinkScale = 0.9
		const shrinkScaleOverlap = 0.1
		shrinkHeight := (halfHeight - radius) * (1 - shrinkScale)
		traceDist := sweepDistance + shrinkHeight
		shape := CapsuleShape{Radius: sweepRadius, HalfHeight: halfHeight - shrinkHeight}

		hit := c.Query.SweepCapsule(shape, location, location.Sub(axis.Mul(traceDist)), rotation, params)

		if hit.Blocking {
			if hit.StartPenetrating || !IsWithinEdgeTolerance(axis, location, hit.ImpactPoint, shape.Radius) {
				// retry with a thinner, shorter capsule to avoid the adjacent geometry
				shape.Radius = math.Max(0, shape.Radius-SWEEP_EDGE_REJECT_DISTANCE-vecgeom.KINDA_SMALL_NUMBER)
				if !shape.IsNearlyZero() {
					shrinkHeight = (halfHeight - radius) * (1 - shrinkScaleOverlap)
					traceDist = sweepDistance + shrinkHeight
					shape.HalfHeight = math.Max(halfHeight-shrinkHeight, shape.Radius)
					hit = c.Query.SweepCapsule(shape, location, location.Sub(axis.Mul(traceDist)), rotation, params)
				}
			}

			maxPenetrationAdjust := math.Max(MAX_FLOOR_DIST, radius)
			sweepResult := math.Max(-maxPenetrationAdjust, hit.Time*traceDist-shrinkHeight)

			floor.SetFromSweep(hit, sweepResult, false)
			if hit.IsValidBlockingHit() && c.IsWalkableAlong(axis, hit) && sweepResult <= sweepDistance {
				floor.WalkableFloor = true
				return floor
			}
		}
	}

	// the line trace only runs when the sweep hit something or was stuck
	if !floor.BlockingHit && !floor.HitResult.StartPenetrating {
		floor.FloorDist = sweepDistance
		return floor
	}

	if lineDistance > 0 {
		shrinkHeight := halfHeight
		traceDist := lineDistance + shrinkHeight
		hit := c.Query.LineTrace(location, location.Sub(axis.Mul(traceDist)), params)

		if hit.Blocking && hit.Time > 0 {
			maxPenetrationAdjust := math.Max(MAX_FLOOR_DIST, radius)
			lineResult := math.Max(-maxPenetrationAdjust, hit.Time*traceDist-shrinkHeight)

			floor.BlockingHit = true
			if lineResult <= lineDistance && c.IsWalkableAlong(axis, hit) {
				floor.SetFromLineTrace(hit, floor.FloorDist, lineResult, true)
				return floor
			}
		}
	}

	// no hits were acceptable
	floor.WalkableFloor = false
	floor.FloorDist = sweepDistance

	return floor
}

// AdjustFloorHeight moves the capsule along the vertical axis to keep the
// floor gap within [MIN_FLOOR_DIST, MAX_FLOOR_DIST].
func (c *Component) AdjustFloorHeight() {
	floor := &c.State.CurrentFloor
	if !floor.IsWalkableFloor() {
		return
	}

	oldFloorDist := floor.FloorDist
	if floor.LineTrace {
		if oldFloorDist < MIN_FLOOR_DIST && floor.LineDist >= MIN_FLOOR_DIST {
			// this would cause us to scale unwalkable walls
			return
		}
		oldFloorDist = floor.LineDist
	}

	if oldFloorDist >= MIN_FLOOR_DIST && oldFloorDist <= MAX_FLOOR_DIST {
		return
	}

	axis := c.State.VerticalDirection
	initialZ := c.Location().Dot(axis)
	avgFloorDist := (MIN_FLOOR_DIST + MAX_FLOOR_DIST) * 0.5
	moveDist := avgFloorDist - oldFloorDist

	hit := c.SafeMove(axis.Mul(moveDist), c.Rotation(), true)
	switch {
	case !hit.IsValidBlockingHit():
		floor.FloorDist += moveDist
	case moveDist > 0:
		floor.FloorDist += c.Location().Dot(axis) - initialZ
	default:
		floor.FloorDist = c.Location().Dot(axis) - hit.Location.Dot(axis)
		if c.IsWalkable(hit) {
			floor.SetFromSweep(hit, floor.FloorDist, true)
		}
	}

	c.State.JustTeleported = c.State.JustTeleported || !c.Settings.MaintainHorizontalGroundVelocity || oldFloorDist < 0
	// a stale result must not survive a height change
	c.State.ForceNextFloorCheck = true
}
