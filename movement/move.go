package movement

import (
	"github.com/akmonengine/gravitywalk/actor"
	"github.com/akmonengine/gravitywalk/vecgeom"
	"github.com/go-gl/mathgl/mgl64"
)

// MoveTransaction groups several moves of the body so they can be undone as
// one. Moves inside a transaction are applied immediately; Revert restores the
// transform captured by BeginMove.
type MoveTransaction struct {
	c         *Component
	transform actor.Transform
	done      bool
}

// BeginMove opens a transaction on the current body transform
func (c *Component) BeginMove() *MoveTransaction {
	return &MoveTransaction{c: c, transform: c.Body.Transform}
}

// Revert puts the body back where it was when the transaction began
func (tx *MoveTransaction) Revert() {
	if tx.done {
		return
	}
	tx.done = true
	tx.c.Body.MoveTo(tx.transform.Position, tx.transform.Rotation)
}

// Commit keeps the moves
func (tx *MoveTransaction) Commit() {
	tx.done = true
}

// moveUpdated sweeps the capsule by delta with the given final rotation and
// places it at the first blocking contact.
func (c *Component) moveUpdated(delta mgl64.Vec3, rotation mgl64.Quat, sweep bool) HitResult {
	start := c.Location()
	end := start.Add(delta)

	if !sweep || vecgeom.IsZero(delta) {
		c.Body.MoveTo(end, rotation)
		return NoHit(start, end)
	}

	hit := c.Query.SweepCapsule(c.shape(), start, end, rotation, c.queryParams())
	if !hit.Blocking {
		c.Body.MoveTo(end, rotation)
		return hit
	}
	if hit.StartPenetrating {
		c.Body.MoveTo(start, rotation)
		return hit
	}
	c.Body.MoveTo(hit.Location, rotation)

	return hit
}

// SafeMove is moveUpdated that tries to get out of an initial penetration
// and retry the move once.
func (c *Component) SafeMove(delta mgl64.Vec3, rotation mgl64.Quat, sweep bool) HitResult {
	hit := c.moveUpdated(delta, rotation, sweep)

	if hit.StartPenetrating {
		adjustment := penetrationAdjustment(hit)
		if c.resolvePenetration(adjustment, hit, rotation) {
			hit = c.moveUpdated(delta, rotation, sweep)
		}
	}

	return hit
}

// penetrationAdjustment is the push out of a start penetrating hit
func penetrationAdjustment(hit HitResult) mgl64.Vec3 {
	if !hit.StartPenetrating {
		return vecgeom.Zero
	}
	depth := PENETRATION_PULLBACK
	if hit.PenetrationDepth > 0 {
		depth = hit.PenetrationDepth
	}
	return hit.Normal.Mul(depth + PENETRATION_PULLBACK)
}

// resolvePenetration moves the body by adjustment if it fits there, or as far
// as a sweep allows. It reports whether the body moved.
func (c *Component) resolvePenetration(adjustment mgl64.Vec3, hit HitResult, rotation mgl64.Quat) bool {
	if vecgeom.IsNearlyZero(adjustment, vecgeom.KINDA_SMALL_NUMBER) || !c.HasValidData() {
		return false
	}

	start := c.Location()
	params := c.queryParams()
	shape := c.shape()
	shape.Radius = max(0, shape.Radius-0.1)

	if !c.Query.OverlapTest(shape, start.Add(adjustment), rotation, params) {
		c.Body.MoveTo(start.Add(adjustment), rotation)
		return true
	}

	sweepHit := c.moveUpdated(adjustment, rotation, true)
	if sweepHit.StartPenetrating {
		// combine both push outs
		second := penetrationAdjustment(sweepHit)
		combined := adjustment.Add(second)
		if !vecgeom.NearlyEqual(second, adjustment, vecgeom.KINDA_SMALL_NUMBER) && !vecgeom.IsNearlyZero(combined, vecgeom.KINDA_SMALL_NUMBER) {
			c.moveUpdated(combined, rotation, true)
		}
	}

	moved := !vecgeom.NearlyEqual(c.Location(), start, vecgeom.KINDA_SMALL_NUMBER)
	if !moved {
		c.debug("failed to resolve penetration", "location", start, "depth", hit.PenetrationDepth)
	}

	return moved
}
