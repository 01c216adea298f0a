package gravitywalk

import (
	"math"

	"github.com/akmonengine/gravitywalk/actor"
	"github.com/akmonengine/gravitywalk/gjk"
	"github.com/akmonengine/gravitywalk/movement"
	"github.com/akmonengine/gravitywalk/vecgeom"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// CONTACT_TOLERANCE is the distance under which two surfaces touch
	CONTACT_TOLERANCE = 1e-3
	// SWEEP_PULLBACK is kept between a swept capsule and what it hits
	SWEEP_PULLBACK = 0.01

	searchIterations = 40
	invPhi           = 0.6180339887498949
)

// segment is the inner segment of a query capsule, a line trace being a
// segment of zero length and radius.
type segment struct {
	a, b   mgl64.Vec3
	radius float64
}

func capsuleSegment(shape movement.CapsuleShape, center mgl64.Vec3, rotation mgl64.Quat) segment {
	half := math.Max(0, shape.HalfHeight-shape.Radius)
	axis := vecgeom.AxisZ(rotation).Mul(half)
	return segment{a: center.Sub(axis), b: center.Add(axis), radius: math.Max(0, shape.Radius)}
}

func (s segment) at(u float64) mgl64.Vec3 {
	return s.a.Add(s.b.Sub(s.a).Mul(u))
}

func (s segment) translate(offset mgl64.Vec3) segment {
	return segment{a: s.a.Add(offset), b: s.b.Add(offset), radius: s.radius}
}

func (s segment) bounds() actor.AABB {
	return actor.AABB{
		Min: mgl64.Vec3{math.Min(s.a[0], s.b[0]), math.Min(s.a[1], s.b[1]), math.Min(s.a[2], s.b[2])},
		Max: mgl64.Vec3{math.Max(s.a[0], s.b[0]), math.Max(s.a[1], s.b[1]), math.Max(s.a[2], s.b[2])},
	}.Expand(s.radius)
}

// SupportWorld and Center make the segment a gjk.Convex
func (s segment) SupportWorld(direction mgl64.Vec3) mgl64.Vec3 {
	if direction.Dot(s.b) > direction.Dot(s.a) {
		return s.b
	}
	return s.a
}

func (s segment) Center() mgl64.Vec3 {
	return s.at(0.5)
}

// goldenSection returns the minimizer of a convex f on [lo, hi]
func goldenSection(f func(float64) float64, lo, hi float64) float64 {
	x1 := hi - invPhi*(hi-lo)
	x2 := lo + invPhi*(hi-lo)
	f1, f2 := f(x1), f(x2)

	for range searchIterations {
		if f1 <= f2 {
			hi, x2, f2 = x2, x1, f1
			x1 = hi - invPhi*(hi-lo)
			f1 = f(x1)
		} else {
			lo, x1, f1 = x1, x2, f2
			x2 = lo + invPhi*(hi-lo)
			f2 = f(x2)
		}
	}

	return (lo + hi) * 0.5
}

// segmentDistance is the smallest signed distance from the body to a point
// of the segment, and that point. The signed distance of a convex shape is
// convex so its minimum along the segment is found by golden section.
func segmentDistance(body *actor.Body, s segment) (float64, mgl64.Vec3) {
	distanceAt := func(u float64) float64 {
		d, _ := body.SignedDistanceWorld(s.at(u))
		return d
	}

	dA := distanceAt(0)
	if s.a == s.b {
		return dA, s.a
	}
	dB := distanceAt(1)

	best, bestU := dA, 0.0
	if dB < best {
		best, bestU = dB, 1
	}
	if _, isPlane := body.Shape.(*actor.Plane); !isPlane {
		u := goldenSection(distanceAt, 0, 1)
		if d := distanceAt(u); d < best {
			best, bestU = d, u
		}
	}

	return best, s.at(bestU)
}

// contact is the first touch of a segment swept against one body
type contact struct {
	body        *actor.Body
	penetrating bool
	depth       float64
	// travel is the distance swept before touching
	travel float64
	point  mgl64.Vec3
}

// better orders contacts: penetrations first, the deepest one, then the
// earliest touch.
func (c contact) better(o contact) bool {
	if c.penetrating != o.penetrating {
		return c.penetrating
	}
	if c.penetrating {
		return c.depth > o.depth
	}
	return c.travel < o.travel
}

// sweepBody moves s by length along dir and returns its first contact with
// body. The distance along the sweep is convex: its minimum is searched
// first, then the first root before it.
func sweepBody(body *actor.Body, s segment, dir mgl64.Vec3, length float64, params movement.QueryParams) (contact, bool) {
	d0, p0 := segmentDistance(body, s)
	d0 -= s.radius

	if d0 < -CONTACT_TOLERANCE {
		if params.IgnoreInitialOverlapWhenMovingOut && length > 0 {
			if _, normal := body.SignedDistanceWorld(p0); dir.Dot(normal) > 0 {
				return contact{}, false
			}
		}
		return contact{body: body, penetrating: true, depth: -d0, point: p0}, true
	}
	if length <= 0 {
		return contact{}, false
	}

	distanceAt := func(t float64) float64 {
		d, _ := segmentDistance(body, s.translate(dir.Mul(t)))
		return d - s.radius
	}

	if d0 <= CONTACT_TOLERANCE {
		// touching: blocks only a move toward the body
		step := math.Min(length, CONTACT_TOLERANCE)
		if distanceAt(step) < d0-step*1e-3 {
			return contact{body: body, point: p0}, true
		}
		return contact{}, false
	}

	tMin := goldenSection(distanceAt, 0, length)
	dMin := distanceAt(tMin)
	if dEnd := distanceAt(length); dEnd < dMin {
		tMin, dMin = length, dEnd
	}
	if dMin > CONTACT_TOLERANCE {
		return contact{}, false
	}

	tHit := tMin
	if dMin < 0 {
		lo, hi := 0.0, tMin
		for range searchIterations {
			mid := (lo + hi) * 0.5
			if distanceAt(mid) > 0 {
				lo = mid
			} else {
				hi = mid
			}
		}
		tHit = lo
	}

	_, point := segmentDistance(body, s.translate(dir.Mul(tHit)))
	return contact{body: body, travel: tHit, point: point}, true
}

// forEachCandidate calls fn with every body a query over box may touch, in
// index order, until fn returns false.
func (w *World) forEachCandidate(box actor.AABB, params movement.QueryParams, fn func(body *actor.Body) bool) {
	accept := func(body *actor.Body) bool {
		return body.Blocks(params.Channel) && !params.Ignores(body.ID)
	}

	w.rebuildGrid()

	for _, body := range w.planes {
		if accept(body) && !fn(body) {
			return
		}
	}

	indices, ok := w.SpatialGrid.Query(box, w.seen, w.candidates[:0])
	if ok {
		indices = append(indices, w.unindexed...)
	} else {
		for i := range w.indexed {
			indices = append(indices, i)
		}
	}
	w.candidates = indices

	for _, idx := range indices {
		body := w.indexed[idx]
		if accept(body) && body.Shape.GetAABB().Overlaps(box) && !fn(body) {
			return
		}
	}

	for _, body := range w.movers {
		if accept(body) && body.Shape.GetAABB().Overlaps(box) && !fn(body) {
			return
		}
	}
}

func (w *World) sweep(s segment, start, end mgl64.Vec3, params movement.QueryParams) movement.HitResult {
	delta := end.Sub(start)
	length := delta.Len()
	dir := vecgeom.Zero
	if length > vecgeom.SMALL_NUMBER {
		dir = delta.Mul(1 / length)
	} else {
		length = 0
	}

	box := s.bounds().Union(s.translate(delta).bounds()).Expand(CONTACT_TOLERANCE)

	var best contact
	found := false
	w.forEachCandidate(box, params, func(body *actor.Body) bool {
		if c, ok := sweepBody(body, s, dir, length, params); ok && (!found || c.better(best)) {
			best, found = c, true
		}
		return true
	})

	if !found {
		return movement.NoHit(start, end)
	}

	return hitResult(best, start, end, dir, length)
}

func hitResult(c contact, start, end, dir mgl64.Vec3, length float64) movement.HitResult {
	surfaceDist, normal := c.body.SignedDistanceWorld(c.point)
	impactPoint := c.point.Sub(normal.Mul(surfaceDist))

	// on an edge, the face most opposed to the sweep is the one hit
	hint := normal
	if length > 0 {
		hint = dir.Mul(-1)
	}

	hit := movement.HitResult{
		Blocking:     true,
		Normal:       normal,
		ImpactNormal: c.body.FaceNormalWorld(impactPoint, hint),
		ImpactPoint:  impactPoint,
		TraceStart:   start,
		TraceEnd:     end,
		Body:         c.body,
		Location:     start,
	}

	if c.penetrating {
		hit.StartPenetrating = true
		hit.PenetrationDepth = c.depth
		return hit
	}

	travel := math.Max(0, c.travel-SWEEP_PULLBACK)
	hit.Distance = travel
	hit.Location = start.Add(dir.Mul(travel))
	if length > 0 {
		hit.Time = travel / length
	}

	return hit
}

// SweepCapsule moves shape from start to end and reports the first blocking
// contact. A capsule overlapping a body at start reports it as penetrating.
func (w *World) SweepCapsule(shape movement.CapsuleShape, start, end mgl64.Vec3, rotation mgl64.Quat, params movement.QueryParams) movement.HitResult {
	return w.sweep(capsuleSegment(shape, start, rotation), start, end, params)
}

// LineTrace is a sweep of a point
func (w *World) LineTrace(start, end mgl64.Vec3, params movement.QueryParams) movement.HitResult {
	return w.sweep(segment{a: start, b: start}, start, end, params)
}

// OverlapTest reports whether shape placed at location intersects a
// blocking body. Planes are tested analytically, every other shape with GJK.
func (w *World) OverlapTest(shape movement.CapsuleShape, location mgl64.Vec3, rotation mgl64.Quat, params movement.QueryParams) bool {
	s := capsuleSegment(shape, location, rotation)
	capsule := gjk.Inflated{Shape: s, Margin: s.radius}

	overlap := false
	w.forEachCandidate(s.bounds(), params, func(body *actor.Body) bool {
		if _, isPlane := body.Shape.(*actor.Plane); isPlane {
			d, _ := segmentDistance(body, s)
			overlap = d < s.radius
		} else {
			overlap = gjk.Overlap(capsule, body)
		}
		return !overlap
	})

	return overlap
}
