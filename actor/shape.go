package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeType represents the type of collision shape
type ShapeType int

const (
	ShapeTypeSphere ShapeType = iota
	ShapeTypeBox
	ShapeTypePlane
	ShapeTypeCapsule
)

// ShapeInterface is the interface that all collision shapes must implement.
// Every method except ComputeAABB/GetAABB works in the local frame of the shape.
type ShapeInterface interface {
	Type() ShapeType
	// ComputeAABB calculates the axis-aligned bounding box for the shape
	// at the given transform
	ComputeAABB(transform Transform)
	GetAABB() AABB
	Support(direction mgl64.Vec3) mgl64.Vec3
	// SignedDistance returns the distance from point to the surface (negative
	// inside) and the outward unit normal at the closest surface point.
	SignedDistance(point mgl64.Vec3) (float64, mgl64.Vec3)
	// FaceNormal returns the normal of the face touched at point. hint picks
	// a face when several meet at an edge or a corner.
	FaceNormal(point, hint mgl64.Vec3) mgl64.Vec3
}

// faceTolerance is how far from a face a point may be and still count as on it
const faceTolerance = 0.05

func sign(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}

// Box represents an oriented box collision shape
// The box is defined by its half-extents (half-width, half-height, half-depth)
type Box struct {
	HalfExtents mgl64.Vec3
	aabb        AABB
}

func (b *Box) Type() ShapeType { return ShapeTypeBox }

func (b *Box) ComputeAABB(transform Transform) {
	// the 8 local corners
	corners := [8]mgl64.Vec3{
		{-b.HalfExtents.X(), -b.HalfExtents.Y(), -b.HalfExtents.Z()},
		{+b.HalfExtents.X(), -b.HalfExtents.Y(), -b.HalfExtents.Z()},
		{-b.HalfExtents.X(), +b.HalfExtents.Y(), -b.HalfExtents.Z()},
		{+b.HalfExtents.X(), +b.HalfExtents.Y(), -b.HalfExtents.Z()},
		{-b.HalfExtents.X(), -b.HalfExtents.Y(), +b.HalfExtents.Z()},
		{+b.HalfExtents.X(), -b.HalfExtents.Y(), +b.HalfExtents.Z()},
		{-b.HalfExtents.X(), +b.HalfExtents.Y(), +b.HalfExtents.Z()},
		{+b.HalfExtents.X(), +b.HalfExtents.Y(), +b.HalfExtents.Z()},
	}

	// first corner seeds min/max
	worldCorner := transform.Rotation.Rotate(corners[0]).Add(transform.Position)
	min := worldCorner
	max := worldCorner

	for i := 1; i < 8; i++ {
		worldCorner = transform.Rotation.Rotate(corners[i]).Add(transform.Position)

		min[0] = math.Min(min[0], worldCorner[0])
		min[1] = math.Min(min[1], worldCorner[1])
		min[2] = math.Min(min[2], worldCorner[2])

		max[0] = math.Max(max[0], worldCorner[0])
		max[1] = math.Max(max[1], worldCorner[1])
		max[2] = math.Max(max[2], worldCorner[2])
	}

	b.aabb = AABB{Min: min, Max: max}
}

func (b *Box) GetAABB() AABB {
	return b.aabb
}

func (b *Box) Support(direction mgl64.Vec3) mgl64.Vec3 {
	hx, hy, hz := b.HalfExtents.X(), b.HalfExtents.Y(), b.HalfExtents.Z()

	if direction.X() < 0 {
		hx = -hx
	}
	if direction.Y() < 0 {
		hy = -hy
	}
	if direction.Z() < 0 {
		hz = -hz
	}

	return mgl64.Vec3{hx, hy, hz}
}

func (b *Box) SignedDistance(point mgl64.Vec3) (float64, mgl64.Vec3) {
	q := mgl64.Vec3{
		math.Abs(point[0]) - b.HalfExtents[0],
		math.Abs(point[1]) - b.HalfExtents[1],
		math.Abs(point[2]) - b.HalfExtents[2],
	}

	if q[0] > 0 || q[1] > 0 || q[2] > 0 {
		outside := mgl64.Vec3{
			math.Max(q[0], 0) * sign(point[0]),
			math.Max(q[1], 0) * sign(point[1]),
			math.Max(q[2], 0) * sign(point[2]),
		}
		d := outside.Len()
		return d, outside.Mul(1 / d)
	}

	// Inside: the closest face is the one with the smallest penetration
	axis := 0
	for i := 1; i < 3; i++ {
		if q[i] > q[axis] {
			axis = i
		}
	}
	var normal mgl64.Vec3
	normal[axis] = sign(point[axis])
	return q[axis], normal
}

func (b *Box) FaceNormal(point, hint mgl64.Vec3) mgl64.Vec3 {
	best := -1
	bestDot := -math.MaxFloat64
	deepest := 0
	deepestQ := -math.MaxFloat64

	for i := 0; i < 3; i++ {
		q := math.Abs(point[i]) - b.HalfExtents[i]
		if q > deepestQ {
			deepestQ = q
			deepest = i
		}
		if q < -faceTolerance {
			continue
		}
		dot := sign(point[i]) * hint[i]
		if dot > bestDot {
			bestDot = dot
			best = i
		}
	}
	if best < 0 || hint.LenSqr() == 0 {
		best = deepest
	}

	var normal mgl64.Vec3
	normal[best] = sign(point[best])
	return normal
}

// Sphere represents a spherical collision shape
type Sphere struct {
	Radius float64
	aabb   AABB
}

func (s *Sphere) Type() ShapeType { return ShapeTypeSphere }

// ComputeAABB calculates the axis-aligned bounding box for the sphere
func (s *Sphere) ComputeAABB(transform Transform) {
	// Sphere AABB is not affected by rotation, only by position
	radiusVec := mgl64.Vec3{s.Radius, s.Radius, s.Radius}

	s.aabb = AABB{
		Min: transform.Position.Sub(radiusVec),
		Max: transform.Position.Add(radiusVec),
	}
}

func (s *Sphere) GetAABB() AABB {
	return s.aabb
}

func (s *Sphere) Support(direction mgl64.Vec3) mgl64.Vec3 {
	if direction.LenSqr() == 0 {
		return mgl64.Vec3{s.Radius, 0, 0}
	}
	return direction.Normalize().Mul(s.Radius)
}

func (s *Sphere) SignedDistance(point mgl64.Vec3) (float64, mgl64.Vec3) {
	l := point.Len()
	if l == 0 {
		return -s.Radius, mgl64.Vec3{0, 0, 1}
	}
	return l - s.Radius, point.Mul(1 / l)
}

func (s *Sphere) FaceNormal(point, hint mgl64.Vec3) mgl64.Vec3 {
	_, normal := s.SignedDistance(point)
	return normal
}

// Capsule is a segment along the local Z axis swept by a sphere of Radius.
// HalfHeight is measured from the center to the tip of a hemisphere, as for a
// character collision capsule.
type Capsule struct {
	Radius     float64
	HalfHeight float64
	aabb       AABB
}

func (c *Capsule) Type() ShapeType { return ShapeTypeCapsule }

// SegmentHalfLength is the half length of the inner segment
func (c *Capsule) SegmentHalfLength() float64 {
	return math.Max(0, c.HalfHeight-c.Radius)
}

func (c *Capsule) ComputeAABB(transform Transform) {
	axis := transform.Rotation.Rotate(mgl64.Vec3{0, 0, c.SegmentHalfLength()})
	top := transform.Position.Add(axis)
	bottom := transform.Position.Sub(axis)
	r := mgl64.Vec3{c.Radius, c.Radius, c.Radius}

	c.aabb = AABB{
		Min: mgl64.Vec3{math.Min(top[0], bottom[0]), math.Min(top[1], bottom[1]), math.Min(top[2], bottom[2])}.Sub(r),
		Max: mgl64.Vec3{math.Max(top[0], bottom[0]), math.Max(top[1], bottom[1]), math.Max(top[2], bottom[2])}.Add(r),
	}
}

func (c *Capsule) GetAABB() AABB {
	return c.aabb
}

func (c *Capsule) Support(direction mgl64.Vec3) mgl64.Vec3 {
	tip := mgl64.Vec3{0, 0, sign(direction.Z()) * c.SegmentHalfLength()}
	if direction.LenSqr() == 0 {
		return tip.Add(mgl64.Vec3{c.Radius, 0, 0})
	}
	return tip.Add(direction.Normalize().Mul(c.Radius))
}

func (c *Capsule) SignedDistance(point mgl64.Vec3) (float64, mgl64.Vec3) {
	half := c.SegmentHalfLength()
	closest := mgl64.Vec3{0, 0, math.Max(-half, math.Min(half, point.Z()))}
	v := point.Sub(closest)
	l := v.Len()
	if l == 0 {
		return -c.Radius, mgl64.Vec3{1, 0, 0}
	}
	return l - c.Radius, v.Mul(1 / l)
}

func (c *Capsule) FaceNormal(point, hint mgl64.Vec3) mgl64.Vec3 {
	_, normal := c.SignedDistance(point)
	return normal
}

// Plane represents an infinite plane collision shape
// The plane is defined by the equation: Normal · p + Distance = 0
// where Normal is the plane's normal vector (must be normalized)
// and Distance is the signed distance from the origin along the normal
type Plane struct {
	Normal   mgl64.Vec3 // Plane normal (must be normalized)
	Distance float64    // Plane constant (signed distance from origin)
	aabb     AABB
}

func (p *Plane) Type() ShapeType { return ShapeTypePlane }

func (p *Plane) ComputeAABB(transform Transform) {
	const thickness = 1.0 // detection depth below the surface
	const infinity = 1e10 // stands in for the unbounded axes

	normal := transform.Rotation.Rotate(p.Normal)

	// Point on the plane closest to the origin
	// Assumes p.Normal is normalized
	planePoint := normal.Mul(-p.Distance)

	// Create base bounds with thickness along the normal
	min := planePoint.Sub(normal.Mul(thickness)).Add(transform.Position)
	max := planePoint.Add(transform.Position)
	for i := 0; i < 3; i++ {
		if min[i] > max[i] {
			min[i], max[i] = max[i], min[i]
		}
	}

	// Extend the AABB to infinity in directions perpendicular to the normal
	absNormal := mgl64.Vec3{
		math.Abs(normal.X()),
		math.Abs(normal.Y()),
		math.Abs(normal.Z()),
	}

	// Find the dominant axis (the one aligned with the normal)
	threshold := 1.0 // threshold to consider an axis as dominant

	// For NON-dominant axes, extend to infinity
	if absNormal.X() < threshold {
		min[0] = -infinity
		max[0] = infinity
	}
	if absNormal.Y() < threshold {
		min[1] = -infinity
		max[1] = infinity
	}
	if absNormal.Z() < threshold {
		min[2] = -infinity
		max[2] = infinity
	}

	p.aabb = AABB{Min: min, Max: max}
}

func (p *Plane) GetAABB() AABB {
	return p.aabb
}

// Support treats the plane as a very large slab below its surface.
// Can obviously break for bigger worlds
func (p *Plane) Support(direction mgl64.Vec3) mgl64.Vec3 {
	const halfSize = 1e5
	const thickness = 1.0

	tangent1, tangent2 := getTangentBasis(p.Normal)
	point := p.Normal.Mul(-p.Distance)
	point = point.Add(tangent1.Mul(sign(direction.Dot(tangent1)) * halfSize))
	point = point.Add(tangent2.Mul(sign(direction.Dot(tangent2)) * halfSize))
	if direction.Dot(p.Normal) < 0 {
		point = point.Sub(p.Normal.Mul(thickness))
	}

	return point
}

func (p *Plane) SignedDistance(point mgl64.Vec3) (float64, mgl64.Vec3) {
	return p.Normal.Dot(point) + p.Distance, p.Normal
}

func (p *Plane) FaceNormal(point, hint mgl64.Vec3) mgl64.Vec3 {
	return p.Normal
}

// Helper to generate the tangent basis
func getTangentBasis(normal mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	var tangent1 mgl64.Vec3
	if math.Abs(normal.X()) > 0.9 {
		tangent1 = mgl64.Vec3{0, 1, 0}
	} else {
		tangent1 = mgl64.Vec3{1, 0, 0}
	}

	tangent1 = tangent1.Sub(normal.Mul(tangent1.Dot(normal))).Normalize()
	tangent2 := normal.Cross(tangent1).Normalize()

	return tangent1, tangent2
}
