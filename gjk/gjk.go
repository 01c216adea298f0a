// Package gjk tests two convex objects for overlap with the
// Gilbert-Johnson-Keerthi algorithm.
//
// The objects overlap when their Minkowski difference A - B contains the
// origin. A simplex of up to four support points is grown toward the origin
// and reduced to its feature closest to it at every iteration, until either
// a tetrahedron encloses the origin or a support point fails to pass it.
// The world uses it to check whether a character capsule would encroach on
// convex geometry (crouch, stand up, spawn).
//
// References:
//   - Gilbert, Johnson, Keerthi: "A Fast Procedure for Computing the Distance Between
//     Complex Objects in Three-Dimensional Space" (1988)
//   - Van den Bergen: "Collision Detection in Interactive 3D Environments" (2003)
package gjk

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	MAX_ITERATIONS = 32
	// degenerateEpsilon is the squared length under which an edge or a face
	// normal is treated as collapsed
	degenerateEpsilon = 1e-10
)

// Convex is anything GJK can test: a support mapping in world space and a
// point inside the shape to start the search from.
type Convex interface {
	SupportWorld(direction mgl64.Vec3) mgl64.Vec3
	Center() mgl64.Vec3
}

// Simplex holds 1 to 4 points of the Minkowski difference, the most recent
// one last.
type Simplex struct {
	Points [4]mgl64.Vec3
	Count  int
}

func (s *Simplex) Reset() {
	s.Count = 0
}

func (s *Simplex) push(p mgl64.Vec3) {
	s.Points[s.Count] = p
	s.Count++
}

// keep replaces the simplex by points, oldest first
func (s *Simplex) keep(points ...mgl64.Vec3) {
	s.Count = copy(s.Points[:], points)
}

var SimplexPool = sync.Pool{
	New: func() any {
		return &Simplex{}
	},
}

// Inflated grows a convex object by Margin in every direction. A capsule is a
// segment inflated by its radius, and a small margin turns an overlap test into
// a "closer than" test.
type Inflated struct {
	Shape  Convex
	Margin float64
}

func (i Inflated) SupportWorld(direction mgl64.Vec3) mgl64.Vec3 {
	support := i.Shape.SupportWorld(direction)
	if l := direction.Len(); l > 0 {
		support = support.Add(direction.Mul(i.Margin / l))
	}
	return support
}

func (i Inflated) Center() mgl64.Vec3 {
	return i.Shape.Center()
}

// MinkowskiSupport is the support point of A - B along direction
func MinkowskiSupport(a, b Convex, direction mgl64.Vec3) mgl64.Vec3 {
	return a.SupportWorld(direction).Sub(b.SupportWorld(direction.Mul(-1)))
}

// Overlap runs GJK with a pooled simplex
func Overlap(a, b Convex) bool {
	simplex := SimplexPool.Get().(*Simplex)
	simplex.Reset()
	defer SimplexPool.Put(simplex)

	return GJK(a, b, simplex)
}

// GJK reports whether a and b overlap. Touching counts as overlapping. The
// simplex is overwritten. Running out of iterations reports no overlap.
func GJK(a, b Convex, simplex *Simplex) bool {
	direction := b.Center().Sub(a.Center())
	if direction.LenSqr() < 1e-8 {
		direction = mgl64.Vec3{1, 0, 0}
	}

	simplex.keep(MinkowskiSupport(a, b, direction))
	direction = simplex.Points[0].Mul(-1)
	if direction.LenSqr() < 1e-16 {
		return true
	}

	for range MAX_ITERATIONS {
		support := MinkowskiSupport(a, b, direction)
		if support.Dot(direction) <= 0 {
			return false
		}

		simplex.push(support)
		if simplex.reduce(&direction) {
			return true
		}
	}

	return false
}

// reduce drops the points not needed to reach the origin and aims direction
// at it. It reports true once the origin is enclosed.
func (s *Simplex) reduce(direction *mgl64.Vec3) bool {
	switch s.Count {
	case 2:
		return s.segment(direction)
	case 3:
		return s.face(direction)
	case 4:
		return s.volume(direction)
	}
	return false
}

// towardOrigin is the component of ao perpendicular to edge
func towardOrigin(edge, ao mgl64.Vec3) mgl64.Vec3 {
	return edge.Cross(ao).Cross(edge)
}

func (s *Simplex) segment(direction *mgl64.Vec3) bool {
	a, b := s.Points[1], s.Points[0]
	ab := b.Sub(a)
	ao := a.Mul(-1)

	if ab.LenSqr() < 1e-8 {
		if ao.LenSqr() < 1e-8 {
			return true
		}
		s.keep(a)
		*direction = ao
		return false
	}

	// the origin lies behind a
	if ab.Dot(ao) <= 0 {
		s.keep(a)
		*direction = ao
		return false
	}

	perpendicular := towardOrigin(ab, ao)
	if perpendicular.LenSqr() < 1e-8 {
		// on the segment
		return true
	}
	*direction = perpendicular
	return false
}

func (s *Simplex) face(direction *mgl64.Vec3) bool {
	a, b, c := s.Points[2], s.Points[1], s.Points[0]
	ab := b.Sub(a)
	ac := c.Sub(a)
	ao := a.Mul(-1)
	normal := ab.Cross(ac)

	// collinear, c is the oldest point
	if normal.LenSqr() < degenerateEpsilon {
		s.keep(b, a)
		return s.segment(direction)
	}

	switch {
	case ab.Cross(normal).Dot(ao) > 0:
		s.keep(b, a)
		*direction = towardOrigin(ab, ao)
	case normal.Cross(ac).Dot(ao) > 0:
		s.keep(c, a)
		*direction = towardOrigin(ac, ao)
	case normal.Dot(ao) > 0:
		*direction = normal
	default:
		*direction = normal.Mul(-1)
	}

	// a triangle never encloses a point in 3D
	return false
}

// outward is the normal of the face spanned by u and v turned away from the
// remaining vertex
func outward(u, v, toOpposite mgl64.Vec3) mgl64.Vec3 {
	n := u.Cross(v)
	if n.Dot(toOpposite) > 0 {
		return n.Mul(-1)
	}
	return n
}

func (s *Simplex) volume(direction *mgl64.Vec3) bool {
	a, b, c, d := s.Points[3], s.Points[2], s.Points[1], s.Points[0]
	ab := b.Sub(a)
	ac := c.Sub(a)
	ad := d.Sub(a)
	ao := a.Mul(-1)

	abc := outward(ab, ac, ad)
	acd := outward(ac, ad, ab)
	adb := outward(ad, ab, ac)

	switch {
	case abc.LenSqr() < degenerateEpsilon || acd.LenSqr() < degenerateEpsilon || adb.LenSqr() < degenerateEpsilon:
		s.keep(c, b, a)
	case abc.Dot(ao) > 0:
		s.keep(c, b, a)
	case acd.Dot(ao) > 0:
		s.keep(d, c, a)
	case adb.Dot(ao) > 0:
		s.keep(b, d, a)
	default:
		return true
	}

	return s.face(direction)
}
