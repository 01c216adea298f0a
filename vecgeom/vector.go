// Package vecgeom holds the axis-generic vector helpers used by the movement
// code: every place that would assume a world Z axis goes through a dot product
// or a projection against an arbitrary unit axis instead.
package vecgeom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

const (
	SMALL_NUMBER       = 1e-8
	KINDA_SMALL_NUMBER = 1e-4
	// NORMALIZED_THRESHOLD is the tolerance on |v|² for IsNormalized.
	NORMALIZED_THRESHOLD = 0.01
)

var (
	Zero    = mgl64.Vec3{0, 0, 0}
	Up      = mgl64.Vec3{0, 0, 1}
	Down    = mgl64.Vec3{0, 0, -1}
	Forward = mgl64.Vec3{1, 0, 0}
	Right   = mgl64.Vec3{0, 1, 0}
	One     = mgl64.Vec3{1, 1, 1}
)

// SafeNormal returns v normalized, or the zero vector when v is too short to
// have a direction.
func SafeNormal(v mgl64.Vec3) mgl64.Vec3 {
	lenSqr := v.LenSqr()
	if lenSqr == 1 {
		return v
	}
	if lenSqr < SMALL_NUMBER {
		return Zero
	}
	return v.Mul(1 / math.Sqrt(lenSqr))
}

// IsNormalized reports whether v is unit length within NORMALIZED_THRESHOLD.
func IsNormalized(v mgl64.Vec3) bool {
	return math.Abs(1-v.LenSqr()) < NORMALIZED_THRESHOLD
}

// IsNearlyZero checks every component against tolerance.
func IsNearlyZero(v mgl64.Vec3, tolerance float64) bool {
	return math.Abs(v[0]) <= tolerance && math.Abs(v[1]) <= tolerance && math.Abs(v[2]) <= tolerance
}

// IsZero is true only for the exact zero vector.
func IsZero(v mgl64.Vec3) bool {
	return v[0] == 0 && v[1] == 0 && v[2] == 0
}

// ProjectOnToNormal projects v on a unit normal.
func ProjectOnToNormal(v, normal mgl64.Vec3) mgl64.Vec3 {
	return normal.Mul(v.Dot(normal))
}

// ProjectOnTo projects v on an arbitrary (non unit) direction. A zero direction
// gives a zero projection.
func ProjectOnTo(v, direction mgl64.Vec3) mgl64.Vec3 {
	lenSqr := direction.LenSqr()
	if lenSqr < SMALL_NUMBER {
		return Zero
	}
	return direction.Mul(v.Dot(direction) / lenSqr)
}

// Planar removes the component of v along the unit axis.
func Planar(v, axis mgl64.Vec3) mgl64.Vec3 {
	return v.Sub(axis.Mul(v.Dot(axis)))
}

// PlanarSafeNormal is the direction of Planar(v, axis), zero if v is parallel to axis.
func PlanarSafeNormal(v, axis mgl64.Vec3) mgl64.Vec3 {
	return SafeNormal(Planar(v, axis))
}

// PlanarSize is the length of v once its component along axis is removed.
func PlanarSize(v, axis mgl64.Vec3) float64 {
	return Planar(v, axis).Len()
}

// ClampToMaxSize shortens v to max if it is longer.
func ClampToMaxSize(v mgl64.Vec3, max float64) mgl64.Vec3 {
	if max < KINDA_SMALL_NUMBER {
		return Zero
	}
	lenSqr := v.LenSqr()
	if lenSqr > max*max {
		return v.Mul(max / math.Sqrt(lenSqr))
	}
	return v
}

// ComponentMul multiplies two vectors component-wise.
func ComponentMul(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

// MirrorByVector reflects v about the plane whose normal is n.
func MirrorByVector(v, n mgl64.Vec3) mgl64.Vec3 {
	return v.Sub(n.Mul(2 * v.Dot(n)))
}

// RotateAngleAxis rotates v by angleDeg degrees around the unit axis.
func RotateAngleAxis(v mgl64.Vec3, angleDeg float64, axis mgl64.Vec3) mgl64.Vec3 {
	return mgl64.QuatRotate(mgl64.DegToRad(angleDeg), SafeNormal(axis)).Rotate(v)
}

// NearlyEqual compares two vectors component-wise.
func NearlyEqual(a, b mgl64.Vec3, tolerance float64) bool {
	return IsNearlyZero(a.Sub(b), tolerance)
}

// Clamp01 clamps f into [0, 1].
func Clamp01(f float64) float64 {
	return mgl64.Clamp(f, 0, 1)
}
