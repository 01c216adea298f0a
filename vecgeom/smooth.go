package vecgeom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// SmoothAlpha is the interpolation factor used by every "adjust intensity"
// setting: a negative rate snaps immediately, otherwise dt*rate capped at 1.
func SmoothAlpha(dt, rate float64) float64 {
	if rate < 0 {
		return 1
	}
	return math.Min(1, dt*rate)
}

// SlerpToward moves current toward target by SmoothAlpha(dt, rate).
func SlerpToward(current, target mgl64.Quat, dt, rate float64) mgl64.Quat {
	alpha := SmoothAlpha(dt, rate)
	if alpha >= 1 {
		return target.Normalize()
	}
	if alpha <= 0 {
		return current
	}
	// take the short way around
	if current.Dot(target) < 0 {
		target = target.Scale(-1)
	}
	return mgl64.QuatSlerp(current, target, alpha).Normalize()
}

// QuatAngleDeg is the angle in degrees of the rotation taking a to b.
func QuatAngleDeg(a, b mgl64.Quat) float64 {
	d := math.Abs(a.Normalize().Dot(b.Normalize()))
	return mgl64.RadToDeg(2 * math.Acos(mgl64.Clamp(d, -1, 1)))
}
