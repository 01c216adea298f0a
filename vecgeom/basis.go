package vecgeom

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// parallelTolerance keeps the cross product of two "non parallel" unit vectors
// long enough to survive SafeNormal.
const parallelTolerance = 1e-6

// QuatFromAxes builds the rotation mapping local X, Y, Z onto x, y, z.
// The three vectors must form an orthonormal right-handed basis.
func QuatFromAxes(x, y, z mgl64.Vec3) mgl64.Quat {
	return mgl64.Mat4ToQuat(mgl64.Mat3FromCols(x, y, z).Mat4()).Normalize()
}

// Axes returns the world directions of the local X, Y and Z axes of q.
func Axes(q mgl64.Quat) (mgl64.Vec3, mgl64.Vec3, mgl64.Vec3) {
	return q.Rotate(Forward), q.Rotate(Right), q.Rotate(Up)
}

func AxisX(q mgl64.Quat) mgl64.Vec3 { return q.Rotate(Forward) }
func AxisY(q mgl64.Quat) mgl64.Vec3 { return q.Rotate(Right) }
func AxisZ(q mgl64.Quat) mgl64.Vec3 { return q.Rotate(Up) }

// fallbackAxis picks a world axis that is not parallel to n.
func fallbackAxis(n mgl64.Vec3) mgl64.Vec3 {
	if math.Abs(n.Z()) < 1-KINDA_SMALL_NUMBER {
		return Up
	}
	return Forward
}

func secondaryAxis(primary, candidate mgl64.Vec3) mgl64.Vec3 {
	norm := SafeNormal(candidate)
	if IsZero(norm) || math.Abs(math.Abs(primary.Dot(norm))-1) < parallelTolerance {
		return fallbackAxis(primary)
	}
	return norm
}

// MakeFromZX builds a rotation whose Z axis is z exactly and whose X axis is
// as close as possible to x.
func MakeFromZX(z, x mgl64.Vec3) mgl64.Quat {
	newZ := SafeNormal(z)
	if IsZero(newZ) {
		return mgl64.QuatIdent()
	}
	norm := secondaryAxis(newZ, x)

	newY := SafeNormal(newZ.Cross(norm))
	newX := newY.Cross(newZ)

	return QuatFromAxes(newX, newY, newZ)
}

// MakeFromZY builds a rotation whose Z axis is z exactly and whose Y axis is
// as close as possible to y.
func MakeFromZY(z, y mgl64.Vec3) mgl64.Quat {
	newZ := SafeNormal(z)
	if IsZero(newZ) {
		return mgl64.QuatIdent()
	}
	norm := secondaryAxis(newZ, y)

	newX := SafeNormal(norm.Cross(newZ))
	newY := newZ.Cross(newX)

	return QuatFromAxes(newX, newY, newZ)
}

// MakeFromYZ builds a rotation whose Y axis is y exactly and whose Z axis is
// as close as possible to z.
func MakeFromYZ(y, z mgl64.Vec3) mgl64.Quat {
	newY := SafeNormal(y)
	if IsZero(newY) {
		return mgl64.QuatIdent()
	}
	norm := secondaryAxis(newY, z)

	newX := SafeNormal(newY.Cross(norm))
	newZ := newX.Cross(newY)

	return QuatFromAxes(newX, newY, newZ)
}

// MakeFromXZ builds a rotation whose X axis is x exactly and whose Z axis is
// as close as possible to z.
func MakeFromXZ(x, z mgl64.Vec3) mgl64.Quat {
	newX := SafeNormal(x)
	if IsZero(newX) {
		return mgl64.QuatIdent()
	}
	norm := secondaryAxis(newX, z)

	newY := SafeNormal(norm.Cross(newX))
	newZ := newX.Cross(newY)

	return QuatFromAxes(newX, newY, newZ)
}

// MakeFromZ builds any rotation whose Z axis is z.
func MakeFromZ(z mgl64.Vec3) mgl64.Quat {
	newZ := SafeNormal(z)
	if IsZero(newZ) {
		return mgl64.QuatIdent()
	}
	up := Forward
	if math.Abs(newZ.Z()) < 1-KINDA_SMALL_NUMBER {
		up = Up
	}
	newX := SafeNormal(up.Cross(newZ))
	newY := newZ.Cross(newX)

	return QuatFromAxes(newX, newY, newZ)
}
