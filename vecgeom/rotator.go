package vecgeom

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// gimbalThreshold is the |forward.Z| above which pitch is treated as ±90°.
const gimbalThreshold = 0.9999

// Rotator is an orientation expressed in degrees.
// Pitch turns around the Y axis (positive looks up), Yaw around Z (positive
// turns left when seen from above) and Roll around X.
type Rotator struct {
	Pitch float64 `yaml:"pitch"`
	Yaw   float64 `yaml:"yaw"`
	Roll  float64 `yaml:"roll"`
}

func NewRotator(pitch, yaw, roll float64) Rotator {
	return Rotator{Pitch: pitch, Yaw: yaw, Roll: roll}
}

func (r Rotator) String() string {
	return fmt.Sprintf("P=%.3f Y=%.3f R=%.3f", r.Pitch, r.Yaw, r.Roll)
}

// Quat converts the rotator: yaw is applied last, roll first.
func (r Rotator) Quat() mgl64.Quat {
	yaw := mgl64.QuatRotate(mgl64.DegToRad(r.Yaw), Up)
	pitch := mgl64.QuatRotate(mgl64.DegToRad(-r.Pitch), Right)
	roll := mgl64.QuatRotate(mgl64.DegToRad(-r.Roll), Forward)

	return yaw.Mul(pitch).Mul(roll).Normalize()
}

// RotatorFromQuat is the inverse of Rotator.Quat. Angles come back normalized.
func RotatorFromQuat(q mgl64.Quat) Rotator {
	x, y, z := Axes(q.Normalize())

	if math.Abs(x.Z()) > gimbalThreshold {
		pitch := 90.0
		if x.Z() < 0 {
			pitch = -90
		}
		// roll is folded into yaw at the pole
		return Rotator{
			Pitch: pitch,
			Yaw:   mgl64.RadToDeg(math.Atan2(-y.X(), y.Y())),
			Roll:  0,
		}.Normalize()
	}

	return Rotator{
		Pitch: mgl64.RadToDeg(math.Asin(mgl64.Clamp(x.Z(), -1, 1))),
		Yaw:   mgl64.RadToDeg(math.Atan2(x.Y(), x.X())),
		Roll:  mgl64.RadToDeg(math.Atan2(-y.Z(), z.Z())),
	}.Normalize()
}

// RotatorFromAxes is RotatorFromQuat(QuatFromAxes(x, y, z)).
func RotatorFromAxes(x, y, z mgl64.Vec3) Rotator {
	return RotatorFromQuat(QuatFromAxes(x, y, z))
}

// NormalizeAxis maps an angle in degrees to (-180, 180].
func NormalizeAxis(angle float64) float64 {
	angle = math.Mod(angle, 360)
	if angle < 0 {
		angle += 360
	}
	if angle > 180 {
		angle -= 360
	}
	return angle
}

// ClampAxis maps an angle in degrees to [0, 360).
func ClampAxis(angle float64) float64 {
	angle = math.Mod(angle, 360)
	if angle < 0 {
		angle += 360
	}
	return angle
}

func (r Rotator) Normalize() Rotator {
	return Rotator{
		Pitch: NormalizeAxis(r.Pitch),
		Yaw:   NormalizeAxis(r.Yaw),
		Roll:  NormalizeAxis(r.Roll),
	}
}

func (r Rotator) Add(o Rotator) Rotator {
	return Rotator{r.Pitch + o.Pitch, r.Yaw + o.Yaw, r.Roll + o.Roll}
}

func (r Rotator) Sub(o Rotator) Rotator {
	return Rotator{r.Pitch - o.Pitch, r.Yaw - o.Yaw, r.Roll - o.Roll}
}

func (r Rotator) Scale(s float64) Rotator {
	return Rotator{r.Pitch * s, r.Yaw * s, r.Roll * s}
}

func (r Rotator) IsZero() bool {
	return r.Pitch == 0 && r.Yaw == 0 && r.Roll == 0
}

// Equals compares each axis after normalization, so 179 and -181 are equal.
func (r Rotator) Equals(o Rotator, tolerance float64) bool {
	return math.Abs(NormalizeAxis(r.Pitch-o.Pitch)) <= tolerance &&
		math.Abs(NormalizeAxis(r.Yaw-o.Yaw)) <= tolerance &&
		math.Abs(NormalizeAxis(r.Roll-o.Roll)) <= tolerance
}

// Lerp walks from r toward o through the shortest angle on every axis.
func (r Rotator) Lerp(o Rotator, alpha float64) Rotator {
	return r.Add(o.Sub(r).Normalize().Scale(alpha))
}

// Inverse returns the rotator of the inverse rotation.
func (r Rotator) Inverse() Rotator {
	return RotatorFromQuat(r.Quat().Conjugate())
}

// Vector is the forward (X) direction of the rotator.
func (r Rotator) Vector() mgl64.Vec3 {
	pitch, yaw := mgl64.DegToRad(r.Pitch), mgl64.DegToRad(r.Yaw)
	sp, cp := math.Sincos(pitch)
	sy, cy := math.Sincos(yaw)
	return mgl64.Vec3{cp * cy, cp * sy, sp}
}

func (r Rotator) AxisX() mgl64.Vec3 { return AxisX(r.Quat()) }
func (r Rotator) AxisY() mgl64.Vec3 { return AxisY(r.Quat()) }
func (r Rotator) AxisZ() mgl64.Vec3 { return AxisZ(r.Quat()) }

// ClampPitch limits pitch to [-limit, limit] after normalization.
func (r Rotator) ClampPitch(limit float64) Rotator {
	r = r.Normalize()
	r.Pitch = mgl64.Clamp(r.Pitch, -limit, limit)
	return r
}
