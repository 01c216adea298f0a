// Package orientation separates where the camera looks from where the player
// aims. The control rotation accumulates look input, the view rotation base
// follows the gravity of the character, and the view is the base applied to
// the control rotation.
package orientation

import (
	"math"

	"github.com/akmonengine/gravitywalk/movement"
	"github.com/akmonengine/gravitywalk/vecgeom"
	"github.com/go-gl/mathgl/mgl64"
)

// Subject is the character the controller orients the view for
type Subject interface {
	Gravity() movement.GravitySpec
	VerticalDirection() mgl64.Vec3
	Rotation() mgl64.Quat
	Acceleration() mgl64.Vec3
	MaxAcceleration() float64
}

type Controller struct {
	Settings Settings
	Subject  Subject

	viewBase        mgl64.Quat
	controlRotation vecgeom.Rotator

	resettingPitch bool
	resettingYaw   bool
	resettingRoll  bool
}

func NewController(subject Subject, settings Settings) *Controller {
	return &Controller{
		Settings: settings,
		Subject:  subject,
		viewBase: mgl64.QuatIdent(),
	}
}

// ViewRotationBase is the current base, zero in ControlRotation mode
func (c *Controller) ViewRotationBase() vecgeom.Rotator {
	return vecgeom.RotatorFromQuat(c.base())
}

// base is the view base in effect for the current mode. The stored base
// may be stale when the mode was assigned through Settings.
func (c *Controller) base() mgl64.Quat {
	if c.Settings.ViewRotationBaseMode == ViewBaseControlRotation {
		return mgl64.QuatIdent()
	}
	return c.viewBase
}

func (c *Controller) ControlRotation() vecgeom.Rotator {
	return c.controlRotation
}

// SetControlRotation replaces the control rotation, pitch clamped
func (c *Controller) SetControlRotation(r vecgeom.Rotator) {
	c.controlRotation = r.ClampPitch(c.pitchLimit())
}

func (c *Controller) pitchLimit() float64 {
	if c.Settings.PitchLimit <= 0 {
		return DEFAULT_PITCH_LIMIT
	}
	return c.Settings.PitchLimit
}

// ViewRotation is the direction the character looks at: the base applied to
// the control rotation, or the control rotation alone in ControlRotation mode.
func (c *Controller) ViewRotation() vecgeom.Rotator {
	if c.Settings.ViewRotationBaseMode == ViewBaseControlRotation {
		return c.controlRotation
	}
	return vecgeom.RotatorFromQuat(c.viewBase.Mul(c.controlRotation.Quat())).Normalize()
}

// ForwardControlRotation is the control rotation that makes the view face
// the way the body faces.
func (c *Controller) ForwardControlRotation() vecgeom.Rotator {
	return vecgeom.RotatorFromQuat(c.base().Conjugate().Mul(c.Subject.Rotation()))
}

// SetViewRotationBaseMode switches the base mode. Leaving for
// ControlRotation folds the base into the control rotation so the view does
// not jump.
func (c *Controller) SetViewRotationBaseMode(mode ViewRotationBaseMode) {
	if mode == ViewBaseControlRotation && c.Settings.ViewRotationBaseMode != ViewBaseControlRotation {
		c.SetControlRotation(c.ViewRotation())
		c.viewBase = mgl64.QuatIdent()
	}
	c.Settings.ViewRotationBaseMode = mode
}

// ResetControlRotation starts turning the selected axes of the control
// rotation back to the body facing. Input on those axes is ignored meanwhile.
func (c *Controller) ResetControlRotation(pitch, yaw, roll bool) {
	c.resettingPitch = c.resettingPitch || pitch
	c.resettingYaw = c.resettingYaw || yaw
	c.resettingRoll = c.resettingRoll || roll
}

// IsResetting reports the pending resets per axis
func (c *Controller) IsResetting() (pitch, yaw, roll bool) {
	return c.resettingPitch, c.resettingYaw, c.resettingRoll
}

func (c *Controller) AddPitchInput(degrees float64) {
	if c.resettingPitch {
		return
	}
	c.SetControlRotation(c.controlRotation.Add(vecgeom.Rotator{Pitch: degrees}))
}

func (c *Controller) AddYawInput(degrees float64) {
	if c.resettingYaw {
		return
	}
	c.SetControlRotation(c.controlRotation.Add(vecgeom.Rotator{Yaw: degrees}))
}

func (c *Controller) AddRollInput(degrees float64) {
	if c.resettingRoll {
		return
	}
	c.SetControlRotation(c.controlRotation.Add(vecgeom.Rotator{Roll: degrees}))
}

// Update runs UpdateViewRotationBase then UpdateControlRotation
func (c *Controller) Update(deltaTime float64) {
	if c.Subject == nil {
		return
	}
	c.UpdateViewRotationBase(deltaTime)
	c.UpdateControlRotation(deltaTime)
}

// targetUp is the up axis of the base for the current mode. ok is false when
// the mode does not derive the base from an axis.
func (c *Controller) targetUp() (mgl64.Vec3, bool) {
	g := c.Subject.Gravity()

	switch c.Settings.ViewRotationBaseMode {
	case ViewBaseGravity:
		return g.Gravity().Mul(-1), true
	case ViewBaseWorldGravity:
		return g.WorldGravity().Mul(-1), true
	case ViewBaseDynamicGravity:
		return g.DynamicGravity.Mul(-1), true
	case ViewBaseVerticalDirection:
		return c.Subject.VerticalDirection(), true
	case ViewBaseCharacterRotation:
		return vecgeom.AxisZ(c.Subject.Rotation()), true
	default:
		return vecgeom.Zero, false
	}
}

// UpdateViewRotationBase blends the base toward a rotation whose Z axis is
// the up axis of the configured mode.
func (c *Controller) UpdateViewRotationBase(deltaTime float64) {
	switch c.Settings.ViewRotationBaseMode {
	case ViewBaseControlRotation:
		c.viewBase = mgl64.QuatIdent()
		return
	case ViewBaseCustom:
		c.viewBase = c.Settings.CustomViewRotationBase.Quat()
		return
	}

	up, _ := c.targetUp()
	z := vecgeom.SafeNormal(up)
	if vecgeom.IsZero(z) {
		return
	}

	currentX, currentY, currentZ := vecgeom.Axes(c.viewBase)

	// more than 90° away: tilt past the target around the view right axis
	// so the blend does not pick an arbitrary path through the flip
	dot := currentZ.Dot(z)
	if dot < 0 {
		x := vecgeom.PlanarSafeNormal(c.ViewRotation().AxisX(), z)
		angle := 90 + mgl64.RadToDeg(math.Acos(mgl64.Clamp(dot, -1, 1)))
		z = vecgeom.RotateAngleAxis(z, angle, x).Mul(-1)
	}

	var target mgl64.Quat
	if math.Abs(currentY.Dot(z)) < flipThreshold {
		target = vecgeom.MakeFromZY(z, currentY)
	} else {
		target = vecgeom.MakeFromZX(z, currentX)
	}

	if vecgeom.RotatorFromQuat(c.viewBase).Equals(vecgeom.RotatorFromQuat(target), viewAngleTolerance) {
		return
	}
	c.viewBase = vecgeom.SlerpToward(c.viewBase, target, deltaTime, c.Settings.ViewRotationAdjustIntensity)
}

// UpdateControlRotation either moves the axes being reset toward the body
// facing, or nudges the yaw toward lateral movement input.
func (c *Controller) UpdateControlRotation(deltaTime float64) {
	if c.resettingPitch || c.resettingYaw || c.resettingRoll {
		current := c.controlRotation
		desired := c.ForwardControlRotation()
		if !c.resettingPitch {
			desired.Pitch = current.Pitch
		}
		if !c.resettingRoll {
			desired.Roll = current.Roll
		}
		if !c.resettingYaw {
			desired.Yaw = current.Yaw
		}
		desired = desired.Normalize()

		current = current.Lerp(desired, mgl64.Clamp(deltaTime*c.Settings.ResetControlRotationAdjustRate, 0, 1))
		if current.Equals(desired, c.Settings.ResetTolerance) {
			c.SetControlRotation(desired)
			c.resettingPitch, c.resettingYaw, c.resettingRoll = false, false, false
		} else {
			c.SetControlRotation(current)
		}
		return
	}

	maxAcceleration := c.Subject.MaxAcceleration()
	if c.Settings.ControlRotationAdjustRate > 0 && maxAcceleration > 0 {
		lateral := c.ViewRotation().AxisY().Dot(c.Subject.Acceleration())
		c.AddYawInput(lateral * deltaTime * c.Settings.ControlRotationAdjustRate / maxAcceleration)
	}
}
