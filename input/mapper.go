// Package input turns forward / right movement intentions, given relative to
// a view rotation, into world directions that respect the vertical axis of
// the character.
package input

import (
	"github.com/akmonengine/gravitywalk/vecgeom"
	"github.com/go-gl/mathgl/mgl64"
)

// Target receives the mapped input
type Target interface {
	VerticalDirection() mgl64.Vec3
	AddInputVector(v mgl64.Vec3)
}

// ViewSource provides the default reference rotation
type ViewSource interface {
	ViewRotation() vecgeom.Rotator
}

type Mapper struct {
	Target Target
	View   ViewSource
	// IgnoreMoveInput drops every input that is not forced
	IgnoreMoveInput bool
}

func NewMapper(target Target, view ViewSource) *Mapper {
	return &Mapper{Target: target, View: view}
}

// ForwardPlanar is the X axis of the reference rotation laid flat on the
// plane orthogonal to vertical.
func ForwardPlanar(reference vecgeom.Rotator, vertical mgl64.Vec3) mgl64.Vec3 {
	return vecgeom.AxisX(vecgeom.MakeFromZX(vertical, reference.AxisX()))
}

// RightPlanar is the Y axis of the reference rotation laid flat on the plane
// orthogonal to vertical.
func RightPlanar(reference vecgeom.Rotator, vertical mgl64.Vec3) mgl64.Vec3 {
	return vecgeom.AxisY(vecgeom.MakeFromZY(vertical, reference.AxisY()))
}

// ForwardRadial is the forward axis of the basis built around the right axis
// of the reference rotation.
func ForwardRadial(reference vecgeom.Rotator, vertical mgl64.Vec3) mgl64.Vec3 {
	return vecgeom.AxisX(vecgeom.MakeFromYZ(reference.AxisY(), vertical))
}

// RightRadial is the right axis of the basis built around the forward axis
// of the reference rotation.
func RightRadial(reference vecgeom.Rotator, vertical mgl64.Vec3) mgl64.Vec3 {
	return vecgeom.AxisY(vecgeom.MakeFromZX(vertical, reference.AxisX()))
}

// AddMovementInput scales direction and hands it to the target
func (m *Mapper) AddMovementInput(direction mgl64.Vec3, scale float64, force bool) {
	if m.Target == nil || scale == 0 || vecgeom.IsZero(direction) {
		return
	}
	if m.IgnoreMoveInput && !force {
		return
	}
	m.Target.AddInputVector(direction.Mul(scale))
}

func (m *Mapper) viewRotation() vecgeom.Rotator {
	if m.View == nil {
		return vecgeom.Rotator{}
	}
	return m.View.ViewRotation()
}

func (m *Mapper) AddForwardPlanar(reference vecgeom.Rotator, scale float64, force bool) {
	if m.Target == nil {
		return
	}
	m.AddMovementInput(ForwardPlanar(reference, m.Target.VerticalDirection()), scale, force)
}

func (m *Mapper) AddRightPlanar(reference vecgeom.Rotator, scale float64, force bool) {
	if m.Target == nil {
		return
	}
	m.AddMovementInput(RightPlanar(reference, m.Target.VerticalDirection()), scale, force)
}

func (m *Mapper) AddForwardRadial(reference vecgeom.Rotator, scale float64, force bool) {
	if m.Target == nil {
		return
	}
	m.AddMovementInput(ForwardRadial(reference, m.Target.VerticalDirection()), scale, force)
}

func (m *Mapper) AddRightRadial(reference vecgeom.Rotator, scale float64, force bool) {
	if m.Target == nil {
		return
	}
	m.AddMovementInput(RightRadial(reference, m.Target.VerticalDirection()), scale, force)
}

// The View variants use the current view rotation as the reference

func (m *Mapper) AddForwardPlanarView(scale float64, force bool) {
	m.AddForwardPlanar(m.viewRotation(), scale, force)
}

func (m *Mapper) AddRightPlanarView(scale float64, force bool) {
	m.AddRightPlanar(m.viewRotation(), scale, force)
}

func (m *Mapper) AddForwardRadialView(scale float64, force bool) {
	m.AddForwardRadial(m.viewRotation(), scale, force)
}

func (m *Mapper) AddRightRadialView(scale float64, force bool) {
	m.AddRightRadial(m.viewRotation(), scale, force)
}
