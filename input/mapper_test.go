package input

import (
	"math"
	"testing"

	"github.com/akmonengine/gravitywalk/vecgeom"
	"github.com/go-gl/mathgl/mgl64"
)

type fakeTarget struct {
	vertical mgl64.Vec3
	input    mgl64.Vec3
}

func (t *fakeTarget) VerticalDirection() mgl64.Vec3 { return t.vertical }
func (t *fakeTarget) AddInputVector(v mgl64.Vec3)   { t.input = t.input.Add(v) }

type fixedView vecgeom.Rotator

func (v fixedView) ViewRotation() vecgeom.Rotator { return vecgeom.Rotator(v) }

func vecNear(a, b mgl64.Vec3, tolerance float64) bool {
	return vecgeom.NearlyEqual(a, b, tolerance)
}

func TestDirections_WorldUp(t *testing.T) {
	tests := []struct {
		name      string
		direction func(vecgeom.Rotator, mgl64.Vec3) mgl64.Vec3
		reference vecgeom.Rotator
		want      mgl64.Vec3
	}{
		{"forward planar", ForwardPlanar, vecgeom.NewRotator(0, 0, 0), mgl64.Vec3{1, 0, 0}},
		{"forward planar pitched", ForwardPlanar, vecgeom.NewRotator(30, 90, 0), mgl64.Vec3{0, 1, 0}},
		{"right planar", RightPlanar, vecgeom.NewRotator(0, 0, 0), mgl64.Vec3{0, 1, 0}},
		{"right planar rolled", RightPlanar, vecgeom.NewRotator(0, 0, 40), mgl64.Vec3{0, 1, 0}},
		{"forward radial", ForwardRadial, vecgeom.NewRotator(0, 90, 0), mgl64.Vec3{0, 1, 0}},
		{"right radial", RightRadial, vecgeom.NewRotator(0, 90, 0), mgl64.Vec3{-1, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.direction(tt.reference, vecgeom.Up)
			if !vecNear(got, tt.want, 1e-9) {
				t.Errorf("direction = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDirections_OrthogonalToVertical(t *testing.T) {
	verticals := []mgl64.Vec3{
		vecgeom.Up,
		vecgeom.Down,
		{1, 0, 0},
		mgl64.Vec3{0.3, -0.8, 0.5}.Normalize(),
	}
	references := []vecgeom.Rotator{
		vecgeom.NewRotator(0, 0, 0),
		vecgeom.NewRotator(45, 30, 0),
		vecgeom.NewRotator(-60, 170, 20),
	}
	directions := map[string]func(vecgeom.Rotator, mgl64.Vec3) mgl64.Vec3{
		"forward planar": ForwardPlanar,
		"right planar":   RightPlanar,
		"forward radial": ForwardRadial,
		"right radial":   RightRadial,
	}

	for name, direction := range directions {
		t.Run(name, func(t *testing.T) {
			for _, vertical := range verticals {
				for _, reference := range references {
					got := direction(reference, vertical)
					if math.Abs(got.Len()-1) > 1e-9 {
						t.Errorf("|%v| = %f, want 1 (vertical %v, reference %v)", got, got.Len(), vertical, reference)
					}
					if math.Abs(got.Dot(vertical)) > 1e-9 {
						t.Errorf("%v is not orthogonal to %v (reference %v)", got, vertical, reference)
					}
				}
			}
		})
	}
}

func TestMapper_AddMovementInput(t *testing.T) {
	tests := []struct {
		name   string
		ignore bool
		force  bool
		scale  float64
		want   mgl64.Vec3
	}{
		{"applied", false, false, 0.5, mgl64.Vec3{0.5, 0, 0}},
		{"ignored", true, false, 1, mgl64.Vec3{}},
		{"forced through", true, true, 1, mgl64.Vec3{1, 0, 0}},
		{"zero scale", false, false, 0, mgl64.Vec3{}},
		{"backward", false, false, -1, mgl64.Vec3{-1, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := &fakeTarget{vertical: vecgeom.Up}
			m := NewMapper(target, nil)
			m.IgnoreMoveInput = tt.ignore

			m.AddForwardPlanar(vecgeom.Rotator{}, tt.scale, tt.force)

			if !vecNear(target.input, tt.want, 1e-9) {
				t.Errorf("input = %v, want %v", target.input, tt.want)
			}
		})
	}
}

func TestMapper_ViewVariants(t *testing.T) {
	target := &fakeTarget{vertical: vecgeom.Up}
	m := NewMapper(target, fixedView(vecgeom.NewRotator(0, 90, 0)))

	m.AddForwardPlanarView(1, false)
	if !vecNear(target.input, mgl64.Vec3{0, 1, 0}, 1e-9) {
		t.Errorf("forward input = %v, want (0,1,0)", target.input)
	}

	target.input = mgl64.Vec3{}
	m.AddRightPlanarView(1, false)
	if !vecNear(target.input, mgl64.Vec3{-1, 0, 0}, 1e-9) {
		t.Errorf("right input = %v, want (-1,0,0)", target.input)
	}
}

func TestMapper_WallGravity(t *testing.T) {
	// standing on a wall whose up is +X, looking along +Z
	target := &fakeTarget{vertical: mgl64.Vec3{1, 0, 0}}
	m := NewMapper(target, nil)

	m.AddForwardPlanar(vecgeom.NewRotator(80, 0, 0), 1, false)

	if !vecNear(target.input, mgl64.Vec3{0, 0, 1}, 1e-9) {
		t.Errorf("input = %v, want (0,0,1)", target.input)
	}
}
