package vecgeom

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func approxEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func vecNear(a, b mgl64.Vec3, tolerance float64) bool {
	return NearlyEqual(a, b, tolerance)
}

func TestSafeNormal(t *testing.T) {
	tests := []struct {
		name     string
		input    mgl64.Vec3
		expected mgl64.Vec3
	}{
		{"unit", mgl64.Vec3{0, 0, 1}, mgl64.Vec3{0, 0, 1}},
		{"scaled", mgl64.Vec3{0, 3, 0}, mgl64.Vec3{0, 1, 0}},
		{"diagonal", mgl64.Vec3{1, 1, 0}, mgl64.Vec3{math.Sqrt2 / 2, math.Sqrt2 / 2, 0}},
		{"zero", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 0}},
		{"tiny", mgl64.Vec3{1e-6, 0, 0}, mgl64.Vec3{0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SafeNormal(tt.input)
			if !vecNear(got, tt.expected, 1e-9) {
				t.Errorf("SafeNormal(%v) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestIsNormalized(t *testing.T) {
	tests := []struct {
		name     string
		input    mgl64.Vec3
		expected bool
	}{
		{"unit", mgl64.Vec3{1, 0, 0}, true},
		{"almost unit", mgl64.Vec3{0, 0, 1.001}, true},
		{"long", mgl64.Vec3{0, 0, 2}, false},
		{"zero", mgl64.Vec3{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNormalized(tt.input); got != tt.expected {
				t.Errorf("IsNormalized(%v) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestPlanar(t *testing.T) {
	axis := SafeNormal(mgl64.Vec3{1, 1, 1})
	v := mgl64.Vec3{3, -2, 5}

	planar := Planar(v, axis)
	if !approxEqual(planar.Dot(axis), 0, 1e-9) {
		t.Errorf("Planar component along axis = %v, want 0", planar.Dot(axis))
	}

	rebuilt := planar.Add(ProjectOnToNormal(v, axis))
	if !vecNear(rebuilt, v, 1e-9) {
		t.Errorf("planar + projection = %v, want %v", rebuilt, v)
	}
}

func TestProjectOnTo(t *testing.T) {
	got := ProjectOnTo(mgl64.Vec3{2, 3, 0}, mgl64.Vec3{0, 5, 0})
	if !vecNear(got, mgl64.Vec3{0, 3, 0}, 1e-12) {
		t.Errorf("ProjectOnTo = %v, want (0,3,0)", got)
	}

	got = ProjectOnTo(mgl64.Vec3{2, 3, 0}, mgl64.Vec3{})
	if !IsZero(got) {
		t.Errorf("ProjectOnTo zero direction = %v, want zero", got)
	}
}

func TestClampToMaxSize(t *testing.T) {
	tests := []struct {
		name     string
		input    mgl64.Vec3
		max      float64
		expected mgl64.Vec3
	}{
		{"shorter", mgl64.Vec3{1, 0, 0}, 2, mgl64.Vec3{1, 0, 0}},
		{"longer", mgl64.Vec3{0, 10, 0}, 2, mgl64.Vec3{0, 2, 0}},
		{"zero max", mgl64.Vec3{0, 10, 0}, 0, mgl64.Vec3{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampToMaxSize(tt.input, tt.max)
			if !vecNear(got, tt.expected, 1e-12) {
				t.Errorf("ClampToMaxSize(%v, %v) = %v, want %v", tt.input, tt.max, got, tt.expected)
			}
		})
	}
}

func TestRotateAngleAxis(t *testing.T) {
	got := RotateAngleAxis(mgl64.Vec3{1, 0, 0}, 90, Up)
	if !vecNear(got, mgl64.Vec3{0, 1, 0}, 1e-9) {
		t.Errorf("RotateAngleAxis 90° around Z = %v, want (0,1,0)", got)
	}
}
