package gravitywalk

import (
	"errors"
	"testing"

	"github.com/akmonengine/gravitywalk/actor"
	"github.com/akmonengine/gravitywalk/movement"
	"github.com/akmonengine/gravitywalk/orientation"
	"github.com/go-gl/mathgl/mgl64"
)

const testDt = 1.0 / 60.0

func characterOptions(location mgl64.Vec3) CharacterOptions {
	return CharacterOptions{
		Name:        "pawn",
		Transform:   actor.NewTransformAt(location, mgl64.QuatIdent()),
		Radius:      34,
		HalfHeight:  88,
		Movement:    movement.DefaultSettings(),
		Orientation: orientation.DefaultSettings(),
	}
}

// floorWorld is a world with a ground plane at z = 0
func floorWorld(t *testing.T) *World {
	t.Helper()
	w := NewWorld()
	mustAdd(t, w, newFloorPlane())
	return w
}

func mustAddCharacter(t *testing.T, w *World, opts CharacterOptions) *Character {
	t.Helper()
	c, err := w.AddCharacter(opts)
	if err != nil {
		t.Fatalf("AddCharacter: %v", err)
	}
	return c
}

// standingHeight is true when the capsule keeps the walking floor gap
func standingHeight(z float64) bool {
	return z >= 88+movement.MIN_FLOOR_DIST-0.1 && z <= 88+movement.MAX_FLOOR_DIST+0.1
}

func TestWorld_AddCharacterRejectsInvalidCapsule(t *testing.T) {
	tests := []struct {
		name               string
		radius, halfHeight float64
	}{
		{"zero radius", 0, 88},
		{"negative radius", -1, 88},
		{"radius above half height", 50, 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWorld()
			opts := characterOptions(mgl64.Vec3{})
			opts.Radius, opts.HalfHeight = tt.radius, tt.halfHeight

			if _, err := w.AddCharacter(opts); !errors.Is(err, ErrInvalidCapsule) {
				t.Errorf("AddCharacter() error = %v, want ErrInvalidCapsule", err)
			}
			if len(w.Bodies()) != 0 {
				t.Error("a rejected character must not register a body")
			}
		})
	}
}

func TestCharacter_SpawnOnFloor(t *testing.T) {
	w := floorWorld(t)
	capture := &eventCapture{}
	w.Events.Subscribe(MODE_CHANGED, capture.capture)
	w.Events.Subscribe(BASE_ENTER, capture.capture)

	c := mustAddCharacter(t, w, characterOptions(mgl64.Vec3{0, 0, 90}))

	if c.Movement.State.Mode != movement.MovementWalking {
		t.Fatalf("mode = %v, want walking", c.Movement.State.Mode)
	}
	if c.Body.CanStepUpOn {
		t.Error("character bodies cannot be stepped on")
	}

	for range 30 {
		w.Step(testDt)
	}

	snapshot := c.Snapshot()
	if snapshot.Mode != movement.MovementWalking {
		t.Errorf("mode after idling = %v, want walking", snapshot.Mode)
	}
	if !standingHeight(snapshot.Location.Z()) {
		t.Errorf("z = %f, want the floor gap band", snapshot.Location.Z())
	}
	if !capture.hasEventType(MODE_CHANGED) || !capture.hasEventType(BASE_ENTER) {
		t.Errorf("events %v, want MODE_CHANGED and BASE_ENTER", capture.types())
	}
}

func TestCharacter_FallsAndLands(t *testing.T) {
	w := floorWorld(t)
	capture := &eventCapture{}
	w.Events.Subscribe(LANDED, capture.capture)

	c := mustAddCharacter(t, w, characterOptions(mgl64.Vec3{0, 0, 300}))
	if c.Movement.State.Mode != movement.MovementFalling {
		t.Fatalf("mode = %v, want falling", c.Movement.State.Mode)
	}

	for range 120 {
		w.Step(testDt)
	}

	if !capture.hasEventType(LANDED) {
		t.Fatal("no LANDED event")
	}
	if c.Movement.State.Mode != movement.MovementWalking {
		t.Errorf("mode = %v, want walking", c.Movement.State.Mode)
	}
	if !standingHeight(c.Location().Z()) {
		t.Errorf("z = %f, want the floor gap band", c.Location().Z())
	}
}

func TestCharacter_WalksForward(t *testing.T) {
	w := floorWorld(t)
	c := mustAddCharacter(t, w, characterOptions(mgl64.Vec3{0, 0, 90}))

	for range 60 {
		c.Input.AddForwardPlanarView(1, false)
		w.Step(testDt)
	}

	snapshot := c.Snapshot()
	if snapshot.Location.X() <= 100 {
		t.Errorf("x = %f, want the character to have walked along +X", snapshot.Location.X())
	}
	if !approxEqual(snapshot.Location.Y(), 0, 1e-6) {
		t.Errorf("y = %f, want 0", snapshot.Location.Y())
	}
	if snapshot.Velocity.Len() > c.Movement.Settings.MaxWalkSpeed+1e-6 {
		t.Errorf("speed = %f, above MaxWalkSpeed", snapshot.Velocity.Len())
	}
	if snapshot.Mode != movement.MovementWalking || !standingHeight(snapshot.Location.Z()) {
		t.Errorf("mode %v at z %f, want walking on the floor", snapshot.Mode, snapshot.Location.Z())
	}
}

func TestCharacter_Jump(t *testing.T) {
	w := floorWorld(t)
	capture := &eventCapture{}
	w.Events.Subscribe(JUMPED, capture.capture)
	c := mustAddCharacter(t, w, characterOptions(mgl64.Vec3{0, 0, 90}))
	w.Step(testDt)

	c.Jump()
	w.Step(testDt)
	c.StopJumping()

	if !capture.hasEventType(JUMPED) {
		t.Fatal("no JUMPED event")
	}
	if c.Movement.State.Mode != movement.MovementFalling {
		t.Errorf("mode = %v, want falling", c.Movement.State.Mode)
	}
	if c.Movement.VerticalSpeed() <= 0 {
		t.Errorf("vertical speed = %f, want upward", c.Movement.VerticalSpeed())
	}
}

func TestCharacter_CharactersBlockEachOther(t *testing.T) {
	w := floorWorld(t)
	walker := mustAddCharacter(t, w, characterOptions(mgl64.Vec3{0, 0, 90}))
	wall := mustAddCharacter(t, w, characterOptions(mgl64.Vec3{150, 0, 90}))

	for range 60 {
		walker.Input.AddForwardPlanarView(1, false)
		w.Step(testDt)
	}

	// both radii apart at most
	if gap := wall.Location().X() - walker.Location().X(); gap < 68-0.1 {
		t.Errorf("capsules %f apart, want at least 68", gap)
	}
}

func TestWorld_RemoveCharacter(t *testing.T) {
	w := floorWorld(t)
	c := mustAddCharacter(t, w, characterOptions(mgl64.Vec3{0, 0, 90}))
	w.Step(testDt)

	w.RemoveCharacter(c)

	if len(w.Characters()) != 0 {
		t.Errorf("len(Characters()) = %d, want 0", len(w.Characters()))
	}
	if _, ok := w.Body(c.Body.ID); ok {
		t.Error("character body is still registered")
	}
	if _, ok := w.Events.previousBases[c]; ok {
		t.Error("removed character is still tracked by the events")
	}
}

func TestCharacter_ApplySettings(t *testing.T) {
	w := floorWorld(t)
	opts := characterOptions(mgl64.Vec3{0, 0, 90})
	opts.Orientation.ViewRotationBaseMode = orientation.ViewBaseVerticalDirection
	c := mustAddCharacter(t, w, opts)
	c.Orientation.AddYawInput(30)
	w.Step(testDt)
	before := c.Orientation.ViewRotation()

	m := movement.DefaultSettings()
	m.MaxWalkSpeed = 200
	o := orientation.DefaultSettings()
	c.ApplySettings(m, o)

	if c.Movement.Settings.MaxWalkSpeed != 200 {
		t.Errorf("MaxWalkSpeed = %f, want 200", c.Movement.Settings.MaxWalkSpeed)
	}
	if c.Orientation.Settings.ViewRotationBaseMode != orientation.ViewBaseControlRotation {
		t.Errorf("ViewRotationBaseMode = %v", c.Orientation.Settings.ViewRotationBaseMode)
	}
	if after := c.Orientation.ViewRotation(); !after.Equals(before, 1e-4) {
		t.Errorf("view jumped from %v to %v", before, after)
	}
}
