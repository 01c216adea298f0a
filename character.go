package gravitywalk

import (
	"fmt"

	"github.com/akmonengine/gravitywalk/actor"
	"github.com/akmonengine/gravitywalk/input"
	"github.com/akmonengine/gravitywalk/movement"
	"github.com/akmonengine/gravitywalk/orientation"
	"github.com/go-gl/mathgl/mgl64"
)

// CharacterOptions describe a character to spawn
type CharacterOptions struct {
	Name       string
	Transform  actor.Transform
	Radius     float64
	HalfHeight float64

	Movement    movement.Settings
	Orientation orientation.Settings
}

// Character is a capsule body with its movement component, the controller of
// its view and the mapper turning input into movement.
type Character struct {
	Name string
	Body *actor.Body

	Movement    *movement.Component
	Orientation *orientation.Controller
	Input       *input.Mapper

	world *World
}

// AddCharacter creates the capsule body of a character, registers both and
// picks the starting movement mode from the floor under it.
func (w *World) AddCharacter(opts CharacterOptions) (*Character, error) {
	if opts.Radius <= 0 || opts.HalfHeight < opts.Radius {
		return nil, fmt.Errorf("radius %f, half height %f: %w", opts.Radius, opts.HalfHeight, ErrInvalidCapsule)
	}

	body := actor.NewBody(opts.Transform, &actor.Capsule{Radius: opts.Radius, HalfHeight: opts.HalfHeight}, actor.MobilityDynamic)
	body.Name = opts.Name
	// nobody stands on a character, JumpOff pushes them away instead
	body.CanStepUpOn = false
	if err := w.AddBody(body); err != nil {
		return nil, err
	}

	c := &Character{Name: opts.Name, Body: body, world: w}
	c.Movement = movement.NewComponent(body, w, opts.Movement)
	c.Movement.Notifier = c
	c.Movement.Logger = w.Logger
	c.Orientation = orientation.NewController(c.Movement, opts.Orientation)
	c.Movement.View = c.Orientation
	c.Input = input.NewMapper(c.Movement, c.Orientation)

	w.characters.Set(body.ID, c)
	c.Movement.SetDefaultMovementMode()

	if w.Logger != nil {
		w.Logger.Debug("character added", "name", c.Name, "id", body.ID, "mode", c.Movement.State.Mode)
	}

	return c, nil
}

func (c *Character) Location() mgl64.Vec3 { return c.Movement.Location() }

func (c *Character) Snapshot() movement.Snapshot { return c.Movement.Snapshot() }

func (c *Character) Jump()        { c.Movement.Jump() }
func (c *Character) StopJumping() { c.Movement.StopJumping() }
func (c *Character) Crouch()      { c.Movement.Crouch() }
func (c *Character) UnCrouch()    { c.Movement.UnCrouch() }

// Teleport moves the character without sweeping
func (c *Character) Teleport(location mgl64.Vec3, rotation mgl64.Quat) {
	c.Movement.TeleportTo(location, rotation)
}

// movement.Notifier, every notification becomes a buffered event

func (c *Character) MovementModeChanged(previous, current movement.MovementMode) {
	c.world.Events.emit(ModeChangedEvent{Character: c, Previous: previous, Current: current})
}

func (c *Character) Landed(hit movement.HitResult) {
	c.world.Events.emit(LandedEvent{Character: c, Hit: hit})
}

func (c *Character) Jumped() {
	c.world.Events.emit(JumpedEvent{Character: c})
}

func (c *Character) JumpApex() {
	c.world.Events.emit(JumpApexEvent{Character: c})
}

func (c *Character) Impact(hit movement.HitResult) {
	c.world.Events.emit(ImpactEvent{Character: c, Hit: hit})
}

func (c *Character) StartCrouch(halfHeightAdjust float64) {
	c.world.Events.emit(CrouchStartEvent{Character: c, HalfHeightAdjust: halfHeightAdjust})
}

func (c *Character) EndCrouch(halfHeightAdjust float64) {
	c.world.Events.emit(CrouchEndEvent{Character: c, HalfHeightAdjust: halfHeightAdjust})
}

func (c *Character) WalkingOffLedge(previousFloorImpactNormal mgl64.Vec3) {
	c.world.Events.emit(WalkedOffLedgeEvent{Character: c, PreviousFloorImpactNormal: previousFloorImpactNormal})
}

func (c *Character) StuckInGeometry(hit movement.HitResult) {
	c.world.Events.emit(StuckEvent{Character: c, Hit: hit})
}

// ApplySettings swaps the tuning of a live character. The view base mode goes
// through SetViewRotationBaseMode so the view does not jump.
func (c *Character) ApplySettings(m movement.Settings, o orientation.Settings) {
	c.Movement.Settings = m

	mode := o.ViewRotationBaseMode
	o.ViewRotationBaseMode = c.Orientation.Settings.ViewRotationBaseMode
	c.Orientation.Settings = o
	c.Orientation.SetViewRotationBaseMode(mode)
}
