package gravitywalk

import (
	"github.com/akmonengine/gravitywalk/actor"
	"github.com/akmonengine/gravitywalk/movement"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	MODE_CHANGED EventType = iota
	LANDED
	JUMPED
	JUMP_APEX
	IMPACT
	CROUCH_START
	CROUCH_END
	WALKED_OFF_LEDGE
	STUCK
	BASE_ENTER
	BASE_EXIT
)

type EventType uint8

// Event interface - all events implement this
type Event interface {
	Type() EventType
}

type ModeChangedEvent struct {
	Character *Character
	Previous  movement.MovementMode
	Current   movement.MovementMode
}

func (e ModeChangedEvent) Type() EventType { return MODE_CHANGED }

type LandedEvent struct {
	Character *Character
	Hit       movement.HitResult
}

func (e LandedEvent) Type() EventType { return LANDED }

type JumpedEvent struct {
	Character *Character
}

func (e JumpedEvent) Type() EventType { return JUMPED }

type JumpApexEvent struct {
	Character *Character
}

func (e JumpApexEvent) Type() EventType { return JUMP_APEX }

type ImpactEvent struct {
	Character *Character
	Hit       movement.HitResult
}

func (e ImpactEvent) Type() EventType { return IMPACT }

// Crouch events carry the half-height difference between both sizes
type CrouchStartEvent struct {
	Character        *Character
	HalfHeightAdjust float64
}

func (e CrouchStartEvent) Type() EventType { return CROUCH_START }

type CrouchEndEvent struct {
	Character        *Character
	HalfHeightAdjust float64
}

func (e CrouchEndEvent) Type() EventType { return CROUCH_END }

type WalkedOffLedgeEvent struct {
	Character                 *Character
	PreviousFloorImpactNormal mgl64.Vec3
}

func (e WalkedOffLedgeEvent) Type() EventType { return WALKED_OFF_LEDGE }

type StuckEvent struct {
	Character *Character
	Hit       movement.HitResult
}

func (e StuckEvent) Type() EventType { return STUCK }

// Base events
type BaseEnterEvent struct {
	Character *Character
	Base      *actor.Body
}

func (e BaseEnterEvent) Type() EventType { return BASE_ENTER }

type BaseExitEvent struct {
	Character *Character
	Base      *actor.Body
}

func (e BaseExitEvent) Type() EventType { return BASE_EXIT }

// EventListener - callback for events
type EventListener func(event Event)

// Events buffers what happens during a step and hands it to the listeners
// once the step is over.
type Events struct {
	listeners map[EventType][]EventListener

	buffer []Event

	// base of each character at the end of the previous step
	previousBases map[*Character]*actor.Body
}

func NewEvents() Events {
	return Events{
		listeners:     make(map[EventType][]EventListener),
		buffer:        make([]Event, 0, 64),
		previousBases: make(map[*Character]*actor.Body),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

func (e *Events) emit(event Event) {
	e.buffer = append(e.buffer, event)
}

// processBaseEvents compares the base of each character with the previous
// step to detect Enter/Exit
func (e *Events) processBaseEvents(characters []*Character) {
	for _, c := range characters {
		current := c.Movement.State.Base
		previous, exists := e.previousBases[c]
		if exists && previous == current {
			continue
		}

		if previous != nil {
			e.emit(BaseExitEvent{Character: c, Base: previous})
		}
		if current != nil {
			e.emit(BaseEnterEvent{Character: c, Base: current})
		}
		e.previousBases[c] = current
	}
}

// forget drops the tracking of a removed character
func (e *Events) forget(c *Character) {
	delete(e.previousBases, c)
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush() {
	for _, event := range e.buffer {
		if listeners, ok := e.listeners[event.Type()]; ok {
			for _, listener := range listeners {
				listener(event)
			}
		}
	}
	e.buffer = e.buffer[:0]
}
