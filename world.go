// Package gravitywalk is an in-memory scene for capsule characters walking
// under arbitrary gravity. World answers the collision queries of the
// movement package and steps every registered Character.
package gravitywalk

import (
	"errors"
	"log/slog"

	"github.com/akmonengine/gravitywalk/actor"
	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	DEFAULT_WORKERS   = 1
	DEFAULT_CELL_SIZE = 200
	DEFAULT_NUM_CELLS = 4096
)

var (
	ErrNilBody  = errors.New("gravitywalk: nil body")
	ErrNilShape = errors.New("gravitywalk: body has no shape")
	// ErrInvalidCapsule is returned for a character capsule with a radius
	// not in (0, HalfHeight]
	ErrInvalidCapsule = errors.New("gravitywalk: invalid capsule size")
)

// World is not safe for concurrent use, Step parallelizes internally.
type World struct {
	SpatialGrid *SpatialGrid
	Workers     int
	Events      Events
	// Logger is optional, it is handed to the characters
	Logger *slog.Logger

	bodies     *orderedmap.OrderedMap[int, *actor.Body]
	characters *orderedmap.OrderedMap[int, *Character]
	nextID     int

	// broad phase, rebuilt when gridDirty is set
	gridDirty bool
	planes    []*actor.Body
	indexed   []*actor.Body
	unindexed []int
	movers    []*actor.Body
	seen      []bool
	// candidates is reused between queries
	candidates []int
}

func NewWorld() *World {
	return &World{
		SpatialGrid: NewSpatialGrid(DEFAULT_CELL_SIZE, DEFAULT_NUM_CELLS),
		Workers:     DEFAULT_WORKERS,
		Events:      NewEvents(),
		bodies:      orderedmap.NewOrderedMap[int, *actor.Body](),
		characters:  orderedmap.NewOrderedMap[int, *Character](),
		nextID:      1,
		gridDirty:   true,
	}
}

// AddBody registers body and assigns its ID
func (w *World) AddBody(body *actor.Body) error {
	if body == nil {
		return ErrNilBody
	}
	if body.Shape == nil {
		return ErrNilShape
	}

	body.ID = w.nextID
	w.nextID++
	w.bodies.Set(body.ID, body)
	w.gridDirty = true

	return nil
}

// RemoveBody unregisters body, a character body removes its character too
func (w *World) RemoveBody(body *actor.Body) {
	if body == nil {
		return
	}
	if _, ok := w.bodies.Get(body.ID); !ok {
		return
	}

	if c, ok := w.characters.Get(body.ID); ok {
		w.characters.Delete(body.ID)
		w.Events.forget(c)
	}
	w.bodies.Delete(body.ID)
	w.gridDirty = true
}

// Body returns the registered body with this ID
func (w *World) Body(id int) (*actor.Body, bool) {
	return w.bodies.Get(id)
}

// Bodies returns the registered bodies in registration order
func (w *World) Bodies() []*actor.Body {
	bodies := make([]*actor.Body, 0, w.bodies.Len())
	for el := w.bodies.Front(); el != nil; el = el.Next() {
		bodies = append(bodies, el.Value)
	}
	return bodies
}

// MoveBody teleports a body and refreshes the broad phase
func (w *World) MoveBody(body *actor.Body, position mgl64.Vec3, rotation mgl64.Quat) {
	body.MoveTo(position, rotation)
	w.gridDirty = true
}

// Characters returns the registered characters in registration order
func (w *World) Characters() []*Character {
	characters := make([]*Character, 0, w.characters.Len())
	for el := w.characters.Front(); el != nil; el = el.Next() {
		characters = append(characters, el.Value)
	}
	return characters
}

// RemoveCharacter unregisters the character and its body
func (w *World) RemoveCharacter(c *Character) {
	if c == nil {
		return
	}
	w.RemoveBody(c.Body)
}

// Step advances kinematic bodies then every character by dt seconds, and
// sends the events raised meanwhile.
func (w *World) Step(dt float64) {
	w.Workers = max(DEFAULT_WORKERS, w.Workers)
	characters := w.Characters()

	w.integrate(dt)

	// characters sweep against each other, their movement stays sequential
	for _, c := range characters {
		c.Movement.Tick(dt)
	}

	parallelEach(w.Workers, characters, func(c *Character) {
		c.Orientation.Update(dt)
	})

	w.Events.processBaseEvents(characters)
	w.Events.flush()
}

func (w *World) integrate(dt float64) {
	kinematic := make([]*actor.Body, 0)
	for el := w.bodies.Front(); el != nil; el = el.Next() {
		if el.Value.Mobility == actor.MobilityKinematic {
			kinematic = append(kinematic, el.Value)
		}
	}
	if len(kinematic) == 0 {
		return
	}

	parallelEach(w.Workers, kinematic, func(body *actor.Body) {
		body.Integrate(dt)
	})
	w.gridDirty = true
}

// rebuildGrid sorts the bodies into planes, grid indexed bodies and movers,
// only when something changed since the last build.
func (w *World) rebuildGrid() {
	if !w.gridDirty {
		return
	}
	w.gridDirty = false

	w.planes = w.planes[:0]
	w.indexed = w.indexed[:0]
	w.unindexed = w.unindexed[:0]
	w.movers = w.movers[:0]
	w.SpatialGrid.Clear()

	for el := w.bodies.Front(); el != nil; el = el.Next() {
		body := el.Value
		switch {
		case body.Shape.Type() == actor.ShapeTypePlane:
			w.planes = append(w.planes, body)
		case body.Mobility == actor.MobilityDynamic:
			w.movers = append(w.movers, body)
		default:
			idx := len(w.indexed)
			w.indexed = append(w.indexed, body)
			if !w.SpatialGrid.Insert(idx, body.Shape.GetAABB()) {
				w.unindexed = append(w.unindexed, idx)
			}
		}
	}

	if cap(w.seen) < len(w.indexed) {
		w.seen = make([]bool, len(w.indexed))
	}
	w.seen = w.seen[:len(w.indexed)]
}
