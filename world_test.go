package gravitywalk

import (
	"errors"
	"math"
	"testing"

	"github.com/akmonengine/gravitywalk/actor"
	"github.com/akmonengine/gravitywalk/movement"
	"github.com/akmonengine/gravitywalk/vecgeom"
	"github.com/go-gl/mathgl/mgl64"
)

func approxEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func vecNear(a, b mgl64.Vec3, tolerance float64) bool {
	return vecgeom.NearlyEqual(a, b, tolerance)
}

var pawnCapsule = movement.CapsuleShape{Radius: 34, HalfHeight: 88}

func pawnParams(ignore ...int) movement.QueryParams {
	return movement.QueryParams{Channel: actor.ChannelPawn, IgnoreBodies: ignore}
}

func newFloorPlane() *actor.Body {
	return actor.NewBody(actor.NewTransform(), &actor.Plane{Normal: vecgeom.Up}, actor.MobilityStatic)
}

func mustAdd(t *testing.T, w *World, body *actor.Body) *actor.Body {
	t.Helper()
	if err := w.AddBody(body); err != nil {
		t.Fatalf("AddBody: %v", err)
	}
	return body
}

func TestWorld_AddBody(t *testing.T) {
	w := NewWorld()

	tests := []struct {
		name string
		body *actor.Body
		err  error
	}{
		{"nil body", nil, ErrNilBody},
		{"nil shape", &actor.Body{}, ErrNilShape},
		{"valid", newFloorPlane(), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := w.AddBody(tt.body); !errors.Is(err, tt.err) {
				t.Errorf("AddBody() error = %v, want %v", err, tt.err)
			}
		})
	}
}

func TestWorld_Registry(t *testing.T) {
	w := NewWorld()
	a := mustAdd(t, w, createTestBox(mgl64.Vec3{}, mgl64.Vec3{1, 1, 1}))
	b := mustAdd(t, w, newFloorPlane())
	c := mustAdd(t, w, createTestBox(mgl64.Vec3{5, 0, 0}, mgl64.Vec3{1, 1, 1}))

	if a.ID != 1 || b.ID != 2 || c.ID != 3 {
		t.Errorf("IDs = %d, %d, %d, want 1, 2, 3", a.ID, b.ID, c.ID)
	}

	w.RemoveBody(b)
	bodies := w.Bodies()
	if len(bodies) != 2 || bodies[0] != a || bodies[1] != c {
		t.Errorf("Bodies() after removal = %v, want [a c]", bodies)
	}
	if _, ok := w.Body(b.ID); ok {
		t.Error("removed body is still registered")
	}

	// removing twice is a no-op
	w.RemoveBody(b)
	w.RemoveBody(nil)
	if len(w.Bodies()) != 2 {
		t.Errorf("len(Bodies()) = %d, want 2", len(w.Bodies()))
	}
}

func TestWorld_LineTrace(t *testing.T) {
	w := NewWorld()
	floor := mustAdd(t, w, createTestBox(mgl64.Vec3{}, mgl64.Vec3{1000, 1000, 10}))

	hit := w.LineTrace(mgl64.Vec3{0, 0, 100}, mgl64.Vec3{0, 0, -100}, pawnParams())

	if !hit.IsValidBlockingHit() {
		t.Fatalf("expected a blocking hit, got %+v", hit)
	}
	if hit.Body != floor {
		t.Errorf("Body = %v, want the floor", hit.Body)
	}
	if !approxEqual(hit.Location.Z(), 10+SWEEP_PULLBACK, 1e-4) {
		t.Errorf("Location.Z = %f, want %f", hit.Location.Z(), 10+SWEEP_PULLBACK)
	}
	if !approxEqual(hit.Time, (90-SWEEP_PULLBACK)/200, 1e-6) {
		t.Errorf("Time = %f, want %f", hit.Time, (90-SWEEP_PULLBACK)/200)
	}
	if !vecNear(hit.ImpactPoint, mgl64.Vec3{0, 0, 10}, 1e-4) {
		t.Errorf("ImpactPoint = %v, want (0,0,10)", hit.ImpactPoint)
	}
	if !vecNear(hit.ImpactNormal, vecgeom.Up, 1e-9) {
		t.Errorf("ImpactNormal = %v, want up", hit.ImpactNormal)
	}

	miss := w.LineTrace(mgl64.Vec3{2000, 0, 100}, mgl64.Vec3{2000, 0, -100}, pawnParams())
	if miss.Blocking || miss.Time != 1 {
		t.Errorf("trace beside the floor = %+v, want no hit", miss)
	}
}

func TestWorld_SweepCapsuleOntoPlane(t *testing.T) {
	w := NewWorld()
	mustAdd(t, w, newFloorPlane())

	hit := w.SweepCapsule(pawnCapsule, mgl64.Vec3{0, 0, 200}, mgl64.Vec3{0, 0, 0}, mgl64.QuatIdent(), pawnParams())

	if !hit.IsValidBlockingHit() {
		t.Fatalf("expected a blocking hit, got %+v", hit)
	}
	if !approxEqual(hit.Location.Z(), 88+SWEEP_PULLBACK, 1e-4) {
		t.Errorf("Location.Z = %f, want %f", hit.Location.Z(), 88+SWEEP_PULLBACK)
	}
	if !vecNear(hit.ImpactPoint, mgl64.Vec3{0, 0, 0}, 1e-4) {
		t.Errorf("ImpactPoint = %v, want origin", hit.ImpactPoint)
	}
	if !vecNear(hit.Normal, vecgeom.Up, 1e-9) {
		t.Errorf("Normal = %v, want up", hit.Normal)
	}
}

func TestWorld_PlaneAddedAfterQuery(t *testing.T) {
	w := NewWorld()
	mustAdd(t, w, createTestBox(mgl64.Vec3{5000, 0, 0}, mgl64.Vec3{50, 50, 50}))

	// the first query builds the grid
	if hit := w.LineTrace(mgl64.Vec3{0, 0, 100}, mgl64.Vec3{0, 0, -100}, pawnParams()); hit.Blocking {
		t.Fatalf("expected no hit before the floor exists, got %+v", hit)
	}

	floor := mustAdd(t, w, newFloorPlane())

	hit := w.SweepCapsule(pawnCapsule, mgl64.Vec3{0, 0, 300}, mgl64.Vec3{0, 0, 0}, mgl64.QuatIdent(), pawnParams())
	if !hit.IsValidBlockingHit() {
		t.Fatalf("expected the new floor to block, got %+v", hit)
	}
	if hit.Body != floor {
		t.Errorf("Body = %v, want the floor", hit.Body)
	}
	if !approxEqual(hit.Location.Z(), 88+SWEEP_PULLBACK, 1e-4) {
		t.Errorf("Location.Z = %f, want %f", hit.Location.Z(), 88+SWEEP_PULLBACK)
	}
}

func TestWorld_SweepOntoBoxEdge(t *testing.T) {
	tests := []struct {
		name         string
		start, end   mgl64.Vec3
		impactNormal mgl64.Vec3
	}{
		{
			name:         "falling onto the top edge",
			start:        mgl64.Vec3{110, 0, 300},
			end:          mgl64.Vec3{110, 0, 0},
			impactNormal: mgl64.Vec3{0, 0, 1},
		},
		{
			name:         "walking into the top edge",
			start:        mgl64.Vec3{-300, 0, 84},
			end:          mgl64.Vec3{0, 0, 84},
			impactNormal: mgl64.Vec3{-1, 0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWorld()
			mustAdd(t, w, createTestBox(mgl64.Vec3{}, mgl64.Vec3{100, 100, 10}))

			hit := w.SweepCapsule(pawnCapsule, tt.start, tt.end, mgl64.QuatIdent(), pawnParams())
			if !hit.IsValidBlockingHit() {
				t.Fatalf("expected a blocking hit, got %+v", hit)
			}
			if !vecNear(hit.ImpactNormal, tt.impactNormal, 1e-9) {
				t.Errorf("ImpactNormal = %v, want %v", hit.ImpactNormal, tt.impactNormal)
			}
		})
	}
}

func TestWorld_SweepStartPenetrating(t *testing.T) {
	tests := []struct {
		name          string
		end           mgl64.Vec3
		ignoreMoveOut bool
		wantHit       bool
	}{
		{"reported", mgl64.Vec3{0, 0, 100}, false, true},
		{"moving out ignored", mgl64.Vec3{0, 0, 100}, true, false},
		{"moving in kept", mgl64.Vec3{0, 0, 0}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWorld()
			mustAdd(t, w, newFloorPlane())
			params := pawnParams()
			params.IgnoreInitialOverlapWhenMovingOut = tt.ignoreMoveOut

			// capsule bottom 38 below the plane
			hit := w.SweepCapsule(pawnCapsule, mgl64.Vec3{0, 0, 50}, tt.end, mgl64.QuatIdent(), params)

			if hit.Blocking != tt.wantHit {
				t.Fatalf("Blocking = %v, want %v", hit.Blocking, tt.wantHit)
			}
			if !tt.wantHit {
				return
			}
			if !hit.StartPenetrating {
				t.Error("StartPenetrating = false, want true")
			}
			if !approxEqual(hit.PenetrationDepth, 38, 1e-6) {
				t.Errorf("PenetrationDepth = %f, want 38", hit.PenetrationDepth)
			}
			if !vecNear(hit.Location, mgl64.Vec3{0, 0, 50}, 1e-9) {
				t.Errorf("Location = %v, want the start", hit.Location)
			}
		})
	}
}

func TestWorld_SweepWhileTouching(t *testing.T) {
	w := NewWorld()
	mustAdd(t, w, newFloorPlane())
	start := mgl64.Vec3{0, 0, 88}

	side := w.SweepCapsule(pawnCapsule, start, mgl64.Vec3{100, 0, 88}, mgl64.QuatIdent(), pawnParams())
	if side.Blocking {
		t.Errorf("sliding along a touched surface should not block, got %+v", side)
	}

	down := w.SweepCapsule(pawnCapsule, start, mgl64.Vec3{0, 0, 0}, mgl64.QuatIdent(), pawnParams())
	if !down.IsValidBlockingHit() {
		t.Fatalf("moving into a touched surface should block, got %+v", down)
	}
	if down.Time != 0 {
		t.Errorf("Time = %f, want 0", down.Time)
	}
}

func TestWorld_SweepClosestBody(t *testing.T) {
	w := NewWorld()
	far := mustAdd(t, w, createTestBox(mgl64.Vec3{400, 0, 0}, mgl64.Vec3{10, 100, 100}))
	near := mustAdd(t, w, createTestBox(mgl64.Vec3{200, 0, 0}, mgl64.Vec3{10, 100, 100}))

	hit := w.SweepCapsule(pawnCapsule, mgl64.Vec3{}, mgl64.Vec3{600, 0, 0}, mgl64.QuatIdent(), pawnParams())

	if hit.Body != near {
		t.Fatalf("Body = %v, want the near box (far is %v)", hit.Body, far)
	}
	wantX := 190 - 34 - SWEEP_PULLBACK
	if !approxEqual(hit.Location.X(), wantX, 1e-4) {
		t.Errorf("Location.X = %f, want %f", hit.Location.X(), wantX)
	}
	if !vecNear(hit.ImpactNormal, mgl64.Vec3{-1, 0, 0}, 1e-9) {
		t.Errorf("ImpactNormal = %v, want (-1,0,0)", hit.ImpactNormal)
	}
}

func TestWorld_QueryFilters(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(body *actor.Body)
		ignore  bool
		wantHit bool
	}{
		{"blocking", func(body *actor.Body) {}, false, true},
		{"ignored body", func(body *actor.Body) {}, true, false},
		{"query disabled", func(body *actor.Body) { body.QueryEnabled = false }, false, false},
		{"other channel", func(body *actor.Body) { body.BlockMask = actor.ChannelWorldStatic.Mask() }, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWorld()
			floor := mustAdd(t, w, createTestBox(mgl64.Vec3{}, mgl64.Vec3{100, 100, 10}))
			tt.setup(floor)

			params := pawnParams()
			if tt.ignore {
				params = pawnParams(floor.ID)
			}

			hit := w.LineTrace(mgl64.Vec3{0, 0, 50}, mgl64.Vec3{0, 0, -50}, params)
			if hit.Blocking != tt.wantHit {
				t.Errorf("Blocking = %v, want %v", hit.Blocking, tt.wantHit)
			}
		})
	}
}

func TestWorld_OverlapTest(t *testing.T) {
	tests := []struct {
		name     string
		body     *actor.Body
		location mgl64.Vec3
		want     bool
	}{
		{"plane below", newFloorPlane(), mgl64.Vec3{0, 0, 200}, false},
		{"plane crossing", newFloorPlane(), mgl64.Vec3{0, 0, 50}, true},
		{"box within radius", createTestBox(mgl64.Vec3{60, 0, 0}, mgl64.Vec3{30, 30, 30}), mgl64.Vec3{}, true},
		{"box out of reach", createTestBox(mgl64.Vec3{100, 0, 0}, mgl64.Vec3{30, 30, 30}), mgl64.Vec3{}, false},
		{"box above the tip", createTestBox(mgl64.Vec3{0, 0, 110}, mgl64.Vec3{30, 30, 30}), mgl64.Vec3{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWorld()
			mustAdd(t, w, tt.body)

			if got := w.OverlapTest(pawnCapsule, tt.location, mgl64.QuatIdent(), pawnParams()); got != tt.want {
				t.Errorf("OverlapTest() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWorld_StepMovesKinematicBodies(t *testing.T) {
	w := NewWorld()
	w.Workers = 4
	platform := createTestBox(mgl64.Vec3{}, mgl64.Vec3{10, 10, 10})
	platform.Mobility = actor.MobilityKinematic
	platform.Velocity = mgl64.Vec3{100, 0, 0}
	mustAdd(t, w, platform)

	start, end := mgl64.Vec3{50, 0, 100}, mgl64.Vec3{50, 0, -100}
	if hit := w.LineTrace(start, end, pawnParams()); hit.Blocking {
		t.Fatal("the platform is not under the trace yet")
	}

	w.Step(0.5)

	if !vecNear(platform.Transform.Position, mgl64.Vec3{50, 0, 0}, 1e-9) {
		t.Fatalf("platform at %v, want (50,0,0)", platform.Transform.Position)
	}
	hit := w.LineTrace(start, end, pawnParams())
	if hit.Body != platform {
		t.Errorf("trace after the step hit %v, want the platform", hit.Body)
	}
}

func TestWorld_MoveBody(t *testing.T) {
	w := NewWorld()
	box := mustAdd(t, w, createTestBox(mgl64.Vec3{}, mgl64.Vec3{10, 10, 10}))

	// builds the grid with the box at the origin
	w.LineTrace(mgl64.Vec3{0, 0, 100}, mgl64.Vec3{0, 0, -100}, pawnParams())

	w.MoveBody(box, mgl64.Vec3{500, 0, 0}, mgl64.QuatIdent())

	if hit := w.LineTrace(mgl64.Vec3{0, 0, 100}, mgl64.Vec3{0, 0, -100}, pawnParams()); hit.Blocking {
		t.Error("the old location still blocks")
	}
	if hit := w.LineTrace(mgl64.Vec3{500, 0, 100}, mgl64.Vec3{500, 0, -100}, pawnParams()); hit.Body != box {
		t.Error("the new location does not block")
	}
}

func TestGoldenSection(t *testing.T) {
	tests := []struct {
		name   string
		f      func(float64) float64
		lo, hi float64
		want   float64
	}{
		{"parabola", func(x float64) float64 { return (x - 0.3) * (x - 0.3) }, 0, 1, 0.3},
		{"abs", func(x float64) float64 { return math.Abs(x - 7) }, 0, 10, 7},
		{"decreasing", func(x float64) float64 { return -x }, 0, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := goldenSection(tt.f, tt.lo, tt.hi); !approxEqual(got, tt.want, 1e-6) {
				t.Errorf("goldenSection() = %f, want %f", got, tt.want)
			}
		})
	}
}
