package main

import (
	"flag"
	"log/slog"
	"math"
	"os"

	"github.com/akmonengine/gravitywalk"
	"github.com/akmonengine/gravitywalk/actor"
	"github.com/akmonengine/gravitywalk/config"
	"github.com/akmonengine/gravitywalk/logger"
	"github.com/akmonengine/gravitywalk/movement"
	"github.com/akmonengine/gravitywalk/orientation"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	PLANET_RADIUS = 2000.0
	// GRAVITY pulls toward the planet center, in cm/s²
	GRAVITY = 980.0
	FPS     = 60
)

func main() {
	settingsPath := flag.String("config", "", "character settings YAML, reloaded on change")
	seconds := flag.Float64("seconds", 20, "simulated time")
	flag.Parse()

	settings := config.Default()
	if *settingsPath != "" {
		loaded, err := config.Load(*settingsPath)
		if err != nil {
			slog.Error("load settings", "error", err)
			os.Exit(1)
		}
		settings = *loaded
	}
	planetSettings(&settings)

	logger.Init(logger.Config{Level: settings.Logging.Level, Format: settings.Logging.Format})
	log := logger.L()

	world := gravitywalk.NewWorld()
	world.Workers = 4
	world.Logger = log

	planet := actor.NewBody(actor.NewTransform(), &actor.Sphere{Radius: PLANET_RADIUS}, actor.MobilityStatic)
	planet.Name = "planet"
	if err := world.AddBody(planet); err != nil {
		log.Error("add planet", "error", err)
		os.Exit(1)
	}
	addCrates(world, log)

	// spawned above the north pole, falling onto it
	pawn, err := world.AddCharacter(gravitywalk.CharacterOptions{
		Name:        "pawn",
		Transform:   actor.NewTransformAt(mgl64.Vec3{0, 0, PLANET_RADIUS + 88 + 50}, mgl64.QuatIdent()),
		Radius:      34,
		HalfHeight:  88,
		Movement:    settings.Movement,
		Orientation: settings.Orientation,
	})
	if err != nil {
		log.Error("add character", "error", err)
		os.Exit(1)
	}
	subscribe(world, log)

	reloads := make(chan *config.Settings, 1)
	if *settingsPath != "" {
		watcher, err := config.Watch(*settingsPath, log, func(s *config.Settings) {
			select {
			case reloads <- s:
			default:
			}
		})
		if err != nil {
			log.Warn("settings not watched", "error", err)
		} else {
			defer watcher.Close()
		}
	}

	dt := 1.0 / FPS
	steps := int(*seconds * FPS)
	for i := range steps {
		select {
		case s := <-reloads:
			planetSettings(s)
			pawn.ApplySettings(s.Movement, s.Orientation)
			log.Info("settings applied", "max_walk_speed", s.Movement.MaxWalkSpeed)
		default:
		}

		pullTowardCenter(pawn)
		drive(pawn, i)
		world.Step(dt)

		if i%FPS == 0 {
			snapshot := pawn.Snapshot()
			log.Info("pawn",
				"t", float64(i)*dt,
				"mode", snapshot.Mode,
				"altitude", snapshot.Location.Len()-PLANET_RADIUS-88,
				"speed", snapshot.Velocity.Len(),
			)
		}
	}
}

// planetSettings derives the vertical axis of the character from its gravity
// and keeps the capsule standing on it
func planetSettings(s *config.Settings) {
	s.Movement.IgnoreWorldGravityIfDynamic = true
	s.Movement.OrientRotationToMovement = true
	s.Movement.WalkableFloorNormalMode = movement.FloorNormalGravity
	s.Movement.JumpDirectionMode = movement.JumpGravity
	s.Movement.PhysicsRotationVerticalDirectionMode = movement.RotationUpGravity
	s.Orientation.ViewRotationBaseMode = orientation.ViewBaseVerticalDirection
}

func pullTowardCenter(c *gravitywalk.Character) {
	toCenter := c.Location().Mul(-1)
	if toCenter.Len() < 1e-3 {
		return
	}
	c.Movement.SetDynamicGravity(toCenter.Normalize().Mul(GRAVITY))
}

// drive walks around the planet, turning and jumping now and then
func drive(c *gravitywalk.Character, step int) {
	c.Input.AddForwardPlanarView(1, false)
	if step%(5*FPS) < FPS {
		c.Orientation.AddYawInput(0.5)
	}

	switch step % (4 * FPS) {
	case 2 * FPS:
		c.Jump()
	case 2*FPS + 10:
		c.StopJumping()
	}
}

// addCrates scatters boxes around the equator, resting on the surface
func addCrates(world *gravitywalk.World, log *slog.Logger) {
	for i := range 8 {
		angle := float64(i) * mgl64.DegToRad(45)
		up := mgl64.Vec3{math.Cos(angle), math.Sin(angle), 0}
		rotation := mgl64.QuatBetweenVectors(mgl64.Vec3{0, 0, 1}, up)
		crate := actor.NewBody(
			actor.NewTransformAt(up.Mul(PLANET_RADIUS+20), rotation),
			&actor.Box{HalfExtents: mgl64.Vec3{40, 40, 20 + float64(i)*5}},
			actor.MobilityStatic,
		)
		if err := world.AddBody(crate); err != nil {
			log.Warn("add crate", "error", err)
		}
	}
}

func subscribe(world *gravitywalk.World, log *slog.Logger) {
	world.Events.Subscribe(gravitywalk.MODE_CHANGED, func(event gravitywalk.Event) {
		e := event.(gravitywalk.ModeChangedEvent)
		log.Info("mode changed", "character", e.Character.Name, "from", e.Previous, "to", e.Current)
	})
	world.Events.Subscribe(gravitywalk.LANDED, func(event gravitywalk.Event) {
		e := event.(gravitywalk.LandedEvent)
		log.Info("landed", "character", e.Character.Name, "normal", e.Hit.ImpactNormal)
	})
	world.Events.Subscribe(gravitywalk.JUMPED, func(event gravitywalk.Event) {
		log.Info("jumped", "character", event.(gravitywalk.JumpedEvent).Character.Name)
	})
	world.Events.Subscribe(gravitywalk.BASE_ENTER, func(event gravitywalk.Event) {
		e := event.(gravitywalk.BaseEnterEvent)
		log.Debug("base enter", "character", e.Character.Name, "base", e.Base.Name)
	})
	world.Events.Subscribe(gravitywalk.STUCK, func(event gravitywalk.Event) {
		log.Warn("stuck", "character", event.(gravitywalk.StuckEvent).Character.Name)
	})
}
