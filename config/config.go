// Package config loads character settings from YAML files.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/akmonengine/gravitywalk/movement"
	"github.com/akmonengine/gravitywalk/orientation"
	"gopkg.in/yaml.v3"
)

var ErrInvalidSetting = errors.New("invalid setting")

type LoggingSettings struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Settings is the root of a settings file. Absent keys keep their default.
type Settings struct {
	Logging     LoggingSettings      `yaml:"logging"`
	Movement    movement.Settings    `yaml:"movement"`
	Orientation orientation.Settings `yaml:"orientation"`
}

func Default() Settings {
	return Settings{
		Logging:     LoggingSettings{Level: "info", Format: "console"},
		Movement:    movement.DefaultSettings(),
		Orientation: orientation.DefaultSettings(),
	}
}

func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	settings, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return settings, nil
}

func Parse(data []byte) (*Settings, error) {
	settings := Default()
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return &settings, nil
}

// Validate reports the first out of range value, wrapping ErrInvalidSetting.
func (s Settings) Validate() error {
	m := s.Movement
	nonNegative := []struct {
		key   string
		value float64
	}{
		{"max_step_height", m.MaxStepHeight},
		{"perch_radius_threshold", m.PerchRadiusThreshold},
		{"perch_additional_height", m.PerchAdditionalHeight},
		{"terminal_velocity", m.TerminalVelocity},
		{"jump_z_velocity", m.JumpZVelocity},
		{"jump_max_hold_time", m.JumpMaxHoldTime},
		{"max_walk_speed", m.MaxWalkSpeed},
		{"max_walk_speed_crouched", m.MaxWalkSpeedCrouched},
		{"max_custom_movement_speed", m.MaxCustomMovementSpeed},
		{"max_acceleration", m.MaxAcceleration},
		{"ground_friction", m.GroundFriction},
		{"braking_friction_factor", m.BrakingFrictionFactor},
		{"braking_friction", m.BrakingFriction},
		{"braking_deceleration_walking", m.BrakingDecelerationWalking},
		{"braking_deceleration_falling", m.BrakingDecelerationFalling},
		{"air_control", m.AirControl},
		{"falling_lateral_friction", m.FallingLateralFriction},
		{"rotation_adjust_intensity", m.RotationAdjustIntensity},
		{"control_rotation_adjust_rate", s.Orientation.ControlRotationAdjustRate},
		{"reset_control_rotation_adjust_rate", s.Orientation.ResetControlRotationAdjustRate},
		{"reset_tolerance", s.Orientation.ResetTolerance},
	}
	for _, v := range nonNegative {
		if v.value < 0 {
			return fmt.Errorf("%w: %s is %v, want >= 0", ErrInvalidSetting, v.key, v.value)
		}
	}

	switch {
	case m.WalkableFloorAngle < 0 || m.WalkableFloorAngle > 90:
		return fmt.Errorf("%w: walkable_floor_angle is %v, want within [0, 90]", ErrInvalidSetting, m.WalkableFloorAngle)
	case m.CrouchedHalfHeight <= 0:
		return fmt.Errorf("%w: crouched_half_height is %v, want > 0", ErrInvalidSetting, m.CrouchedHalfHeight)
	case m.JumpMaxCount < 0:
		return fmt.Errorf("%w: jump_max_count is %d, want >= 0", ErrInvalidSetting, m.JumpMaxCount)
	case m.MaxSimulationTimeStep <= 0:
		return fmt.Errorf("%w: max_simulation_time_step is %v, want > 0", ErrInvalidSetting, m.MaxSimulationTimeStep)
	case m.MaxSimulationIterations < 1:
		return fmt.Errorf("%w: max_simulation_iterations is %d, want >= 1", ErrInvalidSetting, m.MaxSimulationIterations)
	case s.Orientation.PitchLimit <= 0 || s.Orientation.PitchLimit > 90:
		return fmt.Errorf("%w: pitch_limit is %v, want within (0, 90]", ErrInvalidSetting, s.Orientation.PitchLimit)
	}

	switch s.Logging.Format {
	case "", "console", "text", "json":
	default:
		return fmt.Errorf("%w: logging format %q", ErrInvalidSetting, s.Logging.Format)
	}

	return nil
}
