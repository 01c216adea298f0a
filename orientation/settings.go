package orientation

import (
	"fmt"

	"github.com/akmonengine/gravitywalk/movement"
	"github.com/akmonengine/gravitywalk/vecgeom"
	"gopkg.in/yaml.v3"
)

// ViewRotationBaseMode selects the up axis the view rotation base follows
type ViewRotationBaseMode uint8

const (
	ViewBaseGravity ViewRotationBaseMode = iota
	ViewBaseWorldGravity
	ViewBaseDynamicGravity
	ViewBaseVerticalDirection
	ViewBaseCharacterRotation
	// ViewBaseControlRotation uses the control rotation as the view, the base stays identity
	ViewBaseControlRotation
	ViewBaseCustom
)

var viewBaseModeNames = map[ViewRotationBaseMode]string{
	ViewBaseGravity:           "gravity",
	ViewBaseWorldGravity:      "world_gravity",
	ViewBaseDynamicGravity:    "dynamic_gravity",
	ViewBaseVerticalDirection: "vertical_direction",
	ViewBaseCharacterRotation: "character_rotation",
	ViewBaseControlRotation:   "control_rotation",
	ViewBaseCustom:            "custom",
}

func (m ViewRotationBaseMode) String() string {
	if name, ok := viewBaseModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("ViewRotationBaseMode(%d)", uint8(m))
}

func (m *ViewRotationBaseMode) UnmarshalYAML(value *yaml.Node) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	mode, err := movement.ParseModeName(name, viewBaseModeNames)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*m = mode

	return nil
}

const (
	// DEFAULT_PITCH_LIMIT keeps the control rotation off the poles, in degrees
	DEFAULT_PITCH_LIMIT = 89.9
	// viewAngleTolerance in degrees, below it the base is not blended
	viewAngleTolerance = 1e-3
	// flipThreshold is the |Y·Z| above which the base is rebuilt from its X axis
	flipThreshold = 0.7071068
)

type Settings struct {
	ViewRotationBaseMode   ViewRotationBaseMode `yaml:"view_rotation_base_mode"`
	CustomViewRotationBase vecgeom.Rotator      `yaml:"custom_view_rotation_base"`
	// ViewRotationAdjustIntensity is the blend rate of the base, negative snaps
	ViewRotationAdjustIntensity float64 `yaml:"view_rotation_adjust_intensity"`

	// ControlRotationAdjustRate turns the view toward lateral input, 0 disables it
	ControlRotationAdjustRate      float64 `yaml:"control_rotation_adjust_rate"`
	ResetControlRotationAdjustRate float64 `yaml:"reset_control_rotation_adjust_rate"`
	// ResetTolerance in degrees ends a reset
	ResetTolerance float64 `yaml:"reset_tolerance"`
	PitchLimit     float64 `yaml:"pitch_limit"`
}

func DefaultSettings() Settings {
	return Settings{
		ViewRotationBaseMode:           ViewBaseControlRotation,
		ViewRotationAdjustIntensity:    15,
		ControlRotationAdjustRate:      20,
		ResetControlRotationAdjustRate: 50,
		ResetTolerance:                 10,
		PitchLimit:                     DEFAULT_PITCH_LIMIT,
	}
}
