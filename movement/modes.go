package movement

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// MovementMode selects the physics stepper run by the component
type MovementMode uint8

const (
	MovementNone MovementMode = iota
	MovementWalking
	MovementFalling
	MovementSwimming
	MovementCustom
)

var movementModeNames = map[MovementMode]string{
	MovementNone:     "none",
	MovementWalking:  "walking",
	MovementFalling:  "falling",
	MovementSwimming: "swimming",
	MovementCustom:   "custom",
}

func (m MovementMode) String() string {
	if name, ok := movementModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("MovementMode(%d)", uint8(m))
}

func (m *MovementMode) UnmarshalYAML(value *yaml.Node) error {
	return unmarshalMode(value, movementModeNames, m)
}

// WalkableFloorNormalMode tells which vector a floor normal is compared with
type WalkableFloorNormalMode uint8

const (
	FloorNormalGravity WalkableFloorNormalMode = iota
	FloorNormalWorldGravity
	FloorNormalDynamicGravity
	FloorNormalCharacterRotation
	FloorNormalFloorImpactNormal
	FloorNormalNoFloor
	FloorNormalCustom
)

var floorNormalModeNames = map[WalkableFloorNormalMode]string{
	FloorNormalGravity:           "gravity",
	FloorNormalWorldGravity:      "world_gravity",
	FloorNormalDynamicGravity:    "dynamic_gravity",
	FloorNormalCharacterRotation: "character_rotation",
	FloorNormalFloorImpactNormal: "floor_impact_normal",
	FloorNormalNoFloor:           "no_floor",
	FloorNormalCustom:            "custom",
}

func (m WalkableFloorNormalMode) String() string {
	return floorNormalModeNames[m]
}

func (m *WalkableFloorNormalMode) UnmarshalYAML(value *yaml.Node) error {
	return unmarshalMode(value, floorNormalModeNames, m)
}

// JumpDirectionMode tells along which vector a jump pushes
type JumpDirectionMode uint8

const (
	JumpGravity JumpDirectionMode = iota
	JumpWorldGravity
	JumpDynamicGravity
	JumpVerticalDirection
	JumpCustom
)

var jumpModeNames = map[JumpDirectionMode]string{
	JumpGravity:           "gravity",
	JumpWorldGravity:      "world_gravity",
	JumpDynamicGravity:    "dynamic_gravity",
	JumpVerticalDirection: "vertical_direction",
	JumpCustom:            "custom",
}

func (m JumpDirectionMode) String() string {
	return jumpModeNames[m]
}

func (m *JumpDirectionMode) UnmarshalYAML(value *yaml.Node) error {
	return unmarshalMode(value, jumpModeNames, m)
}

// RotationVerticalMode tells which up vector PhysicsRotation levels the body to
type RotationVerticalMode uint8

const (
	RotationUpGravity RotationVerticalMode = iota
	RotationUpWorldGravity
	RotationUpDynamicGravity
	RotationUpVerticalDirection
	RotationUpCustom
)

var rotationModeNames = map[RotationVerticalMode]string{
	RotationUpGravity:           "gravity",
	RotationUpWorldGravity:      "world_gravity",
	RotationUpDynamicGravity:    "dynamic_gravity",
	RotationUpVerticalDirection: "vertical_direction",
	RotationUpCustom:            "custom",
}

func (m RotationVerticalMode) String() string {
	return rotationModeNames[m]
}

func (m *RotationVerticalMode) UnmarshalYAML(value *yaml.Node) error {
	return unmarshalMode(value, rotationModeNames, m)
}

// ParseModeName looks name up in names, case insensitive.
func ParseModeName[T comparable](name string, names map[T]string) (T, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for mode, modeName := range names {
		if modeName == key {
			return mode, nil
		}
	}

	var zero T
	return zero, fmt.Errorf("unknown mode %q", name)
}

func unmarshalMode[T comparable](value *yaml.Node, names map[T]string, out *T) error {
	var name string
	if err := value.Decode(&name); err != nil {
		return err
	}
	mode, err := ParseModeName(name, names)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*out = mode

	return nil
}
