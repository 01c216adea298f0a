package movement

import (
	"math"

	"github.com/akmonengine/gravitywalk/vecgeom"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	MIN_TICK_TIME = 1e-6
	// MIN_FLOOR_DIST and MAX_FLOOR_DIST bound the gap kept under a walking capsule
	MIN_FLOOR_DIST = 1.9
	MAX_FLOOR_DIST = 2.4
	// SWEEP_EDGE_REJECT_DISTANCE rejects floor hits this close to the capsule rim
	SWEEP_EDGE_REJECT_DISTANCE = 0.15
	BRAKE_TO_STOP_VELOCITY     = 10.0
	// MAX_STEP_SIDE_Z is the largest vertical component of a step side normal
	MAX_STEP_SIDE_Z         = 0.08
	VERTICAL_SLOPE_NORMAL_Z = 0.001
	PENETRATION_PULLBACK    = 0.125
	LEDGE_CHECK_THRESHOLD   = 4.0
)

// Settings are the tunables of a Component. Distances are in centimeters,
// angles in degrees and times in seconds.
type Settings struct {
	MaxStepHeight         float64 `yaml:"max_step_height"`
	WalkableFloorAngle    float64 `yaml:"walkable_floor_angle"`
	PerchRadiusThreshold  float64 `yaml:"perch_radius_threshold"`
	PerchAdditionalHeight float64 `yaml:"perch_additional_height"`

	CanCrouch          bool    `yaml:"can_crouch"`
	CrouchedHalfHeight float64 `yaml:"crouched_half_height"`

	// Gravity
	GravityZ                    float64    `yaml:"gravity_z"`
	GravityScale                float64    `yaml:"gravity_scale"`
	DynamicGravity              mgl64.Vec3 `yaml:"dynamic_gravity"`
	IgnoreWorldGravityIfDynamic bool       `yaml:"ignore_world_gravity_if_dynamic"`
	TerminalVelocity            float64    `yaml:"terminal_velocity"`
	Mass                        float64    `yaml:"mass"`

	// Jumping
	JumpZVelocity      float64 `yaml:"jump_z_velocity"`
	JumpOffJumpZFactor float64 `yaml:"jump_off_jump_z_factor"`
	JumpMaxHoldTime    float64 `yaml:"jump_max_hold_time"`
	JumpMaxCount       int     `yaml:"jump_max_count"`

	// Speeds
	MaxWalkSpeed           float64 `yaml:"max_walk_speed"`
	MaxWalkSpeedCrouched   float64 `yaml:"max_walk_speed_crouched"`
	MaxCustomMovementSpeed float64 `yaml:"max_custom_movement_speed"`
	MaxAcceleration        float64 `yaml:"max_acceleration"`

	// Friction and braking
	GroundFriction             float64 `yaml:"ground_friction"`
	BrakingFrictionFactor      float64 `yaml:"braking_friction_factor"`
	BrakingFriction            float64 `yaml:"braking_friction"`
	UseSeparateBrakingFriction bool    `yaml:"use_separate_braking_friction"`
	BrakingDecelerationWalking float64 `yaml:"braking_deceleration_walking"`
	BrakingDecelerationFalling float64 `yaml:"braking_deceleration_falling"`
	BrakingSubStepTime         float64 `yaml:"braking_sub_step_time"`

	// Air control
	AirControl                       float64 `yaml:"air_control"`
	AirControlBoostMultiplier        float64 `yaml:"air_control_boost_multiplier"`
	AirControlBoostVelocityThreshold float64 `yaml:"air_control_boost_velocity_threshold"`
	FallingLateralFriction           float64 `yaml:"falling_lateral_friction"`

	MaintainHorizontalGroundVelocity bool `yaml:"maintain_horizontal_ground_velocity"`
	CanWalkOffLedges                 bool `yaml:"can_walk_off_ledges"`
	CanWalkOffLedgesWhenCrouching    bool `yaml:"can_walk_off_ledges_when_crouching"`
	AlwaysCheckFloor                 bool `yaml:"always_check_floor"`
	ApplyGravityWhileJumping         bool `yaml:"apply_gravity_while_jumping"`
	RequestedMoveUseAcceleration     bool `yaml:"requested_move_use_acceleration"`

	// Rotation
	OrientRotationToMovement     bool    `yaml:"orient_rotation_to_movement"`
	UseControllerDesiredRotation bool    `yaml:"use_controller_desired_rotation"`
	RotationAdjustIntensity      float64 `yaml:"rotation_adjust_intensity"`

	// Sub-stepping
	MaxSimulationTimeStep   float64 `yaml:"max_simulation_time_step"`
	MaxSimulationIterations int     `yaml:"max_simulation_iterations"`

	// Vertical axis policies
	WalkableFloorNormalMode                WalkableFloorNormalMode `yaml:"walkable_floor_normal_mode"`
	CustomWalkableFloorNormal              mgl64.Vec3              `yaml:"custom_walkable_floor_normal"`
	JumpDirectionMode                      JumpDirectionMode       `yaml:"jump_direction_mode"`
	CustomJumpDirection                    mgl64.Vec3              `yaml:"custom_jump_direction"`
	PhysicsRotationVerticalDirectionMode   RotationVerticalMode    `yaml:"physics_rotation_vertical_direction_mode"`
	CustomPhysicsRotationVerticalDirection mgl64.Vec3              `yaml:"custom_physics_rotation_vertical_direction"`
}

// DefaultSettings returns the stock character tuning
func DefaultSettings() Settings {
	return Settings{
		MaxStepHeight:         45,
		WalkableFloorAngle:    44.765,
		PerchRadiusThreshold:  0,
		PerchAdditionalHeight: 40,

		CanCrouch:          true,
		CrouchedHalfHeight: 40,

		GravityZ:         -980,
		GravityScale:     1,
		TerminalVelocity: 4000,
		Mass:             100,

		JumpZVelocity:      420,
		JumpOffJumpZFactor: 0.5,
		JumpMaxHoldTime:    0,
		JumpMaxCount:       1,

		MaxWalkSpeed:           600,
		MaxWalkSpeedCrouched:   300,
		MaxCustomMovementSpeed: 600,
		MaxAcceleration:        2048,

		GroundFriction:             8,
		BrakingFrictionFactor:      2,
		BrakingFriction:            0,
		BrakingDecelerationWalking: 2048,
		BrakingDecelerationFalling: 0,
		BrakingSubStepTime:         1.0 / 33.0,

		AirControl:                       0.05,
		AirControlBoostMultiplier:        2,
		AirControlBoostVelocityThreshold: 25,
		FallingLateralFriction:           0,

		MaintainHorizontalGroundVelocity: true,
		CanWalkOffLedges:                 true,
		CanWalkOffLedgesWhenCrouching:    false,
		AlwaysCheckFloor:                 true,
		ApplyGravityWhileJumping:         true,
		RequestedMoveUseAcceleration:     true,

		RotationAdjustIntensity: 10,

		MaxSimulationTimeStep:   0.05,
		MaxSimulationIterations: 8,

		WalkableFloorNormalMode:                FloorNormalCharacterRotation,
		CustomWalkableFloorNormal:              vecgeom.Up,
		JumpDirectionMode:                      JumpGravity,
		CustomJumpDirection:                    vecgeom.Up,
		PhysicsRotationVerticalDirectionMode:   RotationUpVerticalDirection,
		CustomPhysicsRotationVerticalDirection: vecgeom.Up,
	}
}

// WalkableFloorZ is the cosine of WalkableFloorAngle: the smallest dot product
// between a floor normal and the vertical axis that can be stood on.
func (s Settings) WalkableFloorZ() float64 {
	return math.Cos(mgl64.DegToRad(mgl64.Clamp(s.WalkableFloorAngle, 0, 90)))
}

// SetWalkableFloorZ stores the angle matching a cosine threshold
func (s *Settings) SetWalkableFloorZ(z float64) {
	s.WalkableFloorAngle = mgl64.RadToDeg(math.Acos(mgl64.Clamp(z, 0, 1)))
}

// SetCustomWalkableFloorNormal stores n normalized
func (s *Settings) SetCustomWalkableFloorNormal(n mgl64.Vec3) {
	s.CustomWalkableFloorNormal = vecgeom.SafeNormal(n)
}

// SetCustomJumpDirection stores d normalized
func (s *Settings) SetCustomJumpDirection(d mgl64.Vec3) {
	s.CustomJumpDirection = vecgeom.SafeNormal(d)
}

// Gravity builds the gravity description of these settings
func (s Settings) Gravity() GravitySpec {
	return GravitySpec{
		WorldGravityZ:               s.GravityZ * s.GravityScale,
		DynamicGravity:              s.DynamicGravity,
		IgnoreWorldGravityIfDynamic: s.IgnoreWorldGravityIfDynamic,
	}
}
