// Package movement moves a capsule character along a vertical axis that is
// resolved every tick instead of being world Z: floor detection, walking,
// falling, step-up, crouching and jumping all run against that axis.
package movement

import (
	"log/slog"

	"github.com/akmonengine/gravitywalk/actor"
	"github.com/akmonengine/gravitywalk/vecgeom"
	"github.com/go-gl/mathgl/mgl64"
)

// LocomotionState is everything the steppers mutate during a tick
type LocomotionState struct {
	Mode       MovementMode
	CustomMode uint8

	Velocity     mgl64.Vec3
	Acceleration mgl64.Vec3
	// VerticalDirection is the current up axis, always unit length
	VerticalDirection mgl64.Vec3

	CurrentFloor FloorResult
	// Base is the body walked on and BaseLocation its position when last seen
	Base         *actor.Body
	BaseLocation mgl64.Vec3

	JustTeleported              bool
	ForceNextFloorCheck         bool
	CrouchMaintainsBaseLocation bool

	IsCrouched    bool
	WantsToCrouch bool

	PendingImpulse mgl64.Vec3
	PendingForce   mgl64.Vec3
	PendingLaunch  mgl64.Vec3

	RequestedVelocity         mgl64.Vec3
	HasRequestedVelocity      bool
	RequestedMoveWithMaxSpeed bool

	PressedJump            bool
	WasJumping             bool
	JumpKeyHoldTime        float64
	JumpForceTimeRemaining float64
	JumpCurrentCount       int
	NotifyApex             bool
	performingJumpOff      bool

	// input accumulated since the previous tick
	pendingInput mgl64.Vec3
}

// Component drives the capsule Body through Query. Body.Shape must be an
// *actor.Capsule whose axis is the body local Z.
type Component struct {
	Settings Settings
	State    LocomotionState

	Body    *actor.Body
	Query   CollisionQuery
	Channel actor.Channel

	Notifier    Notifier
	Swimming    ModeDelegate
	Custom      ModeDelegate
	RootMotion  RootMotionSource
	Replication ReplicationSource
	View        ViewSource

	// Logger is optional, nil disables logging
	Logger *slog.Logger

	standingHalfHeight float64
	// last replicated state, a proxy does not simulate before the first one
	replicated    ReplicatedMovement
	hasReplicated bool
}

// NewComponent binds a component to a capsule body. The capsule size at this
// point is the standing size restored by UnCrouch.
func NewComponent(body *actor.Body, query CollisionQuery, settings Settings) *Component {
	c := &Component{
		Settings: settings,
		Body:     body,
		Query:    query,
		Channel:  actor.ChannelPawn,
	}
	c.State.VerticalDirection = vecgeom.Up
	if capsule := c.capsule(); capsule != nil {
		c.standingHalfHeight = capsule.HalfHeight
	}
	c.State.Mode = MovementFalling

	return c
}

// HasValidData is false when the component cannot move anything
func (c *Component) HasValidData() bool {
	return c.Body != nil && c.Query != nil && c.capsule() != nil
}

func (c *Component) capsule() *actor.Capsule {
	if c.Body == nil {
		return nil
	}
	capsule, _ := c.Body.Shape.(*actor.Capsule)
	return capsule
}

// CapsuleSize returns the current radius and half height
func (c *Component) CapsuleSize() (float64, float64) {
	capsule := c.capsule()
	if capsule == nil {
		return 0, 0
	}
	return capsule.Radius, capsule.HalfHeight
}

func (c *Component) setCapsuleSize(radius, halfHeight float64) {
	capsule := c.capsule()
	capsule.Radius = radius
	capsule.HalfHeight = halfHeight
	capsule.ComputeAABB(c.Body.Transform)
}

// StandingHalfHeight is the uncrouched capsule half height
func (c *Component) StandingHalfHeight() float64 {
	return c.standingHalfHeight
}

func (c *Component) Location() mgl64.Vec3 {
	return c.Body.Transform.Position
}

func (c *Component) Rotation() mgl64.Quat {
	return c.Body.Transform.Rotation
}

// ActorUp is the body local Z axis in world space
func (c *Component) ActorUp() mgl64.Vec3 {
	return vecgeom.AxisZ(c.Rotation())
}

// ActorForward is the body local X axis in world space
func (c *Component) ActorForward() mgl64.Vec3 {
	return vecgeom.AxisX(c.Rotation())
}

func (c *Component) Gravity() GravitySpec {
	return c.Settings.Gravity()
}

// SetDynamicGravity replaces the dynamic gravity vector
func (c *Component) SetDynamicGravity(g mgl64.Vec3) {
	c.Settings.DynamicGravity = g
}

func (c *Component) queryParams() QueryParams {
	return QueryParams{
		Channel:                           c.Channel,
		IgnoreBodies:                      []int{c.Body.ID},
		IgnoreInitialOverlapWhenMovingOut: true,
	}
}

func (c *Component) shape() CapsuleShape {
	radius, halfHeight := c.CapsuleSize()
	return CapsuleShape{Radius: radius, HalfHeight: halfHeight}
}

// Mode accessors

func (c *Component) IsMovingOnGround() bool { return c.State.Mode == MovementWalking }
func (c *Component) IsFalling() bool        { return c.State.Mode == MovementFalling }
func (c *Component) IsSwimming() bool       { return c.State.Mode == MovementSwimming }
func (c *Component) IsCrouching() bool      { return c.State.IsCrouched }

func (c *Component) Velocity() mgl64.Vec3 { return c.State.Velocity }

func (c *Component) VerticalDirection() mgl64.Vec3 { return c.State.VerticalDirection }

// VerticalVelocity is the velocity along the vertical axis
func (c *Component) VerticalVelocity() mgl64.Vec3 {
	return vecgeom.ProjectOnToNormal(c.State.Velocity, c.State.VerticalDirection)
}

// HorizontalVelocity is the velocity in the plane orthogonal to the vertical axis
func (c *Component) HorizontalVelocity() mgl64.Vec3 {
	return vecgeom.Planar(c.State.Velocity, c.State.VerticalDirection)
}

func (c *Component) Speed() float64 { return c.State.Velocity.Len() }

// Acceleration is the input acceleration of the last tick
func (c *Component) Acceleration() mgl64.Vec3 { return c.State.Acceleration }

func (c *Component) MaxAcceleration() float64 { return c.Settings.MaxAcceleration }

// VerticalSpeed is signed, positive when moving up
func (c *Component) VerticalSpeed() float64 {
	return c.State.Velocity.Dot(c.State.VerticalDirection)
}

func (c *Component) HorizontalSpeed() float64 { return c.HorizontalVelocity().Len() }

// MaxSpeed depends on the movement mode
func (c *Component) MaxSpeed() float64 {
	switch c.State.Mode {
	case MovementWalking:
		if c.IsCrouching() {
			return c.Settings.MaxWalkSpeedCrouched
		}
		return c.Settings.MaxWalkSpeed
	case MovementFalling:
		return c.Settings.MaxWalkSpeed
	case MovementCustom:
		return c.Settings.MaxCustomMovementSpeed
	default:
		return 0
	}
}

func (c *Component) maxBrakingDeceleration() float64 {
	switch c.State.Mode {
	case MovementWalking:
		return c.Settings.BrakingDecelerationWalking
	case MovementFalling:
		return c.Settings.BrakingDecelerationFalling
	default:
		return 0
	}
}

// WalkableFloorNormal resolves Settings.WalkableFloorNormalMode
func (c *Component) WalkableFloorNormal() mgl64.Vec3 {
	return WalkableFloorNormalFor(c.Settings.WalkableFloorNormalMode, c.Gravity(), c.ActorUp(), c.State.CurrentFloor, c.Settings.CustomWalkableFloorNormal)
}

// JumpDirection resolves Settings.JumpDirectionMode
func (c *Component) JumpDirection() mgl64.Vec3 {
	return JumpDirectionFor(c.Settings.JumpDirectionMode, c.Gravity(), c.State.VerticalDirection, c.Settings.CustomJumpDirection)
}

// UpdateVerticalDirection picks the vertical axis of this tick: the jump
// direction while a jump pushes, the walkable floor normal while walking,
// then the inverse gravity, the inverse dynamic gravity and finally world up.
func (c *Component) UpdateVerticalDirection() mgl64.Vec3 {
	g := c.Gravity()
	candidates := make([]mgl64.Vec3, 0, 4)

	if c.State.JumpForceTimeRemaining > 0 {
		candidates = append(candidates, c.JumpDirection())
	}
	if c.IsMovingOnGround() {
		candidates = append(candidates, c.WalkableFloorNormal())
	}
	candidates = append(candidates, g.GravityNormal().Mul(-1), g.DynamicGravityNormal().Mul(-1))

	c.State.VerticalDirection = ResolveVerticalDirection(candidates...)
	return c.State.VerticalDirection
}

// SetMovementMode switches mode and runs the transition hook
func (c *Component) SetMovementMode(mode MovementMode) {
	c.SetMovementModeCustom(mode, 0)
}

// SetMovementModeCustom also selects a custom sub mode
func (c *Component) SetMovementModeCustom(mode MovementMode, customMode uint8) {
	if mode != MovementCustom {
		customMode = 0
	}
	if c.State.Mode == mode && c.State.CustomMode == customMode {
		return
	}

	previous := c.State.Mode
	c.State.Mode = mode
	c.State.CustomMode = customMode
	c.onMovementModeChanged(previous)
}

func (c *Component) onMovementModeChanged(previous MovementMode) {
	if !c.HasValidData() {
		return
	}

	if c.State.Mode == MovementWalking {
		// walking keeps only the planar velocity and needs a floor
		c.State.Velocity = vecgeom.Planar(c.State.Velocity, c.State.VerticalDirection)
		c.State.CrouchMaintainsBaseLocation = true

		c.State.CurrentFloor = c.FindFloor(c.Location(), false, nil)
		c.AdjustFloorHeight()
		c.setBaseFromFloor(c.State.CurrentFloor)
	} else {
		c.State.CurrentFloor.Clear()
		c.State.CrouchMaintainsBaseLocation = false

		if c.State.Mode == MovementFalling {
			c.State.Velocity = c.State.Velocity.Add(c.impartedBaseVelocity())
		}
		c.setBase(nil)

		if c.State.Mode == MovementNone {
			c.State.Velocity = vecgeom.Zero
			c.State.Acceleration = vecgeom.Zero
			c.State.HasRequestedVelocity = false
			c.ResetJumpState()
			c.ClearAccumulatedForces()
		}
	}

	if !c.State.PressedJump || !c.IsFalling() {
		c.ResetJumpState()
	}

	c.debug("movement mode changed", "from", previous, "to", c.State.Mode)
	if c.Notifier != nil {
		c.Notifier.MovementModeChanged(previous, c.State.Mode)
	}
}

// SetDefaultMovementMode walks when a walkable floor is under the body and
// falls otherwise.
func (c *Component) SetDefaultMovementMode() {
	if c.State.Mode == MovementWalking {
		return
	}
	savedVertical := vecgeom.ProjectOnToNormal(c.State.Velocity, c.State.VerticalDirection)
	c.SetMovementMode(MovementWalking)

	if c.IsMovingOnGround() && c.State.Base == nil {
		c.State.Velocity = c.State.Velocity.Add(savedVertical)
		c.SetMovementMode(MovementFalling)
	}
}

func (c *Component) setBaseFromFloor(floor FloorResult) {
	if floor.IsWalkableFloor() {
		c.setBase(floor.HitResult.Body)
	} else {
		c.setBase(nil)
	}
}

func (c *Component) setBase(base *actor.Body) {
	c.State.Base = base
	if base != nil {
		c.State.BaseLocation = base.Transform.Position
	}
}

// impartedBaseVelocity is the velocity of the base under the capsule
func (c *Component) impartedBaseVelocity() mgl64.Vec3 {
	if c.State.Base == nil || !c.State.Base.IsMovable() {
		return vecgeom.Zero
	}
	return c.State.Base.PointVelocity(c.Location())
}

// TeleportTo moves the body without sweeping and forces a fresh floor check
func (c *Component) TeleportTo(location mgl64.Vec3, rotation mgl64.Quat) {
	if c.Body == nil {
		return
	}
	c.Body.MoveTo(location, rotation)
	c.State.JustTeleported = true
	c.State.ForceNextFloorCheck = true
	if c.IsMovingOnGround() {
		c.State.CurrentFloor = c.FindFloor(location, false, nil)
		c.setBaseFromFloor(c.State.CurrentFloor)
	}
}

func (c *Component) debug(msg string, args ...any) {
	if c.Logger != nil {
		c.Logger.Debug(msg, args...)
	}
}

func (c *Component) handleImpact(hit HitResult) {
	if c.Notifier != nil {
		c.Notifier.Impact(hit)
	}
}
