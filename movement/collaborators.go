package movement

import (
	"github.com/akmonengine/gravitywalk/vecgeom"
	"github.com/go-gl/mathgl/mgl64"
)

// Notifier receives what happens to the character during a tick.
// Every method is called synchronously from Tick.
type Notifier interface {
	MovementModeChanged(previous, current MovementMode)
	Landed(hit HitResult)
	Jumped()
	JumpApex()
	Impact(hit HitResult)
	StartCrouch(halfHeightAdjust float64)
	EndCrouch(halfHeightAdjust float64)
	WalkingOffLedge(previousFloorImpactNormal mgl64.Vec3)
	StuckInGeometry(hit HitResult)
}

// ModeDelegate runs the movement modes this package does not simulate itself
// (swimming, custom modes).
type ModeDelegate interface {
	Phys(c *Component, deltaTime float64, iterations int)
}

// RootMotionSource supplies animation driven velocity
type RootMotionSource interface {
	HasRootMotion() bool
	RootMotionVelocity() mgl64.Vec3
}

// ReplicatedMovement is the state exchanged with a replication layer
type ReplicatedMovement struct {
	Location           mgl64.Vec3
	Rotation           mgl64.Quat
	Velocity           mgl64.Vec3
	Mode               MovementMode
	ModeChanged        bool
	SimGravityDisabled bool
}

// ReplicationSource feeds a simulated proxy. ConsumeUpdate returns false
// when nothing was received since the previous call.
type ReplicationSource interface {
	IsSimulatedProxy() bool
	ConsumeUpdate() (ReplicatedMovement, bool)
}

// ViewSource gives the rotation the body turns to with UseControllerDesiredRotation
type ViewSource interface {
	ViewRotation() vecgeom.Rotator
}
