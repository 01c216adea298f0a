package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Mobility tells how a body may move
type Mobility int

const (
	// MobilityStatic bodies never move (ground, walls)
	MobilityStatic Mobility = iota

	// MobilityKinematic bodies follow their Velocity and AngularVelocity,
	// they are never pushed by characters (moving platforms, elevators)
	MobilityKinematic

	// MobilityDynamic bodies are moved by the host simulation
	MobilityDynamic
)

// Channel is a collision query channel
type Channel uint8

const (
	ChannelWorldStatic Channel = iota
	ChannelWorldDynamic
	ChannelPawn
	ChannelVisibility
	ChannelCamera
)

// ChannelMask is a set of channels a body blocks
type ChannelMask uint32

const AllChannels ChannelMask = math.MaxUint32

func (c Channel) Mask() ChannelMask {
	return 1 << ChannelMask(c)
}

// SlopeBehavior modifies how walkable a surface is
type SlopeBehavior int

const (
	SlopeDefault SlopeBehavior = iota
	// SlopeIncreaseWalkable lowers the floor cosine threshold to cos(Angle)
	SlopeIncreaseWalkable
	// SlopeDecreaseWalkable raises the floor cosine threshold to cos(Angle)
	SlopeDecreaseWalkable
	SlopeUnwalkable
)

// WalkableSlopeOverride lets a body change the walkable slope of whatever stands on it
type WalkableSlopeOverride struct {
	Behavior SlopeBehavior
	// Angle in degrees
	Angle float64
}

// ModifyWalkableFloorZ returns the cosine threshold to use on this surface
func (o WalkableSlopeOverride) ModifyWalkableFloorZ(walkableFloorZ float64) float64 {
	slopeFloorZ := math.Cos(mgl64.DegToRad(o.Angle))

	switch o.Behavior {
	case SlopeIncreaseWalkable:
		return math.Min(walkableFloorZ, slopeFloorZ)
	case SlopeDecreaseWalkable:
		return math.Max(walkableFloorZ, slopeFloorZ)
	case SlopeUnwalkable:
		// cosine never reaches 2, nothing is walkable
		return 2
	default:
		return walkableFloorZ
	}
}

// Body is a collision object of the world
type Body struct {
	ID   int
	Name string

	// Spatial properties
	PreviousTransform Transform
	Transform         Transform

	// Linear and angular motion, used by kinematic bodies only
	Velocity        mgl64.Vec3
	AngularVelocity mgl64.Vec3 // rad/s

	Mobility Mobility

	// Collision shape
	Shape ShapeInterface

	// QueryEnabled false makes the body invisible to every query
	QueryEnabled bool
	BlockMask    ChannelMask

	// CanStepUpOn false forbids characters to step onto this body
	CanStepUpOn   bool
	SlopeOverride WalkableSlopeOverride
}

// NewBody creates a queryable body blocking every channel
func NewBody(transform Transform, shape ShapeInterface, mobility Mobility) *Body {
	transform.SetRotation(transform.Rotation)
	b := &Body{
		PreviousTransform: transform,
		Transform:         transform,
		Mobility:          mobility,
		Shape:             shape,
		QueryEnabled:      true,
		BlockMask:         AllChannels,
		CanStepUpOn:       true,
	}
	b.Shape.ComputeAABB(b.Transform)

	return b
}

// Blocks reports whether a query on channel is stopped by this body
func (b *Body) Blocks(channel Channel) bool {
	return b.QueryEnabled && b.BlockMask&channel.Mask() != 0
}

// IsMovable is true for kinematic and dynamic bodies
func (b *Body) IsMovable() bool {
	return b.Mobility != MobilityStatic
}

// Integrate advances a kinematic body
func (b *Body) Integrate(dt float64) {
	if b.Mobility != MobilityKinematic {
		return
	}

	b.PreviousTransform = b.Transform
	b.Transform.Position = b.Transform.Position.Add(b.Velocity.Mul(dt))

	if b.AngularVelocity.LenSqr() > 0 {
		omegaQuat := mgl64.Quat{V: b.AngularVelocity, W: 0}
		qDot := omegaQuat.Mul(b.Transform.Rotation).Scale(0.5)
		b.Transform.SetRotation(b.Transform.Rotation.Add(qDot.Scale(dt)))
	}

	b.Shape.ComputeAABB(b.Transform)
}

// MoveTo teleports the body
func (b *Body) MoveTo(position mgl64.Vec3, rotation mgl64.Quat) {
	b.PreviousTransform = b.Transform
	b.Transform.Position = position
	b.Transform.SetRotation(rotation)
	b.Shape.ComputeAABB(b.Transform)
}

// PointVelocity is the velocity of a world point attached to the body
func (b *Body) PointVelocity(point mgl64.Vec3) mgl64.Vec3 {
	if b.Mobility != MobilityKinematic {
		return mgl64.Vec3{}
	}
	return b.Velocity.Add(b.AngularVelocity.Cross(point.Sub(b.Transform.Position)))
}

// Center is the world position of the body
func (b *Body) Center() mgl64.Vec3 {
	return b.Transform.Position
}

func (b *Body) SupportWorld(direction mgl64.Vec3) mgl64.Vec3 {
	// world direction into the local frame
	localDirection := b.Transform.InverseRotation.Rotate(direction)

	// local support point
	localSupport := b.Shape.Support(localDirection)

	// back to world space
	return b.Transform.ToWorld(localSupport)
}

// SignedDistanceWorld is Shape.SignedDistance for a world point, normal in world space
func (b *Body) SignedDistanceWorld(point mgl64.Vec3) (float64, mgl64.Vec3) {
	d, normal := b.Shape.SignedDistance(b.Transform.ToLocal(point))
	return d, b.Transform.DirectionToWorld(normal)
}

// FaceNormalWorld is Shape.FaceNormal for a world point and hint
func (b *Body) FaceNormalWorld(point, hint mgl64.Vec3) mgl64.Vec3 {
	normal := b.Shape.FaceNormal(b.Transform.ToLocal(point), b.Transform.DirectionToLocal(hint))
	return b.Transform.DirectionToWorld(normal)
}
