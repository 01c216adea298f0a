package movement

import (
	"math"
	"math/rand/v2"

	"github.com/akmonengine/gravitywalk/vecgeom"
	"github.com/go-gl/mathgl/mgl64"
)

// airControl scales the lateral acceleration, boosted while nearly still
func (c *Component) airControl(fallAcceleration mgl64.Vec3) mgl64.Vec3 {
	tickAirControl := c.Settings.AirControl
	if tickAirControl != 0 {
		planarSpeedSq := vecgeom.Planar(c.State.Velocity, c.State.VerticalDirection).LenSqr()
		threshold := c.Settings.AirControlBoostVelocityThreshold
		if c.Settings.AirControlBoostMultiplier > 0 && planarSpeedSq < threshold*threshold {
			tickAirControl = math.Min(1, c.Settings.AirControlBoostMultiplier*tickAirControl)
		}
	}
	return fallAcceleration.Mul(tickAirControl)
}

// fallingLateralAcceleration is the input acceleration without its gravity
// part, reduced by air control.
func (c *Component) fallingLateralAcceleration() mgl64.Vec3 {
	gravity := c.Gravity().Gravity()
	accel := c.State.Acceleration.Sub(vecgeom.ProjectOnTo(c.State.Acceleration, gravity))

	if !c.hasRootMotion() && accel.LenSqr() > 0 {
		accel = c.airControl(accel)
		accel = vecgeom.ClampToMaxSize(accel, c.Settings.MaxAcceleration)
	}
	return accel
}

// LimitAirControl keeps air control from pushing into what was hit, which
// could push the character up a wall.
func (c *Component) LimitAirControl(fallAcceleration mgl64.Vec3, hit HitResult, checkForValidLandingSpot bool) mgl64.Vec3 {
	up := c.Gravity().GravityNormal().Mul(-1)
	result := fallAcceleration

	if hit.IsValidBlockingHit() && hit.Normal.Dot(up) > VERTICAL_SLOPE_NORMAL_Z {
		if !checkForValidLandingSpot || !c.IsValidLandingSpot(hit.Location, hit) {
			if fallAcceleration.Dot(hit.Normal) < 0 {
				// parallel to the wall, not into it
				normalPlanar := vecgeom.PlanarSafeNormal(hit.Normal, up)
				result = vecgeom.Planar(fallAcceleration, normalPlanar)
			}
		}
	} else if hit.StartPenetrating {
		// allow moving out of the penetration
		if result.Dot(hit.Normal) > 0 {
			return result
		}
		return vecgeom.Zero
	}

	return result
}

// IsValidLandingSpot tells whether hit, reached at capsuleLocation, is a
// floor the character can land on.
func (c *Component) IsValidLandingSpot(capsuleLocation mgl64.Vec3, hit HitResult) bool {
	if !hit.Blocking {
		return false
	}

	walkableNormal := c.WalkableFloorNormal()
	if !hit.StartPenetrating {
		if !c.IsWalkableAlong(walkableNormal, hit) {
			return false
		}

		// reject hits above the capsule center, sliding down a vertical surface
		if hit.ImpactPoint.Sub(hit.Location).Dot(walkableNormal.Mul(-1)) < 0 {
			return false
		}

		radius, _ := c.CapsuleSize()
		if !IsWithinEdgeTolerance(walkableNormal, hit.Location, hit.ImpactPoint, radius) {
			return false
		}
	} else if hit.Normal.Dot(walkableNormal) < vecgeom.KINDA_SMALL_NUMBER {
		// push out next to a vertical or overhanging wall, don't pop to the floor
		return false
	}

	floor := c.FindFloor(capsuleLocation, false, &hit)
	return floor.IsWalkableFloor()
}

// shouldCheckForValidLandingSpot is true when the capsule rests on an edge
// its sweep normal disagrees with, the floor may still be walkable.
func (c *Component) shouldCheckForValidLandingSpot(hit HitResult) bool {
	up := c.Gravity().GravityNormal().Mul(-1)
	if hit.Normal.Dot(up) > vecgeom.KINDA_SMALL_NUMBER && !vecgeom.NearlyEqual(hit.Normal, hit.ImpactNormal, vecgeom.KINDA_SMALL_NUMBER) {
		radius, _ := c.CapsuleSize()
		return IsWithinEdgeTolerance(up, c.Location(), hit.ImpactPoint, radius)
	}
	return false
}

// processLanded notifies the landing, switches to walking and goes on with
// the remaining time.
func (c *Component) processLanded(hit HitResult, remainingTime float64, iterations int) {
	if hit.Body != nil && !hit.Body.CanStepUpOn && c.IsFalling() {
		// this body cannot carry the character
		c.JumpOff(hit.Body)
		c.startNewPhysics(remainingTime, iterations)
		return
	}

	if c.Notifier != nil {
		c.Notifier.Landed(hit)
	}
	if c.IsFalling() {
		c.setPostLandedPhysics()
	}
	c.startNewPhysics(remainingTime, iterations)
}

func (c *Component) setPostLandedPhysics() {
	c.SetMovementMode(MovementWalking)
}

// PhysFalling moves a falling character under gravity and air control,
// deflecting off walls and landing on walkable floors.
func (c *Component) PhysFalling(deltaTime float64, iterations int) {
	if deltaTime < MIN_TICK_TIME {
		return
	}

	fallAcceleration := c.fallingLateralAcceleration()
	hasAirControl := fallAcceleration.LenSqr() > 0

	remainingTime := deltaTime
	for remainingTime >= MIN_TICK_TIME && iterations < c.Settings.MaxSimulationIterations {
		iterations++
		timeTick := c.simulationTimeStep(remainingTime, iterations)
		remainingTime -= timeTick

		oldLocation := c.Location()
		rotation := c.Rotation()
		c.State.JustTeleported = false

		oldVelocity := c.State.Velocity
		velocityNoAirControl := c.State.Velocity
		gravity := c.Gravity().Gravity()
		up := vecgeom.SafeNormal(gravity).Mul(-1)

		if !c.hasRootMotion() {
			maxDecel := c.maxBrakingDeceleration()
			savedAcceleration := c.State.Acceleration

			if hasAirControl {
				// velocity without acceleration
				c.State.Acceleration = vecgeom.Zero
				c.State.Velocity = oldVelocity.Sub(vecgeom.ProjectOnTo(oldVelocity, gravity))
				c.CalcVelocity(timeTick, c.Settings.FallingLateralFriction, maxDecel)
				velocityNoAirControl = c.State.Velocity.Sub(vecgeom.ProjectOnTo(c.State.Velocity, gravity)).Add(vecgeom.ProjectOnTo(oldVelocity, gravity))
			}

			c.State.Acceleration = fallAcceleration
			c.State.Velocity = oldVelocity.Sub(vecgeom.ProjectOnTo(oldVelocity, gravity))
			c.CalcVelocity(timeTick, c.Settings.FallingLateralFriction, maxDecel)
			c.State.Velocity = c.State.Velocity.Add(vecgeom.ProjectOnTo(oldVelocity, gravity))
			c.State.Acceleration = savedAcceleration

			if !hasAirControl {
				velocityNoAirControl = c.State.Velocity
			}
		}

		gravityTime := timeTick
		if c.State.JumpForceTimeRemaining > 0 {
			// only the time left after the jump force is under gravity unless
			// gravity applies while jumping
			jumpForceTime := math.Min(c.State.JumpForceTimeRemaining, timeTick)
			if !c.Settings.ApplyGravityWhileJumping {
				gravityTime = math.Max(0, timeTick-jumpForceTime)
			}

			c.State.JumpForceTimeRemaining -= jumpForceTime
			if c.State.JumpForceTimeRemaining <= 0 {
				c.ResetJumpState()
			}
		}

		c.State.Velocity = c.NewFallVelocity(c.State.Velocity, gravity, gravityTime)
		if hasAirControl {
			velocityNoAirControl = c.NewFallVelocity(velocityNoAirControl, gravity, gravityTime)
		} else {
			velocityNoAirControl = c.State.Velocity
		}
		airControlAccel := c.State.Velocity.Sub(velocityNoAirControl).Mul(1 / timeTick)

		c.applyRootMotionToVelocity(timeTick)

		if c.State.NotifyApex && c.State.Velocity.Dot(up) <= 0 {
			// just passed the apex, now going down
			c.State.NotifyApex = false
			if c.Notifier != nil {
				c.Notifier.JumpApex()
			}
		}

		adjusted := oldVelocity.Add(c.State.Velocity).Mul(0.5 * timeTick)
		hit := c.SafeMove(adjusted, rotation, true)

		lastMoveTimeSlice := timeTick
		subTimeTickRemaining := timeTick * (1 - hit.Time)

		if c.IsSwimming() {
			c.startNewPhysics(remainingTime+subTimeTickRemaining, iterations)
			return
		}

		if hit.Blocking {
			if c.IsValidLandingSpot(c.Location(), hit) {
				c.processLanded(hit, remainingTime+subTimeTickRemaining, iterations)
				return
			}

			// deflect with the final velocity so the slide has the full gravity effect
			adjusted = c.State.Velocity.Mul(timeTick)

			// an invalid landing spot may still have a usable floor
			if !hit.StartPenetrating && c.shouldCheckForValidLandingSpot(hit) {
				floor := c.FindFloor(c.Location(), false, nil)
				if floor.IsWalkableFloor() && c.IsValidLandingSpot(c.Location(), floor.HitResult) {
					c.processLanded(floor.HitResult, remainingTime+subTimeTickRemaining, iterations)
					return
				}
			}

			c.handleImpact(hit)
			if !c.HasValidData() || !c.IsFalling() {
				return
			}

			if hasAirControl {
				airControlDeltaV := c.LimitAirControl(airControlAccel, hit, false).Mul(lastMoveTimeSlice)
				adjusted = velocityNoAirControl.Add(airControlDeltaV).Mul(lastMoveTimeSlice)
			}

			oldHitNormal := hit.Normal
			oldHitImpactNormal := hit.ImpactNormal
			delta := c.ComputeSlideVector(adjusted, 1-hit.Time, oldHitNormal, hit)

			if subTimeTickRemaining > vecgeom.KINDA_SMALL_NUMBER && !c.State.JustTeleported {
				c.setDeflectedVelocity(delta.Mul(1/subTimeTickRemaining), gravity)
			}

			if subTimeTickRemaining > vecgeom.KINDA_SMALL_NUMBER && delta.Dot(adjusted) > 0 {
				hit = c.SafeMove(delta, rotation, true)

				if hit.Blocking {
					// second wall
					lastMoveTimeSlice = subTimeTickRemaining
					subTimeTickRemaining *= 1 - hit.Time

					if c.IsValidLandingSpot(c.Location(), hit) {
						c.processLanded(hit, remainingTime+subTimeTickRemaining, iterations)
						return
					}

					c.handleImpact(hit)
					if !c.HasValidData() || !c.IsFalling() {
						return
					}

					// deflect as if there was no air control on the last move
					if hasAirControl && hit.Normal.Dot(up) > VERTICAL_SLOPE_NORMAL_Z {
						lastMoveNoAirControl := velocityNoAirControl.Mul(lastMoveTimeSlice)
						delta = c.ComputeSlideVector(lastMoveNoAirControl, 1, oldHitNormal, hit)
					}

					delta = c.TwoWallAdjust(delta, hit, oldHitNormal)

					// allow a limited slide along the second wall, but not back into the first
					if hasAirControl {
						airControlDeltaV := c.LimitAirControl(airControlAccel, hit, false).Mul(subTimeTickRemaining)
						if airControlDeltaV.Dot(oldHitNormal) > 0 {
							delta = delta.Add(airControlDeltaV.Mul(subTimeTickRemaining))
						}
					}

					if subTimeTickRemaining > vecgeom.KINDA_SMALL_NUMBER && !c.State.JustTeleported {
						c.setDeflectedVelocity(delta.Mul(1/subTimeTickRemaining), gravity)
					}

					// straddling two slopes, neither of which can be stood on
					ditch := oldHitImpactNormal.Dot(up) > 0 && hit.ImpactNormal.Dot(up) > 0 &&
						math.Abs(delta.Dot(up)) <= vecgeom.KINDA_SMALL_NUMBER && hit.ImpactNormal.Dot(oldHitImpactNormal) < 0

					hit = c.SafeMove(delta, rotation, true)
					if hit.Time == 0 {
						// stuck, try to side step
						sideDelta := vecgeom.PlanarSafeNormal(oldHitNormal.Add(hit.ImpactNormal), up)
						if vecgeom.IsNearlyZero(sideDelta, vecgeom.KINDA_SMALL_NUMBER) {
							sideDelta = vecgeom.SafeNormal(oldHitNormal.Cross(up))
						}
						hit = c.SafeMove(sideDelta, rotation, true)
					}

					if ditch || c.IsValidLandingSpot(c.Location(), hit) || hit.Time == 0 {
						c.processLanded(hit, 0, iterations)
						return
					}

					if c.perchRadiusThreshold() > 0 && hit.Time == 1 && oldHitImpactNormal.Dot(up) >= c.Settings.WalkableFloorZ() {
						// a virtual ditch within the perch radius
						moved := c.Location().Sub(oldLocation)
						zMovedDist := math.Abs(moved.Dot(up))
						if zMovedDist <= 0.2*timeTick && moved.LenSqr() <= 4*timeTick {
							c.nudgeOutOfDitch(up)
							c.SafeMove(c.State.Velocity.Mul(timeTick), rotation, true)
						}
					}
				}
			}
		}

		planar := c.State.Velocity.Sub(vecgeom.ProjectOnTo(c.State.Velocity, gravity))
		if planar.LenSqr() <= vecgeom.KINDA_SMALL_NUMBER*10 {
			c.State.Velocity = c.State.Velocity.Sub(planar)
		}
	}
}

// setDeflectedVelocity applies a deflected velocity, only its gravity part
// under root motion.
func (c *Component) setDeflectedVelocity(velocity, gravity mgl64.Vec3) {
	if c.hasRootMotion() {
		c.State.Velocity = c.State.Velocity.Add(vecgeom.ProjectOnTo(velocity.Sub(c.State.Velocity), gravity))
		return
	}
	c.State.Velocity = velocity
}

// nudgeOutOfDitch randomizes the lateral velocity and hops up a little
func (c *Component) nudgeOutOfDitch(up mgl64.Vec3) {
	spread := 0.25 * c.MaxSpeed()
	random := mgl64.Vec3{rand.Float64() - 0.5, rand.Float64() - 0.5, rand.Float64() - 0.5}.Mul(spread)
	velocity := vecgeom.Planar(c.State.Velocity.Add(random), up)
	c.State.Velocity = velocity.Add(up.Mul(math.Max(c.Settings.JumpZVelocity*0.25, 1)))
}
