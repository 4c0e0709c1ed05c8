// Package spatial implements frame-tagged spatial vector algebra: twists, wrenches,
// momenta, impulses, and spatial inertia. A spatial vector is 6 components, an
// angular part and a linear part, tagged with two frames: the body frame naming the
// body the quantity describes, and the expressed-in frame giving the coordinate
// system of the components. Arithmetic between two spatial vectors requires both
// tags to match exactly; the frame check is the module's primary guard against
// combining physically unrelated quantities.
//
// The expressed-in frame's origin matters, not just its orientation: moving the
// origin transfers moment between the linear and angular parts. Motion-space
// vectors (twists) pick up the cross term on the linear part, force-space vectors
// (wrenches, impulses, momenta) on the angular part.
package spatial

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"

	"go.viam.com/dynamics/referenceframe"
	"go.viam.com/dynamics/spatialmath"
)

// Vector is the common representation of all spatial quantities: 3 angular
// components, 3 linear components, and the two frame tags. It is embedded by
// Twist, Wrench, Momentum, and SpatialImpulse, which differ only in their
// frame-change law.
type Vector struct {
	bodyFrame   *referenceframe.Frame
	expressedIn *referenceframe.Frame
	angular     r3.Vector
	linear      r3.Vector
}

// NewVector creates a spatial vector with the given frames and parts.
func NewVector(bodyFrame, expressedIn *referenceframe.Frame, angular, linear r3.Vector) Vector {
	return Vector{bodyFrame: bodyFrame, expressedIn: expressedIn, angular: angular, linear: linear}
}

// BodyFrame returns the frame naming the body this quantity describes.
func (v *Vector) BodyFrame() *referenceframe.Frame {
	return v.bodyFrame
}

// ExpressedInFrame returns the coordinate frame of the components.
func (v *Vector) ExpressedInFrame() *referenceframe.Frame {
	return v.expressedIn
}

// AngularPart returns the angular 3 components.
func (v *Vector) AngularPart() r3.Vector {
	return v.angular
}

// LinearPart returns the linear 3 components.
func (v *Vector) LinearPart() r3.Vector {
	return v.linear
}

// SetAngularPart overwrites the angular components without touching the frames.
func (v *Vector) SetAngularPart(angular r3.Vector) {
	v.angular = angular
}

// SetLinearPart overwrites the linear components without touching the frames.
func (v *Vector) SetLinearPart(linear r3.Vector) {
	v.linear = linear
}

// SetToZero zeroes the components and retags the vector with the given frames.
func (v *Vector) SetToZero(bodyFrame, expressedIn *referenceframe.Frame) {
	v.bodyFrame = bodyFrame
	v.expressedIn = expressedIn
	v.angular = r3.Vector{}
	v.linear = r3.Vector{}
}

// SetBodyFrame rebinds this quantity to a different body frame without touching the
// components. This is an unchecked operation: it is only valid if the new frame is
// rigidly fixed to the same physical body, and no runtime check of that is possible.
// Callers violating the precondition silently invalidate the quantity's meaning.
func (v *Vector) SetBodyFrame(bodyFrame *referenceframe.Frame) {
	v.bodyFrame = bodyFrame
}

// SetExpressedInFrame retags the expressed-in frame without transforming the
// components. Like SetBodyFrame this is unchecked; it is meant to follow an
// ApplyTransform call whose transform targets the new frame.
func (v *Vector) SetExpressedInFrame(expressedIn *referenceframe.Frame) {
	v.expressedIn = expressedIn
}

// Scale multiplies all components in place.
func (v *Vector) Scale(factor float64) {
	v.angular = v.angular.Mul(factor)
	v.linear = v.linear.Mul(factor)
}

// Norm returns the 6-vector Euclidean norm.
func (v *Vector) Norm() float64 {
	return math.Hypot(v.angular.Norm(), v.linear.Norm())
}

// checkFramesMatch errors unless both frame tags of other equal this vector's.
func (v *Vector) checkFramesMatch(other *Vector) error {
	if v.bodyFrame != other.bodyFrame {
		return referenceframe.NewFrameMismatchError(v.bodyFrame, other.bodyFrame)
	}
	if v.expressedIn != other.expressedIn {
		return referenceframe.NewFrameMismatchError(v.expressedIn, other.expressedIn)
	}
	return nil
}

// checkExpressedInMatch errors unless this vector is expressed in the given frame.
func (v *Vector) checkExpressedInMatch(frame *referenceframe.Frame) error {
	if v.expressedIn != frame {
		return referenceframe.NewFrameMismatchError(frame, v.expressedIn)
	}
	return nil
}

func (v *Vector) add(other *Vector) error {
	if err := v.checkFramesMatch(other); err != nil {
		return err
	}
	v.angular = v.angular.Add(other.angular)
	v.linear = v.linear.Add(other.linear)
	return nil
}

func (v *Vector) sub(other *Vector) error {
	if err := v.checkFramesMatch(other); err != nil {
		return err
	}
	v.angular = v.angular.Sub(other.angular)
	v.linear = v.linear.Sub(other.linear)
	return nil
}

func (v *Vector) set(other *Vector) error {
	if err := v.checkFramesMatch(other); err != nil {
		return err
	}
	v.angular = other.angular
	v.linear = other.linear
	return nil
}

func (v *Vector) setIncludingFrames(other *Vector) {
	*v = *other
}

// applyMotionTransform transforms the components with the motion-space law: the
// angular part rotates, the linear part rotates and picks up the moment-transfer
// cross term p × (R·angular). Frame tags are untouched.
func (v *Vector) applyMotionTransform(tf *spatialmath.RigidTransform) {
	v.angular = tf.RotateVector(v.angular)
	v.linear = tf.RotateVector(v.linear).Add(tf.Translation().Cross(v.angular))
}

// applyForceTransform transforms the components with the force-space law: the
// linear part rotates, the angular part rotates and picks up the moment-transfer
// cross term p × (R·linear).
func (v *Vector) applyForceTransform(tf *spatialmath.RigidTransform) {
	v.linear = tf.RotateVector(v.linear)
	v.angular = tf.RotateVector(v.angular).Add(tf.Translation().Cross(v.linear))
}

func (v *Vector) String() string {
	return fmt.Sprintf("[body: %v, in: %v, angular: %v, linear: %v]", v.bodyFrame, v.expressedIn, v.angular, v.linear)
}

// Dot returns the scalar pairing of a motion-space and a force-space vector,
// angular·angular + linear·linear. Pairing a twist with a wrench yields power;
// with a momentum, twice the kinetic energy contribution.
func Dot(motion, force *Vector) (float64, error) {
	if err := motion.checkFramesMatch(force); err != nil {
		return 0, err
	}
	return motion.angular.Dot(force.angular) + motion.linear.Dot(force.linear), nil
}
