package spatial

import (
	"github.com/golang/geo/r3"

	"go.viam.com/dynamics/referenceframe"
	"go.viam.com/dynamics/spatialmath"
)

// Momentum is the spatial momentum of a body or system: angular momentum measured
// about the expressed-in frame's origin and linear momentum. Like a wrench it lives
// in force space and transforms with the force-space law.
type Momentum struct {
	Vector
}

// NewMomentum creates a momentum with the given frames and parts.
func NewMomentum(bodyFrame, expressedIn *referenceframe.Frame, angular, linear r3.Vector) *Momentum {
	return &Momentum{NewVector(bodyFrame, expressedIn, angular, linear)}
}

// NewZeroMomentum creates a zero momentum tagged with the given frames.
func NewZeroMomentum(bodyFrame, expressedIn *referenceframe.Frame) *Momentum {
	return &Momentum{NewVector(bodyFrame, expressedIn, r3.Vector{}, r3.Vector{})}
}

// Add accumulates other into this momentum. Both frame tags must match.
func (m *Momentum) Add(other *Momentum) error {
	return m.add(&other.Vector)
}

// Sub subtracts other from this momentum. Both frame tags must match.
func (m *Momentum) Sub(other *Momentum) error {
	return m.sub(&other.Vector)
}

// Set copies the components of other into this momentum. Both frame tags must match.
func (m *Momentum) Set(other *Momentum) error {
	return m.set(&other.Vector)
}

// SetIncludingFrames copies other into this momentum, frame tags and all.
func (m *Momentum) SetIncludingFrames(other *Momentum) {
	m.setIncludingFrames(&other.Vector)
}

// SetMatchingFrame sets this momentum from other, transforming other's components
// into this momentum's expressed-in frame first. The body frames must match.
func (m *Momentum) SetMatchingFrame(other *Momentum) error {
	if m.bodyFrame != other.bodyFrame {
		return referenceframe.NewFrameMismatchError(m.bodyFrame, other.bodyFrame)
	}
	tf, err := other.expressedIn.TransformTo(m.expressedIn)
	if err != nil {
		return err
	}
	m.angular = other.angular
	m.linear = other.linear
	m.applyForceTransform(tf)
	return nil
}

// AddImpulse accumulates an impulse into this momentum. Both frame tags of the
// impulse must match this momentum's.
func (m *Momentum) AddImpulse(impulse *SpatialImpulse) error {
	return m.add(&impulse.Vector)
}

// Compute sets this momentum to inertia · twist, the momentum of the body carrying
// the given inertia when moving with the given twist. The twist must describe the
// inertia's body and be expressed in the inertia's frame; this momentum is retagged
// with those frames.
func (m *Momentum) Compute(inertia *SpatialInertia, twist *Twist) error {
	if twist.BodyFrame() != inertia.BodyFrame() {
		return referenceframe.NewFrameMismatchError(inertia.BodyFrame(), twist.BodyFrame())
	}
	if err := twist.checkExpressedInMatch(inertia.ExpressedInFrame()); err != nil {
		return err
	}
	m.bodyFrame = inertia.BodyFrame()
	m.expressedIn = inertia.ExpressedInFrame()
	m.angular, m.linear = inertia.applyTwist(twist.AngularPart(), twist.LinearPart())
	return nil
}

// ApplyTransform transforms the components with the force-space law, leaving the
// frame tags untouched. The caller is expected to retag with SetExpressedInFrame;
// ChangeFrame does both in one step.
func (m *Momentum) ApplyTransform(tf *spatialmath.RigidTransform) {
	m.applyForceTransform(tf)
}

// ChangeFrame re-expresses this momentum in the target frame. Moving the origin by
// p adds p × linear momentum to the angular part.
func (m *Momentum) ChangeFrame(target *referenceframe.Frame) error {
	if m.expressedIn == target {
		return nil
	}
	tf, err := m.expressedIn.TransformTo(target)
	if err != nil {
		return err
	}
	m.applyForceTransform(tf)
	m.expressedIn = target
	return nil
}
