package spatial

import (
	"github.com/golang/geo/r3"

	"go.viam.com/dynamics/referenceframe"
	"go.viam.com/dynamics/spatialmath"
)

// Twist is the spatial velocity of a body: angular velocity and the linear velocity
// of the body-fixed point currently at the expressed-in frame's origin.
type Twist struct {
	Vector
}

// NewTwist creates a twist with the given frames and parts.
func NewTwist(bodyFrame, expressedIn *referenceframe.Frame, angular, linear r3.Vector) *Twist {
	return &Twist{NewVector(bodyFrame, expressedIn, angular, linear)}
}

// NewZeroTwist creates a zero twist tagged with the given frames.
func NewZeroTwist(bodyFrame, expressedIn *referenceframe.Frame) *Twist {
	return &Twist{NewVector(bodyFrame, expressedIn, r3.Vector{}, r3.Vector{})}
}

// Add accumulates other into this twist. Both frame tags must match.
func (t *Twist) Add(other *Twist) error {
	return t.add(&other.Vector)
}

// Sub subtracts other from this twist. Both frame tags must match.
func (t *Twist) Sub(other *Twist) error {
	return t.sub(&other.Vector)
}

// Set copies the components of other into this twist. Both frame tags must match.
func (t *Twist) Set(other *Twist) error {
	return t.set(&other.Vector)
}

// SetIncludingFrames copies other into this twist, frame tags and all.
func (t *Twist) SetIncludingFrames(other *Twist) {
	t.setIncludingFrames(&other.Vector)
}

// ApplyTransform transforms the components with the motion-space law, leaving the
// frame tags untouched. The caller is expected to retag with SetExpressedInFrame;
// ChangeFrame does both in one step.
func (t *Twist) ApplyTransform(tf *spatialmath.RigidTransform) {
	t.applyMotionTransform(tf)
}

// ChangeFrame re-expresses this twist in the target frame, moving both orientation
// and origin. The moment-transfer term shifts linear velocity by the cross product
// of the origin offset with the angular velocity.
func (t *Twist) ChangeFrame(target *referenceframe.Frame) error {
	if t.expressedIn == target {
		return nil
	}
	tf, err := t.expressedIn.TransformTo(target)
	if err != nil {
		return err
	}
	t.applyMotionTransform(tf)
	t.expressedIn = target
	return nil
}

// SetMatchingFrame sets this twist from other, transforming other's components into
// this twist's expressed-in frame first. The body frames must match.
func (t *Twist) SetMatchingFrame(other *Twist) error {
	if t.bodyFrame != other.bodyFrame {
		return referenceframe.NewFrameMismatchError(t.bodyFrame, other.bodyFrame)
	}
	tf, err := other.expressedIn.TransformTo(t.expressedIn)
	if err != nil {
		return err
	}
	t.angular = other.angular
	t.linear = other.linear
	t.applyMotionTransform(tf)
	return nil
}
