package spatial

import (
	"github.com/golang/geo/r3"

	"go.viam.com/dynamics/referenceframe"
	"go.viam.com/dynamics/spatialmath"
)

// Wrench is a spatial force applied to a body: a torque measured about the
// expressed-in frame's origin and a force. Force is origin-independent; torque is
// not, which is why changing the expressed-in frame's origin moves moment between
// the parts.
type Wrench struct {
	Vector
}

// NewWrench creates a wrench with the given frames, torque, and force.
func NewWrench(bodyFrame, expressedIn *referenceframe.Frame, torque, force r3.Vector) *Wrench {
	return &Wrench{NewVector(bodyFrame, expressedIn, torque, force)}
}

// NewZeroWrench creates a zero wrench tagged with the given frames.
func NewZeroWrench(bodyFrame, expressedIn *referenceframe.Frame) *Wrench {
	return &Wrench{NewVector(bodyFrame, expressedIn, r3.Vector{}, r3.Vector{})}
}

// Add accumulates other into this wrench. Both frame tags must match.
func (w *Wrench) Add(other *Wrench) error {
	return w.add(&other.Vector)
}

// Sub subtracts other from this wrench. Both frame tags must match.
func (w *Wrench) Sub(other *Wrench) error {
	return w.sub(&other.Vector)
}

// Set copies the components of other into this wrench. Both frame tags must match.
func (w *Wrench) Set(other *Wrench) error {
	return w.set(&other.Vector)
}

// SetIncludingFrames copies other into this wrench, frame tags and all.
func (w *Wrench) SetIncludingFrames(other *Wrench) {
	w.setIncludingFrames(&other.Vector)
}

// ApplyTransform transforms the components with the force-space law, leaving the
// frame tags untouched.
func (w *Wrench) ApplyTransform(tf *spatialmath.RigidTransform) {
	w.applyForceTransform(tf)
}

// ChangeFrame re-expresses this wrench in the target frame. Moving the origin by p
// adds p × force to the torque; the force itself only rotates.
func (w *Wrench) ChangeFrame(target *referenceframe.Frame) error {
	if w.expressedIn == target {
		return nil
	}
	tf, err := w.expressedIn.TransformTo(target)
	if err != nil {
		return err
	}
	w.applyForceTransform(tf)
	w.expressedIn = target
	return nil
}

// SetMatchingFrame sets this wrench from other, transforming other's components
// into this wrench's expressed-in frame first. The body frames must match.
func (w *Wrench) SetMatchingFrame(other *Wrench) error {
	if w.bodyFrame != other.bodyFrame {
		return referenceframe.NewFrameMismatchError(w.bodyFrame, other.bodyFrame)
	}
	tf, err := other.expressedIn.TransformTo(w.expressedIn)
	if err != nil {
		return err
	}
	w.angular = other.angular
	w.linear = other.linear
	w.applyForceTransform(tf)
	return nil
}

// Power returns the instantaneous power this wrench delivers to a body moving with
// the given twist. The twist's frames must match this wrench's.
func (w *Wrench) Power(twist *Twist) (float64, error) {
	return Dot(&twist.Vector, &w.Vector)
}
