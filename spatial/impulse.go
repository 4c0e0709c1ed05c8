package spatial

import (
	"github.com/golang/geo/r3"

	"go.viam.com/dynamics/referenceframe"
	"go.viam.com/dynamics/spatialmath"
)

// SpatialImpulse is the integral of a wrench over a time interval. Where applying a
// wrench accelerates a body, applying an impulse changes its momentum directly. It
// transforms with the same force-space law as a wrench.
type SpatialImpulse struct {
	Vector
}

// NewSpatialImpulse creates an impulse with the given frames and parts.
func NewSpatialImpulse(bodyFrame, expressedIn *referenceframe.Frame, angular, linear r3.Vector) *SpatialImpulse {
	return &SpatialImpulse{NewVector(bodyFrame, expressedIn, angular, linear)}
}

// NewZeroSpatialImpulse creates a zero impulse tagged with the given frames.
func NewZeroSpatialImpulse(bodyFrame, expressedIn *referenceframe.Frame) *SpatialImpulse {
	return &SpatialImpulse{NewVector(bodyFrame, expressedIn, r3.Vector{}, r3.Vector{})}
}

// Add accumulates other into this impulse. Both frame tags must match.
func (s *SpatialImpulse) Add(other *SpatialImpulse) error {
	return s.add(&other.Vector)
}

// Sub subtracts other from this impulse. Both frame tags must match.
func (s *SpatialImpulse) Sub(other *SpatialImpulse) error {
	return s.sub(&other.Vector)
}

// Set copies the components of other into this impulse. Both frame tags must match.
func (s *SpatialImpulse) Set(other *SpatialImpulse) error {
	return s.set(&other.Vector)
}

// SetIncludingFrames copies other into this impulse, frame tags and all.
func (s *SpatialImpulse) SetIncludingFrames(other *SpatialImpulse) {
	s.setIncludingFrames(&other.Vector)
}

// SetMatchingFrame sets this impulse from other, transforming other's components
// into this impulse's expressed-in frame first. The body frames must match.
func (s *SpatialImpulse) SetMatchingFrame(other *SpatialImpulse) error {
	if s.bodyFrame != other.bodyFrame {
		return referenceframe.NewFrameMismatchError(s.bodyFrame, other.bodyFrame)
	}
	tf, err := other.expressedIn.TransformTo(s.expressedIn)
	if err != nil {
		return err
	}
	s.angular = other.angular
	s.linear = other.linear
	s.applyForceTransform(tf)
	return nil
}

// AddWrenchIntegral accumulates wrench·dt into this impulse. Both frame tags of the
// wrench must match this impulse's.
func (s *SpatialImpulse) AddWrenchIntegral(w *Wrench, dt float64) error {
	if err := s.checkFramesMatch(&w.Vector); err != nil {
		return err
	}
	s.angular = s.angular.Add(w.AngularPart().Mul(dt))
	s.linear = s.linear.Add(w.LinearPart().Mul(dt))
	return nil
}

// ApplyTransform transforms the components with the force-space law, leaving the
// frame tags untouched.
func (s *SpatialImpulse) ApplyTransform(tf *spatialmath.RigidTransform) {
	s.applyForceTransform(tf)
}

// ChangeFrame re-expresses this impulse in the target frame.
func (s *SpatialImpulse) ChangeFrame(target *referenceframe.Frame) error {
	if s.expressedIn == target {
		return nil
	}
	tf, err := s.expressedIn.TransformTo(target)
	if err != nil {
		return err
	}
	s.applyForceTransform(tf)
	s.expressedIn = target
	return nil
}
