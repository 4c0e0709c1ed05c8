package spatial

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"

	"go.viam.com/dynamics/referenceframe"
	"go.viam.com/dynamics/spatialmath"
)

// SpatialInertia describes the mass distribution of a rigid body: total mass, the
// offset of the center of mass from the expressed-in frame's origin, and the
// rotational inertia tensor taken about the center of mass. Unlike the 6-vectors,
// inertia transforms with a rank-2 law: the tensor is conjugated by the rotation
// and the center of mass offset moves with the full transform.
type SpatialInertia struct {
	bodyFrame    *referenceframe.Frame
	expressedIn  *referenceframe.Frame
	mass         float64
	centerOfMass r3.Vector
	moment       *mat.SymDense
}

// NewSpatialInertia creates a spatial inertia. The moment tensor must be 3x3 and is
// copied; mass must be non-negative.
func NewSpatialInertia(
	bodyFrame, expressedIn *referenceframe.Frame,
	mass float64,
	centerOfMass r3.Vector,
	moment *mat.SymDense,
) (*SpatialInertia, error) {
	if mass < 0 {
		return nil, errors.Errorf("mass must be non-negative, got %f", mass)
	}
	if r, _ := moment.Dims(); r != 3 {
		return nil, errors.Errorf("rotational inertia tensor must be 3x3, got %dx%d", r, r)
	}
	copied := mat.NewSymDense(3, nil)
	copied.CopySym(moment)
	return &SpatialInertia{
		bodyFrame:    bodyFrame,
		expressedIn:  expressedIn,
		mass:         mass,
		centerOfMass: centerOfMass,
		moment:       copied,
	}, nil
}

// NewZeroSpatialInertia creates a massless inertia tagged with the given frames.
func NewZeroSpatialInertia(bodyFrame, expressedIn *referenceframe.Frame) *SpatialInertia {
	return &SpatialInertia{
		bodyFrame:   bodyFrame,
		expressedIn: expressedIn,
		moment:      mat.NewSymDense(3, nil),
	}
}

// NewPointMassInertia creates the inertia of a point mass at the given offset.
func NewPointMassInertia(bodyFrame, expressedIn *referenceframe.Frame, mass float64, centerOfMass r3.Vector) *SpatialInertia {
	return &SpatialInertia{
		bodyFrame:    bodyFrame,
		expressedIn:  expressedIn,
		mass:         mass,
		centerOfMass: centerOfMass,
		moment:       mat.NewSymDense(3, nil),
	}
}

// BodyFrame returns the frame naming the body this inertia belongs to.
func (si *SpatialInertia) BodyFrame() *referenceframe.Frame {
	return si.bodyFrame
}

// ExpressedInFrame returns the coordinate frame of the tensor and offset.
func (si *SpatialInertia) ExpressedInFrame() *referenceframe.Frame {
	return si.expressedIn
}

// Mass returns the total mass.
func (si *SpatialInertia) Mass() float64 {
	return si.mass
}

// CenterOfMassOffset returns the center of mass offset from the expressed-in
// frame's origin.
func (si *SpatialInertia) CenterOfMassOffset() r3.Vector {
	return si.centerOfMass
}

// SetCenterOfMassOffset relocates the center of mass. This should normally only
// happen at construction time; consumers holding derived quantities will not see
// the change until they recompute.
func (si *SpatialInertia) SetCenterOfMassOffset(centerOfMass r3.Vector) {
	si.centerOfMass = centerOfMass
}

// RotationalInertia returns a copy of the rotational inertia tensor about the
// center of mass.
func (si *SpatialInertia) RotationalInertia() *mat.SymDense {
	copied := mat.NewSymDense(3, nil)
	copied.CopySym(si.moment)
	return copied
}

// Clone returns a deep copy of this inertia.
func (si *SpatialInertia) Clone() *SpatialInertia {
	copied := mat.NewSymDense(3, nil)
	copied.CopySym(si.moment)
	return &SpatialInertia{
		bodyFrame:    si.bodyFrame,
		expressedIn:  si.expressedIn,
		mass:         si.mass,
		centerOfMass: si.centerOfMass,
		moment:       copied,
	}
}

// SetBodyFrame rebinds this inertia to a different body frame. Unchecked, same
// precondition as Vector.SetBodyFrame.
func (si *SpatialInertia) SetBodyFrame(bodyFrame *referenceframe.Frame) {
	si.bodyFrame = bodyFrame
}

// SetExpressedInFrame retags the expressed-in frame without transforming. Meant to
// follow an ApplyTransform targeting the new frame.
func (si *SpatialInertia) SetExpressedInFrame(expressedIn *referenceframe.Frame) {
	si.expressedIn = expressedIn
}

// Add combines other into this inertia. Both inertias must be expressed in the same
// frame. The combined tensor is built with parallel-axis shifts of each tensor to
// the combined center of mass; the body frame tag stays this inertia's.
func (si *SpatialInertia) Add(other *SpatialInertia) error {
	if si.expressedIn != other.expressedIn {
		return referenceframe.NewFrameMismatchError(si.expressedIn, other.expressedIn)
	}

	totalMass := si.mass + other.mass
	combinedCOM := si.centerOfMass
	if totalMass > 0 {
		combinedCOM = si.centerOfMass.Mul(si.mass).Add(other.centerOfMass.Mul(other.mass)).Mul(1 / totalMass)
	}

	combined := mat.NewSymDense(3, nil)
	combined.AddSym(si.moment, other.moment)
	addParallelAxisTerm(combined, si.mass, si.centerOfMass.Sub(combinedCOM))
	addParallelAxisTerm(combined, other.mass, other.centerOfMass.Sub(combinedCOM))

	si.mass = totalMass
	si.centerOfMass = combinedCOM
	si.moment = combined
	return nil
}

// ApplyTransform transforms the tensor and offset with the rank-2 law, leaving the
// frame tags untouched: the offset moves with the full transform, the tensor is
// conjugated by the rotation (it is taken about the center of mass, so translation
// does not touch it).
func (si *SpatialInertia) ApplyTransform(tf *spatialmath.RigidTransform) {
	si.centerOfMass = tf.TransformPoint(si.centerOfMass)
	si.moment = rotateMoment(tf.Rotation(), si.moment)
}

// ChangeFrame re-expresses this inertia in the target frame.
func (si *SpatialInertia) ChangeFrame(target *referenceframe.Frame) error {
	if si.expressedIn == target {
		return nil
	}
	tf, err := si.expressedIn.TransformTo(target)
	if err != nil {
		return err
	}
	si.ApplyTransform(tf)
	si.expressedIn = target
	return nil
}

// KineticEnergy returns ½ twist·(I·twist) for a body with this inertia moving with
// the given twist. The twist's frames must match this inertia's.
func (si *SpatialInertia) KineticEnergy(twist *Twist) (float64, error) {
	if twist.BodyFrame() != si.bodyFrame {
		return 0, referenceframe.NewFrameMismatchError(si.bodyFrame, twist.BodyFrame())
	}
	if err := twist.checkExpressedInMatch(si.expressedIn); err != nil {
		return 0, err
	}
	k, l := si.applyTwist(twist.AngularPart(), twist.LinearPart())
	return 0.5 * (twist.AngularPart().Dot(k) + twist.LinearPart().Dot(l)), nil
}

// applyTwist computes the momentum generated by this inertia under a twist
// expressed in the same frame: linear momentum is mass times the center of mass
// velocity, angular momentum about the frame origin adds the moment of the linear
// momentum at the center of mass offset.
func (si *SpatialInertia) applyTwist(angular, linear r3.Vector) (angularMomentum, linearMomentum r3.Vector) {
	comVelocity := linear.Add(angular.Cross(si.centerOfMass))
	linearMomentum = comVelocity.Mul(si.mass)
	angularMomentum = momentTimesVector(si.moment, angular).Add(si.centerOfMass.Cross(linearMomentum))
	return angularMomentum, linearMomentum
}

// rotateMoment conjugates a symmetric tensor by the rotation: R·M·Rᵀ.
func rotateMoment(rotation quat.Number, moment *mat.SymDense) *mat.SymDense {
	r := spatialmath.QuatToRotationMatrix(rotation)
	var tmp, rotated mat.Dense
	tmp.Mul(r, moment)
	rotated.Mul(&tmp, r.T())
	out := mat.NewSymDense(3, nil)
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			out.SetSym(i, j, 0.5*(rotated.At(i, j)+rotated.At(j, i)))
		}
	}
	return out
}

// addParallelAxisTerm adds m·((d·d)E − d·dᵀ) to the tensor, shifting a tensor taken
// about a center of mass to an axis offset by d.
func addParallelAxisTerm(moment *mat.SymDense, mass float64, d r3.Vector) {
	if mass == 0 {
		return
	}
	dd := d.Dot(d)
	comps := []float64{d.X, d.Y, d.Z}
	for i := 0; i < 3; i++ {
		for j := i; j < 3; j++ {
			term := -mass * comps[i] * comps[j]
			if i == j {
				term += mass * dd
			}
			moment.SetSym(i, j, moment.At(i, j)+term)
		}
	}
}

// momentTimesVector multiplies a 3x3 symmetric tensor by a vector.
func momentTimesVector(m *mat.SymDense, v r3.Vector) r3.Vector {
	return r3.Vector{
		X: m.At(0, 0)*v.X + m.At(0, 1)*v.Y + m.At(0, 2)*v.Z,
		Y: m.At(1, 0)*v.X + m.At(1, 1)*v.Y + m.At(1, 2)*v.Z,
		Z: m.At(2, 0)*v.X + m.At(2, 1)*v.Y + m.At(2, 2)*v.Z,
	}
}
