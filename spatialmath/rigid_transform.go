// Package spatialmath defines the rigid transform math underlying the frame and
// spatial vector packages. Rotations are kept as unit quaternions and translations
// as 3D vectors, which composes cheaply and avoids the degeneracies of matrix or
// Euler representations.
package spatialmath

import (
	"fmt"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// RigidTransform represents the pose of one coordinate frame expressed in another:
// a rotation followed by a translation. Applying it to a point expressed in the
// source frame yields the same point expressed in the target frame.
type RigidTransform struct {
	rotation    quat.Number
	translation r3.Vector
}

// NewZeroRigidTransform returns the identity transform.
func NewZeroRigidTransform() *RigidTransform {
	return &RigidTransform{rotation: quat.Number{Real: 1}}
}

// NewRigidTransform returns a transform with the given rotation and translation.
// The rotation quaternion is normalized if it is not already a unit quaternion.
func NewRigidTransform(rotation quat.Number, translation r3.Vector) *RigidTransform {
	return &RigidTransform{rotation: Normalize(rotation), translation: translation}
}

// NewRigidTransformFromTranslation returns a pure translation transform.
func NewRigidTransformFromTranslation(translation r3.Vector) *RigidTransform {
	return &RigidTransform{rotation: quat.Number{Real: 1}, translation: translation}
}

// NewRigidTransformFromRotation returns a pure rotation transform.
func NewRigidTransformFromRotation(rotation quat.Number) *RigidTransform {
	return &RigidTransform{rotation: Normalize(rotation)}
}

// NewRigidTransformFromAxisAngle returns the transform rotating by theta radians
// about the given axis, with no translation. The axis need not be normalized.
func NewRigidTransformFromAxisAngle(axis r3.Vector, theta float64) *RigidTransform {
	return &RigidTransform{rotation: QuatFromAxisAngle(axis, theta)}
}

// Rotation returns the rotation component.
func (t *RigidTransform) Rotation() quat.Number {
	return t.rotation
}

// Translation returns the translation component.
func (t *RigidTransform) Translation() r3.Vector {
	return t.translation
}

// Clone returns a copy of this transform.
func (t *RigidTransform) Clone() *RigidTransform {
	return &RigidTransform{rotation: t.rotation, translation: t.translation}
}

// Set overwrites this transform with other.
func (t *RigidTransform) Set(other *RigidTransform) {
	t.rotation = other.rotation
	t.translation = other.translation
}

// SetZero resets this transform to the identity.
func (t *RigidTransform) SetZero() {
	t.rotation = quat.Number{Real: 1}
	t.translation = r3.Vector{}
}

// Compose returns this ∘ other. If this transform takes frame B to frame C and
// other takes frame A to frame B, the result takes frame A to frame C.
func (t *RigidTransform) Compose(other *RigidTransform) *RigidTransform {
	return &RigidTransform{
		rotation:    Normalize(quat.Mul(t.rotation, other.rotation)),
		translation: t.RotateVector(other.translation).Add(t.translation),
	}
}

// Invert returns the inverse transform, taking the target frame back to the source.
func (t *RigidTransform) Invert() *RigidTransform {
	invRot := quat.Conj(t.rotation)
	return &RigidTransform{
		rotation:    invRot,
		translation: RotateVectorByQuat(invRot, t.translation).Mul(-1),
	}
}

// RotateVector applies only the rotation component to the given vector.
func (t *RigidTransform) RotateVector(v r3.Vector) r3.Vector {
	return RotateVectorByQuat(t.rotation, v)
}

// TransformPoint applies the full transform, rotation then translation, to a point.
func (t *RigidTransform) TransformPoint(p r3.Vector) r3.Vector {
	return t.RotateVector(p).Add(t.translation)
}

// IsZero returns whether this transform is the identity to within epsilon.
func (t *RigidTransform) IsZero(epsilon float64) bool {
	return t.AlmostEqual(NewZeroRigidTransform(), epsilon)
}

// AlmostEqual returns whether two transforms differ by less than epsilon in every
// component. The double cover of quaternions is accounted for, so q and -q compare
// as the same rotation.
func (t *RigidTransform) AlmostEqual(other *RigidTransform, epsilon float64) bool {
	q1, q2 := t.rotation, other.rotation
	if q1.Real*q2.Real+q1.Imag*q2.Imag+q1.Jmag*q2.Jmag+q1.Kmag*q2.Kmag < 0 {
		q2 = Flip(q2)
	}
	return quatAlmostEqual(q1, q2, epsilon) &&
		vecAlmostEqual(t.translation, other.translation, epsilon)
}

func (t *RigidTransform) String() string {
	return fmt.Sprintf("RigidTransform(rot: %v, trans: %v)", t.rotation, t.translation)
}
