package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

func TestRigidTransformIdentity(t *testing.T) {
	identity := NewZeroRigidTransform()
	p := r3.Vector{X: 1, Y: 2, Z: 3}
	test.That(t, identity.TransformPoint(p), test.ShouldResemble, p)
	test.That(t, identity.IsZero(1e-12), test.ShouldBeTrue)
	test.That(t, identity.Invert().IsZero(1e-12), test.ShouldBeTrue)
}

func TestRigidTransformComposeInvert(t *testing.T) {
	a := NewRigidTransform(QuatFromAxisAngle(r3.Vector{Z: 1}, math.Pi/3), r3.Vector{X: 1, Y: -2, Z: 0.5})
	b := NewRigidTransform(QuatFromAxisAngle(r3.Vector{X: 1, Y: 1}, 0.7), r3.Vector{X: -4, Y: 0, Z: 2})

	// composing with the inverse gives the identity from both sides
	test.That(t, a.Compose(a.Invert()).IsZero(1e-10), test.ShouldBeTrue)
	test.That(t, a.Invert().Compose(a).IsZero(1e-10), test.ShouldBeTrue)

	// applying a composition is applying both transforms in sequence
	p := r3.Vector{X: 0.3, Y: 1.1, Z: -2.2}
	composed := a.Compose(b).TransformPoint(p)
	sequential := a.TransformPoint(b.TransformPoint(p))
	test.That(t, composed.X, test.ShouldAlmostEqual, sequential.X)
	test.That(t, composed.Y, test.ShouldAlmostEqual, sequential.Y)
	test.That(t, composed.Z, test.ShouldAlmostEqual, sequential.Z)
}

func TestAxisAngleRotation(t *testing.T) {
	// 90 degrees about z takes x to y
	rot90z := NewRigidTransformFromAxisAngle(r3.Vector{Z: 1}, math.Pi/2)
	rotated := rot90z.RotateVector(r3.Vector{X: 1})
	test.That(t, rotated.X, test.ShouldAlmostEqual, 0)
	test.That(t, rotated.Y, test.ShouldAlmostEqual, 1)
	test.That(t, rotated.Z, test.ShouldAlmostEqual, 0)

	// a zero axis is the identity
	test.That(t, NewRigidTransformFromAxisAngle(r3.Vector{}, 1.5).IsZero(1e-12), test.ShouldBeTrue)
}

func TestTransformPointWithTranslation(t *testing.T) {
	tf := NewRigidTransform(QuatFromAxisAngle(r3.Vector{Z: 1}, math.Pi/2), r3.Vector{X: 10})
	p := tf.TransformPoint(r3.Vector{X: 1})
	test.That(t, p.X, test.ShouldAlmostEqual, 10)
	test.That(t, p.Y, test.ShouldAlmostEqual, 1)
	test.That(t, p.Z, test.ShouldAlmostEqual, 0)
}

func TestAlmostEqualDoubleCover(t *testing.T) {
	q := QuatFromAxisAngle(r3.Vector{Y: 1}, 1.2)
	a := NewRigidTransformFromRotation(q)
	b := NewRigidTransformFromRotation(Flip(q))
	test.That(t, a.AlmostEqual(b, 1e-10), test.ShouldBeTrue)
}

func TestNormalize(t *testing.T) {
	q := Normalize(quat.Number{Real: 2, Imag: 2, Jmag: 2, Kmag: 2})
	length := math.Sqrt(q.Real*q.Real + q.Imag*q.Imag + q.Jmag*q.Jmag + q.Kmag*q.Kmag)
	test.That(t, length, test.ShouldAlmostEqual, 1)
	test.That(t, Normalize(quat.Number{}), test.ShouldResemble, quat.Number{Real: 1})
}

func TestQuatToRotationMatrix(t *testing.T) {
	q := QuatFromAxisAngle(r3.Vector{Z: 1}, math.Pi/2)
	m := QuatToRotationMatrix(q)
	// rotating x by the matrix gives y
	test.That(t, m.At(0, 0), test.ShouldAlmostEqual, 0)
	test.That(t, m.At(1, 0), test.ShouldAlmostEqual, 1)
	test.That(t, m.At(2, 0), test.ShouldAlmostEqual, 0)
}
