package multibody

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/dynamics/spatialmath"
)

func TestRigidBodyConstruction(t *testing.T) {
	root := NewRootBody("root")
	test.That(t, root.IsRoot(), test.ShouldBeTrue)
	test.That(t, root.Inertia(), test.ShouldBeNil)
	test.That(t, root.ParentJoint(), test.ShouldBeNil)

	joint := testRevolute(t, "j1", root)
	body := testBody(t, "b1", joint)
	test.That(t, body.IsRoot(), test.ShouldBeFalse)
	test.That(t, body.ParentJoint(), test.ShouldEqual, joint)
	test.That(t, joint.Successor(), test.ShouldEqual, body)
	test.That(t, root.ChildJoints(), test.ShouldResemble, []Joint{joint})

	// a body needs a parent joint
	_, err := NewRigidBody("orphan", nil, nil, 1, r3.Vector{}, mat.NewSymDense(3, nil))
	test.That(t, err, test.ShouldNotBeNil)

	// a joint carries at most one successor
	_, err = NewRigidBody("b2", joint, nil, 1, r3.Vector{}, mat.NewSymDense(3, nil))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "already has successor")

	// invalid inertia is rejected before the body is attached
	j2 := testRevolute(t, "j2", body)
	_, err = NewRigidBody("b3", j2, nil, -5, r3.Vector{}, mat.NewSymDense(3, nil))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, j2.Successor(), test.ShouldBeNil)
}

func TestRootBodyWithInertia(t *testing.T) {
	root, err := NewRootBodyWithInertia("base", 10, r3.Vector{Z: 0.1}, mat.NewSymDense(3, nil))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, root.IsRoot(), test.ShouldBeTrue)
	test.That(t, root.Inertia().Mass(), test.ShouldEqual, 10.0)

	_, err = NewRootBodyWithInertia("bad", -1, r3.Vector{}, mat.NewSymDense(3, nil))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestUpdateFramesRecursively(t *testing.T) {
	// planar two-link arm: unit links along x, revolute joints about z
	root := NewRootBody("root")
	j1 := testRevolute(t, "j1", root)
	b1, err := NewRigidBody("b1", j1,
		spatialmath.NewRigidTransformFromTranslation(r3.Vector{X: 1}),
		1, r3.Vector{}, mat.NewSymDense(3, nil))
	test.That(t, err, test.ShouldBeNil)
	j2 := testRevolute(t, "j2", b1)
	b2, err := NewRigidBody("b2", j2,
		spatialmath.NewRigidTransformFromTranslation(r3.Vector{X: 1}),
		1, r3.Vector{}, mat.NewSymDense(3, nil))
	test.That(t, err, test.ShouldBeNil)

	// zero configuration: the arm is stretched along x
	root.UpdateFramesRecursively()
	tip := b2.BodyFrame().TransformToRoot().TransformPoint(r3.Vector{})
	test.That(t, tip.X, test.ShouldAlmostEqual, 2)
	test.That(t, tip.Y, test.ShouldAlmostEqual, 0)

	// elbow up: first joint at 90 degrees, second at -90
	test.That(t, j1.SetConfiguration([]float64{math.Pi / 2}), test.ShouldBeNil)
	test.That(t, j2.SetConfiguration([]float64{-math.Pi / 2}), test.ShouldBeNil)
	root.UpdateFramesRecursively()
	elbow := b1.BodyFrame().TransformToRoot().TransformPoint(r3.Vector{})
	test.That(t, elbow.X, test.ShouldAlmostEqual, 0)
	test.That(t, elbow.Y, test.ShouldAlmostEqual, 1)
	tip = b2.BodyFrame().TransformToRoot().TransformPoint(r3.Vector{})
	test.That(t, tip.X, test.ShouldAlmostEqual, 1)
	test.That(t, tip.Y, test.ShouldAlmostEqual, 1)
}

func TestPrismaticJointFrame(t *testing.T) {
	root := NewRootBody("root")
	slider, err := NewPrismaticJoint("slide", root, nil, r3.Vector{Z: 2})
	test.That(t, err, test.ShouldBeNil)
	// the axis is stored normalized
	test.That(t, slider.Axis(), test.ShouldResemble, r3.Vector{Z: 1})
	body := testBody(t, "carriage", slider)

	test.That(t, slider.SetConfiguration([]float64{0.5}), test.ShouldBeNil)
	root.UpdateFramesRecursively()
	origin := body.BodyFrame().TransformToRoot().TransformPoint(r3.Vector{})
	test.That(t, origin.Z, test.ShouldAlmostEqual, 0.5)

	_, err = NewPrismaticJoint("bad", root, nil, r3.Vector{})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestJointConfigurationState(t *testing.T) {
	root := NewRootBody("root")
	joint := testRevolute(t, "j1", root)
	test.That(t, joint.DoF(), test.ShouldEqual, 1)
	test.That(t, len(joint.UnitTwists()), test.ShouldEqual, 1)

	test.That(t, joint.SetConfiguration([]float64{0.3}), test.ShouldBeNil)
	test.That(t, joint.SetVelocity([]float64{-1.5}), test.ShouldBeNil)
	test.That(t, joint.Configuration(), test.ShouldResemble, []float64{0.3})
	test.That(t, joint.Velocity(), test.ShouldResemble, []float64{-1.5})

	// returned slices are copies
	joint.Configuration()[0] = 99
	test.That(t, joint.Configuration(), test.ShouldResemble, []float64{0.3})

	test.That(t, joint.SetConfiguration([]float64{1, 2}), test.ShouldNotBeNil)
	test.That(t, joint.SetVelocity(nil), test.ShouldNotBeNil)

	fixed, err := NewFixedJoint("weld", root, nil)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, fixed.DoF(), test.ShouldEqual, 0)
	test.That(t, fixed.SetConfiguration(nil), test.ShouldBeNil)
}

func TestCloseLoopValidation(t *testing.T) {
	root := NewRootBody("root")
	b1 := testBody(t, "b1", testRevolute(t, "j1", root))
	b2 := testBody(t, "b2", testRevolute(t, "j2", b1))

	closing := testRevolute(t, "closing", b2)
	// the target must already be attached to the tree
	test.That(t, closing.CloseLoop(NewRootBody("detached")), test.ShouldNotBeNil)
	test.That(t, closing.CloseLoop(nil), test.ShouldNotBeNil)

	test.That(t, closing.CloseLoop(b1), test.ShouldBeNil)
	test.That(t, closing.IsLoopClosure(), test.ShouldBeTrue)
	test.That(t, closing.Successor(), test.ShouldEqual, b1)

	// a joint with a successor cannot close a loop
	j1 := root.ChildJoints()[0]
	test.That(t, j1.CloseLoop(b2), test.ShouldNotBeNil)
}
