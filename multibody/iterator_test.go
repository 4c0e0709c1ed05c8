package multibody

import (
	"strings"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func testBody(t *testing.T, name string, joint Joint) *RigidBody {
	t.Helper()
	body, err := NewRigidBody(name, joint, nil, 1, r3.Vector{}, mat.NewSymDense(3, nil))
	test.That(t, err, test.ShouldBeNil)
	return body
}

func testRevolute(t *testing.T, name string, predecessor *RigidBody) *RevoluteJoint {
	t.Helper()
	joint, err := NewRevoluteJoint(name, predecessor, nil, r3.Vector{Z: 1})
	test.That(t, err, test.ShouldBeNil)
	return joint
}

// makeDepthThreeTree builds
//
//	root ── j1 ── b1 ─┬─ j2 ── b2 ── j4 ── b4
//	                  └─ j3 ── b3 ─┬─ j5 ── b5
//	                               └─ j6 ── b6
func makeDepthThreeTree(t *testing.T) *RigidBody {
	t.Helper()
	root := NewRootBody("root")
	b1 := testBody(t, "b1", testRevolute(t, "j1", root))
	b2 := testBody(t, "b2", testRevolute(t, "j2", b1))
	b3 := testBody(t, "b3", testRevolute(t, "j3", b1))
	testBody(t, "b4", testRevolute(t, "j4", b2))
	testBody(t, "b5", testRevolute(t, "j5", b3))
	testBody(t, "b6", testRevolute(t, "j6", b3))
	return root
}

func jointNames[J Joint](joints []J) []string {
	names := make([]string, 0, len(joints))
	for _, joint := range joints {
		names = append(names, joint.Name())
	}
	return names
}

func bodyNames(bodies []*RigidBody) []string {
	names := make([]string, 0, len(bodies))
	for _, body := range bodies {
		names = append(names, body.Name())
	}
	return names
}

func TestJointIteratorBreadthFirst(t *testing.T) {
	root := makeDepthThreeTree(t)
	it := NewJointIterator[Joint](nil, root.ChildJoints()...)
	test.That(t, jointNames(Joints(it)), test.ShouldResemble,
		[]string{"j1", "j2", "j3", "j4", "j5", "j6"})
}

func TestJointIteratorSelectionRule(t *testing.T) {
	root := makeDepthThreeTree(t)

	// excluding j2 from the output does not stop the descent into its subtree
	it := NewJointIterator[Joint](func(j Joint) bool {
		return j.Name() != "j2"
	}, root.ChildJoints()...)
	test.That(t, jointNames(Joints(it)), test.ShouldResemble,
		[]string{"j1", "j3", "j4", "j5", "j6"})
}

func TestJointIteratorTypeFilter(t *testing.T) {
	// a fixed joint in the middle blocks the descent into its subtree when
	// iterating over revolute joints only
	root := NewRootBody("root")
	b1 := testBody(t, "b1", testRevolute(t, "r1", root))
	fixed, err := NewFixedJoint("f1", b1, nil)
	test.That(t, err, test.ShouldBeNil)
	b2 := testBody(t, "b2", fixed)
	testBody(t, "b3", testRevolute(t, "r2", b2))
	testBody(t, "b4", testRevolute(t, "r3", b1))

	it := NewJointIterator[*RevoluteJoint](nil, root.ChildJoints()...)
	test.That(t, jointNames(Joints(it)), test.ShouldResemble, []string{"r1", "r3"})

	// the unfiltered traversal still reaches everything
	all := NewJointIterator[Joint](nil, root.ChildJoints()...)
	test.That(t, jointNames(Joints(all)), test.ShouldResemble,
		[]string{"r1", "f1", "r3", "r2"})
}

func TestJointIteratorLoopClosureNotExpanded(t *testing.T) {
	root := NewRootBody("root")
	b1 := testBody(t, "b1", testRevolute(t, "j1", root))
	b2 := testBody(t, "b2", testRevolute(t, "j2", b1))
	closing := testRevolute(t, "closing", b2)
	test.That(t, closing.CloseLoop(b1), test.ShouldBeNil)

	// the closing joint is produced once and its successor is not re-entered
	it := NewJointIterator[Joint](nil, root.ChildJoints()...)
	test.That(t, jointNames(Joints(it)), test.ShouldResemble, []string{"j1", "j2", "closing"})
}

func TestIteratorHasNextIdempotent(t *testing.T) {
	root := NewRootBody("root")
	testBody(t, "b1", testRevolute(t, "j1", root))

	it := NewJointIterator[Joint](nil, root.ChildJoints()...)
	for i := 0; i < 5; i++ {
		test.That(t, it.HasNext(), test.ShouldBeTrue)
	}
	next, err := it.Next()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, next.Name(), test.ShouldEqual, "j1")

	test.That(t, it.HasNext(), test.ShouldBeFalse)
	_, err = it.Next()
	test.That(t, err, test.ShouldBeError, ErrIteratorExhausted)
	// exhaustion is stable
	_, err = it.Next()
	test.That(t, err, test.ShouldBeError, ErrIteratorExhausted)
}

func TestJointIteratorNextWithoutHasNext(t *testing.T) {
	root := makeDepthThreeTree(t)
	it := NewJointIterator[Joint](nil, root.ChildJoints()...)

	// Next performs its own search when HasNext was never called
	var names []string
	for {
		next, err := it.Next()
		if err != nil {
			test.That(t, err, test.ShouldBeError, ErrIteratorExhausted)
			break
		}
		names = append(names, next.Name())
	}
	test.That(t, names, test.ShouldResemble, []string{"j1", "j2", "j3", "j4", "j5", "j6"})
}

func TestBodyIteratorBreadthFirst(t *testing.T) {
	root := makeDepthThreeTree(t)
	it := NewBodyIterator(nil, root)
	test.That(t, bodyNames(Bodies(it)), test.ShouldResemble,
		[]string{"root", "b1", "b2", "b3", "b4", "b5", "b6"})
}

func TestBodyIteratorSelectionRule(t *testing.T) {
	root := makeDepthThreeTree(t)
	it := NewBodyIterator(func(b *RigidBody) bool {
		return !strings.HasPrefix(b.Name(), "b3")
	}, root)
	// b3 is skipped in the output but its children are still visited
	test.That(t, bodyNames(Bodies(it)), test.ShouldResemble,
		[]string{"root", "b1", "b2", "b4", "b5", "b6"})
}

func TestSubtreeAccessors(t *testing.T) {
	root := makeDepthThreeTree(t)
	b3 := root.ChildJoints()[0].Successor().ChildJoints()[1].Successor()
	test.That(t, b3.Name(), test.ShouldEqual, "b3")
	test.That(t, bodyNames(b3.SubtreeBodies()), test.ShouldResemble, []string{"b3", "b5", "b6"})
	test.That(t, jointNames(b3.SubtreeJoints()), test.ShouldResemble, []string{"j5", "j6"})
}
