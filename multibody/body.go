// Package multibody models articulated multi-body systems: rigid bodies connected
// by joints into a kinematic tree, traversal primitives over that tree, and the
// read-only system view consumed by the dynamics calculators. Kinematic loops are
// represented as a spanning tree plus loop-closure joints: a loop-closure joint is
// an ordinary joint with a flag, excluded from tree-structural recursion but kept
// in the joint lists for external constraint handling.
package multibody

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/dynamics/referenceframe"
	"go.viam.com/dynamics/spatial"
	"go.viam.com/dynamics/spatialmath"
)

// RigidBody is a link of a multi-body system. It owns its spatial inertia and
// body-fixed frame and records its position in the tree through its parent joint
// and ordered child joints. Bodies are created during robot construction and are
// only mutated afterwards by frame refreshes.
type RigidBody struct {
	name        string
	inertia     *spatial.SpatialInertia
	bodyFrame   *referenceframe.Frame
	parentJoint Joint
	childJoints []Joint
}

// NewRootBody creates the root of a kinematic tree. The root carries no inertia
// and its body frame is the tree's world frame; every other body hangs off it
// through a chain of joints.
func NewRootBody(name string) *RigidBody {
	return &RigidBody{
		name:      name,
		bodyFrame: referenceframe.NewWorldFrame(name),
	}
}

// NewRootBodyWithInertia creates a root body that itself carries mass, for
// modeling a free rigid body or a massive fixed base.
func NewRootBodyWithInertia(name string, mass float64, centerOfMass r3.Vector, moment *mat.SymDense) (*RigidBody, error) {
	body := NewRootBody(name)
	inertia, err := spatial.NewSpatialInertia(body.bodyFrame, body.bodyFrame, mass, centerOfMass, moment)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid inertia for body %q", name)
	}
	body.inertia = inertia
	return body, nil
}

// NewRigidBody creates a body as the successor of parentJoint. The body frame is
// placed at transformToParent relative to the joint's frame-after-joint (nil means
// they coincide). The inertia is mass, the center of mass offset in the body frame,
// and the rotational inertia tensor about the center of mass.
func NewRigidBody(
	name string,
	parentJoint Joint,
	transformToParent *spatialmath.RigidTransform,
	mass float64,
	centerOfMass r3.Vector,
	moment *mat.SymDense,
) (*RigidBody, error) {
	if parentJoint == nil {
		return nil, errors.Errorf("body %q needs a parent joint; use NewRootBody for the tree root", name)
	}
	if parentJoint.Successor() != nil {
		return nil, errors.Errorf("joint %q already has successor %q", parentJoint.Name(), parentJoint.Successor().Name())
	}
	bodyFrame, err := referenceframe.NewFrame(name, parentJoint.FrameAfterJoint(), transformToParent)
	if err != nil {
		return nil, err
	}
	inertia, err := spatial.NewSpatialInertia(bodyFrame, bodyFrame, mass, centerOfMass, moment)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid inertia for body %q", name)
	}
	body := &RigidBody{
		name:        name,
		inertia:     inertia,
		bodyFrame:   bodyFrame,
		parentJoint: parentJoint,
	}
	parentJoint.setSuccessor(body)
	return body, nil
}

// Name returns the name of this body.
func (b *RigidBody) Name() string {
	return b.name
}

// Inertia returns this body's spatial inertia, or nil for a root body.
func (b *RigidBody) Inertia() *spatial.SpatialInertia {
	return b.inertia
}

// BodyFrame returns the body-fixed frame.
func (b *RigidBody) BodyFrame() *referenceframe.Frame {
	return b.bodyFrame
}

// ParentJoint returns the joint connecting this body toward the root, or nil for
// the root body.
func (b *RigidBody) ParentJoint() Joint {
	return b.parentJoint
}

// IsRoot returns whether this body is the root of its tree.
func (b *RigidBody) IsRoot() bool {
	return b.parentJoint == nil
}

// ChildJoints returns the ordered child joints of this body. The returned slice is
// the body's own; callers must not modify it.
func (b *RigidBody) ChildJoints() []Joint {
	return b.childJoints
}

// addChildJoint appends a joint to this body's child list. Construction time only;
// there is no removal.
func (b *RigidBody) addChildJoint(joint Joint) {
	b.childJoints = append(b.childJoints, joint)
}

// UpdateFramesRecursively recomputes every joint frame in this body's subtree from
// the joints' current configurations, in strict parent-before-child order: a child
// frame's transform composes with its parent's, so the parent must be refreshed
// first. Concurrent invocation on overlapping subtrees is unsafe. Loop-closure
// joints get their frames refreshed but their successors are reached through the
// tree path, not through them.
func (b *RigidBody) UpdateFramesRecursively() {
	for _, joint := range b.childJoints {
		joint.UpdateFrame()
		if joint.IsLoopClosure() {
			continue
		}
		if successor := joint.Successor(); successor != nil {
			successor.UpdateFramesRecursively()
		}
	}
}

// SubtreeBodies returns this body and all its tree descendants in breadth-first
// order, the same order the iterators produce.
func (b *RigidBody) SubtreeBodies() []*RigidBody {
	return Bodies(NewBodyIterator(nil, b))
}

// SubtreeJoints returns the tree joints of this body's subtree in breadth-first
// order, loop-closure joints included where encountered.
func (b *RigidBody) SubtreeJoints() []Joint {
	return Joints(NewJointIterator[Joint](nil, b.childJoints...))
}
