package multibody

import (
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/dynamics/spatial"
	"go.viam.com/dynamics/spatialmath"
)

// RevoluteJoint rotates its successor about a fixed axis; 1 DoF. The axis is given
// in the frame-before-joint and, being the rotation axis, has the same coordinates
// in the frame-after-joint.
type RevoluteJoint struct {
	*baseJoint
	axis r3.Vector
}

// NewRevoluteJoint creates a revolute joint hanging off the predecessor body, with
// its frame-before-joint at transformToParent relative to the predecessor's body
// frame (nil means they coincide). The axis need not be normalized.
func NewRevoluteJoint(
	name string,
	predecessor *RigidBody,
	transformToParent *spatialmath.RigidTransform,
	axis r3.Vector,
) (*RevoluteJoint, error) {
	if axis.Norm() == 0 {
		return nil, errors.Errorf("revolute joint %q needs a non-zero axis", name)
	}
	base, err := newBaseJoint(name, predecessor, transformToParent, 1)
	if err != nil {
		return nil, err
	}
	axis = axis.Normalize()
	base.unitTwists = []*spatial.Twist{
		spatial.NewTwist(base.frameAfter, base.frameAfter, axis, r3.Vector{}),
	}
	joint := &RevoluteJoint{baseJoint: base, axis: axis}
	predecessor.addChildJoint(joint)
	return joint, nil
}

// Axis returns the normalized rotation axis in frame-before-joint coordinates.
func (j *RevoluteJoint) Axis() r3.Vector {
	return j.axis
}

// UpdateFrame recomputes the frame-after-joint as a rotation by the current angle
// about the joint axis.
func (j *RevoluteJoint) UpdateFrame() {
	j.frameAfter.SetTransformToParent(spatialmath.NewRigidTransformFromAxisAngle(j.axis, j.q[0]))
}

// PrismaticJoint translates its successor along a fixed axis; 1 DoF.
type PrismaticJoint struct {
	*baseJoint
	axis r3.Vector
}

// NewPrismaticJoint creates a prismatic joint hanging off the predecessor body.
// The axis need not be normalized.
func NewPrismaticJoint(
	name string,
	predecessor *RigidBody,
	transformToParent *spatialmath.RigidTransform,
	axis r3.Vector,
) (*PrismaticJoint, error) {
	if axis.Norm() == 0 {
		return nil, errors.Errorf("prismatic joint %q needs a non-zero axis", name)
	}
	base, err := newBaseJoint(name, predecessor, transformToParent, 1)
	if err != nil {
		return nil, err
	}
	axis = axis.Normalize()
	base.unitTwists = []*spatial.Twist{
		spatial.NewTwist(base.frameAfter, base.frameAfter, r3.Vector{}, axis),
	}
	joint := &PrismaticJoint{baseJoint: base, axis: axis}
	predecessor.addChildJoint(joint)
	return joint, nil
}

// Axis returns the normalized translation axis in frame-before-joint coordinates.
func (j *PrismaticJoint) Axis() r3.Vector {
	return j.axis
}

// UpdateFrame recomputes the frame-after-joint as a translation by the current
// displacement along the joint axis.
func (j *PrismaticJoint) UpdateFrame() {
	j.frameAfter.SetTransformToParent(spatialmath.NewRigidTransformFromTranslation(j.axis.Mul(j.q[0])))
}

// FixedJoint rigidly attaches its successor to its predecessor; 0 DoF. Useful for
// welding sensor or payload bodies onto a link.
type FixedJoint struct {
	*baseJoint
}

// NewFixedJoint creates a fixed joint hanging off the predecessor body.
func NewFixedJoint(
	name string,
	predecessor *RigidBody,
	transformToParent *spatialmath.RigidTransform,
) (*FixedJoint, error) {
	base, err := newBaseJoint(name, predecessor, transformToParent, 0)
	if err != nil {
		return nil, err
	}
	joint := &FixedJoint{baseJoint: base}
	predecessor.addChildJoint(joint)
	return joint, nil
}

// UpdateFrame is a no-op: the frame-after-joint coincides with the frame-before.
func (j *FixedJoint) UpdateFrame() {}
