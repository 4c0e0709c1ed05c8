package multibody

import (
	"github.com/pkg/errors"

	"go.viam.com/dynamics/referenceframe"
	"go.viam.com/dynamics/spatial"
	"go.viam.com/dynamics/spatialmath"
)

// Joint connects a predecessor body to a successor body. A joint owns two frames:
// the frame-before-joint, fixed to the predecessor, and the frame-after-joint,
// whose transform to the frame-before depends on the joint's current
// configuration. Each degree of freedom exposes a unit-twist: the spatial velocity
// of the successor relative to the predecessor when that one generalized velocity
// is 1 and all others 0, expressed in the frame-after-joint.
type Joint interface {
	// Name returns the name of this joint.
	Name() string

	// DoF returns the number of degrees of freedom.
	DoF() int

	// UnitTwists returns one unit-twist per degree of freedom. The returned twists
	// are the joint's own; callers must copy before mutating.
	UnitTwists() []*spatial.Twist

	// FrameBeforeJoint returns the joint input frame, fixed to the predecessor.
	FrameBeforeJoint() *referenceframe.Frame

	// FrameAfterJoint returns the joint output frame, moved by the configuration.
	FrameAfterJoint() *referenceframe.Frame

	// Predecessor returns the body on the root side of this joint.
	Predecessor() *RigidBody

	// Successor returns the body on the far side of this joint, nil until attached.
	Successor() *RigidBody

	// IsLoopClosure reports whether this joint closes a kinematic loop: its
	// successor is a body already reachable from the root by another path, so the
	// edge is excluded from tree-structural recursion.
	IsLoopClosure() bool

	// CloseLoop marks this joint as a loop closure onto the given, already-attached
	// body. The joint must not already have a successor.
	CloseLoop(successor *RigidBody) error

	// Configuration returns the current generalized positions, one per DoF.
	Configuration() []float64

	// SetConfiguration sets the generalized positions. The frame-after-joint is
	// stale until UpdateFrame (or UpdateFramesRecursively from an ancestor) runs.
	SetConfiguration(q []float64) error

	// Velocity returns the current generalized velocities, one per DoF.
	Velocity() []float64

	// SetVelocity sets the generalized velocities.
	SetVelocity(qd []float64) error

	// UpdateFrame recomputes the frame-after-joint transform from the current
	// configuration.
	UpdateFrame()

	// setSuccessor attaches the successor body. Called by NewRigidBody.
	setSuccessor(body *RigidBody)
}

// baseJoint carries the state common to all joint implementations.
type baseJoint struct {
	name        string
	predecessor *RigidBody
	successor   *RigidBody
	frameBefore *referenceframe.Frame
	frameAfter  *referenceframe.Frame
	unitTwists  []*spatial.Twist
	q           []float64
	qd          []float64
	loopClosure bool
}

func newBaseJoint(
	name string,
	predecessor *RigidBody,
	transformToParent *spatialmath.RigidTransform,
	dof int,
) (*baseJoint, error) {
	if predecessor == nil {
		return nil, errors.Errorf("joint %q needs a predecessor body", name)
	}
	frameBefore, err := referenceframe.NewFrame(name+"_before", predecessor.BodyFrame(), transformToParent)
	if err != nil {
		return nil, err
	}
	frameAfter, err := referenceframe.NewFrame(name+"_after", frameBefore, nil)
	if err != nil {
		return nil, err
	}
	return &baseJoint{
		name:        name,
		predecessor: predecessor,
		frameBefore: frameBefore,
		frameAfter:  frameAfter,
		q:           make([]float64, dof),
		qd:          make([]float64, dof),
	}, nil
}

func (j *baseJoint) Name() string {
	return j.name
}

func (j *baseJoint) DoF() int {
	return len(j.q)
}

func (j *baseJoint) UnitTwists() []*spatial.Twist {
	return j.unitTwists
}

func (j *baseJoint) FrameBeforeJoint() *referenceframe.Frame {
	return j.frameBefore
}

func (j *baseJoint) FrameAfterJoint() *referenceframe.Frame {
	return j.frameAfter
}

func (j *baseJoint) Predecessor() *RigidBody {
	return j.predecessor
}

func (j *baseJoint) Successor() *RigidBody {
	return j.successor
}

func (j *baseJoint) IsLoopClosure() bool {
	return j.loopClosure
}

func (j *baseJoint) CloseLoop(successor *RigidBody) error {
	if j.successor != nil {
		return errors.Errorf("joint %q already has a successor", j.name)
	}
	if successor == nil || successor.ParentJoint() == nil {
		return errors.Errorf("loop closure for joint %q needs a body already attached to the tree", j.name)
	}
	j.successor = successor
	j.loopClosure = true
	return nil
}

func (j *baseJoint) Configuration() []float64 {
	out := make([]float64, len(j.q))
	copy(out, j.q)
	return out
}

func (j *baseJoint) SetConfiguration(q []float64) error {
	if len(q) != len(j.q) {
		return errors.Errorf("joint %q expects %d configuration values, got %d", j.name, len(j.q), len(q))
	}
	copy(j.q, q)
	return nil
}

func (j *baseJoint) Velocity() []float64 {
	out := make([]float64, len(j.qd))
	copy(out, j.qd)
	return out
}

func (j *baseJoint) SetVelocity(qd []float64) error {
	if len(qd) != len(j.qd) {
		return errors.Errorf("joint %q expects %d velocity values, got %d", j.name, len(j.qd), len(qd))
	}
	copy(j.qd, qd)
	return nil
}

func (j *baseJoint) setSuccessor(body *RigidBody) {
	j.successor = body
}
