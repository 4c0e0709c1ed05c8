package multibody

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// System is a read-only view of a multi-body system for the dynamics calculators:
// a root body, the partition of the tree's joints into considered joints (which
// contribute matrix columns) and ignored joints (excluded from motion but possibly
// still massive), and the assignment of global degree-of-freedom indices. Ignoring
// a joint ignores its entire subtree: nothing below it is free to move.
//
// Loop-closure joints cannot be ignored and no calculator propagates through
// them, but they ride along in the considered list so that their degrees of
// freedom keep stable column indices; their matrix columns stay zero and the
// loop constraint must be enforced externally.
//
// A System is a snapshot of the partition taken at construction; calculators never
// mutate it. Toggling which joints are ignored means building a new System.
type System struct {
	rootBody         *RigidBody
	consideredJoints []Joint
	ignoredJoints    []Joint
	ignoredSet       map[Joint]struct{}
	indexProvider    *DOFIndexProvider
}

// NewSystem creates a system view rooted at rootBody. Every joint in
// jointsToIgnore must be a tree joint of that root's subtree.
func NewSystem(rootBody *RigidBody, jointsToIgnore ...Joint) (*System, error) {
	if rootBody == nil {
		return nil, errors.New("system needs a root body")
	}
	toIgnore := make(map[Joint]struct{}, len(jointsToIgnore))
	for _, joint := range jointsToIgnore {
		if joint.IsLoopClosure() {
			return nil, errors.Errorf("joint %q is a loop closure and cannot be ignored or considered", joint.Name())
		}
		toIgnore[joint] = struct{}{}
	}

	sys := &System{
		rootBody:   rootBody,
		ignoredSet: map[Joint]struct{}{},
	}

	// Breadth-first so that the considered order, and with it the column layout,
	// matches the iterators' traversal order.
	type entry struct {
		body    *RigidBody
		ignored bool
	}
	queue := []entry{{body: rootBody}}
	seen := 0
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, joint := range current.body.ChildJoints() {
			if joint.IsLoopClosure() {
				if !current.ignored {
					sys.consideredJoints = append(sys.consideredJoints, joint)
				}
				continue
			}
			_, listed := toIgnore[joint]
			if listed {
				seen++
			}
			ignored := current.ignored || listed
			if ignored {
				sys.ignoredJoints = append(sys.ignoredJoints, joint)
				sys.ignoredSet[joint] = struct{}{}
			} else {
				sys.consideredJoints = append(sys.consideredJoints, joint)
			}
			if successor := joint.Successor(); successor != nil {
				queue = append(queue, entry{body: successor, ignored: ignored})
			}
		}
	}
	if seen != len(toIgnore) {
		return nil, errors.Errorf("%d of %d joints to ignore are not tree joints under root %q",
			len(toIgnore)-seen, len(toIgnore), rootBody.Name())
	}

	sys.indexProvider = NewDOFIndexProvider(sys.consideredJoints)
	return sys, nil
}

// RootBody returns the root of the system.
func (s *System) RootBody() *RigidBody {
	return s.rootBody
}

// ConsideredJoints returns the joints contributing degrees of freedom, in the
// order defining the global column layout. Callers must not modify the slice.
func (s *System) ConsideredJoints() []Joint {
	return s.consideredJoints
}

// IgnoredJoints returns the excluded joints, including every joint below an
// ignored one. Callers must not modify the slice.
func (s *System) IgnoredJoints() []Joint {
	return s.ignoredJoints
}

// IsIgnored reports whether the given joint is in the ignored set.
func (s *System) IsIgnored(joint Joint) bool {
	_, ok := s.ignoredSet[joint]
	return ok
}

// IndexProvider returns the degree-of-freedom index assignment for the considered
// joints.
func (s *System) IndexProvider() *DOFIndexProvider {
	return s.indexProvider
}

// TotalDoF returns the total considered degrees of freedom.
func (s *System) TotalDoF() int {
	return s.indexProvider.TotalDoF()
}

// ExtractJointVelocities reads the current generalized velocities of the
// considered joints into dst following the index provider's layout. dst must be
// sized to TotalDoF.
func (s *System) ExtractJointVelocities(dst *mat.VecDense) error {
	if dst.Len() != s.TotalDoF() {
		return errors.Errorf("velocity vector has %d entries, system has %d degrees of freedom", dst.Len(), s.TotalDoF())
	}
	for _, joint := range s.indexProvider.IndexedJointsInOrder() {
		indices, err := s.indexProvider.JointDoFIndices(joint)
		if err != nil {
			return err
		}
		qd := joint.Velocity()
		for i, index := range indices {
			dst.SetVec(index, qd[i])
		}
	}
	return nil
}

// DOFIndexProvider assigns each joint's local degrees of freedom to disjoint,
// contiguous global column indices, in the order the joints were given.
type DOFIndexProvider struct {
	indices       map[Joint][]int
	indexedJoints []Joint
	totalDoF      int
}

// NewDOFIndexProvider builds the index assignment for the given joints.
func NewDOFIndexProvider(joints []Joint) *DOFIndexProvider {
	provider := &DOFIndexProvider{indices: make(map[Joint][]int, len(joints))}
	next := 0
	for _, joint := range joints {
		block := make([]int, joint.DoF())
		for i := range block {
			block[i] = next
			next++
		}
		provider.indices[joint] = block
		provider.indexedJoints = append(provider.indexedJoints, joint)
	}
	provider.totalDoF = next
	return provider
}

// JointDoFIndices returns the global column indices of the given joint's degrees
// of freedom. A joint outside the indexed set is a structural inconsistency.
func (p *DOFIndexProvider) JointDoFIndices(joint Joint) ([]int, error) {
	indices, ok := p.indices[joint]
	if !ok {
		return nil, errors.Errorf("joint %q is not part of this index assignment", joint.Name())
	}
	return indices, nil
}

// IndexedJointsInOrder returns the joints in canonical column order. Callers must
// not modify the slice.
func (p *DOFIndexProvider) IndexedJointsInOrder() []Joint {
	return p.indexedJoints
}

// TotalDoF returns the total number of indexed degrees of freedom.
func (p *DOFIndexProvider) TotalDoF() int {
	return p.totalDoF
}
