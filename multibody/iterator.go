package multibody

import "github.com/pkg/errors"

// ErrIteratorExhausted is returned by Next when no elements remain. It is the
// normal end-of-sequence signal, not a failure callers need to avoid.
var ErrIteratorExhausted = errors.New("iterator exhausted: no elements remain")

// JointIterator lazily produces the joints of one or more subtrees in
// breadth-first order: siblings are exhausted before the traversal descends. The
// type parameter acts as a runtime type filter: joints that are not of type J are
// not visited and, since they cannot be inspected as a J, their subtrees are not
// expanded either. The optional selection rule excludes joints from the output
// without stopping expansion of their children.
//
// An iterator is single-use: it cannot be rewound, only reconstructed. HasNext is
// idempotent; Next without a prior HasNext performs the check itself and returns
// ErrIteratorExhausted when nothing is left.
type JointIterator[J Joint] struct {
	queue         []J
	selectionRule func(J) bool
	next          J
	hasNext       bool
	searched      bool
}

// NewJointIterator creates an iterator over the subtrees hanging off the given
// root joints. A nil selection rule selects everything.
func NewJointIterator[J Joint](selectionRule func(J) bool, roots ...Joint) *JointIterator[J] {
	it := &JointIterator[J]{selectionRule: selectionRule}
	for _, root := range roots {
		if typed, ok := root.(J); ok {
			it.queue = append(it.queue, typed)
		}
	}
	return it
}

// HasNext reports whether another joint remains. Calling it repeatedly without
// consuming does not advance the iteration.
func (it *JointIterator[J]) HasNext() bool {
	if it.searched {
		return it.hasNext
	}
	it.next, it.hasNext = it.searchNextPassingRule()
	it.searched = true
	return it.hasNext
}

// Next returns the next joint, or ErrIteratorExhausted if none remains.
func (it *JointIterator[J]) Next() (J, error) {
	var zero J
	if !it.HasNext() {
		return zero, ErrIteratorExhausted
	}
	it.searched = false
	next := it.next
	it.next = zero
	return next, nil
}

func (it *JointIterator[J]) searchNextPassingRule() (J, bool) {
	for len(it.queue) > 0 {
		joint := it.searchNext()
		if it.selectionRule == nil || it.selectionRule(joint) {
			return joint, true
		}
	}
	var zero J
	return zero, false
}

// searchNext dequeues the head and expands its children onto the tail. Expansion
// does not depend on the selection rule, only on the type filter; loop-closure
// joints are not expanded since their successors are reached through the tree path.
func (it *JointIterator[J]) searchNext() J {
	joint := it.queue[0]
	it.queue = it.queue[1:]

	if joint.IsLoopClosure() {
		return joint
	}
	successor := joint.Successor()
	if successor == nil {
		return joint
	}
	for _, child := range successor.ChildJoints() {
		if typed, ok := child.(J); ok {
			it.queue = append(it.queue, typed)
		}
	}
	return joint
}

// BodyIterator lazily produces the bodies of one or more subtrees in breadth-first
// order, with an optional selection rule excluding bodies from the output without
// stopping expansion of their children.
type BodyIterator struct {
	queue         []*RigidBody
	selectionRule func(*RigidBody) bool
	next          *RigidBody
	searched      bool
}

// NewBodyIterator creates an iterator over the subtrees rooted at the given
// bodies. A nil selection rule selects everything.
func NewBodyIterator(selectionRule func(*RigidBody) bool, roots ...*RigidBody) *BodyIterator {
	it := &BodyIterator{selectionRule: selectionRule}
	it.queue = append(it.queue, roots...)
	return it
}

// HasNext reports whether another body remains; idempotent.
func (it *BodyIterator) HasNext() bool {
	if it.searched {
		return it.next != nil
	}
	it.next = it.searchNextPassingRule()
	it.searched = true
	return it.next != nil
}

// Next returns the next body, or ErrIteratorExhausted if none remains.
func (it *BodyIterator) Next() (*RigidBody, error) {
	if !it.HasNext() {
		return nil, ErrIteratorExhausted
	}
	it.searched = false
	next := it.next
	it.next = nil
	return next, nil
}

func (it *BodyIterator) searchNextPassingRule() *RigidBody {
	for len(it.queue) > 0 {
		body := it.searchNext()
		if it.selectionRule == nil || it.selectionRule(body) {
			return body
		}
	}
	return nil
}

func (it *BodyIterator) searchNext() *RigidBody {
	body := it.queue[0]
	it.queue = it.queue[1:]
	for _, joint := range body.ChildJoints() {
		if joint.IsLoopClosure() {
			continue
		}
		if successor := joint.Successor(); successor != nil {
			it.queue = append(it.queue, successor)
		}
	}
	return body
}

// Joints drains a joint iterator into a slice.
func Joints[J Joint](it *JointIterator[J]) []J {
	var out []J
	for it.HasNext() {
		next, err := it.Next()
		if err != nil {
			break
		}
		out = append(out, next)
	}
	return out
}

// Bodies drains a body iterator into a slice.
func Bodies(it *BodyIterator) []*RigidBody {
	var out []*RigidBody
	for it.HasNext() {
		next, err := it.Next()
		if err != nil {
			break
		}
		out = append(out, next)
	}
	return out
}
