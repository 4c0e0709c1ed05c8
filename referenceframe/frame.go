// Package referenceframe defines reference frames and the math of translating between them.
// Frames form a tree rooted at a world frame; each frame knows its pose relative to its
// parent, and the transform between any two frames in the same tree is found by tracing
// both back to their common root and composing along the way.
package referenceframe

import (
	spatial "go.viam.com/dynamics/spatialmath"
)

// World is the conventional name of a root frame.
const World = "world"

// Frame is a node in a frame tree. The zero value is not usable; frames are created
// with NewWorldFrame or NewFrame. Frame identity is pointer identity: two frames with
// the same name are still distinct frames.
type Frame struct {
	name              string
	parent            *Frame
	transformToParent *spatial.RigidTransform
}

// NewWorldFrame creates a root frame with the given name. A tree has exactly one
// root; every other frame is created with NewFrame relative to an existing frame.
func NewWorldFrame(name string) *Frame {
	return &Frame{name: name, transformToParent: spatial.NewZeroRigidTransform()}
}

// NewFrame creates a frame as a child of parent, positioned by transformToParent,
// the pose of the new frame expressed in the parent frame. A nil transform means
// the frames coincide.
func NewFrame(name string, parent *Frame, transformToParent *spatial.RigidTransform) (*Frame, error) {
	if parent == nil {
		return nil, NewParentFrameMissingError(name)
	}
	if transformToParent == nil {
		transformToParent = spatial.NewZeroRigidTransform()
	}
	return &Frame{name: name, parent: parent, transformToParent: transformToParent.Clone()}, nil
}

// Name returns the name of this frame.
func (f *Frame) Name() string {
	return f.name
}

// Parent returns the parent frame, or nil if this is a root frame.
func (f *Frame) Parent() *Frame {
	return f.parent
}

// IsRoot returns whether this frame has no parent.
func (f *Frame) IsRoot() bool {
	return f.parent == nil
}

// TransformToParent returns the pose of this frame expressed in its parent frame.
// For a root frame this is the identity.
func (f *Frame) TransformToParent() *spatial.RigidTransform {
	return f.transformToParent
}

// SetTransformToParent repositions this frame relative to its parent. Callers that
// move a frame with descendants must not read transforms of the subtree concurrently.
func (f *Frame) SetTransformToParent(transform *spatial.RigidTransform) {
	f.transformToParent.Set(transform)
}

// Root returns the root of the tree this frame belongs to.
func (f *Frame) Root() *Frame {
	root := f
	for root.parent != nil {
		root = root.parent
	}
	return root
}

// Traceback returns the chain of frames from this frame up to and including the root.
func (f *Frame) Traceback() []*Frame {
	var frames []*Frame
	for frame := f; frame != nil; frame = frame.parent {
		frames = append(frames, frame)
	}
	return frames
}

// TransformToRoot returns the pose of this frame expressed in the root frame.
func (f *Frame) TransformToRoot() *spatial.RigidTransform {
	pose := spatial.NewZeroRigidTransform()
	for frame := f; frame.parent != nil; frame = frame.parent {
		pose = frame.transformToParent.Compose(pose)
	}
	return pose
}

// TransformTo returns the pose of this frame expressed in the target frame. The two
// frames must belong to the same tree.
func (f *Frame) TransformTo(target *Frame) (*spatial.RigidTransform, error) {
	if f == target {
		return spatial.NewZeroRigidTransform(), nil
	}
	if f.Root() != target.Root() {
		return nil, NewDisconnectedFramesError(f, target)
	}
	return target.TransformToRoot().Invert().Compose(f.TransformToRoot()), nil
}

func (f *Frame) String() string {
	return f.name
}
