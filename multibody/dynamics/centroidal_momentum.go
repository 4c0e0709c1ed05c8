// Package dynamics implements recursive dynamics algorithms over multibody
// systems. The algorithms trade generality for allocation-free evaluation: each
// calculator owns scratch buffers reused across queries, so a single instance
// must not serve concurrent queries; use one instance per goroutine or an
// external lock.
package dynamics

import (
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/dynamics/multibody"
	"go.viam.com/dynamics/referenceframe"
	"go.viam.com/dynamics/spatial"
	"go.viam.com/dynamics/spatialmath"
)

// CentroidalMomentumCalculator computes the 6xN matrix A mapping the stacked
// joint velocities v of a multibody system to its total momentum h = A·v, with
// everything expressed in a caller-chosen matrix frame. Angular components occupy
// the first 3 rows, linear the last 3, and column blocks follow the system's
// degree-of-freedom index assignment.
//
// Loop-closure joints are skipped entirely: their columns stay zero by omission,
// which is correct because the loop constraint must be enforced externally, not
// by this calculator. Ignored joints contribute no columns; by default the mass
// of each ignored joint's subtree is folded once, at construction, into the
// inertia of the body it hangs off, which is valid because ignored joints do not
// move for the life of a calculator instance.
//
// All derived quantities (matrix, joint-velocity vector, momentum, total mass,
// center of mass velocity) are cached lazily and invalidated together by Reset.
type CentroidalMomentumCalculator struct {
	input       *multibody.System
	matrixFrame *referenceframe.Frame
	logger      golog.Logger

	steps []*iterativeStep

	// Scratch buffers reused across evaluations.
	jointUnitTwist       *spatial.Twist
	intermediateTwist    *spatial.Twist
	unitMomentum         *spatial.Momentum
	intermediateMomentum *spatial.Momentum
	momentumScratch      *mat.VecDense

	// Cached values with their dirty flags. Momentum depends on the matrix and
	// the velocity vector; center of mass velocity on momentum and total mass.
	matrix               *mat.Dense
	jointVelocities      *mat.VecDense
	momentum             *spatial.Momentum
	totalMass            float64
	centerOfMassVelocity r3.Vector

	matrixUpToDate      bool
	velocitiesUpToDate  bool
	momentumUpToDate    bool
	totalMassUpToDate   bool
	comVelocityUpToDate bool
}

// iterativeStep is one internal computation node, mirroring one reachable,
// non-ignored, non-loop-closure body of the system.
type iterativeStep struct {
	body *multibody.RigidBody
	// inertia is this step's own augmented copy of the body's inertia; folding
	// ignored subtrees must never mutate the model. Nil for the root step.
	inertia  *spatial.SpatialInertia
	children []*iterativeStep
	// jointIndices maps the parent joint's local DoFs to global matrix columns.
	jointIndices []int
	// Pass-1 caches: the transform from the matrix frame into this step's inertia
	// frame, and its inverse.
	matrixToBody *spatialmath.RigidTransform
	bodyToMatrix *spatialmath.RigidTransform
	// block is the 6 x DoF slice of the matrix owned by the parent joint; nil for
	// zero-DoF joints.
	block *mat.Dense
}

func (s *iterativeStep) isRoot() bool {
	return s.body.IsRoot()
}

type calculatorOptions struct {
	foldIgnoredSubtreeInertia bool
}

// Option configures a CentroidalMomentumCalculator.
type Option func(*calculatorOptions)

// WithoutIgnoredSubtreeInertia disables folding the mass of ignored subtrees into
// their supporting bodies; ignored subtrees then contribute nothing at all.
func WithoutIgnoredSubtreeInertia() Option {
	return func(o *calculatorOptions) {
		o.foldIgnoredSubtreeInertia = false
	}
}

// NewCentroidalMomentumCalculator creates a calculator for the given system,
// producing its matrix in matrixFrame. The system's frames must be up to date;
// construction reads them to fold ignored subtree inertias.
func NewCentroidalMomentumCalculator(
	input *multibody.System,
	matrixFrame *referenceframe.Frame,
	logger golog.Logger,
	opts ...Option,
) (*CentroidalMomentumCalculator, error) {
	options := calculatorOptions{foldIgnoredSubtreeInertia: true}
	for _, opt := range opts {
		opt(&options)
	}

	rootBody := input.RootBody()
	if matrixFrame.Root() != rootBody.BodyFrame().Root() {
		return nil, errors.Errorf("matrix frame %q is not connected to the system rooted at %q",
			matrixFrame.Name(), rootBody.Name())
	}

	c := &CentroidalMomentumCalculator{
		input:       input,
		matrixFrame: matrixFrame,
		logger:      logger,
	}

	rootFrame := rootBody.BodyFrame()
	rootStep := &iterativeStep{body: rootBody}
	if rootBody.Inertia() != nil {
		rootStep.inertia = rootBody.Inertia().Clone()
	}
	c.steps = append(c.steps, rootStep)
	if err := c.buildTree(rootStep, options); err != nil {
		return nil, err
	}

	c.jointUnitTwist = spatial.NewZeroTwist(rootFrame, rootFrame)
	c.intermediateTwist = spatial.NewZeroTwist(rootFrame, rootFrame)
	c.unitMomentum = spatial.NewZeroMomentum(rootFrame, matrixFrame)
	c.intermediateMomentum = spatial.NewZeroMomentum(rootFrame, matrixFrame)
	c.momentum = spatial.NewZeroMomentum(rootFrame, matrixFrame)
	c.momentumScratch = mat.NewVecDense(6, nil)

	if n := input.TotalDoF(); n > 0 {
		c.matrix = mat.NewDense(6, n, nil)
		c.jointVelocities = mat.NewVecDense(n, nil)
	}
	return c, nil
}

// buildTree creates one step per reachable, non-ignored, non-loop-closure body
// below parent's body, folding ignored subtrees into parent where configured.
func (c *CentroidalMomentumCalculator) buildTree(parent *iterativeStep, options calculatorOptions) error {
	for _, joint := range parent.body.ChildJoints() {
		if joint.IsLoopClosure() {
			c.logger.Debugw("skipping loop-closure joint; its matrix columns stay zero", "joint", joint.Name())
			continue
		}
		successor := joint.Successor()
		if successor == nil {
			continue
		}
		if c.input.IsIgnored(joint) {
			if options.foldIgnoredSubtreeInertia {
				if err := c.foldSubtreeInertia(parent, successor); err != nil {
					return err
				}
			}
			continue
		}
		jointIndices, err := c.input.IndexProvider().JointDoFIndices(joint)
		if err != nil {
			return errors.Wrap(err, "system view is inconsistent with its index provider")
		}
		step := &iterativeStep{
			body:         successor,
			inertia:      successor.Inertia().Clone(),
			jointIndices: jointIndices,
		}
		if dof := joint.DoF(); dof > 0 {
			step.block = mat.NewDense(6, dof, nil)
		}
		parent.children = append(parent.children, step)
		c.steps = append(c.steps, step)
		if err := c.buildTree(step, options); err != nil {
			return err
		}
	}
	return nil
}

// foldSubtreeInertia adds the inertia of every body in the ignored subtree rooted
// at subtreeRoot into the parent step, re-expressed in the parent's inertia frame
// at the current (and, for an ignored joint, permanent) configuration.
func (c *CentroidalMomentumCalculator) foldSubtreeInertia(parent *iterativeStep, subtreeRoot *multibody.RigidBody) error {
	if parent.inertia == nil {
		// Folding into the root: the mass can never move, so it only matters as a
		// place to accumulate.
		rootFrame := parent.body.BodyFrame()
		parent.inertia = spatial.NewZeroSpatialInertia(rootFrame, rootFrame)
	}
	for _, body := range subtreeRoot.SubtreeBodies() {
		folded := body.Inertia().Clone()
		if err := folded.ChangeFrame(parent.inertia.ExpressedInFrame()); err != nil {
			return err
		}
		// The ignored subtree is rigid relative to its support for the life of
		// this calculator, so rebinding its inertia to the support body is sound.
		folded.SetBodyFrame(parent.inertia.BodyFrame())
		if err := parent.inertia.Add(folded); err != nil {
			return err
		}
		c.logger.Debugw("folded ignored body inertia", "body", body.Name(), "into", parent.body.Name())
	}
	return nil
}

// Reset invalidates all cached values. Call it after any joint velocity change,
// frame update, or other external state change.
func (c *CentroidalMomentumCalculator) Reset() {
	c.matrixUpToDate = false
	c.velocitiesUpToDate = false
	c.momentumUpToDate = false
	c.totalMassUpToDate = false
	c.comVelocityUpToDate = false
}

// Input returns the system view this calculator was built from.
func (c *CentroidalMomentumCalculator) Input() *multibody.System {
	return c.input
}

// MatrixFrame returns the frame the matrix and momentum are expressed in.
func (c *CentroidalMomentumCalculator) MatrixFrame() *referenceframe.Frame {
	return c.matrixFrame
}

// CentroidalMomentumMatrix returns the 6xN centroidal momentum matrix, or nil for
// a system with no considered degrees of freedom. The returned matrix is the
// calculator's own and is valid until the next Reset; callers must not modify it.
func (c *CentroidalMomentumCalculator) CentroidalMomentumMatrix() (*mat.Dense, error) {
	if err := c.updateMatrix(); err != nil {
		return nil, err
	}
	return c.matrix, nil
}

func (c *CentroidalMomentumCalculator) updateMatrix() error {
	if c.matrixUpToDate {
		return nil
	}
	if err := c.passOne(); err != nil {
		return err
	}
	if err := c.passTwo(); err != nil {
		return err
	}
	c.matrixUpToDate = true
	return nil
}

// passOne caches, for every non-root step, the transform from the matrix frame to
// the step's inertia frame. Each step is independent; only current frame state is
// read.
func (c *CentroidalMomentumCalculator) passOne() error {
	for _, step := range c.steps {
		if step.isRoot() {
			continue
		}
		tf, err := c.matrixFrame.TransformTo(step.inertia.ExpressedInFrame())
		if err != nil {
			return err
		}
		step.matrixToBody = tf
		step.bodyToMatrix = tf.Invert()
	}
	return nil
}

// passTwo computes one matrix column per considered degree of freedom: the
// joint's unit-twist is brought into the matrix frame, and the momentum it would
// generate is accumulated over the step and all its descendants. Summing per-body
// momenta under the shared twist is algebraically the same as applying the twist
// to the summed subtree inertia, but only requires re-expressing the twist per
// body instead of every inertia tensor per query.
func (c *CentroidalMomentumCalculator) passTwo() error {
	for _, step := range c.steps {
		if step.isRoot() || step.block == nil {
			continue
		}
		joint := step.body.ParentJoint()
		unitTwists := joint.UnitTwists()
		for dofIndex := range unitTwists {
			c.unitMomentum.SetToZero(c.input.RootBody().BodyFrame(), c.matrixFrame)
			c.jointUnitTwist.SetIncludingFrames(unitTwists[dofIndex])
			if err := c.jointUnitTwist.ChangeFrame(c.matrixFrame); err != nil {
				return err
			}
			if err := c.addToUnitMomentumRecursively(step, c.jointUnitTwist, c.unitMomentum); err != nil {
				return err
			}
			angular := c.unitMomentum.AngularPart()
			linear := c.unitMomentum.LinearPart()
			step.block.Set(0, dofIndex, angular.X)
			step.block.Set(1, dofIndex, angular.Y)
			step.block.Set(2, dofIndex, angular.Z)
			step.block.Set(3, dofIndex, linear.X)
			step.block.Set(4, dofIndex, linear.Y)
			step.block.Set(5, dofIndex, linear.Z)
		}
		for dofIndex, column := range step.jointIndices {
			for row := 0; row < 6; row++ {
				c.matrix.Set(row, column, step.block.At(row, dofIndex))
			}
		}
	}
	return nil
}

// addToUnitMomentumRecursively accumulates, over step and its whole subtree, the
// momentum each body would generate when subjected to the ancestor unit-twist.
func (c *CentroidalMomentumCalculator) addToUnitMomentumRecursively(
	step *iterativeStep,
	ancestorUnitTwist *spatial.Twist,
	accumulator *spatial.Momentum,
) error {
	inertia := step.inertia

	c.intermediateTwist.SetIncludingFrames(ancestorUnitTwist)
	c.intermediateTwist.ApplyTransform(step.matrixToBody)
	c.intermediateTwist.SetExpressedInFrame(inertia.ExpressedInFrame())
	// The twist field of the ancestor joint extends rigidly over the subtree, so
	// rebinding it to this step's body is sound.
	c.intermediateTwist.SetBodyFrame(inertia.BodyFrame())

	if err := c.intermediateMomentum.Compute(inertia, c.intermediateTwist); err != nil {
		return err
	}
	c.intermediateMomentum.ApplyTransform(step.bodyToMatrix)
	c.intermediateMomentum.SetExpressedInFrame(c.matrixFrame)
	c.intermediateMomentum.SetBodyFrame(accumulator.BodyFrame())
	if err := accumulator.Add(c.intermediateMomentum); err != nil {
		return err
	}

	for _, child := range step.children {
		if err := c.addToUnitMomentumRecursively(child, ancestorUnitTwist, accumulator); err != nil {
			return err
		}
	}
	return nil
}

func (c *CentroidalMomentumCalculator) updateJointVelocities() error {
	if c.velocitiesUpToDate || c.jointVelocities == nil {
		c.velocitiesUpToDate = true
		return nil
	}
	if err := c.input.ExtractJointVelocities(c.jointVelocities); err != nil {
		return err
	}
	c.velocitiesUpToDate = true
	return nil
}

// Momentum returns the total momentum of the system at its current joint
// velocities, expressed in the matrix frame. The returned momentum is the
// calculator's own and is valid until the next Reset; callers must copy to keep it.
func (c *CentroidalMomentumCalculator) Momentum() (*spatial.Momentum, error) {
	if c.momentumUpToDate {
		return c.momentum, nil
	}
	if err := c.updateMatrix(); err != nil {
		return nil, err
	}
	if err := c.updateJointVelocities(); err != nil {
		return nil, err
	}
	c.momentum.SetToZero(c.input.RootBody().BodyFrame(), c.matrixFrame)
	if c.matrix != nil {
		c.momentumScratch.MulVec(c.matrix, c.jointVelocities)
		c.momentum.SetAngularPart(r3.Vector{
			X: c.momentumScratch.AtVec(0), Y: c.momentumScratch.AtVec(1), Z: c.momentumScratch.AtVec(2),
		})
		c.momentum.SetLinearPart(r3.Vector{
			X: c.momentumScratch.AtVec(3), Y: c.momentumScratch.AtVec(4), Z: c.momentumScratch.AtVec(5),
		})
	}
	c.momentumUpToDate = true
	return c.momentum, nil
}

// MomentumFromVelocities computes the momentum for a caller-supplied velocity
// vector laid out per the system's index provider, without touching the cached
// velocity or momentum state. The returned momentum is freshly allocated.
func (c *CentroidalMomentumCalculator) MomentumFromVelocities(jointVelocities *mat.VecDense) (*spatial.Momentum, error) {
	if jointVelocities.Len() != c.input.TotalDoF() {
		return nil, errors.Errorf("velocity vector has %d entries, system has %d degrees of freedom",
			jointVelocities.Len(), c.input.TotalDoF())
	}
	result := spatial.NewZeroMomentum(c.input.RootBody().BodyFrame(), c.matrixFrame)
	if c.matrix == nil {
		return result, nil
	}
	if err := c.updateMatrix(); err != nil {
		return nil, err
	}
	scratch := mat.NewVecDense(6, nil)
	scratch.MulVec(c.matrix, jointVelocities)
	result.SetAngularPart(r3.Vector{X: scratch.AtVec(0), Y: scratch.AtVec(1), Z: scratch.AtVec(2)})
	result.SetLinearPart(r3.Vector{X: scratch.AtVec(3), Y: scratch.AtVec(4), Z: scratch.AtVec(5)})
	return result, nil
}

// TotalMass returns the mass of the system: the summed, possibly augmented,
// inertias of all computation nodes, which covers the considered joints'
// successor bodies plus any inertia the root itself carries.
func (c *CentroidalMomentumCalculator) TotalMass() float64 {
	if !c.totalMassUpToDate {
		c.totalMass = 0
		for _, step := range c.steps {
			if step.inertia == nil {
				continue
			}
			c.totalMass += step.inertia.Mass()
		}
		c.totalMassUpToDate = true
	}
	return c.totalMass
}

// CenterOfMassVelocity returns the velocity of the system's center of mass at the
// current joint velocities: the linear momentum divided by the total mass.
func (c *CentroidalMomentumCalculator) CenterOfMassVelocity() (r3.Vector, error) {
	if c.comVelocityUpToDate {
		return c.centerOfMassVelocity, nil
	}
	mass := c.TotalMass()
	if mass == 0 {
		return r3.Vector{}, errors.New("system has no mass; center of mass velocity is undefined")
	}
	momentum, err := c.Momentum()
	if err != nil {
		return r3.Vector{}, err
	}
	c.centerOfMassVelocity = momentum.LinearPart().Mul(1 / mass)
	c.comVelocityUpToDate = true
	return c.centerOfMassVelocity, nil
}

// CenterOfMassVelocityFromVelocities computes the center of mass velocity for a
// caller-supplied velocity vector without touching cached state.
func (c *CentroidalMomentumCalculator) CenterOfMassVelocityFromVelocities(jointVelocities *mat.VecDense) (r3.Vector, error) {
	mass := c.TotalMass()
	if mass == 0 {
		return r3.Vector{}, errors.New("system has no mass; center of mass velocity is undefined")
	}
	momentum, err := c.MomentumFromVelocities(jointVelocities)
	if err != nil {
		return r3.Vector{}, err
	}
	return momentum.LinearPart().Mul(1 / mass), nil
}
