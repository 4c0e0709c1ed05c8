package multibody

import (
	"encoding/json"
	"os"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/exp/maps"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/dynamics/spatialmath"
)

// ModelConfigJSON represents all supported fields in a robot description JSON file.
type ModelConfigJSON struct {
	Name   string        `json:"name"`
	Links  []LinkConfig  `json:"links"`
	Joints []JointConfig `json:"joints"`
}

// LinkConfig describes one rigid body. Parent names the joint the link hangs off;
// the link with an empty or "world" parent is the root.
type LinkConfig struct {
	ID           string            `json:"id"`
	Parent       string            `json:"parent"`
	Mass         float64           `json:"mass,omitempty"`
	CenterOfMass TranslationConfig `json:"center_of_mass,omitempty"`
	Inertia      InertiaConfig     `json:"inertia,omitempty"`
	Translation  TranslationConfig `json:"translation,omitempty"`
	Orientation  *AxisAngleConfig  `json:"orientation,omitempty"`
}

// JointConfig describes one joint. Parent names the predecessor link. A non-empty
// ClosesLoopTo names an already-placed link the joint closes a kinematic loop onto,
// instead of carrying a new link.
type JointConfig struct {
	ID           string            `json:"id"`
	Type         string            `json:"type"`
	Parent       string            `json:"parent"`
	Axis         TranslationConfig `json:"axis,omitempty"`
	Translation  TranslationConfig `json:"translation,omitempty"`
	Orientation  *AxisAngleConfig  `json:"orientation,omitempty"`
	ClosesLoopTo string            `json:"closes_loop_to,omitempty"`
}

// TranslationConfig is a 3D vector in a JSON model file.
type TranslationConfig struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// ParseConfig converts the vector to its r3 representation.
func (cfg *TranslationConfig) ParseConfig() r3.Vector {
	return r3.Vector{X: cfg.X, Y: cfg.Y, Z: cfg.Z}
}

// AxisAngleConfig is an orientation as a rotation axis and an angle in radians.
type AxisAngleConfig struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Theta float64 `json:"th"`
}

// InertiaConfig is the six independent components of a rotational inertia tensor
// about the center of mass.
type InertiaConfig struct {
	XX float64 `json:"ixx"`
	YY float64 `json:"iyy"`
	ZZ float64 `json:"izz"`
	XY float64 `json:"ixy,omitempty"`
	XZ float64 `json:"ixz,omitempty"`
	YZ float64 `json:"iyz,omitempty"`
}

// ParseConfig converts the components to a symmetric tensor.
func (cfg *InertiaConfig) ParseConfig() *mat.SymDense {
	moment := mat.NewSymDense(3, nil)
	moment.SetSym(0, 0, cfg.XX)
	moment.SetSym(1, 1, cfg.YY)
	moment.SetSym(2, 2, cfg.ZZ)
	moment.SetSym(0, 1, cfg.XY)
	moment.SetSym(0, 2, cfg.XZ)
	moment.SetSym(1, 2, cfg.YZ)
	return moment
}

func configTransform(translation TranslationConfig, orientation *AxisAngleConfig) *spatialmath.RigidTransform {
	if orientation == nil {
		return spatialmath.NewRigidTransformFromTranslation(translation.ParseConfig())
	}
	rotation := spatialmath.QuatFromAxisAngle(
		r3.Vector{X: orientation.X, Y: orientation.Y, Z: orientation.Z}, orientation.Theta)
	return spatialmath.NewRigidTransform(rotation, translation.ParseConfig())
}

// ParseModelJSONFile reads and parses a robot description from a file.
func ParseModelJSONFile(filename string, logger golog.Logger) (*RigidBody, error) {
	jsonData, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read json file")
	}
	return UnmarshalModelJSON(jsonData, logger)
}

// UnmarshalModelJSON parses the given JSON data into a kinematic tree and returns
// its root body.
func UnmarshalModelJSON(jsonData []byte, logger golog.Logger) (*RigidBody, error) {
	cfg := &ModelConfigJSON{}
	if err := json.Unmarshal(jsonData, cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal json file")
	}
	return cfg.ParseConfig(logger)
}

// ParseConfig builds the kinematic tree the config describes and returns its root
// body. All validation errors found up front are reported together.
func (cfg *ModelConfigJSON) ParseConfig(logger golog.Logger) (*RigidBody, error) {
	var rootLink *LinkConfig
	linksByParentJoint := map[string]*LinkConfig{}
	jointsByParentLink := map[string][]*JointConfig{}

	var validationErr error
	linkIDs := map[string]bool{}
	for i := range cfg.Links {
		link := &cfg.Links[i]
		if link.ID == "" {
			validationErr = multierr.Append(validationErr, errors.New("link is missing an id"))
			continue
		}
		if linkIDs[link.ID] {
			validationErr = multierr.Append(validationErr, errors.Errorf("duplicate link id %q", link.ID))
			continue
		}
		linkIDs[link.ID] = true
		if link.Parent == "" || link.Parent == "world" {
			if rootLink != nil {
				validationErr = multierr.Append(validationErr,
					errors.Errorf("more than one root link: %q and %q", rootLink.ID, link.ID))
				continue
			}
			rootLink = link
			continue
		}
		if prev, ok := linksByParentJoint[link.Parent]; ok {
			validationErr = multierr.Append(validationErr,
				errors.Errorf("links %q and %q share parent joint %q", prev.ID, link.ID, link.Parent))
			continue
		}
		linksByParentJoint[link.Parent] = link
	}
	for i := range cfg.Joints {
		joint := &cfg.Joints[i]
		if joint.ID == "" {
			validationErr = multierr.Append(validationErr, errors.New("joint is missing an id"))
			continue
		}
		jointsByParentLink[joint.Parent] = append(jointsByParentLink[joint.Parent], joint)
	}
	if rootLink == nil {
		validationErr = multierr.Append(validationErr, errors.New("no root link: exactly one link must have no parent or parent \"world\""))
	}
	if validationErr != nil {
		return nil, validationErr
	}

	if rootLink.Mass != 0 {
		logger.Warnw("root link mass is ignored; the root body carries no inertia", "link", rootLink.ID)
	}

	root := NewRootBody(rootLink.ID)
	bodiesByLink := map[string]*RigidBody{rootLink.ID: root}
	type loopClosure struct {
		joint Joint
		to    string
	}
	var loopClosures []loopClosure

	var buildSubtree func(body *RigidBody, linkID string) error
	buildSubtree = func(body *RigidBody, linkID string) error {
		childJoints := jointsByParentLink[linkID]
		delete(jointsByParentLink, linkID)
		for _, jointCfg := range childJoints {
			joint, err := jointCfg.parseJoint(body)
			if err != nil {
				return err
			}
			if jointCfg.ClosesLoopTo != "" {
				loopClosures = append(loopClosures, loopClosure{joint: joint, to: jointCfg.ClosesLoopTo})
				continue
			}
			linkCfg, ok := linksByParentJoint[jointCfg.ID]
			if !ok {
				return errors.Errorf("joint %q has no link attached and does not close a loop", jointCfg.ID)
			}
			delete(linksByParentJoint, jointCfg.ID)
			successor, err := NewRigidBody(
				linkCfg.ID,
				joint,
				configTransform(linkCfg.Translation, linkCfg.Orientation),
				linkCfg.Mass,
				linkCfg.CenterOfMass.ParseConfig(),
				linkCfg.Inertia.ParseConfig(),
			)
			if err != nil {
				return err
			}
			bodiesByLink[linkCfg.ID] = successor
			if err := buildSubtree(successor, linkCfg.ID); err != nil {
				return err
			}
		}
		return nil
	}
	if err := buildSubtree(root, rootLink.ID); err != nil {
		return nil, err
	}

	for _, closure := range loopClosures {
		target, ok := bodiesByLink[closure.to]
		if !ok {
			return nil, errors.Errorf("joint %q closes a loop to unknown link %q", closure.joint.Name(), closure.to)
		}
		if err := closure.joint.CloseLoop(target); err != nil {
			return nil, err
		}
	}

	if unattached := maps.Keys(linksByParentJoint); len(unattached) > 0 {
		return nil, errors.Errorf("links with unknown parent joints: %v", unattached)
	}
	if orphaned := maps.Keys(jointsByParentLink); len(orphaned) > 0 {
		return nil, errors.Errorf("joints with unreachable parent links: %v", orphaned)
	}

	root.UpdateFramesRecursively()
	return root, nil
}

func (cfg *JointConfig) parseJoint(predecessor *RigidBody) (Joint, error) {
	transform := configTransform(cfg.Translation, cfg.Orientation)
	switch cfg.Type {
	case "revolute":
		return NewRevoluteJoint(cfg.ID, predecessor, transform, cfg.Axis.ParseConfig())
	case "prismatic":
		return NewPrismaticJoint(cfg.ID, predecessor, transform, cfg.Axis.ParseConfig())
	case "fixed":
		return NewFixedJoint(cfg.ID, predecessor, transform)
	default:
		return nil, errors.Errorf("joint %q has unsupported type %q", cfg.ID, cfg.Type)
	}
}
