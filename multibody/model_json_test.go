package multibody

import (
	"math"
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

const twoLinkArmJSON = `{
	"name": "two_link_arm",
	"links": [
		{"id": "base", "parent": "world"},
		{
			"id": "upper", "parent": "shoulder",
			"mass": 2.0,
			"center_of_mass": {"x": 0.5},
			"inertia": {"ixx": 0.01, "iyy": 0.2, "izz": 0.2},
			"translation": {"x": 1}
		},
		{
			"id": "lower", "parent": "elbow",
			"mass": 1.0,
			"center_of_mass": {"x": 0.5},
			"inertia": {"ixx": 0.005, "iyy": 0.1, "izz": 0.1},
			"translation": {"x": 1}
		}
	],
	"joints": [
		{"id": "shoulder", "type": "revolute", "parent": "base", "axis": {"z": 1}},
		{"id": "elbow", "type": "revolute", "parent": "upper", "axis": {"z": 1}}
	]
}`

func TestParseTwoLinkArm(t *testing.T) {
	logger := golog.NewTestLogger(t)
	root, err := UnmarshalModelJSON([]byte(twoLinkArmJSON), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, root.Name(), test.ShouldEqual, "base")
	test.That(t, root.IsRoot(), test.ShouldBeTrue)

	joints := Joints(NewJointIterator[Joint](nil, root.ChildJoints()...))
	test.That(t, jointNames(joints), test.ShouldResemble, []string{"shoulder", "elbow"})
	bodies := Bodies(NewBodyIterator(nil, root))
	test.That(t, bodyNames(bodies), test.ShouldResemble, []string{"base", "upper", "lower"})

	upper := joints[0].Successor()
	test.That(t, upper.Inertia().Mass(), test.ShouldEqual, 2.0)
	test.That(t, upper.Inertia().CenterOfMassOffset(), test.ShouldResemble, r3.Vector{X: 0.5})
	test.That(t, upper.Inertia().RotationalInertia().At(1, 1), test.ShouldEqual, 0.2)

	// frames are refreshed at the zero configuration during parsing
	tip := joints[1].Successor().BodyFrame().TransformToRoot().TransformPoint(r3.Vector{})
	test.That(t, tip.X, test.ShouldAlmostEqual, 2)

	// and the parsed tree moves like a hand-built one
	test.That(t, joints[0].SetConfiguration([]float64{math.Pi / 2}), test.ShouldBeNil)
	root.UpdateFramesRecursively()
	tip = joints[1].Successor().BodyFrame().TransformToRoot().TransformPoint(r3.Vector{})
	test.That(t, tip.X, test.ShouldAlmostEqual, 0)
	test.That(t, tip.Y, test.ShouldAlmostEqual, 2)
}

func TestParseJointOrientation(t *testing.T) {
	logger := golog.NewTestLogger(t)
	modelJSON := `{
		"links": [
			{"id": "base"},
			{"id": "arm", "parent": "pivot", "mass": 1, "translation": {"x": 1}}
		],
		"joints": [
			{
				"id": "pivot", "type": "revolute", "parent": "base",
				"axis": {"z": 1},
				"translation": {"z": 0.5},
				"orientation": {"y": 1, "th": 1.5707963267948966}
			}
		]
	}`
	root, err := UnmarshalModelJSON([]byte(modelJSON), logger)
	test.That(t, err, test.ShouldBeNil)

	// the joint frame is rotated 90 degrees about y, so the link's x offset
	// points down world z from the joint origin at (0,0,0.5)
	arm := root.ChildJoints()[0].Successor()
	origin := arm.BodyFrame().TransformToRoot().TransformPoint(r3.Vector{})
	test.That(t, origin.X, test.ShouldAlmostEqual, 0)
	test.That(t, origin.Y, test.ShouldAlmostEqual, 0)
	test.That(t, origin.Z, test.ShouldAlmostEqual, -0.5)
}

func TestParseLoopClosure(t *testing.T) {
	logger := golog.NewTestLogger(t)
	modelJSON := `{
		"links": [
			{"id": "base"},
			{"id": "left", "parent": "j_left", "mass": 1, "translation": {"y": 1}},
			{"id": "right", "parent": "j_right", "mass": 1, "translation": {"y": 1}}
		],
		"joints": [
			{"id": "j_left", "type": "revolute", "parent": "base", "axis": {"z": 1}},
			{"id": "j_right", "type": "revolute", "parent": "base", "axis": {"z": 1}, "translation": {"x": 1}},
			{"id": "j_close", "type": "revolute", "parent": "left", "axis": {"z": 1}, "closes_loop_to": "right"}
		]
	}`
	root, err := UnmarshalModelJSON([]byte(modelJSON), logger)
	test.That(t, err, test.ShouldBeNil)

	joints := Joints(NewJointIterator[Joint](nil, root.ChildJoints()...))
	var closing Joint
	for _, joint := range joints {
		if joint.Name() == "j_close" {
			closing = joint
		}
	}
	test.That(t, closing, test.ShouldNotBeNil)
	test.That(t, closing.IsLoopClosure(), test.ShouldBeTrue)
	test.That(t, closing.Successor().Name(), test.ShouldEqual, "right")
}

func TestParseValidationErrors(t *testing.T) {
	logger := golog.NewTestLogger(t)

	for _, tc := range []struct {
		name      string
		modelJSON string
		errText   string
	}{
		{
			"duplicate link ids",
			`{"links": [{"id": "base"}, {"id": "a", "parent": "j"}, {"id": "a", "parent": "k"}],
			  "joints": [{"id": "j", "type": "fixed", "parent": "base"}, {"id": "k", "type": "fixed", "parent": "base"}]}`,
			"duplicate link id",
		},
		{
			"no root link",
			`{"links": [{"id": "a", "parent": "j"}], "joints": [{"id": "j", "type": "fixed", "parent": "a"}]}`,
			"no root link",
		},
		{
			"two root links",
			`{"links": [{"id": "a"}, {"id": "b", "parent": "world"}], "joints": []}`,
			"more than one root",
		},
		{
			"joint without link",
			`{"links": [{"id": "base"}], "joints": [{"id": "j", "type": "fixed", "parent": "base"}]}`,
			"no link attached",
		},
		{
			"unsupported joint type",
			`{"links": [{"id": "base"}, {"id": "a", "parent": "j"}],
			  "joints": [{"id": "j", "type": "spherical", "parent": "base"}]}`,
			"unsupported type",
		},
		{
			"link with unknown parent joint",
			`{"links": [{"id": "base"}, {"id": "a", "parent": "nope"}], "joints": []}`,
			"unknown parent joint",
		},
		{
			"joint with unreachable parent link",
			`{"links": [{"id": "base"}], "joints": [{"id": "j", "type": "fixed", "parent": "nope"}]}`,
			"unreachable parent link",
		},
		{
			"loop closure to unknown link",
			`{"links": [{"id": "base"}],
			  "joints": [{"id": "j", "type": "fixed", "parent": "base", "closes_loop_to": "nope"}]}`,
			"unknown link",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := UnmarshalModelJSON([]byte(tc.modelJSON), logger)
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, tc.errText)
		})
	}

	_, err := UnmarshalModelJSON([]byte("{not json"), logger)
	test.That(t, err, test.ShouldNotBeNil)
}
