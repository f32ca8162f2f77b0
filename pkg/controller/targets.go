package controller

import "fmt"

// EndEffectorTarget tells the station how to interpret the end-effector
// command.
type EndEffectorTarget int

const (
	TargetPose EndEffectorTarget = iota
	TargetTwist
	TargetWrench
)

func (t EndEffectorTarget) String() string {
	switch t {
	case TargetPose:
		return "pose"
	case TargetTwist:
		return "twist"
	case TargetWrench:
		return "wrench"
	}
	return fmt.Sprintf("EndEffectorTarget(%d)", int(t))
}

// GripperTarget tells the station how to interpret the gripper command.
type GripperTarget int

const (
	GripperPosition GripperTarget = iota
	GripperVelocity
)

func (t GripperTarget) String() string {
	switch t {
	case GripperPosition:
		return "position"
	case GripperVelocity:
		return "velocity"
	}
	return fmt.Sprintf("GripperTarget(%d)", int(t))
}

// Interpolation selects how the pose command moves between waypoints.
type Interpolation int

const (
	// Step holds each command's target for its whole duration.
	Step Interpolation = iota
	// Linear blends from the previous target to the current one over the
	// command's duration. The first command holds its own target.
	Linear
)

func (i Interpolation) String() string {
	switch i {
	case Step:
		return "step"
	case Linear:
		return "linear"
	}
	return fmt.Sprintf("Interpolation(%d)", int(i))
}

// ParseInterpolation maps "step" or "linear" to an interpolation policy.
func ParseInterpolation(s string) (Interpolation, error) {
	switch s {
	case "step":
		return Step, nil
	case "linear":
		return Linear, nil
	}
	return 0, fmt.Errorf("unknown interpolation %q", s)
}
