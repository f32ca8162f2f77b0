package sequence

import (
	"errors"
	"fmt"
	"math"
)

// Errors returned by sequence construction and time queries.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrEmptySequence   = errors.New("empty command sequence")
	ErrInvalidTime     = errors.New("invalid time")
)

// Command is a single waypoint: reach TargetPose within Duration seconds
// while holding the gripper open or closed. Commands are immutable.
type Command struct {
	name          string
	targetPose    Pose
	duration      float64
	gripperClosed bool
}

// NewCommand creates a validated command. The duration must be positive and
// finite, and every pose component finite.
func NewCommand(name string, target Pose, duration float64, gripperClosed bool) (Command, error) {
	c := Command{
		name:          name,
		targetPose:    target,
		duration:      duration,
		gripperClosed: gripperClosed,
	}
	if err := c.validate(); err != nil {
		return Command{}, err
	}
	return c, nil
}

// MustCommand is like NewCommand but panics on invalid input.
func MustCommand(name string, target Pose, duration float64, gripperClosed bool) Command {
	c, err := NewCommand(name, target, duration, gripperClosed)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Command) validate() error {
	if math.IsNaN(c.duration) || math.IsInf(c.duration, 0) || c.duration <= 0 {
		return fmt.Errorf("command %q: duration %v must be positive: %w", c.name, c.duration, ErrInvalidArgument)
	}
	if !c.targetPose.Finite() {
		return fmt.Errorf("command %q: target pose has non-finite component: %w", c.name, ErrInvalidArgument)
	}
	return nil
}

// Name returns the diagnostic name of the command.
func (c Command) Name() string { return c.name }

// TargetPose returns the pose to reach by the end of the command.
func (c Command) TargetPose() Pose { return c.targetPose }

// Duration returns the time allotted to the command in seconds.
func (c Command) Duration() float64 { return c.duration }

// GripperClosed reports whether the gripper should be closed.
func (c Command) GripperClosed() bool { return c.gripperClosed }

func (c Command) String() string {
	state := "open"
	if c.gripperClosed {
		state = "closed"
	}
	return fmt.Sprintf("%s (%gs, gripper %s)", c.name, c.duration, state)
}
