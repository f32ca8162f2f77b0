// Package controller turns a command sequence into a time-indexed stream of
// end-effector and gripper commands.
package controller

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/gwillem/armseq/pkg/sequence"
)

// Feedback is the measured end-effector state reported by the station.
type Feedback struct {
	Pose  sequence.Pose
	Twist sequence.Pose
}

// AdvanceGate is consulted before the controller moves from command index to
// index+1. Returning false holds the current command's target until a later
// evaluation approves the transition.
type AdvanceGate interface {
	CanAdvance(index int, cmd sequence.Command, fb Feedback) bool
}

// GateFunc adapts a function to AdvanceGate.
type GateFunc func(index int, cmd sequence.Command, fb Feedback) bool

func (f GateFunc) CanAdvance(index int, cmd sequence.Command, fb Feedback) bool {
	return f(index, cmd, fb)
}

// Output is everything the station needs for one control tick.
type Output struct {
	PoseCommand        sequence.Pose
	PoseCommandType    EndEffectorTarget
	GripperCommand     float64
	GripperCommandType GripperTarget

	Index     int
	Name      string
	LocalTime float64
	Terminal  bool
	Measured  Feedback
}

// Config holds configuration for the controller.
type Config struct {
	EndEffectorTarget EndEffectorTarget
	Interpolation     Interpolation

	OpenPosition   float64 // gripper command while open
	ClosedPosition float64 // gripper command while closed

	// Per-axis gains for the twist and wrench laws. Zero means default.
	Kp sequence.Pose
	Kd sequence.Pose

	Gate   AdvanceGate // nil runs open loop
	Logger *zerolog.Logger
}

// DefaultConfig returns a pose-tracking, step-hold configuration.
func DefaultConfig() Config {
	return Config{
		EndEffectorTarget: TargetPose,
		Interpolation:     Step,
		OpenPosition:      0,
		ClosedPosition:    1,
		Kp:                uniform(10),
		Kd:                uniform(2 * math.Sqrt(10)),
	}
}

func uniform(v float64) sequence.Pose {
	return sequence.Pose{v, v, v, v, v, v}
}

// Controller is the command sequence controller. It is driven by calling
// Evaluate once per tick with the current sequence time and is not safe for
// concurrent use.
type Controller struct {
	seq      *sequence.CommandSequence
	cfg      Config
	logger   zerolog.Logger
	progress *progress
	feedback Feedback
}

// New creates a controller for a copy of seq. Later appends to seq are not
// seen by the controller.
func New(seq *sequence.CommandSequence, cfg Config) (*Controller, error) {
	if seq == nil || seq.Len() == 0 {
		return nil, sequence.ErrEmptySequence
	}
	if cfg.Kp == (sequence.Pose{}) {
		cfg.Kp = DefaultConfig().Kp
	}
	if cfg.Kd == (sequence.Pose{}) {
		cfg.Kd = DefaultConfig().Kd
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	seq = seq.Clone()
	names := make([]string, seq.Len())
	for i, c := range seq.Commands() {
		names[i] = c.Name()
	}

	return &Controller{
		seq:      seq,
		cfg:      cfg,
		logger:   logger,
		progress: newProgress(seq.Len(), names, logger),
	}, nil
}

// Sequence returns the controller's copy of the command sequence.
func (c *Controller) Sequence() *sequence.CommandSequence {
	return c.seq
}

// SetFeedback records the latest measured end-effector pose and twist.
// Scheduling never depends on it unless a gate is configured.
func (c *Controller) SetFeedback(fb Feedback) {
	c.feedback = fb
}

// State returns the progress state, e.g. "command-2" or "terminal".
func (c *Controller) State() string {
	return c.progress.fsm.Current()
}

// Reset returns the progress state to the first command.
func (c *Controller) Reset() {
	c.progress.reset()
}

// Evaluate computes the outputs at sequence time t. Negative times are
// treated as 0. An evaluation either returns all outputs or an error.
func (c *Controller) Evaluate(t float64) (Output, error) {
	t, err := sequence.ClampTime(t)
	if err != nil {
		return Output{}, err
	}
	target, err := c.seq.CommandAtTime(t)
	if err != nil {
		return Output{}, err
	}

	last := c.seq.Len() - 1
	index := target
	if c.cfg.Gate != nil {
		index, err = c.advanceGated(target)
	} else {
		err = c.advanceTo(target)
	}
	if err != nil {
		return Output{}, fmt.Errorf("advance to command %d: %w", target, err)
	}
	terminal := index == last && t >= c.seq.TotalDuration()
	if terminal && !c.progress.Terminal() {
		if err := c.progress.advance(); err != nil {
			return Output{}, fmt.Errorf("enter terminal hold: %w", err)
		}
	}

	cmd, err := c.seq.At(index)
	if err != nil {
		return Output{}, err
	}
	local, err := c.seq.LocalTime(t, index)
	if err != nil {
		return Output{}, err
	}

	desired := cmd.TargetPose()
	if c.cfg.Interpolation == Linear && index > 0 {
		prev, err := c.seq.At(index - 1)
		if err != nil {
			return Output{}, err
		}
		desired = prev.TargetPose().Lerp(desired, local/cmd.Duration())
	}

	gripper := c.cfg.OpenPosition
	if cmd.GripperClosed() {
		gripper = c.cfg.ClosedPosition
	}

	return Output{
		PoseCommand:        c.endEffectorCommand(desired),
		PoseCommandType:    c.cfg.EndEffectorTarget,
		GripperCommand:     gripper,
		GripperCommandType: GripperPosition,
		Index:              index,
		Name:               cmd.Name(),
		LocalTime:          local,
		Terminal:           terminal,
		Measured:           c.feedback,
	}, nil
}

// advanceTo moves the progress hint forward to index. Earlier indices leave
// it untouched.
func (c *Controller) advanceTo(index int) error {
	for c.progress.Index() < index {
		if err := c.progress.advance(); err != nil {
			return err
		}
	}
	return nil
}

// advanceGated moves forward towards target one command at a time while the
// gate approves, and returns the command to output.
func (c *Controller) advanceGated(target int) (int, error) {
	for c.progress.Index() < target {
		i := c.progress.Index()
		cmd, err := c.seq.At(i)
		if err != nil {
			return i, err
		}
		if !c.cfg.Gate.CanAdvance(i, cmd, c.feedback) {
			c.logger.Debug().Int("index", i).Str("command", cmd.Name()).Msg("advance held by gate")
			return i, nil
		}
		if err := c.progress.advance(); err != nil {
			return i, err
		}
	}
	return min(c.progress.Index(), target), nil
}

func (c *Controller) endEffectorCommand(desired sequence.Pose) sequence.Pose {
	if c.cfg.EndEffectorTarget == TargetPose {
		return desired
	}
	// PD law towards the desired pose with zero desired twist.
	errPose := desired.Sub(c.feedback.Pose)
	var out sequence.Pose
	for i := range out {
		out[i] = c.cfg.Kp[i]*errPose[i] - c.cfg.Kd[i]*c.feedback.Twist[i]
	}
	return out
}
