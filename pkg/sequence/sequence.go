package sequence

import (
	"fmt"
	"math"
	"sort"
)

// CommandSequence is an ordered list of commands executed back to back.
// Command i is active on the half-open interval [StartTime(i), EndTime(i)).
//
// A sequence is built with Append before execution starts and is read-only
// afterwards; concurrent reads are safe as long as nothing appends.
type CommandSequence struct {
	commands []Command
	ends     []float64 // ends[i] = EndTime(i)
}

// New creates a sequence from the given commands, validating each one.
func New(commands ...Command) (*CommandSequence, error) {
	s := &CommandSequence{}
	for _, c := range commands {
		if err := s.Append(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Append adds a command to the end of the sequence. An invalid command is
// rejected with ErrInvalidArgument and the sequence is left unchanged.
func (s *CommandSequence) Append(c Command) error {
	if err := c.validate(); err != nil {
		return err
	}
	s.commands = append(s.commands, c)
	s.ends = append(s.ends, s.TotalDuration()+c.duration)
	return nil
}

// Len returns the number of commands.
func (s *CommandSequence) Len() int {
	return len(s.commands)
}

// At returns the command at index i.
func (s *CommandSequence) At(i int) (Command, error) {
	if err := s.checkIndex(i); err != nil {
		return Command{}, err
	}
	return s.commands[i], nil
}

// Commands returns a copy of the commands in execution order.
func (s *CommandSequence) Commands() []Command {
	out := make([]Command, len(s.commands))
	copy(out, s.commands)
	return out
}

// Clone returns an independent copy of the sequence.
func (s *CommandSequence) Clone() *CommandSequence {
	return &CommandSequence{
		commands: s.Commands(),
		ends:     append([]float64(nil), s.ends...),
	}
}

// TotalDuration returns the end time of the last command, or 0 when empty.
func (s *CommandSequence) TotalDuration() float64 {
	if len(s.ends) == 0 {
		return 0
	}
	return s.ends[len(s.ends)-1]
}

// StartTime returns the sum of the durations of the commands before i.
func (s *CommandSequence) StartTime(i int) (float64, error) {
	if err := s.checkIndex(i); err != nil {
		return 0, err
	}
	return s.start(i), nil
}

// EndTime returns StartTime(i) + Duration of command i.
func (s *CommandSequence) EndTime(i int) (float64, error) {
	if err := s.checkIndex(i); err != nil {
		return 0, err
	}
	return s.ends[i], nil
}

// CommandAtTime returns the index of the command active at time t. Boundaries
// belong to the later command. Times at or past TotalDuration resolve to the
// last command and negative times resolve to the first.
func (s *CommandSequence) CommandAtTime(t float64) (int, error) {
	if len(s.commands) == 0 {
		return 0, ErrEmptySequence
	}
	t, err := ClampTime(t)
	if err != nil {
		return 0, err
	}
	i := sort.Search(len(s.ends), func(i int) bool { return s.ends[i] > t })
	if i == len(s.ends) {
		i = len(s.ends) - 1
	}
	return i, nil
}

// LocalTime returns the time elapsed within command i at sequence time t,
// clamped to [0, Duration(i)].
func (s *CommandSequence) LocalTime(t float64, i int) (float64, error) {
	if err := s.checkIndex(i); err != nil {
		return 0, err
	}
	t, err := ClampTime(t)
	if err != nil {
		return 0, err
	}
	local := t - s.start(i)
	if local < 0 {
		return 0, nil
	}
	if d := s.commands[i].duration; local > d {
		return d, nil
	}
	return local, nil
}

// Current returns the command active at time t.
func (s *CommandSequence) Current(t float64) (Command, error) {
	i, err := s.CommandAtTime(t)
	if err != nil {
		return Command{}, err
	}
	return s.commands[i], nil
}

// TargetPose returns the target pose of the command active at time t.
func (s *CommandSequence) TargetPose(t float64) (Pose, error) {
	c, err := s.Current(t)
	if err != nil {
		return Pose{}, err
	}
	return c.targetPose, nil
}

// GripperClosed reports the gripper state of the command active at time t.
func (s *CommandSequence) GripperClosed(t float64) (bool, error) {
	c, err := s.Current(t)
	if err != nil {
		return false, err
	}
	return c.gripperClosed, nil
}

func (s *CommandSequence) start(i int) float64 {
	if i == 0 {
		return 0
	}
	return s.ends[i-1]
}

func (s *CommandSequence) checkIndex(i int) error {
	if len(s.commands) == 0 {
		return ErrEmptySequence
	}
	if i < 0 || i >= len(s.commands) {
		return fmt.Errorf("index %d out of range [0, %d): %w", i, len(s.commands), ErrInvalidArgument)
	}
	return nil
}

// ClampTime maps negative times to 0 and rejects NaN or infinite times with
// ErrInvalidTime.
func ClampTime(t float64) (float64, error) {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return 0, fmt.Errorf("time %v: %w", t, ErrInvalidTime)
	}
	if t < 0 {
		return 0, nil
	}
	return t, nil
}
