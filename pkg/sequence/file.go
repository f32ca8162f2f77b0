package sequence

import (
	"encoding/json"
	"fmt"
	"os"
)

const DefaultSequenceFile = "armseq.json"

// CommandSpec is the on-disk form of a command.
type CommandSpec struct {
	Name          string  `json:"name"`
	TargetPose    Pose    `json:"target_pose"`
	Duration      float64 `json:"duration"`
	GripperClosed bool    `json:"gripper_closed"`
}

// File holds a command sequence as stored in a JSON file
type File struct {
	Commands []CommandSpec `json:"commands"`
}

// Load reads a sequence from the default sequence file
func Load() (*CommandSequence, error) {
	return LoadFrom(DefaultSequenceFile)
}

// LoadFrom reads and validates a sequence from a specific file
func LoadFrom(path string) (*CommandSequence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sequence file: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sequence JSON: %w", err)
	}
	return f.Sequence()
}

// Sequence converts the file contents into a validated sequence.
func (f *File) Sequence() (*CommandSequence, error) {
	s := &CommandSequence{}
	for i, spec := range f.Commands {
		c, err := NewCommand(spec.Name, spec.TargetPose, spec.Duration, spec.GripperClosed)
		if err != nil {
			return nil, fmt.Errorf("command %d: %w", i, err)
		}
		if err := s.Append(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// FileFor converts a sequence into its on-disk form.
func FileFor(s *CommandSequence) *File {
	f := &File{Commands: make([]CommandSpec, 0, s.Len())}
	for _, c := range s.commands {
		f.Commands = append(f.Commands, CommandSpec{
			Name:          c.name,
			TargetPose:    c.targetPose,
			Duration:      c.duration,
			GripperClosed: c.gripperClosed,
		})
	}
	return f
}

// SaveTo writes the sequence to a specific file
func (f *File) SaveTo(path string) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Exists returns true if the given sequence file exists
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
