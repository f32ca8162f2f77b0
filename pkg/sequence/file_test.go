package sequence

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestFile_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seq.json")

	if err := FileFor(PegPickup()).SaveTo(path); err != nil {
		t.Fatalf("SaveTo: %v", err)
	}
	if !Exists(path) {
		t.Fatalf("Exists(%s) = false after save", path)
	}

	s, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if s.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", s.Len())
	}
	if s.TotalDuration() != 9 {
		t.Errorf("TotalDuration() = %v, want 9", s.TotalDuration())
	}
	c, _ := s.At(1)
	if c.Name() != "grasp" || !c.GripperClosed() || c.Duration() != 1 {
		t.Errorf("At(1) = %v, want grasp (1s, gripper closed)", c)
	}
}

func TestLoadFrom_InvalidDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	data := `{"commands": [
		{"name": "ok", "target_pose": [0, 0, 0, 0.5, 0, 0.5], "duration": 1},
		{"name": "bad", "target_pose": [0, 0, 0, 0.5, 0, 0.5], "duration": 0}
	]}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFrom(path)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("LoadFrom error = %v, want ErrInvalidArgument", err)
	}
}

func TestLoadFrom_Missing(t *testing.T) {
	if _, err := LoadFrom(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("LoadFrom(missing) should fail")
	}
}
