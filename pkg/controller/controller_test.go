package controller

import (
	"errors"
	"math"
	"testing"

	"github.com/gwillem/armseq/pkg/sequence"
)

var (
	poseA = sequence.Pose{0.5 * math.Pi, 0, 0.5 * math.Pi, 0.68, 0, 0.1}
	poseB = sequence.Pose{0.5 * math.Pi, 0, 0.5 * math.Pi, 0.5, 0, 0.5}
)

func scenario(t *testing.T) *sequence.CommandSequence {
	t.Helper()
	s, err := sequence.New(
		sequence.MustCommand("pregrasp", poseA, 4, false),
		sequence.MustCommand("grasp", poseA, 1, true),
		sequence.MustCommand("lift", poseB, 2, true),
	)
	if err != nil {
		t.Fatalf("sequence.New: %v", err)
	}
	return s
}

func newController(t *testing.T, s *sequence.CommandSequence, cfg Config) *Controller {
	t.Helper()
	c, err := New(s, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func evaluate(t *testing.T, c *Controller, tm float64) Output {
	t.Helper()
	out, err := c.Evaluate(tm)
	if err != nil {
		t.Fatalf("Evaluate(%v): %v", tm, err)
	}
	return out
}

func posesClose(a, b sequence.Pose) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-9 {
			return false
		}
	}
	return true
}

func TestNew_EmptySequence(t *testing.T) {
	if _, err := New(&sequence.CommandSequence{}, DefaultConfig()); !errors.Is(err, sequence.ErrEmptySequence) {
		t.Errorf("New(empty) error = %v, want ErrEmptySequence", err)
	}
	if _, err := New(nil, DefaultConfig()); !errors.Is(err, sequence.ErrEmptySequence) {
		t.Errorf("New(nil) error = %v, want ErrEmptySequence", err)
	}
}

func TestEvaluate_Scenario(t *testing.T) {
	c := newController(t, scenario(t), DefaultConfig())

	tests := []struct {
		t        float64
		index    int
		pose     sequence.Pose
		gripper  float64
		terminal bool
	}{
		{0, 0, poseA, 0, false},
		{3.999, 0, poseA, 0, false},
		{4.0, 1, poseA, 1, false},
		{5.0, 2, poseB, 1, false},
		{7.0, 2, poseB, 1, true},
		{100, 2, poseB, 1, true},
	}

	for _, tt := range tests {
		out := evaluate(t, c, tt.t)
		if out.Index != tt.index {
			t.Errorf("t=%v: Index = %d, want %d", tt.t, out.Index, tt.index)
		}
		if out.PoseCommand != tt.pose {
			t.Errorf("t=%v: PoseCommand = %v, want %v", tt.t, out.PoseCommand, tt.pose)
		}
		if out.GripperCommand != tt.gripper {
			t.Errorf("t=%v: GripperCommand = %v, want %v", tt.t, out.GripperCommand, tt.gripper)
		}
		if out.Terminal != tt.terminal {
			t.Errorf("t=%v: Terminal = %v, want %v", tt.t, out.Terminal, tt.terminal)
		}
		if out.PoseCommandType != TargetPose || out.GripperCommandType != GripperPosition {
			t.Errorf("t=%v: command types = %v/%v, want pose/position", tt.t, out.PoseCommandType, out.GripperCommandType)
		}
	}

	if got := c.State(); got != stateTerminal {
		t.Errorf("State() = %q after terminal hold, want %q", got, stateTerminal)
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	c := newController(t, scenario(t), DefaultConfig())
	for _, tm := range []float64{0, 2, 4, 4.5, 6.9, 7, 12} {
		first := evaluate(t, c, tm)
		second := evaluate(t, c, tm)
		if first != second {
			t.Errorf("t=%v: outputs differ: %+v vs %+v", tm, first, second)
		}
	}
}

func TestEvaluate_TerminalHold(t *testing.T) {
	c := newController(t, scenario(t), Config{ClosedPosition: 0.8, Interpolation: Linear})
	ref := evaluate(t, c, 7)
	for _, tm := range []float64{7.0001, 8, 1e3, 1e9} {
		out := evaluate(t, c, tm)
		out.LocalTime = ref.LocalTime
		if out != ref {
			t.Errorf("t=%v: output %+v differs from terminal output %+v", tm, out, ref)
		}
	}
	if ref.PoseCommand != poseB || ref.GripperCommand != 0.8 {
		t.Errorf("terminal output = %v / %v, want %v / 0.8", ref.PoseCommand, ref.GripperCommand, poseB)
	}
}

func TestEvaluate_MonotonicAdvance(t *testing.T) {
	c := newController(t, sequence.PegPickup(), DefaultConfig())
	prev := -1
	for tm := 0.0; tm < 12; tm += 0.05 {
		out := evaluate(t, c, tm)
		if out.Index < prev {
			t.Fatalf("t=%v: index went back from %d to %d", tm, prev, out.Index)
		}
		prev = out.Index
	}
	if prev != 3 {
		t.Errorf("final index = %d, want 3", prev)
	}
}

func TestEvaluate_SingleCommand(t *testing.T) {
	s, _ := sequence.New(sequence.MustCommand("only", poseB, 2, true))
	c := newController(t, s, DefaultConfig())

	for _, tm := range []float64{0, 1.999, 2, 50} {
		out := evaluate(t, c, tm)
		if out.Index != 0 || out.PoseCommand != poseB || out.GripperCommand != 1 {
			t.Errorf("t=%v: got %+v", tm, out)
		}
		if want := tm >= 2; out.Terminal != want {
			t.Errorf("t=%v: Terminal = %v, want %v", tm, out.Terminal, want)
		}
	}
}

func TestEvaluate_TimeEdgeCases(t *testing.T) {
	c := newController(t, scenario(t), DefaultConfig())

	out := evaluate(t, c, -1)
	if out.Index != 0 || out.LocalTime != 0 {
		t.Errorf("Evaluate(-1) = index %d local %v, want clamp to 0", out.Index, out.LocalTime)
	}

	if _, err := c.Evaluate(math.NaN()); !errors.Is(err, sequence.ErrInvalidTime) {
		t.Errorf("Evaluate(NaN) error = %v, want ErrInvalidTime", err)
	}
}

func TestEvaluate_IgnoresLaterAppends(t *testing.T) {
	s := scenario(t)
	c := newController(t, s, DefaultConfig())
	if err := s.Append(sequence.MustCommand("extra", poseA, 3, false)); err != nil {
		t.Fatal(err)
	}
	if out := evaluate(t, c, 8); !out.Terminal || out.Name != "lift" {
		t.Errorf("Evaluate(8) = %s terminal=%v, want lift terminal", out.Name, out.Terminal)
	}
}

func TestEvaluate_OutputDoesNotDependOnHint(t *testing.T) {
	c := newController(t, scenario(t), DefaultConfig())
	fresh := newController(t, scenario(t), DefaultConfig())

	evaluate(t, c, 100)
	for _, tm := range []float64{0.5, 4.2, 6} {
		got := evaluate(t, c, tm)
		want := evaluate(t, fresh, tm)
		if got != want {
			t.Errorf("t=%v: %+v after terminal hint, want %+v", tm, got, want)
		}
	}

	c.Reset()
	if got := c.State(); got != commandState(0) {
		t.Errorf("State() after Reset = %q, want %q", got, commandState(0))
	}
}

func TestEvaluate_LinearInterpolation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Interpolation = Linear
	c := newController(t, scenario(t), cfg)

	// First command holds its own target.
	if out := evaluate(t, c, 0); out.PoseCommand != poseA {
		t.Errorf("t=0: %v, want %v", out.PoseCommand, poseA)
	}
	if out := evaluate(t, c, 2); out.PoseCommand != poseA {
		t.Errorf("t=2: %v, want %v", out.PoseCommand, poseA)
	}

	// Halfway through lift.
	mid := evaluate(t, c, 6)
	if want := poseA.Lerp(poseB, 0.5); !posesClose(mid.PoseCommand, want) {
		t.Errorf("t=6: %v, want %v", mid.PoseCommand, want)
	}

	// Every end_time(i) outputs target(i) exactly.
	tests := []struct {
		t    float64
		want sequence.Pose
	}{
		{4, poseA}, // end of pregrasp
		{5, poseA}, // end of grasp
		{7, poseB}, // end of lift
	}
	for _, tt := range tests {
		if out := evaluate(t, c, tt.t); out.PoseCommand != tt.want {
			t.Errorf("t=%v: %v, want %v", tt.t, out.PoseCommand, tt.want)
		}
	}
}

func TestEvaluate_TwistLaw(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EndEffectorTarget = TargetTwist
	cfg.Kp = uniform(2)
	cfg.Kd = uniform(0.5)
	c := newController(t, scenario(t), cfg)

	fb := Feedback{
		Pose:  sequence.Pose{0.5 * math.Pi, 0, 0.5 * math.Pi, 0.6, 0, 0.1},
		Twist: sequence.Pose{0, 0, 0, 0.2, 0, 0},
	}
	c.SetFeedback(fb)
	out := evaluate(t, c, 1)

	want := sequence.Pose{0, 0, 0, 2*0.08 - 0.5*0.2, 0, 0}
	if !posesClose(out.PoseCommand, want) {
		t.Errorf("PoseCommand = %v, want %v", out.PoseCommand, want)
	}
	if out.PoseCommandType != TargetTwist {
		t.Errorf("PoseCommandType = %v, want twist", out.PoseCommandType)
	}
	if out.Measured != fb {
		t.Errorf("Measured = %+v, want %+v", out.Measured, fb)
	}
	if out.Index != 0 {
		t.Errorf("feedback changed scheduling: Index = %d", out.Index)
	}
}

func TestEvaluate_GateHoldsCommand(t *testing.T) {
	allow := false
	cfg := DefaultConfig()
	cfg.Gate = GateFunc(func(index int, _ sequence.Command, _ Feedback) bool {
		return allow || index != 0
	})
	c := newController(t, scenario(t), cfg)

	out := evaluate(t, c, 4.5)
	if out.Index != 0 || out.PoseCommand != poseA || out.GripperCommand != 0 {
		t.Errorf("held output = %+v, want pregrasp", out)
	}
	out = evaluate(t, c, 10)
	if out.Index != 0 || out.Terminal {
		t.Errorf("held output past total = %+v, want pregrasp, not terminal", out)
	}

	allow = true
	out = evaluate(t, c, 10)
	if out.Index != 2 || !out.Terminal || out.PoseCommand != poseB {
		t.Errorf("released output = %+v, want lift terminal", out)
	}
}

func TestToleranceGate(t *testing.T) {
	cmd := sequence.MustCommand("grasp", poseA, 1, true)
	g := ToleranceGate{Position: 0.01, MaxSpeed: 0.05}

	tests := []struct {
		name string
		fb   Feedback
		want bool
	}{
		{"at target", Feedback{Pose: poseA}, true},
		{"far", Feedback{Pose: poseB}, false},
		{"moving", Feedback{Pose: poseA, Twist: sequence.Pose{0, 0, 0, 0.1, 0, 0}}, false},
		{"rotating only", Feedback{Pose: poseA, Twist: sequence.Pose{1, 0, 0, 0, 0, 0}}, true},
		{"NaN twist", Feedback{Pose: poseA, Twist: sequence.Pose{0, 0, 0, math.NaN(), 0, 0}}, false},
		{"NaN pose", Feedback{Pose: sequence.Pose{0, 0, 0, math.NaN(), 0, 0}}, false},
		{"infinite twist", Feedback{Pose: poseA, Twist: sequence.Pose{0, 0, 0, math.Inf(1), 0, 0}}, false},
	}

	for _, tt := range tests {
		if got := g.CanAdvance(1, cmd, tt.fb); got != tt.want {
			t.Errorf("%s: CanAdvance = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestParseInterpolation(t *testing.T) {
	if i, err := ParseInterpolation("linear"); err != nil || i != Linear {
		t.Errorf("ParseInterpolation(linear) = %v, %v", i, err)
	}
	if _, err := ParseInterpolation("cubic"); err == nil {
		t.Error("ParseInterpolation(cubic) should fail")
	}
}
