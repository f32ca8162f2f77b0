package runner

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/gwillem/armseq/pkg/controller"
	"github.com/gwillem/armseq/pkg/sequence"
)

// Station accepts end-effector and gripper commands and reports the measured
// end-effector state.
type Station interface {
	Measure(ctx context.Context) (controller.Feedback, error)
	Apply(ctx context.Context, out controller.Output) error
}

// Loopback is a Station that reflects pose commands back as measurements:
// every commanded pose is reported as reached on the next tick, and the
// measured twist is the finite difference between consecutive poses.
type Loopback struct {
	dt float64

	mu      sync.Mutex
	pose    sequence.Pose
	twist   sequence.Pose
	gripper float64
}

// defaultTimeStep matches the runner's default of 100 Hz.
const defaultTimeStep = 0.01

// NewLoopback creates a loopback station starting at the given pose. A
// non-positive or non-finite dt falls back to 0.01s.
func NewLoopback(start sequence.Pose, dt float64) *Loopback {
	if !(dt > 0) || math.IsInf(dt, 0) {
		dt = defaultTimeStep
	}
	return &Loopback{pose: start, dt: dt}
}

func (l *Loopback) Measure(ctx context.Context) (controller.Feedback, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return controller.Feedback{Pose: l.pose, Twist: l.twist}, nil
}

func (l *Loopback) Apply(ctx context.Context, out controller.Output) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Reject before touching any state so a bad command changes nothing.
	if out.PoseCommandType != controller.TargetPose {
		return fmt.Errorf("loopback station: unsupported command type %s", out.PoseCommandType)
	}
	if out.GripperCommandType != controller.GripperPosition {
		return fmt.Errorf("loopback station: unsupported gripper command type %s", out.GripperCommandType)
	}

	dt := l.dt
	if !(dt > 0) {
		dt = defaultTimeStep
	}
	for i := range l.pose {
		l.twist[i] = (out.PoseCommand[i] - l.pose[i]) / dt
	}
	l.pose = out.PoseCommand
	l.gripper = out.GripperCommand
	return nil
}

// Gripper returns the last commanded gripper position.
func (l *Loopback) Gripper() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gripper
}
