package controller

import (
	"math"

	"github.com/gwillem/armseq/pkg/sequence"
)

// ToleranceGate holds each command until the measured end-effector position
// is within Position metres of the command's target position and, when
// MaxSpeed is positive, the measured linear speed is at most MaxSpeed.
// Non-finite feedback never satisfies the gate.
type ToleranceGate struct {
	Position float64
	MaxSpeed float64
}

func (g ToleranceGate) CanAdvance(_ int, cmd sequence.Command, fb Feedback) bool {
	target := cmd.TargetPose()
	if d := norm3(target[3]-fb.Pose[3], target[4]-fb.Pose[4], target[5]-fb.Pose[5]); !(d <= g.Position) {
		return false
	}
	if v := norm3(fb.Twist[3], fb.Twist[4], fb.Twist[5]); g.MaxSpeed > 0 && !(v <= g.MaxSpeed) {
		return false
	}
	return true
}

func norm3(x, y, z float64) float64 {
	return math.Sqrt(x*x + y*y + z*z)
}
