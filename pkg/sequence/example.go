package sequence

import "math"

// PegPickup returns a four-step pick and place sequence: approach the peg
// with the gripper open, close on it, lift it, then swing it aside.
func PegPickup() *CommandSequence {
	above := Pose{0.5 * math.Pi, 0, 0.5 * math.Pi, 0.68, 0, 0.1}
	s, _ := New(
		MustCommand("pregrasp", above, 4, false),
		MustCommand("grasp", above, 1, true),
		MustCommand("lift", Pose{0.5 * math.Pi, 0, 0.5 * math.Pi, 0.5, 0, 0.5}, 2, true),
		MustCommand("move", Pose{0.5 * math.Pi, 0, 0.1 * math.Pi, 0.5, -0.5, 0.5}, 2, true),
	)
	return s
}
