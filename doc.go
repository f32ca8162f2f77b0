// Package armseq provides end-effector command sequencing for manipulator
// arms.
//
// A command sequence is an ordered list of waypoints, each with a target
// pose, a duration and a gripper state. The controller is evaluated once per
// control tick with the current sequence time and returns the pose and
// gripper commands a station should track, holding the final waypoint once
// the sequence is exhausted.
//
// # Installation
//
//	go install github.com/gwillem/armseq/cmd/armseq@latest
//
// # Usage
//
// Write the example pick and place sequence, inspect it, then run it:
//
//	armseq example
//	armseq show
//	armseq run --interp linear
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/armseq: CLI with example, show and run commands
//   - pkg/sequence: Commands, command sequences and sequence files
//   - pkg/controller: Command sequence controller
//   - pkg/runner: Tick loop driving a controller against a station
package armseq
