// Package sequence provides the command data model for end-effector
// sequencing: poses, timed commands, and ordered command sequences.
package sequence

import "math"

// Pose is a 6-DOF end-effector pose laid out as [roll, pitch, yaw, x, y, z].
// Twists use the same layout with angular velocity first.
type Pose [6]float64

// Lerp returns the linear blend between p and q at fraction s in [0, 1].
// Orientation components are blended component-wise without angle wrapping.
func (p Pose) Lerp(q Pose, s float64) Pose {
	if s <= 0 {
		return p
	}
	if s >= 1 {
		return q
	}
	var out Pose
	for i := range p {
		out[i] = p[i] + (q[i]-p[i])*s
	}
	return out
}

// Sub returns p - q.
func (p Pose) Sub(q Pose) Pose {
	var out Pose
	for i := range p {
		out[i] = p[i] - q[i]
	}
	return out
}

// Finite reports whether every component is a finite number.
func (p Pose) Finite() bool {
	for _, v := range p {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
