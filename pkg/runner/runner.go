// Package runner drives a command sequence controller against a station,
// one evaluation per control tick.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gwillem/armseq/pkg/controller"
)

// State is a snapshot of one control tick.
type State struct {
	Time      float64 // sequence time
	Output    controller.Output
	Timestamp time.Time
	Error     error
}

// Config holds configuration for the runner.
type Config struct {
	Hz           int     // control ticks per second of sequence time
	StopTime     float64 // sequence time at which Run returns
	RealtimeRate float64 // 1 runs in real time, 0 runs as fast as possible
	Logger       *zerolog.Logger
}

// Runner owns a station and a controller and steps them in lockstep.
type Runner struct {
	station Station
	ctrl    *controller.Controller
	cfg     Config
	logger  zerolog.Logger

	mu      sync.RWMutex
	running bool
	last    State
	stateCh chan State
	logCh   chan string
}

// DefaultHz is the control rate used when Config.Hz is not positive.
const DefaultHz = 100

// TimeStep returns the sequence time between ticks for this configuration,
// applying the same Hz default as New.
func (c Config) TimeStep() float64 {
	if c.Hz <= 0 {
		return 1.0 / DefaultHz
	}
	return 1 / float64(c.Hz)
}

// New creates a runner. A zero StopTime runs until one second past the end
// of the sequence.
func New(station Station, ctrl *controller.Controller, cfg Config) *Runner {
	if cfg.Hz <= 0 {
		cfg.Hz = DefaultHz
	}
	if cfg.StopTime <= 0 {
		cfg.StopTime = ctrl.Sequence().TotalDuration() + 1
	}
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Runner{
		station: station,
		ctrl:    ctrl,
		cfg:     cfg,
		logger:  logger,
		stateCh: make(chan State, 1),
		logCh:   make(chan string, 10),
	}
}

// States returns a channel that receives state updates.
func (r *Runner) States() <-chan State {
	return r.stateCh
}

// Logs returns a channel that receives log messages.
func (r *Runner) Logs() <-chan string {
	return r.logCh
}

// Hz returns the control frequency.
func (r *Runner) Hz() int {
	return r.cfg.Hz
}

// TimeStep returns the sequence time between ticks in seconds.
func (r *Runner) TimeStep() float64 {
	return r.cfg.TimeStep()
}

// StopTime returns the sequence time at which Run returns.
func (r *Runner) StopTime() float64 {
	return r.cfg.StopTime
}

// Last returns the most recent tick.
func (r *Runner) Last() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

func (r *Runner) log(format string, args ...any) {
	msg := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	select {
	case r.logCh <- msg:
	default:
		// Drop if channel full
	}
}

// Run steps the controller from sequence time 0 to StopTime. It returns nil
// when StopTime is reached, ctx.Err() on cancellation and the first station
// or controller error otherwise.
func (r *Runner) Run(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("already running")
	}
	r.running = true
	r.mu.Unlock()
	defer r.stop()

	r.log("Running %d commands (%.2fs) at %d Hz", r.ctrl.Sequence().Len(), r.ctrl.Sequence().TotalDuration(), r.cfg.Hz)
	r.logger.Info().
		Int("commands", r.ctrl.Sequence().Len()).
		Float64("total_duration", r.ctrl.Sequence().TotalDuration()).
		Int("hz", r.cfg.Hz).
		Msg("runner started")

	var tick <-chan time.Time
	if r.cfg.RealtimeRate > 0 {
		ticker := time.NewTicker(r.tickInterval())
		defer ticker.Stop()
		tick = ticker.C
	}

	for k := 0; ; k++ {
		t := float64(k) / float64(r.cfg.Hz)
		if t > r.cfg.StopTime {
			r.log("Stopped at t=%.3fs", r.Last().Time)
			r.logger.Info().Float64("t", r.Last().Time).Msg("runner stopped")
			return nil
		}

		if err := r.step(ctx, t); err != nil {
			r.log("Error: %v", err)
			r.logger.Error().Err(err).Float64("t", t).Msg("tick failed")
			r.sendState(State{Time: t, Error: err, Timestamp: time.Now()})
			return err
		}

		if tick == nil {
			if err := ctx.Err(); err != nil {
				return err
			}
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick:
		}
	}
}

// tickInterval returns the wall-clock time between ticks when paced. Very
// large rates round down to the smallest interval NewTicker accepts.
func (r *Runner) tickInterval() time.Duration {
	interval := time.Duration(float64(time.Second) / float64(r.cfg.Hz) / r.cfg.RealtimeRate)
	return max(interval, time.Nanosecond)
}

func (r *Runner) step(ctx context.Context, t float64) error {
	fb, err := r.station.Measure(ctx)
	if err != nil {
		return fmt.Errorf("measure: %w", err)
	}
	r.ctrl.SetFeedback(fb)

	out, err := r.ctrl.Evaluate(t)
	if err != nil {
		return fmt.Errorf("evaluate at t=%.3f: %w", t, err)
	}

	if err := r.station.Apply(ctx, out); err != nil {
		return fmt.Errorf("apply: %w", err)
	}

	prev := r.Last()
	first := prev.Timestamp.IsZero()
	if first || out.Index != prev.Output.Index {
		r.log("t=%.3fs: %s (gripper %s)", t, out.Name, gripperWord(out.GripperCommand, prev.Output.GripperCommand, first))
		r.logger.Info().Float64("t", t).Int("index", out.Index).Str("command", out.Name).
			Float64("gripper", out.GripperCommand).Msg("command started")
	}
	if out.Terminal && !prev.Output.Terminal {
		r.log("t=%.3fs: sequence complete, holding %s", t, out.Name)
		r.logger.Info().Float64("t", t).Str("command", out.Name).Msg("terminal hold")
	}

	s := State{Time: t, Output: out, Timestamp: time.Now()}
	r.mu.Lock()
	r.last = s
	r.mu.Unlock()
	r.sendState(s)
	return nil
}

func gripperWord(cur, prev float64, first bool) string {
	switch {
	case first:
		return fmt.Sprintf("%.2f", cur)
	case cur == prev:
		return "unchanged"
	default:
		return fmt.Sprintf("%.2f -> %.2f", prev, cur)
	}
}

func (r *Runner) sendState(s State) {
	select {
	case r.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-r.stateCh:
		default:
		}
		r.stateCh <- s
	}
}

func (r *Runner) stop() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
}
