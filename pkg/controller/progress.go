package controller

import (
	"context"
	"strconv"
	"strings"

	"github.com/looplab/fsm"
	"github.com/rs/zerolog"
)

const (
	stateTerminal = "terminal"
	eventAdvance  = "advance"
)

func commandState(i int) string {
	return "command-" + strconv.Itoa(i)
}

// progress tracks how far execution has got: command-0 .. command-N-1, then
// terminal. It only moves forward and is a hint; outputs never depend on it
// when no gate is configured.
type progress struct {
	fsm   *fsm.FSM
	n     int
	index int
}

func newProgress(n int, names []string, logger zerolog.Logger) *progress {
	events := make(fsm.Events, 0, n)
	for i := 0; i < n; i++ {
		dst := stateTerminal
		if i+1 < n {
			dst = commandState(i + 1)
		}
		events = append(events, fsm.EventDesc{Name: eventAdvance, Src: []string{commandState(i)}, Dst: dst})
	}

	callbacks := fsm.Callbacks{
		"enter_state": func(_ context.Context, e *fsm.Event) {
			ev := logger.Debug().Str("from", e.Src).Str("to", e.Dst)
			if i, ok := stateIndex(e.Dst); ok {
				ev = ev.Str("command", names[i])
			}
			ev.Msg("sequence advanced")
		},
	}

	return &progress{
		fsm: fsm.NewFSM(commandState(0), events, callbacks),
		n:   n,
	}
}

func stateIndex(state string) (int, bool) {
	s, ok := strings.CutPrefix(state, "command-")
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(s)
	return i, err == nil
}

// Index returns the last command index reached.
func (p *progress) Index() int { return p.index }

// Terminal reports whether the sequence has been exhausted.
func (p *progress) Terminal() bool { return p.fsm.Is(stateTerminal) }

// advance moves one step forward. It is a no-op once terminal.
func (p *progress) advance() error {
	if p.Terminal() {
		return nil
	}
	if err := p.fsm.Event(context.Background(), eventAdvance); err != nil {
		return err
	}
	if p.index+1 < p.n {
		p.index++
	}
	return nil
}

func (p *progress) reset() {
	p.fsm.SetState(commandState(0))
	p.index = 0
}
