package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/armseq/pkg/controller"
	"github.com/gwillem/armseq/pkg/runner"
)

type RunCommand struct {
	File     string  `short:"f" long:"file" default:"armseq.json" description:"Sequence file"`
	Hz       int     `long:"hz" default:"100" description:"Control ticks per second of sequence time"`
	Stop     float64 `long:"stop" description:"Sequence time to stop at (default: one second past the end)"`
	Rate     float64 `long:"rate" default:"1" description:"Real-time rate, 0 runs as fast as possible"`
	Interp   string  `long:"interp" default:"step" choice:"step" choice:"linear" description:"Pose interpolation between waypoints"`
	Open     float64 `long:"open" default:"0" description:"Gripper command while open"`
	Closed   float64 `long:"closed" default:"1" description:"Gripper command while closed"`
	Settle   float64 `long:"settle" description:"Hold each command until the measured position is within this many metres"`
	Headless bool    `long:"headless" description:"Log to stderr instead of showing the monitor"`
	Debug    bool    `long:"debug" description:"Enable debug logging in headless mode"`
}

const (
	headerHeight = 3 // title + status + blank line
	legendHeight = 2 // legend row + blank
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border
)

// Channel colors for the commanded position
var channelColors = []struct {
	name  string
	color string
}{
	{"x", "196"}, // red
	{"y", "46"},  // green
	{"z", "51"},  // cyan
	{"gripper", "201"},
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type monitorModel struct {
	run      *runner.Runner
	total    float64
	chart    *streamlinechart.Model
	width    int
	height   int
	logs     []string
	state    runner.State
	done     bool
	err      error
	quitting bool
}

func (m *monitorModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// Messages from the runner
type stateMsg runner.State
type logMsg string
type doneMsg struct{ err error }

func waitForState(r *runner.Runner) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-r.States())
	}
}

func waitForLog(r *runner.Runner) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-r.Logs())
	}
}

func (m *monitorModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20
	}
	width = max(m.width-borderSize-2, 40)
	height = max(m.height-headerHeight-legendHeight-footerHeight-borderSize, 10)
	return width, height
}

func initialMonitorModel(r *runner.Runner, total float64) monitorModel {
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(-1, 1),
	)
	for _, ch := range channelColors {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(ch.color))
		chart.SetDataSetStyles(ch.name, runes.ThinLineStyle, style)
	}

	return monitorModel{
		run:   r,
		total: total,
		chart: &chart,
	}
}

func (m monitorModel) Init() tea.Cmd {
	return tea.Batch(
		waitForState(m.run),
		waitForLog(m.run),
	)
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.chart.Resize(m.chartSize())
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case stateMsg:
		m.state = runner.State(msg)
		if m.state.Error == nil {
			out := m.state.Output
			m.chart.PushDataSet("x", out.PoseCommand[3])
			m.chart.PushDataSet("y", out.PoseCommand[4])
			m.chart.PushDataSet("z", out.PoseCommand[5])
			m.chart.PushDataSet("gripper", out.GripperCommand)
			m.chart.DrawAll()
		}
		return m, waitForState(m.run)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.run)

	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, nil
	}

	return m, nil
}

func (m monitorModel) View() string {
	if m.quitting {
		return "Sequence monitor stopped.\n"
	}

	var sb strings.Builder

	// Header
	sb.WriteString(titleStyle.Render("armseq run"))
	sb.WriteString(fmt.Sprintf(" - %d Hz", m.run.Hz()))
	if m.width > 0 {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("  [%dx%d]", m.width, m.height)))
	}
	sb.WriteString("\n")
	sb.WriteString(m.statusLine())
	sb.WriteString("\n\n")

	// Chart
	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	// Legend
	sb.WriteString(renderLegend())
	sb.WriteString("\n")

	// Log box
	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(m.width - 4)

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render("Press 'q' to quit")
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func (m monitorModel) statusLine() string {
	out := m.state.Output
	line := fmt.Sprintf("t=%6.2fs / %.2fs  command %d %-12s local %5.2fs  gripper %.2f",
		m.state.Time, m.total, out.Index, out.Name, out.LocalTime, out.GripperCommand)
	switch {
	case m.err != nil:
		line += "  " + lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render("error: "+m.err.Error())
	case m.done:
		line += "  " + lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("done, press 'q' to quit")
	case out.Terminal:
		line += "  " + statusStyle.Render("holding")
	}
	return line
}

func renderLegend() string {
	var items []string
	for _, ch := range channelColors {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ch.color)).Bold(true)
		items = append(items, colorStyle.Render("━━")+" "+ch.name)
	}
	return strings.Join(items, "  ")
}

func (c *RunCommand) controllerConfig(logger *zerolog.Logger) (controller.Config, error) {
	cfg := controller.DefaultConfig()
	interp, err := controller.ParseInterpolation(c.Interp)
	if err != nil {
		return cfg, err
	}
	cfg.Interpolation = interp
	cfg.OpenPosition = c.Open
	cfg.ClosedPosition = c.Closed
	if c.Settle > 0 {
		cfg.Gate = controller.ToleranceGate{Position: c.Settle}
	}
	cfg.Logger = logger
	return cfg, nil
}

func (c *RunCommand) Execute(args []string) error {
	seq, err := loadSequence(c.File)
	if err != nil {
		return err
	}

	var logger *zerolog.Logger
	if c.Headless {
		level := zerolog.InfoLevel
		if c.Debug {
			level = zerolog.DebugLevel
		}
		l := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
			Level(level).With().Timestamp().Logger()
		logger = &l
	}

	cfg, err := c.controllerConfig(logger)
	if err != nil {
		return err
	}
	ctrl, err := controller.New(seq, cfg)
	if err != nil {
		return fmt.Errorf("create controller: %w", err)
	}

	rcfg := runner.Config{
		Hz:           c.Hz,
		StopTime:     c.Stop,
		RealtimeRate: c.Rate,
		Logger:       logger,
	}
	start, _ := seq.TargetPose(0)
	station := runner.NewLoopback(start, rcfg.TimeStep())
	r := runner.New(station, ctrl, rcfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if c.Headless {
		if err := r.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	}

	p := tea.NewProgram(initialMonitorModel(r, seq.TotalDuration()), tea.WithAltScreen())

	go func() {
		err := r.Run(ctx)
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		p.Send(doneMsg{err: err})
	}()

	if _, err := p.Run(); err != nil {
		log.Fatalf("Error running program: %v", err)
	}
	return nil
}
