package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/gwillem/armseq/pkg/sequence"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

type ExampleCommand struct {
	Output string `short:"o" long:"output" default:"armseq.json" description:"File to write"`
	Force  bool   `long:"force" description:"Overwrite an existing file"`
}

func (c *ExampleCommand) Execute(args []string) error {
	if sequence.Exists(c.Output) && !c.Force {
		return fmt.Errorf("%s already exists, use --force to overwrite", c.Output)
	}
	if err := sequence.FileFor(sequence.PegPickup()).SaveTo(c.Output); err != nil {
		return fmt.Errorf("write sequence: %w", err)
	}
	fmt.Println(successStyle.Render("Example sequence written to " + c.Output))
	fmt.Println("Inspect it with: " + headerStyle.Render("armseq show -f "+c.Output))
	return nil
}

type ShowCommand struct {
	File string `short:"f" long:"file" default:"armseq.json" description:"Sequence file"`
}

func (c *ShowCommand) Execute(args []string) error {
	seq, err := loadSequence(c.File)
	if err != nil {
		return err
	}

	fmt.Println(headerStyle.Render("Command sequence") + dimStyle.Render(" ("+c.File+")"))
	fmt.Println()
	fmt.Println(sequenceTable(seq))
	fmt.Printf("\n%d commands, total duration %.3fs\n", seq.Len(), seq.TotalDuration())
	return nil
}

func loadSequence(path string) (*sequence.CommandSequence, error) {
	seq, err := sequence.LoadFrom(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "No usable sequence found. Create one with 'armseq example'.")
		return nil, err
	}
	if seq.Len() == 0 {
		return nil, fmt.Errorf("%s: %w", path, sequence.ErrEmptySequence)
	}
	return seq, nil
}

func sequenceTable(seq *sequence.CommandSequence) string {
	rows := make([][]string, 0, seq.Len())
	for i, cmd := range seq.Commands() {
		start, _ := seq.StartTime(i)
		end, _ := seq.EndTime(i)
		gripper := "open"
		if cmd.GripperClosed() {
			gripper = "closed"
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i),
			cmd.Name(),
			fmt.Sprintf("%.3f", start),
			fmt.Sprintf("%.3f", end),
			gripper,
			formatPose(cmd.TargetPose()),
		})
	}

	nameStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	cellStyle := lipgloss.NewStyle().Padding(0, 1)
	closedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("#", "NAME", "START", "END", "GRIPPER", "TARGET [r p y x y z]").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			switch col {
			case 1:
				return nameStyle
			case 4:
				if row >= 0 && row < len(rows) && rows[row][4] == "closed" {
					return closedStyle
				}
				return cellStyle
			default:
				return cellStyle
			}
		})

	return t.Render()
}

func formatPose(p sequence.Pose) string {
	parts := make([]string, len(p))
	for i, v := range p {
		parts[i] = fmt.Sprintf("%.3f", v)
	}
	return strings.Join(parts, " ")
}
