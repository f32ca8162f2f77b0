package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Example ExampleCommand `command:"example" description:"Write the peg pickup example sequence"`
	Show    ShowCommand    `command:"show" description:"Print a command sequence with its timing"`
	Run     RunCommand     `command:"run" description:"Run a command sequence against a loopback station"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "armseq - End-effector command sequencing for manipulator arms"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}
