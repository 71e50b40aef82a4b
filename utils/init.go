package utils

import (
	"flag"
	"fmt"
	"log"
	"strings"
)

type options struct {
	outputFormat string
	task         string
	noColorize   bool
	verbose      bool
	debug        bool
	visualize    bool
	noAbort      bool
}

const (
	_REPLAY = iota
	_TRACE_TO_DOT
)

var task = []struct{ flag, explanation string }{{
	"replay",
	"Replay the instruction traces given as arguments through the engine, reporting every use of an invalidated address",
}, {
	"trace-to-dot",
	"Replay the instruction traces and render the final memory graph of each, without an issue report",
}}

func CanColorize(col func(...interface{}) string) func(...interface{}) string {
	if opts.noColorize {
		return func(is ...interface{}) string {
			return fmt.Sprintf(strings.Repeat("%s", len(is)), is...)
		}
	}
	return col
}

var opts = &options{}

type optInterface struct{}

type taskInterface struct{}

func Opts() optInterface {
	return optInterface{}
}

func (optInterface) NoColorize() bool {
	return opts.noColorize
}
func (optInterface) OutputFormat() string {
	return opts.outputFormat
}
func (optInterface) Verbose() bool {
	return opts.verbose
}
func (optInterface) Debug() bool {
	return opts.debug
}
func (optInterface) Visualize() bool {
	return opts.visualize
}
func (optInterface) NoAbort() bool {
	return opts.noAbort
}
func (optInterface) Task() taskInterface {
	return taskInterface{}
}
func (taskInterface) IsReplay() bool {
	return opts.task == task[_REPLAY].flag
}
func (taskInterface) IsTraceToDot() bool {
	return opts.task == task[_TRACE_TO_DOT].flag
}

func (optInterface) OnVerbose(do func()) {
	if Opts().Verbose() {
		do()
	}
}

func init() {
	taskFlag := "\n"
	for _, task := range task {
		taskFlag += task.flag + " -- " + task.explanation + "\n"
	}
	taskFlag += "\n"

	flag.StringVar(&(opts.outputFormat), "format", "svg", "output file format for rendered graphs [svg | png | jpg | ...]")
	flag.StringVar(&(opts.task), "task", task[_REPLAY].flag, "Set the task to do during execution. Options:"+taskFlag)
	flag.BoolVar(&(opts.noColorize), "no-colorize", false, "Disable pretty printer colorization")
	flag.BoolVar(&(opts.verbose), "verbose", false, "enable verbose output")
	flag.BoolVar(&(opts.debug), "debug", false, "include abstract address identifiers in issue messages")
	flag.BoolVar(&(opts.visualize), "visualize", false, "render the final memory graph of each trace")
	flag.BoolVar(&(opts.noAbort), "no-abort", false, "exit with status 0 even when issues were found")

	// Set up logging
	log.SetFlags(log.Ltime | log.Lshortfile)
}

func ParseArgs() {
	// Calling flag.Parse in init messes up unit tests.
	flag.Parse()

	validTask := false
	for _, task := range task {
		if task.flag == opts.task {
			validTask = true
			break
		}
	}

	if !validTask {
		log.Fatalf("Value \"%s\" is not valid for -task", opts.task)
	}

	if Opts().Task().IsTraceToDot() {
		opts.visualize = true
	}
}
