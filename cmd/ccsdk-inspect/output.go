package main

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// ANSI color codes, matching wt's output package.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorDim    = "\033[2m"
)

// output is a minimal colored console writer for this command, colorizing
// only when stdout is an actual terminal (checked via term.IsTerminal,
// rather than the stat-based check wt's Output uses).
type output struct {
	colorized bool
}

func newOutput() *output {
	return &output{colorized: term.IsTerminal(int(os.Stdout.Fd())) && os.Getenv("NO_COLOR") == ""}
}

func (o *output) Colorize(color, text string) string {
	if o.colorized {
		return color + text + colorReset
	}
	return text
}

func (o *output) Print(msg string)                       { fmt.Println(msg) }
func (o *output) Printf(format string, args ...any)       { fmt.Printf(format, args...) }
func (o *output) Info(msg string)                         { fmt.Printf("%s %s\n", o.Colorize(colorDim, "->"), msg) }
func (o *output) Warn(msg string)                         { fmt.Printf("%s %s\n", o.Colorize(colorYellow, "!"), msg) }
func (o *output) Error(msg string)                        { fmt.Printf("%s %s\n", o.Colorize(colorRed, "x"), msg) }
