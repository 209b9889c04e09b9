// Package printer renders a run report for the terminal.
package printer

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/artuross/workflow-engine/internal/engine"
)

var (
	succeededColor = color.New(color.FgGreen)
	failedColor    = color.New(color.FgRed, color.Bold)
	skippedColor   = color.New(color.FgYellow)
	headerColor    = color.New(color.Bold)
)

type Printer struct {
	out io.Writer
}

func New(out io.Writer) *Printer {
	return &Printer{out: out}
}

func (p *Printer) Print(report *engine.Report) {
	if len(report.Jobs) == 0 {
		fmt.Fprintln(p.out, "no jobs triggered")
		return
	}

	for _, job := range report.Jobs {
		headerColor.Fprintf(p.out, "job %s: ", job.Name)
		p.printStatus(job.Status)
		fmt.Fprintf(p.out, " (%s)\n", job.Duration.Round(time.Millisecond))

		for _, step := range job.Steps {
			fmt.Fprintf(p.out, "  %s %s", marker(step.Status), step.Name)

			if step.Status != engine.StatusSkipped {
				fmt.Fprintf(p.out, " (%s)", step.Duration.Round(time.Millisecond))
			}

			fmt.Fprintln(p.out)

			if step.Status == engine.StatusFailed {
				if step.Err != nil {
					failedColor.Fprintf(p.out, "    %s\n", step.Err)
				}

				p.printOutputTail(step.Output)
			}
		}
	}

	if report.Success() {
		succeededColor.Fprintln(p.out, "run succeeded")
		return
	}

	failedColor.Fprintln(p.out, "run failed")
}

func (p *Printer) printStatus(status engine.Status) {
	switch status {
	case engine.StatusSucceeded:
		succeededColor.Fprint(p.out, status)
	case engine.StatusFailed:
		failedColor.Fprint(p.out, status)
	case engine.StatusSkipped:
		skippedColor.Fprint(p.out, status)
	default:
		fmt.Fprint(p.out, status)
	}
}

const outputTailLimit = 2048

func (p *Printer) printOutputTail(output []byte) {
	if len(output) == 0 {
		return
	}

	if len(output) > outputTailLimit {
		output = output[len(output)-outputTailLimit:]
	}

	fmt.Fprintf(p.out, "    --- output ---\n")

	for _, line := range splitLines(output) {
		fmt.Fprintf(p.out, "    %s\n", line)
	}
}

func marker(status engine.Status) string {
	switch status {
	case engine.StatusSucceeded:
		return succeededColor.Sprint("✓")
	case engine.StatusFailed:
		return failedColor.Sprint("✗")
	case engine.StatusSkipped:
		return skippedColor.Sprint("-")
	default:
		return "?"
	}
}

func splitLines(output []byte) []string {
	trimmed := strings.TrimRight(string(output), "\n")
	if trimmed == "" {
		return nil
	}

	return strings.Split(trimmed, "\n")
}
