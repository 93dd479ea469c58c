// Package consolegath renders suite progress on a terminal.
package consolegath

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/plugforge/harness/api"
	"github.com/plugforge/harness/internal/gatherer"
)

var (
	passLabel  = color.New(color.FgGreen).SprintFunc()
	errorLabel = color.New(color.FgRed).SprintFunc()
	panicLabel = color.New(color.FgRed, color.Bold).SprintFunc()
	crashLabel = color.New(color.FgMagenta, color.Bold).SprintFunc()
)

type consoleGatherer struct {
	mu  sync.Mutex
	out io.Writer
}

var _ gatherer.ResultGatherer = (*consoleGatherer)(nil)

func New(out io.Writer) *consoleGatherer {
	return &consoleGatherer{out: out}
}

func (c *consoleGatherer) StartSuite(hostInfo string, numRuns int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "running %d plugin tests against %s\n", numRuns, hostInfo)
}

func (c *consoleGatherer) StartRun(runUuid string, name string) {
	// silent; the verdict line carries the name
}

func (c *consoleGatherer) FinishRun(report api.RunReport) {
	c.mu.Lock()
	defer c.mu.Unlock()

	label := passLabel("PASS")
	switch report.Verdict {
	case "error":
		label = errorLabel("ERROR")
	case "panic":
		label = panicLabel("PANIC")
	case "crash":
		label = crashLabel("CRASH")
	}

	fmt.Fprintf(c.out, "%s  %s (%dms)\n", label, report.Name, report.WallMillis)
	if report.Message != "" {
		fmt.Fprintf(c.out, "      %s\n", report.Message)
	}
	if report.Panic != nil {
		fmt.Fprintf(c.out, "      %s\n", report.Panic.String())
	}
}

func (c *consoleGatherer) FinishSuite(errIfAny error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if errIfAny != nil {
		fmt.Fprintf(c.out, "suite failed: %v\n", errIfAny)
		return
	}
	fmt.Fprintln(c.out, "suite finished")
}
