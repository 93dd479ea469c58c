// Package gatherer defines where suite progress and run reports go. The
// harness streams lifecycle events to one or more sinks while the suite
// runs; sinks must tolerate being called from concurrent run goroutines.
package gatherer

import "github.com/plugforge/harness/api"

type ResultGatherer interface {
	StartSuite(hostInfo string, numRuns int)
	StartRun(runUuid string, name string)
	FinishRun(report api.RunReport)
	FinishSuite(errIfAny error)
}

// Multi fans every event out to several sinks in order.
type Multi []ResultGatherer

func (m Multi) StartSuite(hostInfo string, numRuns int) {
	for _, g := range m {
		g.StartSuite(hostInfo, numRuns)
	}
}

func (m Multi) StartRun(runUuid string, name string) {
	for _, g := range m {
		g.StartRun(runUuid, name)
	}
}

func (m Multi) FinishRun(report api.RunReport) {
	for _, g := range m {
		g.FinishRun(report)
	}
}

func (m Multi) FinishSuite(errIfAny error) {
	for _, g := range m {
		g.FinishSuite(errIfAny)
	}
}
