// Package natsgath streams suite reports to a NATS subject so that a
// CI collector can follow runs live.
package natsgath

import (
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/plugforge/harness/api"
	"github.com/plugforge/harness/internal/gatherer"
)

type natsGatherer struct {
	nc        *nats.Conn
	subject   string
	suiteUuid string
}

var _ gatherer.ResultGatherer = (*natsGatherer)(nil)

// New creates a NATS gatherer that publishes reports for one suite to the
// given subject.
func New(nc *nats.Conn, suiteUuid string, subject string) *natsGatherer {
	return &natsGatherer{
		nc:        nc,
		subject:   subject,
		suiteUuid: suiteUuid,
	}
}

func (g *natsGatherer) StartSuite(hostInfo string, numRuns int) {
	g.send(api.NewStartSuite(g.suiteUuid, hostInfo, numRuns))
}

func (g *natsGatherer) StartRun(runUuid string, name string) {
	g.send(api.NewStartRun(g.suiteUuid, runUuid, name))
}

func (g *natsGatherer) FinishRun(report api.RunReport) {
	g.send(api.NewFinishRun(g.suiteUuid, trimReport(report)))
}

func (g *natsGatherer) FinishSuite(errIfAny error) {
	var errMsg *string
	if errIfAny != nil {
		msg := errIfAny.Error()
		errMsg = &msg
	}
	g.send(api.NewFinishSuite(g.suiteUuid, errMsg))
}

func (g *natsGatherer) send(msg any) {
	b, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal report message", "error", err)
		return
	}
	if err := g.nc.Publish(g.subject, b); err != nil {
		slog.Error("failed to publish report message", "error", err)
	}
}

func trimReport(report api.RunReport) api.RunReport {
	report.Message = gatherer.TrimToRect(report.Message,
		api.MaxTranscriptHeight, api.MaxTranscriptWidth)
	return report
}
