// Package sqsgath streams suite reports to an SQS queue.
package sqsgath

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/plugforge/harness/api"
	"github.com/plugforge/harness/internal/gatherer"
)

type sqsGatherer struct {
	sqsClient *sqs.Client
	queueUrl  string
	suiteUuid string
}

var _ gatherer.ResultGatherer = (*sqsGatherer)(nil)

// New creates an SQS gatherer that sends reports for one suite to the
// given queue.
func New(suiteUuid string, queueUrl string, region string) (*sqsGatherer, error) {
	cfg, err := config.LoadDefaultConfig(context.TODO(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &sqsGatherer{
		sqsClient: sqs.NewFromConfig(cfg),
		queueUrl:  queueUrl,
		suiteUuid: suiteUuid,
	}, nil
}

func (g *sqsGatherer) StartSuite(hostInfo string, numRuns int) {
	g.send(api.NewStartSuite(g.suiteUuid, hostInfo, numRuns))
}

func (g *sqsGatherer) StartRun(runUuid string, name string) {
	g.send(api.NewStartRun(g.suiteUuid, runUuid, name))
}

func (g *sqsGatherer) FinishRun(report api.RunReport) {
	report.Message = gatherer.TrimToRect(report.Message,
		api.MaxTranscriptHeight, api.MaxTranscriptWidth)
	g.send(api.NewFinishRun(g.suiteUuid, report))
}

func (g *sqsGatherer) FinishSuite(errIfAny error) {
	var errMsg *string
	if errIfAny != nil {
		msg := errIfAny.Error()
		errMsg = &msg
	}
	g.send(api.NewFinishSuite(g.suiteUuid, errMsg))
}

func (g *sqsGatherer) send(msg any) {
	b, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal report message", "error", err)
		return
	}

	_, err = g.sqsClient.SendMessage(context.TODO(), &sqs.SendMessageInput{
		QueueUrl:    aws.String(g.queueUrl),
		MessageBody: aws.String(string(b)),
	})
	if err != nil {
		slog.Error("failed to send report message", "error", err)
	}
}
