package environment

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// EnvConfig carries the harness settings that come from the environment
// rather than from flags: where the host lives and where reports go.
type EnvConfig struct {
	HostBin     string
	ArtifactDir string

	NatsUrl     string
	NatsSubject string

	SqsQueueUrl string
	AwsRegion   string
}

// ReadEnvConfig loads an optional .env file and reads the harness
// variables. Explicit environment variables win over the file.
func ReadEnvConfig() *EnvConfig {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	result := &EnvConfig{
		HostBin:     os.Getenv("HARNESS_HOST_BIN"),
		ArtifactDir: os.Getenv("HARNESS_ARTIFACT_DIR"),
		NatsUrl:     os.Getenv("HARNESS_NATS_URL"),
		NatsSubject: os.Getenv("HARNESS_NATS_SUBJECT"),
		SqsQueueUrl: os.Getenv("HARNESS_SQS_QUEUE_URL"),
		AwsRegion:   os.Getenv("AWS_REGION"),
	}

	if result.NatsSubject == "" {
		result.NatsSubject = "harness.reports"
	}
	if result.AwsRegion == "" {
		result.AwsRegion = "eu-central-1"
	}

	return result
}
