package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/lmittmann/tint"
	"github.com/nats-io/nats.go"
	"github.com/plugforge/harness/internal/environment"
	"github.com/plugforge/harness/internal/gatherer"
	"github.com/plugforge/harness/internal/gatherer/consolegath"
	"github.com/plugforge/harness/internal/gatherer/natsgath"
	"github.com/plugforge/harness/internal/gatherer/sqsgath"
	"github.com/plugforge/harness/internal/scenario"
	"github.com/plugforge/harness/internal/selfcheck"
	"github.com/plugforge/harness/internal/suite"
	"github.com/plugforge/harness/internal/transcripts"
	"github.com/plugforge/harness/internal/xdg"
	"github.com/plugforge/harness/pkg/hostrun"
	"github.com/urfave/cli/v3"
)

func main() {
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		TimeFormat: time.Kitchen,
	})))

	env := environment.ReadEnvConfig()

	hostDefault := env.HostBin
	if hostDefault == "" {
		hostDefault = hostrun.DefaultBin
	}

	cmd := &cli.Command{
		Name:  "harness",
		Usage: "run plugin tests inside an external host process",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "host binary to spawn",
				Value: hostDefault,
			},
			&cli.StringFlag{
				Name:  "artifact-dir",
				Usage: "directory holding compiled plugin artifacts",
				Value: env.ArtifactDir,
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "run the scenarios of a behaviour file",
				ArgsUsage: "<behaviour.toml>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "parallel",
						Usage: "number of hosts to run concurrently",
						Value: 4,
					},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return runSuite(ctx, c, env)
				},
			},
			{
				Name:  "doctor",
				Usage: "check the environment and the outcome protocol",
				Action: func(ctx context.Context, c *cli.Command) error {
					return runDoctor(c)
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("harness failed", "error", err)
		os.Exit(1)
	}
}

func runSuite(ctx context.Context, c *cli.Command, env *environment.EnvConfig) error {
	behaviourPath := c.Args().First()
	if behaviourPath == "" {
		return cli.Exit("a behaviour file is required", 2)
	}

	cases, err := scenario.Parse(behaviourPath)
	if err != nil {
		return err
	}

	store, err := transcripts.New(xdg.NewXDGDirs().AppCacheDir("harness/transcripts"))
	if err != nil {
		return err
	}

	suiteUuid := uuid.NewString()
	gatherers, cleanup, err := buildGatherers(suiteUuid, env)
	if err != nil {
		return err
	}
	defer cleanup()

	runner := &suite.Runner{
		HostBin:     c.String("host"),
		ArtifactDir: c.String("artifact-dir"),
		Parallel:    int(c.Int("parallel")),
		Gatherer:    gatherers,
		Transcripts: store,
	}

	slog.Info("starting suite",
		"suite", suiteUuid, "scenarios", len(cases), "host", runner.HostBin)

	summary, err := runner.Run(ctx, cases)
	if err != nil {
		return err
	}

	fmt.Printf("\n%d scenarios, %d passed, %d failed\n",
		summary.Total, summary.Passed, len(summary.Failures))
	for _, f := range summary.Failures {
		fmt.Printf("  %s: %v\n", f.Name, f.Err)
	}

	if !summary.OK() {
		return cli.Exit("", 1)
	}
	return nil
}

func buildGatherers(suiteUuid string, env *environment.EnvConfig) (gatherer.ResultGatherer, func(), error) {
	gatherers := gatherer.Multi{consolegath.New(os.Stdout)}
	cleanup := func() {}

	if env.NatsUrl != "" {
		nc, err := nats.Connect(env.NatsUrl)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		gatherers = append(gatherers, natsgath.New(nc, suiteUuid, env.NatsSubject))
		cleanup = func() { nc.Drain() }
	}

	if env.SqsQueueUrl != "" {
		sg, err := sqsgath.New(suiteUuid, env.SqsQueueUrl, env.AwsRegion)
		if err != nil {
			return nil, nil, err
		}
		gatherers = append(gatherers, sg)
	}

	return gatherers, cleanup, nil
}

func runDoctor(c *cli.Command) error {
	okLabel := color.New(color.FgGreen).SprintFunc()
	failLabel := color.New(color.FgRed, color.Bold).SprintFunc()

	failed := false
	for _, check := range selfcheck.Run(c.String("host"), c.String("artifact-dir")) {
		if check.OK() {
			info := check.Info
			if info != "" {
				info = " (" + info + ")"
			}
			fmt.Printf("%s  %s%s\n", okLabel("OK"), check.Name, info)
			continue
		}
		failed = true
		fmt.Printf("%s  %s: %v\n", failLabel("FAIL"), check.Name, check.Err)
	}

	if failed {
		return cli.Exit("environment is not ready", 1)
	}
	return nil
}
