// Package suite runs a set of behaviour scenarios against the host and
// streams what happened to the configured gatherers. Runs are independent
// host processes, so they can proceed in parallel.
package suite

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/plugforge/harness/api"
	"github.com/plugforge/harness/internal/gatherer"
	"github.com/plugforge/harness/internal/scenario"
	"github.com/plugforge/harness/internal/transcripts"
	"github.com/plugforge/harness/pkg/hostrun"
	"golang.org/x/sync/errgroup"
)

type Runner struct {
	HostBin     string
	ArtifactDir string
	Parallel    int

	Gatherer    gatherer.ResultGatherer
	Transcripts *transcripts.Store
}

type Failure struct {
	Name string
	Err  error
}

type Summary struct {
	Total    int
	Passed   int
	Failures []Failure
}

func (s Summary) OK() bool {
	return len(s.Failures) == 0
}

// Run executes every case and returns the suite summary. The returned
// error covers infrastructure trouble only; scenario failures land in the
// summary.
func (r *Runner) Run(ctx context.Context, cases []scenario.Case) (Summary, error) {
	r.Gatherer.StartSuite(r.HostBin, len(cases))

	var mu sync.Mutex
	summary := Summary{Total: len(cases)}

	errs, ctx := errgroup.WithContext(ctx)
	if r.Parallel > 0 {
		errs.SetLimit(r.Parallel)
	}

	for _, c := range cases {
		c := c
		errs.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			failure := r.runCase(c)

			mu.Lock()
			if failure != nil {
				summary.Failures = append(summary.Failures, Failure{Name: c.Name, Err: failure})
			} else {
				summary.Passed++
			}
			mu.Unlock()
			return nil
		})
	}

	err := errs.Wait()
	r.Gatherer.FinishSuite(err)
	return summary, err
}

// runCase observes one host run and reports it. The returned error is the
// scenario's failure, nil when the run matched its expectation.
func (r *Runner) runCase(c scenario.Case) error {
	r.Gatherer.StartRun(c.RunUuid, c.Name)

	res, err := hostrun.Observe(hostrun.Options{
		Bin:         r.HostBin,
		LibraryPath: c.Library,
		ArtifactDir: r.ArtifactDir,
		Module:      c.Module,
		EntrySymbol: c.Entry,
		ExtraCmd:    c.Setup,
		// the transcript keeps the child's streams; don't interleave
		// them with the harness's own output
		Stdout: io.Discard,
	})
	if err != nil {
		r.Gatherer.FinishRun(api.RunReport{
			RunUuid: c.RunUuid,
			Name:    c.Name,
			Verdict: string(hostrun.VerdictCrash),
			Message: err.Error(),
		})
		return err
	}

	report := api.RunReport{
		RunUuid:    c.RunUuid,
		Name:       c.Name,
		Verdict:    string(res.Verdict),
		Message:    res.Message,
		Panic:      res.Panic,
		WallMillis: res.WallMillis,
	}

	if transcript := res.Stdout + res.Stderr; transcript != "" && r.Transcripts != nil {
		key, saveErr := r.Transcripts.Save(c.RunUuid, []byte(transcript))
		if saveErr != nil {
			slog.Warn("failed to save transcript",
				"run", c.RunUuid, "error", saveErr)
		} else {
			report.TranscriptKey = key
		}
	}

	r.Gatherer.FinishRun(report)

	if checkErr := c.Expect.Check(res); checkErr != nil {
		return fmt.Errorf("scenario %q: %w", c.Name, checkErr)
	}
	return nil
}
