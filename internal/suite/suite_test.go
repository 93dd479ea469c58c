package suite_test

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/plugforge/harness/api"
	"github.com/plugforge/harness/internal/scenario"
	"github.com/plugforge/harness/internal/suite"
	"github.com/plugforge/harness/internal/transcripts"
	"github.com/stretchr/testify/require"
)

type recordingGatherer struct {
	mu       sync.Mutex
	started  []string
	reports  []api.RunReport
	suiteErr error
	finished bool
}

func (g *recordingGatherer) StartSuite(hostInfo string, numRuns int) {}

func (g *recordingGatherer) StartRun(runUuid string, name string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.started = append(g.started, name)
}

func (g *recordingGatherer) FinishRun(report api.RunReport) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.reports = append(g.reports, report)
}

func (g *recordingGatherer) FinishSuite(errIfAny error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.finished = true
	g.suiteErr = errIfAny
}

func (g *recordingGatherer) reportFor(name string) (api.RunReport, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, r := range g.reports {
		if r.Name == name {
			return r, true
		}
	}
	return api.RunReport{}, false
}

// scriptedHost reacts to the scenario's setup command, which the runner
// passes through as a -c argument.
func scriptedHost(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake host scripts need a POSIX shell")
	}
	script := `#!/bin/sh
case "$*" in
  *fail_case*) printf 'error:boom' >&2; exit 1 ;;
  *panic_case*) printf 'panic:oops\nthread:main\nfile:plug.go\nline:7\ncolumn:0' >&2; exit 1 ;;
  *) echo plugin loaded; exit 0 ;;
esac
`
	path := filepath.Join(t.TempDir(), "fakehost")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func dummyLibrary(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "libdummy.so")
	require.NoError(t, os.WriteFile(path, []byte{0}, 0o644))
	return path
}

func TestRunSuite(t *testing.T) {
	lib := dummyLibrary(t)
	gath := &recordingGatherer{}
	store, err := transcripts.New(t.TempDir())
	require.NoError(t, err)

	runner := &suite.Runner{
		HostBin:     scriptedHost(t),
		Parallel:    2,
		Gatherer:    gath,
		Transcripts: store,
	}

	cases := []scenario.Case{
		{Name: "passes", RunUuid: "r1", Library: lib,
			Expect: scenario.SpecExpect{Verdict: "pass"}},
		{Name: "fails as expected", RunUuid: "r2", Library: lib, Setup: "fail_case",
			Expect: scenario.SpecExpect{Verdict: "error", Message: "boom"}},
		{Name: "panics as expected", RunUuid: "r3", Library: lib, Setup: "panic_case",
			Expect: scenario.SpecExpect{Verdict: "panic", File: "plug.go"}},
		{Name: "unexpected failure", RunUuid: "r4", Library: lib, Setup: "fail_case",
			Expect: scenario.SpecExpect{Verdict: "pass"}},
	}

	summary, err := runner.Run(context.Background(), cases)
	require.NoError(t, err)

	require.Equal(t, 4, summary.Total)
	require.Equal(t, 3, summary.Passed)
	require.Len(t, summary.Failures, 1)
	require.Equal(t, "unexpected failure", summary.Failures[0].Name)
	require.False(t, summary.OK())

	require.True(t, gath.finished)
	require.Len(t, gath.reports, 4)

	report, ok := gath.reportFor("fails as expected")
	require.True(t, ok)
	require.Equal(t, "error", report.Verdict)
	require.Equal(t, "boom", report.Message)
	require.NotEmpty(t, report.TranscriptKey)

	transcript, err := store.Load(report.TranscriptKey)
	require.NoError(t, err)
	require.Contains(t, string(transcript), "error:boom")

	report, ok = gath.reportFor("panics as expected")
	require.True(t, ok)
	require.Equal(t, "panic", report.Verdict)
	require.NotNil(t, report.Panic)
	require.Equal(t, "oops", report.Panic.Message)
}

func TestRunSuiteMissingArtifact(t *testing.T) {
	gath := &recordingGatherer{}
	runner := &suite.Runner{
		HostBin:     scriptedHost(t),
		ArtifactDir: t.TempDir(),
		Gatherer:    gath,
	}

	summary, err := runner.Run(context.Background(), []scenario.Case{
		{Name: "ghost", RunUuid: "r1", Module: "ghost",
			Expect: scenario.SpecExpect{Verdict: "pass"}},
	})
	require.NoError(t, err)
	require.Len(t, summary.Failures, 1)

	report, ok := gath.reportFor("ghost")
	require.True(t, ok)
	require.Equal(t, "crash", report.Verdict)
	require.Contains(t, report.Message, "not found")
}
