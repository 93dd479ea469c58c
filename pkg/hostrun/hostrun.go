// Package hostrun spawns the host process pointed at a compiled test
// artifact, waits for it to exit, and reproduces the child's terminal
// outcome in the calling process: a logical failure comes back as an
// ordinary error, a panic is re-raised with the original record as its
// payload.
package hostrun

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/plugforge/harness/api"
	"github.com/plugforge/harness/internal/artifact"
	"github.com/plugforge/harness/internal/panics"
)

// DefaultBin is the host binary used when Options.Bin is empty.
const DefaultBin = "nvim"

type Options struct {
	// Bin is the host binary to spawn. Looked up on PATH when relative.
	Bin string

	// LibraryPath is the compiled artifact. When empty it is resolved
	// from ArtifactDir and Module using the platform's native shared
	// library affixes.
	LibraryPath string
	ArtifactDir string
	Module      string

	// EntrySymbol is the exported entry point, loaded by the host as
	// luaopen_<EntrySymbol>. Defaults to Module with dashes mapped to
	// underscores.
	EntrySymbol string

	// ExtraCmd is an optional host command executed before the artifact
	// is loaded.
	ExtraCmd string

	// Stdout receives the child's standard output verbatim whenever it
	// is non-empty, regardless of the run's outcome. Defaults to the
	// process stdout.
	Stdout io.Writer
}

func (o *Options) entrySymbol() string {
	if o.EntrySymbol != "" {
		return o.EntrySymbol
	}
	return strings.ReplaceAll(o.Module, "-", "_")
}

// Verdict is the harness-side classification of a finished run.
type Verdict string

const (
	VerdictPass  Verdict = "pass"
	VerdictError Verdict = "error"
	VerdictPanic Verdict = "panic"
	VerdictCrash Verdict = "crash"
)

// Result is everything the harness observed about one host run.
type Result struct {
	Verdict Verdict
	Message string // failure or crash description, empty on pass
	Panic   *api.PanicRecord

	ExitCode   int
	Stdout     string
	Stderr     string
	WallMillis int64
}

// Command resolves the artifact and builds the host invocation: isolated
// deterministic mode (no user config, no user plugins, no swap files),
// the optional setup command, then the load of the artifact's entry
// symbol. Fails fast with a MissingError before anything is spawned.
func Command(opts Options) (*exec.Cmd, error) {
	libraryPath := opts.LibraryPath
	if libraryPath == "" {
		resolved, err := artifact.Resolve(opts.ArtifactDir, opts.Module)
		if err != nil {
			return nil, err
		}
		libraryPath = resolved
	} else if err := artifact.Check(libraryPath); err != nil {
		return nil, err
	}

	loadLibrary := fmt.Sprintf(
		"lua local f = package.loadlib([[%s]], 'luaopen_%s'); f()",
		libraryPath, opts.entrySymbol(),
	)

	bin := opts.Bin
	if bin == "" {
		bin = DefaultBin
	}

	args := []string{"-u", "NONE", "--headless", "-i", "NONE", "-c", "set noswapfile"}
	if opts.ExtraCmd != "" {
		args = append(args, "-c", opts.ExtraCmd)
	}
	args = append(args, "-c", loadLibrary)

	return exec.Command(bin, args...), nil
}

// Observe spawns the host, waits for it, and classifies the run without
// re-raising anything. The returned error covers only what happened
// before the outcome existed: a missing artifact or a failed spawn.
func Observe(opts Options) (Result, error) {
	cmd, err := Command(opts)
	if err != nil {
		return Result{}, err
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	started := time.Now()
	runErr := cmd.Run()
	wallMillis := time.Since(started).Milliseconds()

	echo := opts.Stdout
	if echo == nil {
		echo = os.Stdout
	}
	if out := strings.TrimSpace(stdout.String()); out != "" {
		fmt.Fprintln(echo, out)
	}

	res := Result{
		Stdout:     stdout.String(),
		Stderr:     stderr.String(),
		WallMillis: wallMillis,
	}

	if runErr == nil {
		res.Verdict = VerdictPass
		return res, nil
	}

	var exitErr *exec.ExitError
	if !errors.As(runErr, &exitErr) {
		return Result{}, fmt.Errorf("failed to run host: %w", runErr)
	}

	res.ExitCode = exitErr.ExitCode()
	classify(&res)
	return res, nil
}

// classify maps the exit state and captured stderr of a failed run onto a
// verdict. ExitCode -1 means the process was signal-terminated and never
// produced an exit code.
func classify(res *Result) {
	if res.Stderr == "" {
		if res.ExitCode == -1 {
			res.Verdict = VerdictCrash
			res.Message = "host terminated by signal (probable crash)"
			return
		}
		res.Verdict = VerdictCrash
		res.Message = fmt.Sprintf("host exited with non-zero exit code: %d", res.ExitCode)
		return
	}

	outcome, err := api.Decode(res.Stderr)
	if err != nil {
		// not harness output at all; surface the raw text
		res.Verdict = VerdictCrash
		res.Message = strings.TrimSpace(res.Stderr)
		return
	}

	switch outcome.Kind {
	case api.KindError:
		res.Verdict = VerdictError
		res.Message = outcome.Message
	case api.KindPanic:
		res.Verdict = VerdictPanic
		res.Panic = outcome.Panic
	}
}

// Run executes one test artifact in the host and surfaces the result the
// way a test framework expects it: nil on success, an error value for a
// logical failure or crash, and a re-raised panic (carrying the child's
// record) when the test body unwound. Each Run is independent; concurrent
// runs share no state.
func Run(opts Options) error {
	res, err := Observe(opts)
	if err != nil {
		return err
	}
	return surface(res)
}

func surface(res Result) error {
	switch res.Verdict {
	case VerdictPass:
		return nil
	case VerdictPanic:
		rec := *res.Panic
		if name, ok := panics.CurrentName(); ok && name != "" {
			rec.Goroutine = name
		}
		// the payload is a structured record, which the default panic
		// printer would render as an opaque type; print the readable
		// form first
		fmt.Fprintln(os.Stderr, rec.String())
		panic(rec)
	default:
		return errors.New(res.Message)
	}
}
