// Package selfcheck verifies that the harness can work in the current
// environment: the host binary is reachable, the artifact directory
// exists, and the child-side protocol round-trips through an in-process
// loopback host without spawning anything.
package selfcheck

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/plugforge/harness/api"
	"github.com/plugforge/harness/pkg/plugrun"
)

// Check is one verified property. Err is nil when it holds.
type Check struct {
	Name string
	Info string
	Err  error
}

func (c Check) OK() bool {
	return c.Err == nil
}

// Run performs every check.
func Run(hostBin string, artifactDir string) []Check {
	checks := []Check{
		HostBinary(hostBin),
		ArtifactDir(artifactDir),
	}
	return append(checks, Protocol()...)
}

// HostBinary verifies the host is on PATH and answers a version probe.
func HostBinary(bin string) Check {
	check := Check{Name: "host binary"}

	path, err := exec.LookPath(bin)
	if err != nil {
		check.Err = fmt.Errorf("host binary %q not found on PATH", bin)
		return check
	}

	out, err := exec.Command(path, "--version").Output()
	if err != nil {
		check.Err = fmt.Errorf("host binary %q does not answer --version: %w", bin, err)
		return check
	}

	version, _, _ := strings.Cut(string(out), "\n")
	check.Info = strings.TrimSpace(version)
	return check
}

// ArtifactDir verifies the artifact directory exists.
func ArtifactDir(dir string) Check {
	check := Check{Name: "artifact directory"}
	if dir == "" {
		check.Info = "not configured"
		return check
	}
	info, err := os.Stat(dir)
	if err != nil {
		check.Err = fmt.Errorf("artifact directory %q does not exist", dir)
		return check
	}
	if !info.IsDir() {
		check.Err = fmt.Errorf("artifact path %q is not a directory", dir)
		return check
	}
	check.Info = dir
	return check
}

// Protocol exercises the child-side runner against a loopback host and
// decodes what it wrote, covering the success, failure, panic and
// asynchronous paths.
func Protocol() []Check {
	return []Check{
		protocolSuccess(),
		protocolError(),
		protocolPanic(),
		protocolAsync(),
	}
}

func protocolSuccess() Check {
	check := Check{Name: "protocol: success run"}

	host := plugrun.NewLoopbackHost()
	defer host.Close()
	var stderr bytes.Buffer

	plugrun.RunTo(&stderr, host, func() error { return nil })

	if quit := host.WaitQuit(); quit != "qall!" {
		check.Err = fmt.Errorf("expected normal quit, host got %q", quit)
	} else if stderr.Len() != 0 {
		check.Err = fmt.Errorf("successful run wrote to stderr: %q", stderr.String())
	}
	return check
}

func protocolError() Check {
	check := Check{Name: "protocol: logical failure"}

	host := plugrun.NewLoopbackHost()
	defer host.Close()
	var stderr bytes.Buffer

	plugrun.RunTo(&stderr, host, func() error { return errors.New("boom") })

	if quit := host.WaitQuit(); quit != "cquit 1" {
		check.Err = fmt.Errorf("expected forced error exit, host got %q", quit)
		return check
	}

	outcome, err := api.Decode(stderr.String())
	if err != nil {
		check.Err = err
	} else if outcome.Kind != api.KindError || outcome.Message != "boom" {
		check.Err = fmt.Errorf("decoded %v, want logical failure \"boom\"", outcome)
	}
	return check
}

func protocolPanic() Check {
	check := Check{Name: "protocol: panic"}

	host := plugrun.NewLoopbackHost()
	defer host.Close()
	var stderr bytes.Buffer

	plugrun.RunTo(&stderr, host, func() error { panic("selfcheck panic") })

	if quit := host.WaitQuit(); quit != "cquit 1" {
		check.Err = fmt.Errorf("expected forced error exit, host got %q", quit)
		return check
	}

	outcome, err := api.Decode(stderr.String())
	if err != nil {
		check.Err = err
	} else if outcome.Kind != api.KindPanic || outcome.Panic.Message != "selfcheck panic" {
		check.Err = fmt.Errorf("decoded %v, want panic \"selfcheck panic\"", outcome)
	}
	return check
}

func protocolAsync() Check {
	check := Check{Name: "protocol: asynchronous termination"}

	host := plugrun.NewLoopbackHost()
	defer host.Close()
	var stderr bytes.Buffer

	err := plugrun.RunAsyncTo(&stderr, host, func(term *plugrun.Terminator) {
		go term.Terminate(nil)
	})
	if err != nil {
		check.Err = err
		return check
	}

	if quit := host.WaitQuit(); quit != "qall!" {
		check.Err = fmt.Errorf("expected normal quit, host got %q", quit)
	}
	return check
}
