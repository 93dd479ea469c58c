// Package scenario reads harness behaviour files: TOML descriptions of
// which plugin artifacts to run in the host and what outcome each run is
// expected to produce.
package scenario

import (
	"fmt"
	"os"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"
	"github.com/plugforge/harness/pkg/hostrun"
)

// SpecExpect describes the expected outcome of one scenario
type SpecExpect struct {
	Verdict string `toml:"verdict"` // pass | error | panic | crash
	Message string `toml:"message"` // substring of the failure message
	File    string `toml:"file"`    // substring of the panic file
}

// specScenario maps to a [[scenarios]] entry
type specScenario struct {
	Name    string     `toml:"name"`
	Module  string     `toml:"module"`  // artifact name resolved in the artifact dir
	Library string     `toml:"library"` // or an explicit artifact path
	Entry   string     `toml:"entry"`
	Setup   string     `toml:"setup"`
	Expect  SpecExpect `toml:"expect"`
}

type specRoot struct {
	Scenarios []specScenario `toml:"scenarios"`
}

// Case is a runnable scenario converted from TOML
type Case struct {
	Name    string
	RunUuid string
	Module  string
	Library string
	Entry   string
	Setup   string
	Expect  SpecExpect
}

var knownVerdicts = mapset.NewSet(
	string(hostrun.VerdictPass),
	string(hostrun.VerdictError),
	string(hostrun.VerdictPanic),
	string(hostrun.VerdictCrash),
)

// Parse reads a behaviour TOML file and converts it to runnable cases.
func Parse(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read behaviour file: %w", err)
	}
	return ParseBytes(data)
}

func ParseBytes(data []byte) ([]Case, error) {
	var root specRoot
	if err := toml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	if len(root.Scenarios) == 0 {
		return nil, fmt.Errorf("behaviour file contains no scenarios")
	}

	seen := mapset.NewSet[string]()
	cases := make([]Case, 0, len(root.Scenarios))
	for _, s := range root.Scenarios {
		if s.Name == "" {
			return nil, fmt.Errorf("scenario entry is missing a name")
		}
		if !seen.Add(s.Name) {
			return nil, fmt.Errorf("duplicate scenario name: %s", s.Name)
		}
		if s.Module == "" && s.Library == "" {
			return nil, fmt.Errorf("scenario %q names neither a module nor a library", s.Name)
		}
		if s.Expect.Verdict == "" {
			s.Expect.Verdict = string(hostrun.VerdictPass)
		}
		if !knownVerdicts.Contains(s.Expect.Verdict) {
			return nil, fmt.Errorf("scenario %q expects unknown verdict %q",
				s.Name, s.Expect.Verdict)
		}

		cases = append(cases, Case{
			Name:    s.Name,
			RunUuid: uuid.NewString(),
			Module:  s.Module,
			Library: s.Library,
			Entry:   s.Entry,
			Setup:   s.Setup,
			Expect:  s.Expect,
		})
	}
	return cases, nil
}

// Check compares an observed run against the expectation.
func (e SpecExpect) Check(res hostrun.Result) error {
	if string(res.Verdict) != e.Verdict {
		return fmt.Errorf("expected verdict %s, got %s", e.Verdict, res.Verdict)
	}
	if e.Message != "" {
		actual := res.Message
		if res.Panic != nil {
			actual = res.Panic.Message
		}
		if !strings.Contains(actual, e.Message) {
			return fmt.Errorf("expected message containing %q, got %q", e.Message, actual)
		}
	}
	if e.File != "" {
		if res.Panic == nil {
			return fmt.Errorf("expected a panic located in %q, got none", e.File)
		}
		if !strings.Contains(res.Panic.File, e.File) {
			return fmt.Errorf("expected panic file containing %q, got %q",
				e.File, res.Panic.File)
		}
	}
	return nil
}
