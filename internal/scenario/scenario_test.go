package scenario_test

import (
	"testing"

	"github.com/plugforge/harness/api"
	"github.com/plugforge/harness/internal/scenario"
	"github.com/plugforge/harness/pkg/hostrun"
	"github.com/stretchr/testify/require"
)

const behaviourFile = `
[[scenarios]]
name = "plugin loads"
module = "load_test"

[[scenarios]]
name = "plugin reports failure"
module = "fail_test"
entry = "fail_entry"
setup = "set rtp+=."

[scenarios.expect]
verdict = "error"
message = "boom"

[[scenarios]]
name = "plugin panics"
library = "/opt/plugins/libpanic_test.so"

[scenarios.expect]
verdict = "panic"
file = "panic_test.go"
`

func TestParseBytes(t *testing.T) {
	cases, err := scenario.ParseBytes([]byte(behaviourFile))
	require.NoError(t, err)
	require.Len(t, cases, 3)

	require.Equal(t, "plugin loads", cases[0].Name)
	require.Equal(t, "load_test", cases[0].Module)
	require.Equal(t, "pass", cases[0].Expect.Verdict)
	require.NotEmpty(t, cases[0].RunUuid)

	require.Equal(t, "fail_entry", cases[1].Entry)
	require.Equal(t, "set rtp+=.", cases[1].Setup)
	require.Equal(t, "error", cases[1].Expect.Verdict)
	require.Equal(t, "boom", cases[1].Expect.Message)

	require.Equal(t, "/opt/plugins/libpanic_test.so", cases[2].Library)
	require.Equal(t, "panic", cases[2].Expect.Verdict)

	require.NotEqual(t, cases[0].RunUuid, cases[1].RunUuid)
}

func TestParseRejectsDuplicateNames(t *testing.T) {
	_, err := scenario.ParseBytes([]byte(`
[[scenarios]]
name = "same"
module = "a"

[[scenarios]]
name = "same"
module = "b"
`))
	require.ErrorContains(t, err, "duplicate scenario name")
}

func TestParseRejectsUnknownVerdict(t *testing.T) {
	_, err := scenario.ParseBytes([]byte(`
[[scenarios]]
name = "odd"
module = "a"

[scenarios.expect]
verdict = "explodes"
`))
	require.ErrorContains(t, err, "unknown verdict")
}

func TestParseRejectsMissingTarget(t *testing.T) {
	_, err := scenario.ParseBytes([]byte(`
[[scenarios]]
name = "aimless"
`))
	require.ErrorContains(t, err, "neither a module nor a library")
}

func TestExpectCheck(t *testing.T) {
	expect := scenario.SpecExpect{Verdict: "error", Message: "boom"}

	require.NoError(t, expect.Check(hostrun.Result{
		Verdict: hostrun.VerdictError,
		Message: "big boom happened",
	}))

	require.Error(t, expect.Check(hostrun.Result{Verdict: hostrun.VerdictPass}))
	require.Error(t, expect.Check(hostrun.Result{
		Verdict: hostrun.VerdictError,
		Message: "something else",
	}))
}

func TestExpectCheckPanicFile(t *testing.T) {
	expect := scenario.SpecExpect{Verdict: "panic", File: "panic_test.go"}

	require.NoError(t, expect.Check(hostrun.Result{
		Verdict: hostrun.VerdictPanic,
		Panic:   &api.PanicRecord{Message: "oops", File: "/src/panic_test.go"},
	}))

	require.Error(t, expect.Check(hostrun.Result{
		Verdict: hostrun.VerdictPanic,
		Panic:   &api.PanicRecord{Message: "oops", File: "other.go"},
	}))
}
