package api

// MsgType is a message type for streamed harness reports.
type MsgType string

// Streaming message type constants
const (
	StartSuiteMsg  MsgType = "suite_start"
	StartRunMsg    MsgType = "run_start"
	FinishRunMsg   MsgType = "run_finish"
	FinishSuiteMsg MsgType = "suite_finish"
)

// Transcript size constraints for streamed reports
const (
	MaxTranscriptHeight = 40
	MaxTranscriptWidth  = 80
)

// Header is the common header for all streamed report messages
type Header struct {
	SuiteUuid string  `json:"suite_uuid"`
	MsgType   MsgType `json:"msg_type"`
}

// RunReport is the terminal report for a single plugin run as seen by the
// harness: the decoded outcome plus what the harness measured around it.
type RunReport struct {
	RunUuid string `json:"run_uuid"`
	Name    string `json:"name"`

	Verdict string `json:"verdict"` // "pass", "error", "panic" or "crash"
	Message string `json:"message,omitempty"`

	Panic *PanicRecord `json:"panic,omitempty"`

	WallMillis    int64  `json:"wall_ms"`
	TranscriptKey string `json:"transcript_key,omitempty"`
}

type StartSuite struct {
	Header
	HostInfo string `json:"host_info"`
	NumRuns  int    `json:"num_runs"`
}

type StartRun struct {
	Header
	RunUuid string `json:"run_uuid"`
	Name    string `json:"name"`
}

type FinishRun struct {
	Header
	Report RunReport `json:"report"`
}

type FinishSuite struct {
	Header
	ErrorMessage *string `json:"error_message"`
}

func NewStartSuite(suiteUuid string, hostInfo string, numRuns int) StartSuite {
	return StartSuite{
		Header:   Header{SuiteUuid: suiteUuid, MsgType: StartSuiteMsg},
		HostInfo: hostInfo,
		NumRuns:  numRuns,
	}
}

func NewStartRun(suiteUuid string, runUuid string, name string) StartRun {
	return StartRun{
		Header:  Header{SuiteUuid: suiteUuid, MsgType: StartRunMsg},
		RunUuid: runUuid,
		Name:    name,
	}
}

func NewFinishRun(suiteUuid string, report RunReport) FinishRun {
	return FinishRun{
		Header: Header{SuiteUuid: suiteUuid, MsgType: FinishRunMsg},
		Report: report,
	}
}

func NewFinishSuite(suiteUuid string, errMsg *string) FinishSuite {
	return FinishSuite{
		Header:       Header{SuiteUuid: suiteUuid, MsgType: FinishSuiteMsg},
		ErrorMessage: errMsg,
	}
}
