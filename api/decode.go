package api

import (
	"fmt"
	"strconv"
	"strings"
)

// DecodeError reports stderr text that does not match the wire grammar.
// The raw text is preserved so the caller can surface it verbatim instead
// of swallowing it.
type DecodeError struct {
	Raw    string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("undecodable outcome (%s): %q", e.Reason, e.Raw)
}

// Decode parses the wire format produced by Encode. It is only ever called
// on non-empty stderr, so a successful outcome (which encodes to nothing)
// is never a valid input.
//
// The "error:" probe runs first: a logical failure whose message happens
// to contain "panic:" must still decode as a logical failure.
func Decode(s string) (Outcome, error) {
	if _, msg, ok := strings.Cut(s, "error:"); ok {
		return Error(strings.TrimSpace(msg)), nil
	}

	rec, err := decodePanicRecord(s)
	if err != nil {
		return Outcome{}, err
	}
	return Panicked(rec), nil
}

func decodePanicRecord(s string) (PanicRecord, error) {
	structural := func(reason string) (PanicRecord, error) {
		return PanicRecord{}, &DecodeError{Raw: s, Reason: reason}
	}

	_, rest, ok := strings.Cut(s, "panic:")
	if !ok {
		return structural("missing panic: keyword")
	}

	msg, rest, ok := strings.Cut(rest, "thread:")
	if !ok {
		return structural("missing thread: keyword")
	}

	goroutine, rest, ok := strings.Cut(rest, "file:")
	if !ok {
		return structural("missing file: keyword")
	}

	file, rest, ok := strings.Cut(rest, "line:")
	if !ok {
		return structural("missing line: keyword")
	}

	lineStr, colStr, ok := strings.Cut(rest, "column:")
	if !ok {
		return structural("missing column: keyword")
	}

	line, err := strconv.ParseUint(strings.TrimSpace(lineStr), 10, 32)
	if err != nil {
		return structural("line is not a non-negative integer")
	}

	column, err := strconv.ParseUint(strings.TrimSpace(colStr), 10, 32)
	if err != nil {
		return structural("column is not a non-negative integer")
	}

	return PanicRecord{
		Message:   strings.TrimSpace(msg),
		Goroutine: strings.TrimSpace(goroutine),
		File:      strings.TrimSpace(file),
		Line:      int(line),
		Column:    int(column),
	}, nil
}
