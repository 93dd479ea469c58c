package api

import (
	"fmt"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// Kind classifies how a plugin test run ended.
type Kind int

const (
	KindSuccess Kind = iota
	KindError
	KindPanic
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindError:
		return "error"
	case KindPanic:
		return "panic"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Outcome is the terminal result of a single plugin test run. Exactly one
// kind is produced per run. Message is set for KindError, Panic for
// KindPanic.
type Outcome struct {
	Kind    Kind
	Message string
	Panic   *PanicRecord
}

func Success() Outcome {
	return Outcome{Kind: KindSuccess}
}

func Error(msg string) Outcome {
	return Outcome{Kind: KindError, Message: msg}
}

func Panicked(rec PanicRecord) Outcome {
	return Outcome{Kind: KindPanic, Panic: &rec}
}

// Encode renders the outcome in the wire format written to the host's
// stderr. A successful run produces no output at all; the parent decides
// success from the exit code alone.
func (o Outcome) Encode() string {
	switch o.Kind {
	case KindSuccess:
		return ""
	case KindError:
		return "error:" + o.Message
	case KindPanic:
		var b strings.Builder
		b.WriteString("panic:")
		b.WriteString(o.Panic.Message)
		b.WriteString("\nthread:")
		b.WriteString(o.Panic.Goroutine)
		// the location fields travel as a group: the decoder walks the
		// keywords in fixed order, so a partial location would be
		// undecodable. A record without attribution omits all three and
		// surfaces on the parent side as raw text.
		if o.Panic.File != "" {
			fmt.Fprintf(&b, "\nfile:%s\nline:%d\ncolumn:%d",
				o.Panic.File, o.Panic.Line, o.Panic.Column)
		}
		return b.String()
	}
	panic(fmt.Sprintf("unknown outcome kind %d", int(o.Kind)))
}

// reservedTokens are the wire keywords. A failure or panic message that
// contains one of them corrupts decoding on the parent side. This is a
// known limitation of the plain-text protocol, kept for compatibility;
// callers can probe with ContainsReservedToken and warn.
var reservedTokens = mapset.NewSet(
	"error:", "panic:", "thread:", "file:", "line:", "column:",
)

// ContainsReservedToken reports whether s contains any protocol keyword.
func ContainsReservedToken(s string) bool {
	for tok := range reservedTokens.Iter() {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}
