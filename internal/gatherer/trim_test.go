package gatherer_test

import (
	"strings"
	"testing"

	"github.com/plugforge/harness/internal/gatherer"
	"github.com/stretchr/testify/require"
)

func TestTrimToRectShortStringUntouched(t *testing.T) {
	require.Equal(t, "a\nb", gatherer.TrimToRect("a\nb", 5, 10))
}

func TestTrimToRectLimitsHeight(t *testing.T) {
	in := strings.Repeat("x\n", 10) + "x"
	out := gatherer.TrimToRect(in, 3, 10)
	require.Equal(t, "x\nx\nx\n[...]", out)
}

func TestTrimToRectLimitsWidth(t *testing.T) {
	out := gatherer.TrimToRect(strings.Repeat("y", 20), 3, 5)
	require.Equal(t, "yyyyy[...]", out)
}
