package transcripts_test

import (
	"os"
	"strings"
	"testing"

	"github.com/plugforge/harness/internal/transcripts"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	store, err := transcripts.New(t.TempDir())
	require.NoError(t, err)

	data := []byte("stdout line\nerror:boom\n" + strings.Repeat("padding ", 1000))
	key, err := store.Save("run-1", data)
	require.NoError(t, err)
	require.Equal(t, "run-1.zst", key)

	got, err := store.Load(key)
	require.NoError(t, err)
	require.Equal(t, data, got)

	indexed, ok := store.Key("run-1")
	require.True(t, ok)
	require.Equal(t, key, indexed)
}

func TestTranscriptIsCompressed(t *testing.T) {
	store, err := transcripts.New(t.TempDir())
	require.NoError(t, err)

	data := []byte(strings.Repeat("very repetitive transcript\n", 2000))
	key, err := store.Save("run-2", data)
	require.NoError(t, err)

	info, err := os.Stat(store.Path(key))
	require.NoError(t, err)
	require.Less(t, info.Size(), int64(len(data)))
}

func TestLoadUnknownKey(t *testing.T) {
	store, err := transcripts.New(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("missing.zst")
	require.Error(t, err)
}
