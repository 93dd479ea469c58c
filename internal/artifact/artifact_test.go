package artifact_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/plugforge/harness/internal/artifact"
	"github.com/stretchr/testify/require"
)

func TestSharedLibName(t *testing.T) {
	name := artifact.SharedLibName("myplugin")
	switch runtime.GOOS {
	case "windows":
		require.Equal(t, "myplugin.dll", name)
	case "darwin":
		require.Equal(t, "libmyplugin.dylib", name)
	default:
		require.Equal(t, "libmyplugin.so", name)
	}
}

func TestResolveMissing(t *testing.T) {
	dir := t.TempDir()

	_, err := artifact.Resolve(dir, "nonexistent")
	require.Error(t, err)

	var missing *artifact.MissingError
	require.ErrorAs(t, err, &missing)
	require.Contains(t, missing.Error(), "build the plugin")
}

func TestResolveExisting(t *testing.T) {
	dir := t.TempDir()
	libPath := artifact.SharedLibPath(dir, "myplugin")
	require.NoError(t, os.WriteFile(libPath, []byte{0}, 0o644))

	path, err := artifact.Resolve(dir, "myplugin")
	require.NoError(t, err)
	require.True(t, filepath.IsAbs(path))
	require.Equal(t, filepath.Base(libPath), filepath.Base(path))
}
