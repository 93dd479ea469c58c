// Package artifact locates the compiled shared library that the host
// process loads for a test run.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// MissingError means the artifact was never built. It is raised before
// any host process is spawned.
type MissingError struct {
	Path string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf(
		"compiled artifact not found at '%s'; build the plugin with "+
			"`go build -buildmode=c-shared` before running the tests",
		e.Path)
}

// SharedLibName returns the platform-native filename for a shared library
// called name.
func SharedLibName(name string) string {
	return sharedLibNameFor(runtime.GOOS, name)
}

func sharedLibNameFor(goos string, name string) string {
	switch goos {
	case "windows":
		return name + ".dll"
	case "darwin":
		return "lib" + name + ".dylib"
	default:
		return "lib" + name + ".so"
	}
}

// SharedLibPath joins dir with the platform-native filename for name.
func SharedLibPath(dir string, name string) string {
	return filepath.Join(dir, SharedLibName(name))
}

// Resolve returns the absolute path of the compiled library for name
// under dir, failing with a MissingError if the file does not exist.
func Resolve(dir string, name string) (string, error) {
	path, err := filepath.Abs(SharedLibPath(dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to resolve artifact path: %w", err)
	}
	return path, Check(path)
}

// Check verifies that an explicitly given artifact path exists.
func Check(path string) error {
	if _, err := os.Stat(path); err != nil {
		return &MissingError{Path: path}
	}
	return nil
}
