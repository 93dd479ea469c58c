// Package transcripts stores the captured stdout/stderr of finished host
// runs so that a failure can be inspected after the suite is gone.
// Transcripts are zstd-compressed on disk and indexed in memory by run
// uuid.
package transcripts

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/puzpuzpuz/xsync/v3"
)

type Store struct {
	dir   string
	index *xsync.MapOf[string, string] // run uuid -> transcript key
}

// New creates a store rooted at dir, creating it if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create transcript directory: %w", err)
	}
	return &Store{
		dir:   dir,
		index: xsync.NewMapOf[string, string](),
	}, nil
}

// Save compresses and writes the transcript for a run, returning the key
// it can later be loaded by. Saving twice for the same run overwrites.
func (s *Store) Save(runUuid string, data []byte) (string, error) {
	key := runUuid + ".zst"
	path := filepath.Join(s.dir, key)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create transcript file: %w", err)
	}

	enc, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		return "", fmt.Errorf("failed to create zstd writer: %w", err)
	}
	if _, err := enc.Write(data); err != nil {
		enc.Close()
		f.Close()
		return "", fmt.Errorf("failed to write transcript: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to finish transcript: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close transcript file: %w", err)
	}

	s.index.Store(runUuid, key)
	return key, nil
}

// Load reads a transcript back by its key.
func (s *Store) Load(key string) ([]byte, error) {
	f, err := os.Open(filepath.Join(s.dir, key))
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript %s: %w", key, err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer dec.Close()

	data, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript %s: %w", key, err)
	}
	return data, nil
}

// Key returns the transcript key of a run, if one was saved.
func (s *Store) Key(runUuid string) (string, bool) {
	return s.index.Load(runUuid)
}

// Path returns the on-disk location of a transcript key.
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, key)
}
