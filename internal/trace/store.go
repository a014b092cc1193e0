package trace

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNoTrace is returned by Load when the file does not exist.
var ErrNoTrace = errors.New("no trace file")

// Store persists a Trace.
type Store interface {
	Save(t *Trace) error
	Load() (*Trace, error) // returns ErrNoTrace if the file is absent
}

// diskStore writes the artifact to a single JSON file.
type diskStore struct {
	path string
}

// NewDiskStore returns a Store backed by the given file path.
func NewDiskStore(path string) Store {
	return &diskStore{path: path}
}

// Save marshals t to JSON and writes it atomically via a temp file +
// os.Rename, so a crash mid-write never leaves a truncated artifact behind.
func (d *diskStore) Save(t *Trace) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to persist trace: %w", err)
	}

	dir := filepath.Dir(d.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to persist trace: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "trace-*.json.tmp")
	if err != nil {
		return fmt.Errorf("failed to persist trace: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to persist trace: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to persist trace: %w", err)
	}

	if err = os.Rename(tmpName, d.path); err != nil {
		return fmt.Errorf("failed to persist trace: %w", err)
	}
	return nil
}

// Load reads and unmarshals the trace file.
func (d *diskStore) Load() (*Trace, error) {
	data, err := os.ReadFile(d.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoTrace
		}
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}

	var t Trace
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse trace file %s: %w", d.path, err)
	}
	return &t, nil
}
