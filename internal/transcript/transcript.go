// Package transcript saves and restores conversation turns between
// terminal sessions using msgpack.
package transcript

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/models"
)

const formatVersion = 1

type file struct {
	Version int           `msgpack:"version"`
	SavedAt time.Time     `msgpack:"saved_at"`
	Manual  string        `msgpack:"manual,omitempty"`
	Turns   []models.Turn `msgpack:"turns"`
}

// Snapshot is what gets persisted.
type Snapshot struct {
	SavedAt time.Time
	Manual  string // selected manual at save time, empty for none
	Turns   []models.Turn
}

// Save writes snap to path, replacing any previous transcript.
func Save(path string, snap Snapshot) error {
	if snap.SavedAt.IsZero() {
		snap.SavedAt = time.Now()
	}
	data, err := msgpack.Marshal(&file{
		Version: formatVersion,
		SavedAt: snap.SavedAt,
		Manual:  snap.Manual,
		Turns:   snap.Turns,
	})
	if err != nil {
		return fmt.Errorf("failed to encode transcript: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create transcript directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	return nil
}

// Load reads the transcript at path. A missing file is an empty snapshot.
func Load(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to read transcript: %w", err)
	}

	var f file
	if err := msgpack.Unmarshal(data, &f); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode transcript: %w", err)
	}
	if f.Version != formatVersion {
		return Snapshot{}, fmt.Errorf("unsupported transcript version %d", f.Version)
	}
	return Snapshot{SavedAt: f.SavedAt, Manual: f.Manual, Turns: f.Turns}, nil
}
