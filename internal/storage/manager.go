package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Lmezouari07/car-manual-maintenance-assistant/internal/models"
)

// ErrNotFound is returned for a manual name the store does not hold.
var ErrNotFound = errors.New("manual not found")

// Store defines the interface for manual storage.
type Store interface {
	Save(name string, r io.Reader) (*models.ManualFile, error)
	Get(name string) (*models.ManualFile, error)
	List() ([]*models.ManualFile, error)
	Delete(name string) error
	GetFilePath(name string) (string, error)
}

// LocalStore implements Store using the local filesystem. Manuals are kept
// under their own name; the name is the only key.
type LocalStore struct {
	mu        sync.RWMutex
	uploadDir string
	files     map[string]*models.ManualFile
}

// NewLocalStore creates a LocalStore and indexes the manuals already in uploadDir.
func NewLocalStore(uploadDir string) (*LocalStore, error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}

	s := &LocalStore{
		uploadDir: uploadDir,
		files:     make(map[string]*models.ManualFile),
	}

	entries, err := os.ReadDir(uploadDir)
	if err != nil {
		return nil, fmt.Errorf("reading upload directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || strings.HasSuffix(e.Name(), ".part") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		s.files[e.Name()] = &models.ManualFile{
			Name:       e.Name(),
			Size:       info.Size(),
			UploadedAt: info.ModTime(),
		}
	}

	return s, nil
}

// CleanName reduces an uploaded file name to a safe base name.
func CleanName(name string) (string, error) {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	name = filepath.Base(name)
	if name == "" || name == "." || name == "/" || name == ".." || strings.HasSuffix(name, ".part") {
		return "", fmt.Errorf("invalid manual name %q", name)
	}
	return name, nil
}

// Save writes r under name, replacing a manual with the same name. The
// content goes to a temporary file first so a failed write never leaves a
// partial manual behind.
func (s *LocalStore) Save(name string, r io.Reader) (*models.ManualFile, error) {
	name, err := CleanName(name)
	if err != nil {
		return nil, err
	}

	tmp := filepath.Join(s.uploadDir, uuid.New().String()+".part")
	f, err := os.Create(tmp)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}

	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("writing file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Rename(tmp, filepath.Join(s.uploadDir, name)); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("storing file: %w", err)
	}

	info := &models.ManualFile{
		Name:       name,
		Size:       size,
		UploadedAt: time.Now(),
	}
	s.files[name] = info

	out := *info
	return &out, nil
}

// Get retrieves manual metadata by name.
func (s *LocalStore) Get(name string) (*models.ManualFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info, ok := s.files[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	out := *info
	return &out, nil
}

// List returns every manual sorted by name.
func (s *LocalStore) List() ([]*models.ManualFile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*models.ManualFile, 0, len(s.files))
	for _, info := range s.files {
		out := *info
		list = append(list, &out)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].Name < list[j].Name
	})

	return list, nil
}

// Delete removes a manual from storage.
func (s *LocalStore) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	path := filepath.Join(s.uploadDir, name)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("deleting file: %w", err)
	}

	delete(s.files, name)
	return nil
}

// GetFilePath returns the path of a stored manual.
func (s *LocalStore) GetFilePath(name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.files[name]; !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	return filepath.Join(s.uploadDir, name), nil
}
