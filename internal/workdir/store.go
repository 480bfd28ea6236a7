package workdir

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/satriahrh/voxlate/domain/entities"
)

// partialPrefix marks files that are still being written
const partialPrefix = ".partial-"

// Store is a single working directory
type Store struct {
	dir    string
	logger *zap.Logger
}

// NewStore creates the directory if needed and returns a store bound to it
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("working directory path is required")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working directory %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create working directory %s: %w", abs, err)
	}

	return &Store{dir: abs, logger: logger}, nil
}

// Dir returns the absolute directory path
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the location of name inside the store
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Resolve validates a bare file name supplied from outside and returns its path
func (s *Store) Resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("invalid working file name: %q", name)
	}
	path := s.Path(name)
	if _, err := os.Stat(path); err != nil {
		return "", err
	}
	return path, nil
}

// Write stores data under a freshly generated name. The bytes land in a
// partial file first and are renamed into place once complete.
func (s *Store) Write(prefix, extension string, data []byte) (entities.WorkingFileEntry, error) {
	name := GenerateName(prefix, extension)
	return s.WriteNamed(name, data)
}

// WriteNamed stores data under the given name using create-then-rename
func (s *Store) WriteNamed(name string, data []byte) (entities.WorkingFileEntry, error) {
	tmp := s.Path(partialPrefix + name)
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return entities.WorkingFileEntry{}, fmt.Errorf("failed to write %s: %w", tmp, err)
	}

	final := s.Path(name)
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return entities.WorkingFileEntry{}, fmt.Errorf("failed to move %s into place: %w", final, err)
	}

	s.logger.Debug("Working file written",
		zap.String("dir", s.dir),
		zap.String("name", name),
		zap.Int("bytes", len(data)))

	return entities.WorkingFileEntry{
		Name:      name,
		Dir:       s.dir,
		CreatedAt: time.Now(),
	}, nil
}

// Stage reserves a fresh name and returns the partial path an external
// writer (such as ffmpeg) should produce. Call Commit once the file is complete.
func (s *Store) Stage(prefix, extension string) (name, partialPath string) {
	name = GenerateName(prefix, extension)
	return name, s.Path(partialPrefix + name)
}

// Commit moves a staged partial file into place under its final name
func (s *Store) Commit(name string) (entities.WorkingFileEntry, error) {
	final := s.Path(name)
	if err := os.Rename(s.Path(partialPrefix+name), final); err != nil {
		return entities.WorkingFileEntry{}, fmt.Errorf("failed to move %s into place: %w", final, err)
	}
	return entities.WorkingFileEntry{Name: name, Dir: s.dir, CreatedAt: time.Now()}, nil
}

// Discard removes a staged partial file that will never be committed
func (s *Store) Discard(name string) {
	_ = os.Remove(s.Path(partialPrefix + name))
}

// Read returns the contents of name
func (s *Store) Read(name string) ([]byte, error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return nil, fmt.Errorf("failed to read working file %s: %w", name, err)
	}
	return data, nil
}

// Remove deletes name; a missing file is not an error
func (s *Store) Remove(name string) error {
	if err := os.Remove(s.Path(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove working file %s: %w", name, err)
	}
	return nil
}

// Sweep evicts files from the store according to policy
func (s *Store) Sweep(policy SweepPolicy) SweepReport {
	report := Sweep(s.dir, policy)
	if report.Deleted > 0 || report.Failed > 0 {
		s.logger.Info("Working directory swept",
			zap.String("dir", s.dir),
			zap.Int("kept", report.Kept),
			zap.Int("deleted", report.Deleted),
			zap.Int("failed", report.Failed))
	}
	return report
}
