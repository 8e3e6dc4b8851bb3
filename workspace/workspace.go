// Package workspace allocates per-job scratch directories and removes them.
package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const (
	defaultInputExt = ".ogg"
	canonicalName   = "audio.wav"
)

// Job is one request's isolated scratch directory.
type Job struct {
	ID  string
	Dir string

	once sync.Once
}

// InputPath returns where the downloaded upload is stored. The extension is
// taken from the original file name, falling back to .ogg for voice notes.
func (j *Job) InputPath(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext == "" || ext == "." {
		ext = defaultInputExt
	}
	return filepath.Join(j.Dir, "input"+ext)
}

// CanonicalPath returns the path of the normalized WAV file.
func (j *Job) CanonicalPath() string {
	return filepath.Join(j.Dir, canonicalName)
}

// ReplyAudioPath returns the path for synthesized speech with the given extension.
func (j *Job) ReplyAudioPath(ext string) string {
	return filepath.Join(j.Dir, "reply"+ext)
}

// Manager creates job directories under a root.
type Manager struct {
	root      string
	logger    *slog.Logger
	mkdirAll  func(path string, perm os.FileMode) error
	mkdir     func(path string, perm os.FileMode) error
	removeAll func(path string) error
	newID     func() string
}

// NewManager returns a manager rooted at root. The root is created lazily.
func NewManager(root string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		root:      root,
		logger:    logger,
		mkdirAll:  os.MkdirAll,
		mkdir:     os.Mkdir,
		removeAll: os.RemoveAll,
		newID:     func() string { return uuid.New().String() },
	}
}

// CreateJob allocates a fresh identifier and directory.
func (m *Manager) CreateJob() (*Job, error) {
	id := m.newID()
	dir := filepath.Join(m.root, id)
	if err := m.mkdirAll(m.root, 0o700); err != nil {
		return nil, fmt.Errorf("create workspace root: %w", err)
	}
	// Mkdir fails on an existing directory, so ownership is exclusive.
	if err := m.mkdir(dir, 0o700); err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("workspace %s already exists", id)
		}
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	m.logger.Debug("created job directory", "job_id", id, "dir", dir)
	return &Job{ID: id, Dir: dir}, nil
}

// Cleanup removes the job directory. It is safe to call more than once and
// never fails: removal errors are logged.
func (m *Manager) Cleanup(job *Job) {
	if job == nil {
		return
	}
	job.once.Do(func() {
		if err := m.removeAll(job.Dir); err != nil {
			m.logger.Warn("failed to clean up job directory", "job_id", job.ID, "dir", job.Dir, "error", err)
			return
		}
		m.logger.Debug("cleaned up job directory", "job_id", job.ID)
	})
}
