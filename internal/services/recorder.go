package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/yungbote/studytrack-backend/internal/logger"
)

// Recorder is the background-audio collaborator. Every failure degrades:
// tracking continues without audio, never fatally.
type Recorder interface {
	// Start begins capture and returns the recording file path.
	Start(ctx context.Context) (string, error)
	// Stop ends capture and returns the final path. After a process
	// restart there is no in-memory handle, so Stop may fail; callers fall
	// back to the path captured at launch time.
	Stop(ctx context.Context) (string, error)
	Delete(ctx context.Context, path string) error
}

// fileRecorder manages recording files under a local directory. The actual
// audio capture is driven by the paired device; this side owns the file
// lifecycle.
type fileRecorder struct {
	log *logger.Logger
	dir string

	mu      sync.Mutex
	current string
}

func NewFileRecorder(baseLog *logger.Logger, dir string) Recorder {
	return &fileRecorder{
		log: baseLog.With("service", "FileRecorder"),
		dir: dir,
	}
}

func (r *fileRecorder) Start(ctx context.Context) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("recordings dir: %w", err)
	}

	path := filepath.Join(r.dir, fmt.Sprintf("lecture_%d.m4a", time.Now().UnixMilli()))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create recording file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close recording file: %w", err)
	}

	r.mu.Lock()
	r.current = path
	r.mu.Unlock()

	r.log.Debug("Recording started", "recording_path", path)
	return path, nil
}

func (r *fileRecorder) Stop(ctx context.Context) (string, error) {
	r.mu.Lock()
	path := r.current
	r.current = ""
	r.mu.Unlock()

	if path == "" {
		return "", fmt.Errorf("no active recording")
	}
	r.log.Debug("Recording stopped", "recording_path", path)
	return path, nil
}

func (r *fileRecorder) Delete(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete recording: %w", err)
	}
	return nil
}
