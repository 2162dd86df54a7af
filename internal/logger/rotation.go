package logger

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const backupTimeFormat = "20060102-150405.000"

// RotatingWriter appends to a log file and moves it aside once it would
// grow past maxSize. Safe for concurrent use.
type RotatingWriter struct {
	mu       sync.Mutex
	path     string
	maxSize  int64
	maxAge   time.Duration
	compress bool
	file     *os.File
	size     int64
	pending  sync.WaitGroup
}

// NewRotatingWriter opens path for appending. maxSizeMB <= 0 disables
// rotation; maxAgeDays <= 0 keeps rotated files forever.
func NewRotatingWriter(path string, maxSizeMB, maxAgeDays int, compress bool) (*RotatingWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	w := &RotatingWriter{
		path:     path,
		maxSize:  int64(maxSizeMB) * 1024 * 1024,
		maxAge:   time.Duration(maxAgeDays) * 24 * time.Hour,
		compress: compress,
	}
	if err := w.open(); err != nil {
		return nil, err
	}
	w.prune(time.Now())
	return w, nil
}

func (w *RotatingWriter) open() error {
	file, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	w.file = file
	w.size = info.Size()
	return nil
}

func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return 0, os.ErrClosed
	}
	if w.maxSize > 0 && w.size > 0 && w.size+int64(len(p)) > w.maxSize {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

// Close closes the file and waits for pending compressions.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	var err error
	if w.file != nil {
		err = w.file.Close()
		w.file = nil
	}
	w.mu.Unlock()

	w.pending.Wait()
	return err
}

func (w *RotatingWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		return err
	}

	backup := w.path + "." + time.Now().Format(backupTimeFormat)
	if err := os.Rename(w.path, backup); err != nil {
		return err
	}
	if w.compress {
		w.pending.Add(1)
		go func() {
			defer w.pending.Done()
			_ = gzipFile(backup)
		}()
	}

	if err := w.open(); err != nil {
		return err
	}
	w.prune(time.Now())
	return nil
}

// prune removes rotated files older than maxAge.
func (w *RotatingWriter) prune(now time.Time) {
	if w.maxAge <= 0 {
		return
	}
	backups, err := filepath.Glob(w.path + ".*")
	if err != nil {
		return
	}
	cutoff := now.Add(-w.maxAge)
	for _, backup := range backups {
		if strings.HasSuffix(backup, ".tmp") {
			continue
		}
		info, err := os.Stat(backup)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			os.Remove(backup)
		}
	}
}

// gzipFile replaces path with path.gz.
func gzipFile(path string) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.Create(path + ".gz")
	if err != nil {
		return err
	}

	gzw := gzip.NewWriter(dst)
	if _, err := io.Copy(gzw, src); err != nil {
		gzw.Close()
		dst.Close()
		os.Remove(path + ".gz")
		return err
	}
	if err := gzw.Close(); err != nil {
		dst.Close()
		return err
	}
	if err := dst.Close(); err != nil {
		return err
	}
	return os.Remove(path)
}
