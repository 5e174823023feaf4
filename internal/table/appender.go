package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github.com/gofrs/flock"
	"go.uber.org/zap"
)

var (
	// ErrHeaderMismatch is returned when an existing output file has a different header.
	ErrHeaderMismatch = errors.New("output header does not match input columns")
	// ErrLocked is returned when another process holds the output file.
	ErrLocked = errors.New("output file is locked by another process")
)

// Appender writes one CSV row at a time and syncs each row to disk.
// It holds the file and an exclusive lock until Close.
type Appender struct {
	path   string
	file   *os.File
	writer *csv.Writer
	lock   *flock.Flock
	logger *zap.Logger
	rows   int
}

// OpenAppender opens path for appending. The header is written only when the
// file is new or empty; an existing header must match.
func OpenAppender(path string, header []string, logger *zap.Logger) (*Appender, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}

	a, err := openLocked(path, header, logger)
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}
	a.lock = lock
	return a, nil
}

func openLocked(path string, header []string, logger *zap.Logger) (*Appender, error) {
	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to stat output file: %w", err)
	}

	a := &Appender{
		path:   path,
		file:   file,
		writer: csv.NewWriter(file),
		logger: logger,
	}

	if info.Size() == 0 {
		if err := a.writeRecord(header); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
		logger.Info("Created output file", zap.String("path", path), zap.Int("columns", len(header)))
		return a, nil
	}

	existing, err := readHeader(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to read output header: %w", err)
	}
	if !slices.Equal(existing, header) {
		file.Close()
		return nil, fmt.Errorf("%w: %s has %v, want %v", ErrHeaderMismatch, path, existing, header)
	}

	if err := terminateLastLine(file, info.Size()); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to repair output file: %w", err)
	}

	logger.Info("Appending to existing output file", zap.String("path", path))
	return a, nil
}

func readHeader(file *os.File) ([]string, error) {
	// O_APPEND writes ignore the offset, so reading from the start is safe.
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	header, err := NewReader(file).Read()
	if err != nil {
		return nil, err
	}
	return trimHeader(header), nil
}

// terminateLastLine adds a newline when the file does not end with one, so
// the next record starts on its own line.
func terminateLastLine(file *os.File, size int64) error {
	last := make([]byte, 1)
	if _, err := file.ReadAt(last, size-1); err != nil {
		return err
	}
	if last[0] == '\n' {
		return nil
	}
	if _, err := file.WriteString("\n"); err != nil {
		return err
	}
	return file.Sync()
}

// Append writes one record, flushes it and syncs the file before returning.
func (a *Appender) Append(record []string) error {
	if err := a.writeRecord(record); err != nil {
		return fmt.Errorf("failed to append row to %s: %w", a.path, err)
	}
	a.rows++
	return nil
}

func (a *Appender) writeRecord(record []string) error {
	if err := a.writer.Write(record); err != nil {
		return err
	}
	a.writer.Flush()
	if err := a.writer.Error(); err != nil {
		return err
	}
	return a.file.Sync()
}

// Rows returns how many rows were appended through this handle.
func (a *Appender) Rows() int {
	return a.rows
}

// Close closes the file and releases the lock.
func (a *Appender) Close() error {
	a.writer.Flush()
	err := errors.Join(a.writer.Error(), a.file.Close())
	if a.lock != nil {
		if unlockErr := a.lock.Unlock(); unlockErr != nil {
			a.logger.Warn("failed to release output lock", zap.Error(unlockErr))
		}
	}
	return err
}
