package table

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// utf8BOM matches the "utf-8-sig" encoding spreadsheet tools expect.
const utf8BOM = "\ufeff"

// WriteOptions controls WriteFile.
type WriteOptions struct {
	BOM bool
}

// WriteFile replaces path with a complete CSV table. The data is written to a
// temporary file first and renamed into place.
func WriteFile(path string, header []string, rows [][]string, opts WriteOptions) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if opts.BOM {
		if _, err := tmp.WriteString(utf8BOM); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	return os.Rename(tmp.Name(), path)
}
