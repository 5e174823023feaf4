package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"frame-pipeline/internal/models"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrMissingColumn is returned when a required column is absent from a header.
var ErrMissingColumn = errors.New("missing required column")

// Table is a fully loaded CSV file.
type Table struct {
	Header []string
	Rows   [][]string
}

// NewReader returns a CSV reader that skips a leading UTF-8 byte order mark.
func NewReader(r io.Reader) *csv.Reader {
	return csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
}

// Read loads a whole CSV file. Every row must have as many fields as the header.
func Read(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := NewReader(file)
	header, err := reader.Read()
	if err == io.EOF {
		return &Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	t := &Table{Header: trimHeader(header)}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		t.Rows = append(t.Rows, record)
	}
	return t, nil
}

// Index returns the position of column in the header, or -1.
func (t *Table) Index(column string) int {
	for i, c := range t.Header {
		if c == column {
			return i
		}
	}
	return -1
}

// Column returns every value of one column.
func (t *Table) Column(column string) ([]string, error) {
	idx := t.Index(column)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, column)
	}
	values := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		values[i] = row[idx]
	}
	return values, nil
}

// ReadDocuments loads the classification input table.
func ReadDocuments(path string) ([]string, []models.Document, error) {
	t, err := Read(path)
	if err != nil {
		return nil, nil, err
	}

	idIdx := t.Index(models.ColumnDocID)
	if idIdx < 0 {
		return nil, nil, fmt.Errorf("%s: %w: %s", path, ErrMissingColumn, models.ColumnDocID)
	}
	textIdx := t.Index(models.ColumnTextCleaned)
	if textIdx < 0 {
		return nil, nil, fmt.Errorf("%s: %w: %s", path, ErrMissingColumn, models.ColumnTextCleaned)
	}

	docs := make([]models.Document, 0, len(t.Rows))
	for _, row := range t.Rows {
		docs = append(docs, models.Document{
			DocID:       row[idIdx],
			TextCleaned: row[textIdx],
			Columns:     t.Header,
			Values:      row,
		})
	}
	return t.Header, docs, nil
}

func trimHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		out[i] = strings.TrimSpace(h)
	}
	return out
}
