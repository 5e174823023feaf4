// Package tracker works out which documents still need a classification by
// comparing input ids with the ids already present in the output table.
package tracker

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"frame-pipeline/internal/models"
	"frame-pipeline/internal/table"
)

// IDSet is a set of normalized document ids.
type IDSet map[string]struct{}

// Has reports whether id (in any representation) is in the set.
func (s IDSet) Has(id string) bool {
	_, ok := s[NormalizeID(id)]
	return ok
}

// Add inserts id.
func (s IDSet) Add(id string) {
	s[NormalizeID(id)] = struct{}{}
}

// floatID matches integer ids that were rendered as floats, e.g. "42.0".
var floatID = regexp.MustCompile(`^([0-9]+)\.0+$`)

// NormalizeID coerces an id to its canonical string form so that ids written
// by tools that parsed them as numbers ("42.0", " 42") match the plain form.
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	if m := floatID.FindStringSubmatch(id); m != nil {
		return m[1]
	}
	return id
}

// RecordedIDs returns the ids already written to the output table. A missing
// file is an empty set; an unreadable one is an error.
func RecordedIDs(outputPath string) (IDSet, error) {
	ids := IDSet{}

	t, err := table.Read(outputPath)
	if errors.Is(err, os.ErrNotExist) {
		return ids, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load output table: %w", err)
	}
	if len(t.Header) == 0 {
		return ids, nil
	}

	values, err := t.Column(models.ColumnDocID)
	if err != nil {
		return nil, fmt.Errorf("failed to load output table %s: %w", outputPath, err)
	}
	for _, v := range values {
		ids.Add(v)
	}
	return ids, nil
}

// Plan is the outcome of comparing input with output.
type Plan struct {
	Pending    []models.Document
	Recorded   int // input rows already in the output
	Duplicates int // repeated ids within the input
}

// Pending returns the documents whose id is not recorded, in input order.
// Repeated input ids are only kept once.
func Pending(docs []models.Document, recorded IDSet) Plan {
	var plan Plan
	seen := IDSet{}
	for _, doc := range docs {
		switch {
		case recorded.Has(doc.DocID):
			plan.Recorded++
		case seen.Has(doc.DocID):
			plan.Duplicates++
		default:
			seen.Add(doc.DocID)
			plan.Pending = append(plan.Pending, doc)
		}
	}
	return plan
}
