package stats

import (
	"fmt"
	"sort"
	"strconv"

	"frame-pipeline/internal/models"
	"frame-pipeline/internal/table"
)

// FrameCount is how many output rows carry one frame.
type FrameCount struct {
	Frame string
	Count int
	Share float64 // fraction of all rows
}

// Report summarizes an output table.
type Report struct {
	Total   int
	Frames  []FrameCount
	GroupBy string
	Groups  map[string]map[string]int // group value -> frame -> count
}

// Compute counts frames in the output table at path. When groupBy names a
// column, counts are also broken down by its values.
func Compute(path, groupBy string) (*Report, error) {
	t, err := table.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load output table: %w", err)
	}

	frames, err := t.Column(models.ColumnFrame)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var groups []string
	if groupBy != "" {
		groups, err = t.Column(groupBy)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	r := &Report{Total: len(frames), GroupBy: groupBy}
	counts := make(map[string]int)
	if groupBy != "" {
		r.Groups = make(map[string]map[string]int)
	}
	for i, f := range frames {
		counts[f]++
		if groups != nil {
			g := groups[i]
			if r.Groups[g] == nil {
				r.Groups[g] = make(map[string]int)
			}
			r.Groups[g][f]++
		}
	}

	for _, f := range frameOrder(counts) {
		fc := FrameCount{Frame: f, Count: counts[f]}
		if r.Total > 0 {
			fc.Share = float64(fc.Count) / float64(r.Total)
		}
		r.Frames = append(r.Frames, fc)
	}
	return r, nil
}

// frameOrder lists the known frames in their canonical order, then any other
// labels alphabetically, then ERROR.
func frameOrder(counts map[string]int) []string {
	var order []string
	for _, def := range models.Frames {
		if counts[string(def.Label)] > 0 {
			order = append(order, string(def.Label))
		}
	}

	var extra []string
	for f := range counts {
		if !models.IsKnown(f) && f != string(models.FrameError) {
			extra = append(extra, f)
		}
	}
	sort.Strings(extra)
	order = append(order, extra...)

	if counts[string(models.FrameError)] > 0 {
		order = append(order, string(models.FrameError))
	}
	return order
}

// Render formats the report as terminal tables.
func (r *Report) Render() string {
	rows := make([][]string, 0, len(r.Frames)+1)
	for _, fc := range r.Frames {
		rows = append(rows, []string{fc.Frame, strconv.Itoa(fc.Count), formatShare(fc.Share)})
	}
	out := renderTable(
		[]string{"Frame", "Count", "Share"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight},
		[]string{"Total", strconv.Itoa(r.Total), ""},
	)

	if r.GroupBy == "" {
		return out
	}

	headers := []string{r.GroupBy}
	aligns := []columnAlignment{alignLeft}
	for _, fc := range r.Frames {
		headers = append(headers, fc.Frame)
		aligns = append(aligns, alignRight)
	}

	names := make([]string, 0, len(r.Groups))
	for g := range r.Groups {
		names = append(names, g)
	}
	sort.Strings(names)

	groupRows := make([][]string, 0, len(names))
	for _, g := range names {
		row := []string{g}
		for _, fc := range r.Frames {
			row = append(row, strconv.Itoa(r.Groups[g][fc.Frame]))
		}
		groupRows = append(groupRows, row)
	}

	return out + "\n" + renderTable(headers, groupRows, aligns, nil)
}

func formatShare(share float64) string {
	return strconv.FormatFloat(share*100, 'f', 1, 64) + "%"
}
