package models

// Column names shared by the prepare and classify stages.
const (
	ColumnDocID         = "doc_id"
	ColumnTextCleaned   = "text_cleaned"
	ColumnFrame         = "frame"
	ColumnJustification = "justificativa_llm"
)

// Document is one post or comment to be classified. Columns holds every
// input column in header order so passthrough metadata reaches the output
// untouched.
type Document struct {
	DocID       string
	TextCleaned string
	Columns     []string
	Values      []string
}

// Value returns the raw value of a passthrough column, or "" when absent.
func (d Document) Value(column string) string {
	for i, c := range d.Columns {
		if c == column && i < len(d.Values) {
			return d.Values[i]
		}
	}
	return ""
}

// OutputHeader returns the output table header for an input header.
func OutputHeader(inputHeader []string) []string {
	header := make([]string, 0, len(inputHeader)+2)
	header = append(header, inputHeader...)
	return append(header, ColumnFrame, ColumnJustification)
}

// OutputRow is a Document plus its classification, written exactly once.
type OutputRow struct {
	Document      Document
	Frame         string
	Justification string
}

// Record renders the row in OutputHeader order.
func (r OutputRow) Record() []string {
	record := make([]string, 0, len(r.Document.Values)+2)
	record = append(record, r.Document.Values...)
	return append(record, r.Frame, r.Justification)
}
