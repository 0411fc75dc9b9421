package model

// Record is one case entry read from a source table
type Record struct {
	Row    int               // 1-based sheet row, the header is row 1
	ID     string            // Assigned after expansion
	Fields map[string]string // Column name -> value
}

// NewRecord creates a record for the given sheet row
func NewRecord(row int) *Record {
	return &Record{Row: row, Fields: make(map[string]string)}
}

// Get returns the value of a field, empty when absent
func (r *Record) Get(field string) string {
	return r.Fields[field]
}

// Set assigns a field value
func (r *Record) Set(field, value string) {
	r.Fields[field] = value
}

// Has reports whether the record carries the field
func (r *Record) Has(field string) bool {
	_, ok := r.Fields[field]
	return ok
}

// Clone returns a deep copy of the record
func (r *Record) Clone() *Record {
	c := &Record{Row: r.Row, ID: r.ID, Fields: make(map[string]string, len(r.Fields))}
	for k, v := range r.Fields {
		c.Fields[k] = v
	}
	return c
}

// Dataset is an ordered collection of records sharing a column layout
type Dataset struct {
	Source  string
	Columns []string
	Records []*Record
}

// Len returns the number of records
func (d *Dataset) Len() int {
	return len(d.Records)
}

// Values projects a record onto the dataset column order
func (d *Dataset) Values(r *Record) []string {
	out := make([]string, len(d.Columns))
	for i, col := range d.Columns {
		if col == FieldID {
			out[i] = r.ID
			continue
		}
		out[i] = r.Fields[col]
	}
	return out
}
