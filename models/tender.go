package models

import "database/sql"

// Source field names as delivered by the REST mirror. The HTML portal
// delivers its own header labels, which the display vocabulary also accepts.
const (
	FieldCategory = "category"
	FieldTenderNo = "tender_no"
	FieldName     = "name"
	FieldBudget   = "budget"
	FieldDate     = "date"
	FieldUnit     = "unit"
	FieldURL      = "url"
	FieldEndDate  = "end_date"
	FieldAward    = "award"
)

// AwardPrefix is prepended to every award sub-field once it is flattened.
const AwardPrefix = FieldAward + "."

// SentinelMessage is the diagnostic carried by a row that replaced a timed
// out or empty extraction.
const SentinelMessage = "Timeout / no data"

// Cell is a single tabular value that distinguishes "missing" from "".
type Cell struct {
	Value string
	Valid bool
}

// Text returns a present cell.
func Text(s string) Cell { return Cell{Value: s, Valid: true} }

// Missing returns the missing-value marker.
func Missing() Cell { return Cell{} }

// String renders a missing cell as an empty string.
func (c Cell) String() string {
	if !c.Valid {
		return ""
	}
	return c.Value
}

// NullString converts the cell for database/sql drivers.
func (c Cell) NullString() sql.NullString {
	return sql.NullString{String: c.Value, Valid: c.Valid}
}

// Award is the nested outcome sub-record of a tender that reached the
// award stage, keyed by sub-field name (type, date, url, ...).
type Award map[string]Cell

// RawRow is one row of a RawTable: either a *TenderRow or a *DiagnosticRow.
type RawRow interface {
	QueryAgency() string
	rawRow()
}

// TenderRow holds one listed tender exactly as it was extracted.
type TenderRow struct {
	Agency string
	Fields map[string]Cell
	// Award is nil when the tender has not progressed to award stage.
	Award Award
}

func (r *TenderRow) QueryAgency() string { return r.Agency }
func (*TenderRow) rawRow()               {}

// DiagnosticRow stands in for the tenders of an agency whose extraction
// timed out or failed.
type DiagnosticRow struct {
	Agency  string
	Message string
}

func (r *DiagnosticRow) QueryAgency() string { return r.Agency }
func (*DiagnosticRow) rawRow()               {}

// RawTable is the per-unit result of one fetch, before normalization.
// Columns lists the source fields in first-seen order; FieldAward is
// present when at least one row carries an award.
type RawTable struct {
	Columns []string
	Rows    []RawRow
}

// NewRawTable returns an empty table. Zero rows is a valid result.
func NewRawTable() *RawTable {
	return &RawTable{Columns: []string{}, Rows: []RawRow{}}
}

// NewSentinelTable returns a single-row table carrying a diagnostic for
// agency. An empty message becomes SentinelMessage.
func NewSentinelTable(agency, message string) *RawTable {
	row := &DiagnosticRow{Agency: agency, Message: message}
	row.Message = row.Diagnostic()

	t := NewRawTable()
	t.Rows = append(t.Rows, row)
	return t
}

// Diagnostic returns the row's message, SentinelMessage when none was given.
func (r *DiagnosticRow) Diagnostic() string {
	if r.Message == "" {
		return SentinelMessage
	}
	return r.Message
}

// AddTender appends a tender row and registers any columns it introduces.
func (t *RawTable) AddTender(row *TenderRow) {
	for name := range row.Fields {
		t.addColumn(name)
	}
	if row.Award != nil {
		t.addColumn(FieldAward)
	}
	t.Rows = append(t.Rows, row)
}

// AddColumn registers a column without adding a row. Used by parsers that
// know the header before any row is read.
func (t *RawTable) AddColumn(name string) { t.addColumn(name) }

func (t *RawTable) addColumn(name string) {
	if !t.HasColumn(name) {
		t.Columns = append(t.Columns, name)
	}
}

// HasColumn reports whether name is one of the table's columns.
func (t *RawTable) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Append concatenates other after t, keeping row order and the union of
// columns. Diagnostic and tender rows mix freely.
func (t *RawTable) Append(other *RawTable) {
	if other == nil {
		return
	}
	for _, c := range other.Columns {
		t.addColumn(c)
	}
	t.Rows = append(t.Rows, other.Rows...)
}

// Len returns the number of rows.
func (t *RawTable) Len() int { return len(t.Rows) }
