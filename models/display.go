package models

import (
	"fmt"
	"regexp"
	"strings"
)

// DisplayColumn is one entry of the fixed display vocabulary. Sources lists
// the raw field names that rename to Label, highest priority first.
type DisplayColumn struct {
	Label   string
	Sources []string
	Link    bool
}

var displayColumns = []DisplayColumn{
	{Label: "分類", Sources: []string{FieldCategory, "採購性質"}},
	{Label: "標案案號", Sources: []string{FieldTenderNo, "id", "job_number"}},
	{Label: "標案名稱", Sources: []string{FieldName, "title"}},
	{Label: "預算金額", Sources: []string{FieldBudget, "price"}},
	{Label: "初次招標日", Sources: []string{FieldDate, "publish_date", "公告日期"}},
	{Label: "主管機關", Sources: []string{FieldUnit, "unit_name", "機關名稱"}},
	{Label: "招標網址", Sources: []string{FieldURL}, Link: true},
	{Label: "決標日", Sources: []string{AwardPrefix + "date", FieldEndDate, "截止投標"}},
	{Label: "決標狀態", Sources: []string{AwardPrefix + "type"}},
	{Label: "決標網址", Sources: []string{AwardPrefix + "url"}, Link: true},
}

// Labels the presentation layer refers to directly.
const (
	NameLabel     = "標案名稱"
	URLLabel      = "招標網址"
	AwardURLLabel = "決標網址"
)

// Export-only header labels around the fixed display columns.
const (
	AgencyLabel  = "查詢機關"
	MessageLabel = "訊息"
)

// DisplayColumns returns a copy of the fixed display vocabulary in order.
func DisplayColumns() []DisplayColumn {
	out := make([]DisplayColumn, len(displayColumns))
	copy(out, displayColumns)
	return out
}

// DisplayLabels returns the fixed display column order.
func DisplayLabels() []string {
	labels := make([]string, len(displayColumns))
	for i, c := range displayColumns {
		labels[i] = c.Label
	}
	return labels
}

// DisplayRecord is one normalized row. Cells line up with DisplayLabels().
type DisplayRecord struct {
	Agency string
	// Message is set only on sentinel rows.
	Message string
	Cells   []Cell
}

// IsSentinel reports whether the record replaced a failed extraction.
func (r DisplayRecord) IsSentinel() bool { return r.Message != "" }

// Get returns the cell under label, or Missing for an unknown label.
func (r DisplayRecord) Get(label string) Cell {
	for i, c := range displayColumns {
		if c.Label == label && i < len(r.Cells) {
			return r.Cells[i]
		}
	}
	return Missing()
}

// DisplayTable is the fixed-schema output handed to presentation and export.
type DisplayTable struct {
	Columns []string
	Records []DisplayRecord
}

// NewDisplayTable returns an empty table with the fixed columns.
func NewDisplayTable() *DisplayTable {
	return &DisplayTable{Columns: DisplayLabels(), Records: []DisplayRecord{}}
}

// Append concatenates other after t.
func (t *DisplayTable) Append(other *DisplayTable) {
	if other == nil {
		return
	}
	t.Records = append(t.Records, other.Records...)
}

// Len returns the number of records, sentinel rows included.
func (t *DisplayTable) Len() int { return len(t.Records) }

// Header returns the export header: agency, the display labels, message.
func (t *DisplayTable) Header() []string {
	h := make([]string, 0, len(t.Columns)+2)
	h = append(h, AgencyLabel)
	h = append(h, t.Columns...)
	return append(h, MessageLabel)
}

// Raw turns the table back into raw rows keyed by display label so it can
// be fed to the normalizer again.
func (t *DisplayTable) Raw() *RawTable {
	raw := NewRawTable()
	for _, rec := range t.Records {
		if rec.IsSentinel() {
			raw.Rows = append(raw.Rows, &DiagnosticRow{Agency: rec.Agency, Message: rec.Message})
			continue
		}
		fields := make(map[string]Cell, len(rec.Cells))
		for i, label := range t.Columns {
			if i < len(rec.Cells) {
				fields[label] = rec.Cells[i]
			}
		}
		raw.AddTender(&TenderRow{Agency: rec.Agency, Fields: fields})
	}
	for _, label := range t.Columns {
		raw.AddColumn(label)
	}
	return raw
}

const linkText = "連結"

var linkRegexp = regexp.MustCompile(`^<a href="([^"]*)" target="_blank">` + linkText + `</a>$`)

// RenderLink wraps url in a clickable anchor. An already rendered link is
// returned unchanged and an empty url renders as "".
func RenderLink(url string) string {
	if url == "" {
		return ""
	}
	if linkRegexp.MatchString(url) {
		return url
	}
	href := strings.ReplaceAll(url, `"`, "%22")
	return fmt.Sprintf(`<a href="%s" target="_blank">%s</a>`, href, linkText)
}

// LinkHref recovers the url from a rendered link.
func LinkHref(s string) (string, bool) {
	m := linkRegexp.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	return m[1], true
}
