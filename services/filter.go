package services

import (
	"strings"

	"pcc-tenders/models"
)

// Filter keeps the records whose tender name contains Query.
type Filter struct {
	Query         string
	CaseSensitive bool
}

// Apply returns a new table holding the matching records in their original
// order. An empty query keeps everything, sentinel rows included; any other
// query drops sentinel rows since they carry no name.
func (f Filter) Apply(table *models.DisplayTable) *models.DisplayTable {
	out := models.NewDisplayTable()
	if table == nil {
		return out
	}
	out.Columns = append([]string(nil), table.Columns...)

	if f.Query == "" {
		out.Records = append(out.Records, table.Records...)
		return out
	}

	needle := f.Query
	if !f.CaseSensitive {
		needle = strings.ToLower(needle)
	}

	for _, rec := range table.Records {
		if rec.IsSentinel() {
			continue
		}
		name := rec.Get(models.NameLabel).String()
		if !f.CaseSensitive {
			name = strings.ToLower(name)
		}
		if strings.Contains(name, needle) {
			out.Records = append(out.Records, rec)
		}
	}
	return out
}
