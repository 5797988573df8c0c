package services

import (
	"sort"

	"pcc-tenders/models"
	"pcc-tenders/utils"
)

// Normalizer reshapes raw per-unit tables into the fixed display schema.
type Normalizer struct {
	logger  *utils.Logger
	columns []models.DisplayColumn
}

// NewNormalizer creates a Normalizer using the fixed display vocabulary.
func NewNormalizer(logger *utils.Logger) *Normalizer {
	return &Normalizer{logger: logger, columns: models.DisplayColumns()}
}

// flatTable is a raw table after award flattening: every row is a flat
// field map, diagnostic rows keep their message.
type flatTable struct {
	columns []string
	rows    []flatRow
}

type flatRow struct {
	agency  string
	message string
	values  map[string]models.Cell
}

// Normalize flattens award sub-records, renames to display labels, pads
// and orders columns, and renders URL columns as links. It never fails:
// absent fields become missing cells.
func (n *Normalizer) Normalize(raw *models.RawTable) *models.DisplayTable {
	out := models.NewDisplayTable()
	if raw == nil {
		return out
	}

	flat := flattenAward(raw)
	for _, row := range flat.rows {
		if row.message != "" {
			out.Records = append(out.Records, models.DisplayRecord{
				Agency:  row.agency,
				Message: row.message,
				Cells:   n.reindex(nil),
			})
			continue
		}

		cells := n.reindex(n.rename(row.values))
		n.renderLinks(cells)
		out.Records = append(out.Records, models.DisplayRecord{Agency: row.agency, Cells: cells})
	}

	n.logger.Debug("[normalizer] %d raw rows (%d columns) → %d display rows",
		raw.Len(), len(flat.columns), out.Len())
	return out
}

// flattenAward replaces the award column with one award.<sub> column per
// sub-field seen in any row. Tables without an award column pass through.
func flattenAward(raw *models.RawTable) flatTable {
	hasAward := raw.HasColumn(models.FieldAward)

	var subfields []string
	if hasAward {
		seen := map[string]struct{}{}
		for _, r := range raw.Rows {
			tr, ok := r.(*models.TenderRow)
			if !ok {
				continue
			}
			for k := range tr.Award {
				if _, dup := seen[k]; !dup {
					seen[k] = struct{}{}
					subfields = append(subfields, k)
				}
			}
		}
		sort.Strings(subfields)
	}

	flat := flatTable{columns: make([]string, 0, len(raw.Columns)+len(subfields))}
	for _, c := range raw.Columns {
		if hasAward && c == models.FieldAward {
			for _, k := range subfields {
				flat.columns = append(flat.columns, models.AwardPrefix+k)
			}
			continue
		}
		flat.columns = append(flat.columns, c)
	}

	for _, r := range raw.Rows {
		switch row := r.(type) {
		case *models.DiagnosticRow:
			flat.rows = append(flat.rows, flatRow{agency: row.Agency, message: row.Diagnostic()})
		case *models.TenderRow:
			values := make(map[string]models.Cell, len(row.Fields)+len(row.Award))
			for k, v := range row.Fields {
				if hasAward && k == models.FieldAward {
					continue
				}
				values[k] = v
			}
			if hasAward {
				for k, v := range row.Award {
					values[models.AwardPrefix+k] = v
				}
			}
			flat.rows = append(flat.rows, flatRow{agency: row.Agency, values: values})
		}
	}
	return flat
}

// rename maps source fields to display labels. A label already present is
// kept as is, so renaming a normalized row is a no-op; otherwise the first
// present source field wins.
func (n *Normalizer) rename(values map[string]models.Cell) map[string]models.Cell {
	renamed := make(map[string]models.Cell, len(n.columns))
	for _, col := range n.columns {
		candidates := append([]string{col.Label}, col.Sources...)
		for _, src := range candidates {
			if v, ok := values[src]; ok && v.Valid {
				renamed[col.Label] = v
				break
			}
		}
	}
	return renamed
}

// reindex lays the renamed values out in the fixed display order.
func (n *Normalizer) reindex(renamed map[string]models.Cell) []models.Cell {
	cells := make([]models.Cell, len(n.columns))
	for i, col := range n.columns {
		if v, ok := renamed[col.Label]; ok {
			cells[i] = v
		} else {
			cells[i] = models.Missing()
		}
	}
	return cells
}

func (n *Normalizer) renderLinks(cells []models.Cell) {
	for i, col := range n.columns {
		if !col.Link {
			continue
		}
		if cells[i].Valid && cells[i].Value != "" {
			cells[i] = models.Text(models.RenderLink(cells[i].Value))
		} else {
			cells[i] = models.Missing()
		}
	}
}
