package services

import (
	"testing"

	"pcc-tenders/models"
)

func filterFixture() *models.DisplayTable {
	n := NewNormalizer(newTestLogger())
	raw := rawOf(
		tender("A", map[string]string{"name": "LED路燈汰換"}, nil),
		tender("A", map[string]string{"name": "led 路燈維護"}, nil),
		tender("A", map[string]string{"name": "護岸工程"}, nil),
	)
	raw.Append(models.NewSentinelTable("B", models.SentinelMessage))
	return n.Normalize(raw)
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"empty keeps all", Filter{}, 4},
		{"case insensitive", Filter{Query: "LED"}, 2},
		{"case sensitive", Filter{Query: "LED", CaseSensitive: true}, 1},
		{"cjk substring", Filter{Query: "路燈"}, 2},
		{"no match", Filter{Query: "橋梁"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Apply(filterFixture())
			if got.Len() != tt.want {
				t.Errorf("Apply(%+v): got %d rows, want %d", tt.filter, got.Len(), tt.want)
			}
		})
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	table := filterFixture()
	Filter{Query: "護岸"}.Apply(table)
	if table.Len() != 4 {
		t.Errorf("input mutated: %d rows", table.Len())
	}
}
