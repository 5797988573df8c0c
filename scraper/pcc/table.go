package pcc

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"pcc-tenders/models"
)

var errNoTable = errors.New("no table in results markup")

// parseResultTable reads the first table of the results frame into a
// RawTable tagged with agency. Header cells become column names; the first
// link of a row becomes its url unless the table already has a url column.
// Rows with a single cell (the portal's "no data" banner) are skipped.
func parseResultTable(agency, markup, baseURL string) (*models.RawTable, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse results markup: %w", err)
	}

	tbl := doc.Find("table").First()
	if tbl.Length() == 0 {
		return nil, errNoTable
	}

	rows := tbl.Find("tr").FilterFunction(func(_ int, tr *goquery.Selection) bool {
		return tr.Closest("table").IsSelection(tbl)
	})

	headerIdx := 0
	rows.EachWithBreak(func(i int, tr *goquery.Selection) bool {
		if tr.ChildrenFiltered("th").Length() > 0 {
			headerIdx = i
			return false
		}
		return true
	})

	labels := headerLabels(rows.Eq(headerIdx))
	table := models.NewRawTable()
	for _, l := range labels {
		table.AddColumn(l)
	}
	hasURL := table.HasColumn(models.FieldURL)
	base, _ := url.Parse(baseURL)

	rows.Each(func(i int, tr *goquery.Selection) {
		if i == headerIdx {
			return
		}
		cells := tr.ChildrenFiltered("td")
		if cells.Length() == 0 || (cells.Length() == 1 && len(labels) > 1) {
			return
		}

		fields := make(map[string]models.Cell, len(labels)+1)
		cells.Each(func(j int, td *goquery.Selection) {
			if j < len(labels) {
				fields[labels[j]] = models.Text(cellText(td))
			}
		})

		if !hasURL {
			if href, ok := tr.Find("a[href]").First().Attr("href"); ok {
				fields[models.FieldURL] = models.Text(resolveHref(base, href))
			}
		}

		table.AddTender(&models.TenderRow{Agency: agency, Fields: fields})
	})

	return table, nil
}

// headerLabels names the columns of a header row. Blank labels get a
// positional name and repeated labels get a numeric suffix.
func headerLabels(tr *goquery.Selection) []string {
	seen := map[string]int{}
	var labels []string
	tr.ChildrenFiltered("th, td").Each(func(i int, cell *goquery.Selection) {
		label := cellText(cell)
		if label == "" {
			label = fmt.Sprintf("col%d", i+1)
		}
		if n := seen[label]; n > 0 {
			seen[label] = n + 1
			label = fmt.Sprintf("%s.%d", label, n)
		} else {
			seen[label] = 1
		}
		labels = append(labels, label)
	})
	return labels
}

// cellText returns the visible text of a cell with whitespace collapsed.
func cellText(s *goquery.Selection) string {
	return strings.Join(strings.FieldsFunc(s.Text(), unicode.IsSpace), " ")
}

func resolveHref(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	ref, err := url.Parse(href)
	if err != nil || base == nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
