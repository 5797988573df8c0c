package services

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"

	"pcc-tenders/models"
	"pcc-tenders/utils"
)

// AgencySummary counts what one agency contributed to a combined table.
type AgencySummary struct {
	Agency   string
	Tenders  int
	Sentinel int
	Message  string
}

// Summarize groups records by agency in first-seen order.
func Summarize(t *models.DisplayTable) []AgencySummary {
	var out []AgencySummary
	index := map[string]int{}

	for _, rec := range t.Records {
		i, ok := index[rec.Agency]
		if !ok {
			i = len(out)
			index[rec.Agency] = i
			out = append(out, AgencySummary{Agency: rec.Agency})
		}
		if rec.IsSentinel() {
			out[i].Sentinel++
			out[i].Message = rec.Message
		} else {
			out[i].Tenders++
		}
	}
	return out
}

// Reporter renders batch results on a terminal.
type Reporter struct {
	out    io.Writer
	logger *utils.Logger
}

func NewReporter(out io.Writer, logger *utils.Logger) *Reporter {
	return &Reporter{out: out, logger: logger}
}

// Print writes the per-agency summary and up to limit rows of the table.
func (r *Reporter) Print(t *models.DisplayTable, limit int) {
	summary := Summarize(t)

	st := table.NewWriter()
	st.SetOutputMirror(r.out)
	st.SetTitle(fmt.Sprintf("%d rows", t.Len()))
	st.AppendHeader(table.Row{models.AgencyLabel, "Tenders", "Failed", models.MessageLabel})
	for _, s := range summary {
		st.AppendRow(table.Row{s.Agency, s.Tenders, s.Sentinel, s.Message})
	}
	st.SetStyle(table.StyleRounded)
	st.Render()

	if limit <= 0 || t.Len() == 0 {
		return
	}

	rt := table.NewWriter()
	rt.SetOutputMirror(r.out)
	rt.AppendHeader(table.Row{models.AgencyLabel, "標案案號", models.NameLabel, "預算金額", "初次招標日"})
	for i, rec := range t.Records {
		if i >= limit {
			rt.AppendFooter(table.Row{"", "", fmt.Sprintf("... %d more", t.Len()-limit), "", ""})
			break
		}
		if rec.IsSentinel() {
			rt.AppendRow(table.Row{rec.Agency, "", rec.Message, "", ""})
			continue
		}
		rt.AppendRow(table.Row{
			rec.Agency,
			rec.Get("標案案號").String(),
			runewidth.Truncate(rec.Get(models.NameLabel).String(), 40, "…"),
			rec.Get("預算金額").String(),
			rec.Get("初次招標日").String(),
		})
	}
	rt.SetStyle(table.StyleRounded)
	rt.Render()
	r.logger.Debug("[report] printed %d of %d rows", min(limit, t.Len()), t.Len())
}
