package report

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"pickup-service/internal/storage"
)

// BOM lets spreadsheet tools detect UTF-8 in exported files
const BOM = "\ufeff"

// FreeRemark marks pickups that cost nothing
const FreeRemark = "Free"

var (
	DetailHeader  = []string{"Date", "Time", "Day", "Child", "Time Slot", "Cost (€)", "Remark"}
	SummaryHeader = []string{"Month", "Total Pickups", "Free Days", "Paid Days", "Total Cost (€)", "Average per Pickup (€)"}
)

// WriteDetail renders one row per pickup
func WriteDetail(w io.Writer, pickups []*storage.Pickup) error {
	cw := newQuotedWriter(w)
	cw.writeRow(DetailHeader)

	for _, p := range pickups {
		remark := ""
		if p.Cost.IsZero() {
			remark = FreeRemark
		}
		cw.writeRow([]string{
			p.Date,
			p.PickupTime,
			p.Day,
			p.Child,
			p.TimeSlot,
			p.Cost.StringFixed(2),
			remark,
		})
	}

	return cw.flush()
}

// WriteSummary renders one row per month in the order given
func WriteSummary(w io.Writer, summaries []MonthlySummary) error {
	cw := newQuotedWriter(w)
	cw.writeRow(SummaryHeader)

	for _, s := range summaries {
		cw.writeRow([]string{
			s.Month,
			strconv.Itoa(s.Pickups),
			strconv.Itoa(s.FreeDays),
			strconv.Itoa(s.PaidDays),
			s.TotalCost.StringFixed(2),
			s.AverageCost.StringFixed(2),
		})
	}

	return cw.flush()
}

// quotedWriter quotes every field. encoding/csv only quotes fields that
// need it, and the exports are expected fully quoted.
type quotedWriter struct {
	w   *bufio.Writer
	err error
}

func newQuotedWriter(w io.Writer) *quotedWriter {
	return &quotedWriter{w: bufio.NewWriter(w)}
}

func (q *quotedWriter) writeRow(fields []string) {
	if q.err != nil {
		return
	}
	for i, field := range fields {
		if i > 0 {
			q.w.WriteByte(',')
		}
		q.w.WriteByte('"')
		q.w.WriteString(strings.ReplaceAll(field, `"`, `""`))
		q.w.WriteByte('"')
	}
	_, q.err = q.w.WriteString("\n")
}

func (q *quotedWriter) flush() error {
	if q.err != nil {
		return q.err
	}
	return q.w.Flush()
}
