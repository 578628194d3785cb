package report

import (
	"sort"
	"strings"

	"pickup-service/internal/storage"

	"github.com/shopspring/decimal"
)

// MonthlySummary aggregates every pickup of one calendar month
type MonthlySummary struct {
	Month       string          `json:"month"`
	Pickups     int             `json:"pickups"`
	TotalCost   decimal.Decimal `json:"totalCost"`
	FreeDays    int             `json:"freeDays"`
	PaidDays    int             `json:"paidDays"`
	AverageCost decimal.Decimal `json:"averageCost"`
}

// Filter narrows a pickup collection. Zero values match everything.
type Filter struct {
	// Month is a YYYY-MM key
	Month string
	// Child is matched case-insensitively
	Child string
}

// MonthKey builds a YYYY-MM key from separate year and month inputs.
// Both are required; a single digit month is zero padded.
func MonthKey(year, month string) string {
	year = strings.TrimSpace(year)
	month = strings.TrimSpace(month)
	if year == "" || month == "" {
		return ""
	}
	if len(month) == 1 {
		month = "0" + month
	}
	return year + "-" + month
}

// FilterPickups returns the pickups matching f, preserving order
func FilterPickups(pickups []*storage.Pickup, f Filter) []*storage.Pickup {
	result := make([]*storage.Pickup, 0, len(pickups))
	for _, pickup := range pickups {
		if f.Month != "" && (pickup.Date == "" || !strings.HasPrefix(pickup.Date, f.Month)) {
			continue
		}
		if f.Child != "" && !strings.EqualFold(pickup.Child, f.Child) {
			continue
		}
		result = append(result, pickup)
	}
	return result
}

// TotalCost sums the cost of every pickup, dated or not
func TotalCost(pickups []*storage.Pickup) decimal.Decimal {
	total := decimal.Zero
	for _, pickup := range pickups {
		total = total.Add(pickup.Cost)
	}
	return total
}

// Summarize groups pickups by month in first-seen order.
// Pickups without a date are left out.
func Summarize(pickups []*storage.Pickup) []MonthlySummary {
	index := make(map[string]int)
	var summaries []MonthlySummary

	for _, pickup := range pickups {
		month := pickup.Month()
		if month == "" {
			continue
		}

		i, ok := index[month]
		if !ok {
			i = len(summaries)
			index[month] = i
			summaries = append(summaries, MonthlySummary{
				Month:     month,
				TotalCost: decimal.Zero,
			})
		}

		s := &summaries[i]
		s.Pickups++
		s.TotalCost = s.TotalCost.Add(pickup.Cost)
		if pickup.Cost.IsZero() {
			s.FreeDays++
		}
	}

	for i := range summaries {
		s := &summaries[i]
		s.PaidDays = s.Pickups - s.FreeDays
		s.AverageCost = decimal.Zero
		if s.Pickups > 0 {
			s.AverageCost = s.TotalCost.Div(decimal.NewFromInt(int64(s.Pickups)))
		}
	}

	if summaries == nil {
		summaries = []MonthlySummary{}
	}
	return summaries
}

// SortByMonthDesc orders summaries most recent month first
func SortByMonthDesc(summaries []MonthlySummary) {
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Month > summaries[j].Month
	})
}
