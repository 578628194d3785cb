package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	wednesdayFreeLabel = "12:10-12:30 (Wednesday free)"
	outsideHoursLabel  = "outside normal hours"
)

// Clock is a time of day with minute resolution, counted from midnight
type Clock int

// NewClock builds a Clock from hours and minutes
func NewClock(hour, minute int) Clock {
	return Clock(hour*60 + minute)
}

// ClockOf returns the wall-clock time of t in t's own location
func ClockOf(t time.Time) Clock {
	return NewClock(t.Hour(), t.Minute())
}

// ParseClock parses an HH:MM string
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid clock time %q: %w", s, err)
	}
	return ClockOf(t), nil
}

func mustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// TariffRule prices every pickup between Start and End, both inclusive
type TariffRule struct {
	Start Clock
	End   Clock
	Cost  decimal.Decimal
	// Label overrides the default "start-end" slot label
	Label string
}

func (r TariffRule) matches(c Clock) bool {
	return r.Start <= c && c <= r.End
}

func (r TariffRule) slot() string {
	if r.Label != "" {
		return r.Label
	}
	return r.Start.String() + "-" + r.End.String()
}

// LadderStep is a half-open [From, To) interval of the fallback ladder.
// The last step of a ladder also includes To.
type LadderStep struct {
	From  Clock
	To    Clock
	Cost  decimal.Decimal
	Label string
}

// CostResult is the price of a pickup and the slot that produced it
type CostResult struct {
	Cost     decimal.Decimal `json:"cost"`
	TimeSlot string          `json:"timeSlot"`
}

// Tariff holds the pricing schedule for pickups
type Tariff struct {
	// Wednesday lunch pickups inside this window are free on any date
	WednesdayFreeStart Clock
	WednesdayFreeEnd   Clock

	// Rules are scanned in order and the first match wins
	Rules []TariffRule

	// Fallback is consulted only when no rule matched
	Fallback []LadderStep

	// OutsideHoursCost applies to pickups outside every rule and step
	OutsideHoursCost decimal.Decimal
}

// DefaultTariff returns the after-school pickup schedule.
//
// The paid rules all start at 15:45 and overlap: 16:00 matches every one of
// them. First match in declared order resolves this, so a pickup lands in the
// shortest window that still contains it. Ends are inclusive, so 16:15 is
// still 0.66 and 16:16 is the first 1.32 minute.
func DefaultTariff() *Tariff {
	return &Tariff{
		WednesdayFreeStart: mustClock("12:10"),
		WednesdayFreeEnd:   mustClock("12:30"),
		Rules: []TariffRule{
			{Start: mustClock("15:25"), End: mustClock("15:45"), Cost: decimal.Zero, Label: "15:25-15:45 (free)"},
			{Start: mustClock("15:45"), End: mustClock("16:15"), Cost: decimal.RequireFromString("0.66")},
			{Start: mustClock("15:45"), End: mustClock("16:45"), Cost: decimal.RequireFromString("1.32")},
			{Start: mustClock("15:45"), End: mustClock("17:15"), Cost: decimal.RequireFromString("1.98")},
			{Start: mustClock("15:45"), End: mustClock("17:45"), Cost: decimal.RequireFromString("2.64")},
			{Start: mustClock("15:45"), End: mustClock("18:15"), Cost: decimal.RequireFromString("3.30")},
			{Start: mustClock("15:45"), End: mustClock("18:30"), Cost: decimal.RequireFromString("3.63")},
		},
		Fallback: []LadderStep{
			{From: mustClock("15:25"), To: mustClock("15:45"), Cost: decimal.Zero, Label: "15:25-15:45 (free)"},
			{From: mustClock("15:45"), To: mustClock("16:15"), Cost: decimal.RequireFromString("0.66"), Label: "15:45-16:15"},
			{From: mustClock("16:15"), To: mustClock("16:45"), Cost: decimal.RequireFromString("1.32"), Label: "15:45-16:45"},
			{From: mustClock("16:45"), To: mustClock("17:15"), Cost: decimal.RequireFromString("1.98"), Label: "15:45-17:15"},
			{From: mustClock("17:15"), To: mustClock("17:45"), Cost: decimal.RequireFromString("2.64"), Label: "15:45-17:45"},
			{From: mustClock("17:45"), To: mustClock("18:15"), Cost: decimal.RequireFromString("3.30"), Label: "15:45-18:15"},
			{From: mustClock("18:15"), To: mustClock("18:30"), Cost: decimal.RequireFromString("3.63"), Label: "15:45-18:30"},
		},
		OutsideHoursCost: decimal.RequireFromString("3.63"),
	}
}

// CalculateCost prices a pickup at the wall-clock time and weekday of at,
// read in at's own location. It never fails: pickups outside the schedule
// are charged the highest tariff.
func (t *Tariff) CalculateCost(at time.Time) CostResult {
	return t.costAt(ClockOf(at), at.Weekday())
}

func (t *Tariff) costAt(c Clock, day time.Weekday) CostResult {
	if day == time.Wednesday && t.WednesdayFreeStart <= c && c <= t.WednesdayFreeEnd {
		return CostResult{Cost: decimal.Zero, TimeSlot: wednesdayFreeLabel}
	}

	for _, rule := range t.Rules {
		if rule.matches(c) {
			return CostResult{Cost: rule.Cost, TimeSlot: rule.slot()}
		}
	}

	if result, ok := t.ladderCost(c); ok {
		return result
	}

	return CostResult{Cost: t.OutsideHoursCost, TimeSlot: outsideHoursLabel}
}

func (t *Tariff) ladderCost(c Clock) (CostResult, bool) {
	for i, step := range t.Fallback {
		last := i == len(t.Fallback)-1
		if c >= step.From && (c < step.To || (last && c == step.To)) {
			return CostResult{Cost: step.Cost, TimeSlot: step.Label}, true
		}
	}
	return CostResult{}, false
}

// Costs returns every distinct cost the tariff can produce
func (t *Tariff) Costs() []decimal.Decimal {
	var costs []decimal.Decimal
	add := func(d decimal.Decimal) {
		for _, c := range costs {
			if c.Equal(d) {
				return
			}
		}
		costs = append(costs, d)
	}

	add(decimal.Zero)
	for _, rule := range t.Rules {
		add(rule.Cost)
	}
	for _, step := range t.Fallback {
		add(step.Cost)
	}
	add(t.OutsideHoursCost)
	return costs
}
