package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Persisted logs and API responses carry costs as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// ErrCorrupt is returned when the persisted collection cannot be decoded
var ErrCorrupt = errors.New("pickup log is corrupt")

// Pickup represents a single logged childcare pickup
type Pickup struct {
	ID         int64           `json:"id" dynamodbav:"id"`
	Timestamp  string          `json:"timestamp" dynamodbav:"timestamp"`
	Child      string          `json:"child" dynamodbav:"child"`
	PickupTime string          `json:"pickupTime" dynamodbav:"pickup_time"`
	Date       string          `json:"date" dynamodbav:"date"`
	Day        string          `json:"day" dynamodbav:"day"`
	Cost       decimal.Decimal `json:"cost" dynamodbav:"-"`
	TimeSlot   string          `json:"timeSlot" dynamodbav:"time_slot"`
	CreatedAt  time.Time       `json:"createdAt" dynamodbav:"created_at"`
}

// Month returns the YYYY-MM key of the pickup date, or "" when the date is missing
func (p *Pickup) Month() string {
	if len(p.Date) < 7 {
		return ""
	}
	return p.Date[:7]
}

// PickupStorage defines the contract for the pickup log collection.
// Collections are always ordered newest first.
type PickupStorage interface {
	// Load returns the full collection
	Load(ctx context.Context) ([]*Pickup, error)

	// Save replaces the full collection
	Save(ctx context.Context, pickups []*Pickup) error
}

// Appender is implemented by backends that can store a single new pickup
// without rewriting the collection.
type Appender interface {
	Append(ctx context.Context, pickup *Pickup) error
}
