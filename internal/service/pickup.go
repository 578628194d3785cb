package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"pickup-service/internal/metrics"
	"pickup-service/internal/report"
	"pickup-service/internal/storage"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	// ErrInvalidRequest is returned when a required field is missing
	ErrInvalidRequest = errors.New("timestamp and child are required")

	// ErrInvalidTimestamp is returned when a timestamp cannot be parsed
	ErrInvalidTimestamp = errors.New("invalid timestamp")

	// ErrStorageUnavailable is returned when the pickup log cannot be written
	ErrStorageUnavailable = errors.New("failed to save log")
)

// ExportSummary selects the monthly summary export; anything else is the detail export
const ExportSummary = "summary"

// EventStreamer publishes pickup events to an external stream
type EventStreamer interface {
	StreamPickupEvent(ctx context.Context, eventType string, pickup *storage.Pickup)
}

// PickupListing is a filtered view of the log with its statistics
type PickupListing struct {
	Pickups      []*storage.Pickup       `json:"logs"`
	TotalCost    decimal.Decimal         `json:"totalCost"`
	TotalPickups int                     `json:"totalPickups"`
	MonthlyStats []report.MonthlySummary `json:"monthlyStats"`
}

// Export is a rendered CSV report
type Export struct {
	Filename string
	Content  []byte
}

// PickupService logs pickups and reports on them
type PickupService struct {
	storage        storage.PickupStorage
	tariff         *Tariff
	location       *time.Location
	logger         *zap.Logger
	metrics        *metrics.Metrics
	streamer       EventStreamer
	filenamePrefix string
	now            func() time.Time

	// serializes load-append-save so concurrent submissions are not lost
	mu sync.Mutex
}

// NewPickupService creates a new pickup service instance
func NewPickupService(storage storage.PickupStorage, location *time.Location, logger *zap.Logger) *PickupService {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PickupService{
		storage:        storage,
		tariff:         DefaultTariff(),
		location:       location,
		logger:         logger,
		filenamePrefix: "pickup-log",
		now:            time.Now,
	}
}

// SetStreamer sets the stream for pickup events
func (s *PickupService) SetStreamer(streamer EventStreamer) {
	s.streamer = streamer
}

// SetMetrics sets the Prometheus collectors
func (s *PickupService) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// SetFilenamePrefix sets the prefix of exported file names
func (s *PickupService) SetFilenamePrefix(prefix string) {
	if prefix != "" {
		s.filenamePrefix = prefix
	}
}

// SetClock replaces the source of the current time
func (s *PickupService) SetClock(now func() time.Time) {
	s.now = now
}

// Tariff returns the schedule used to price pickups
func (s *PickupService) Tariff() *Tariff {
	return s.tariff
}

// Quote prices a timestamp without logging it
func (s *PickupService) Quote(timestamp string) (CostResult, time.Time, error) {
	at, err := ParseTimestamp(timestamp, s.location)
	if err != nil {
		return CostResult{}, time.Time{}, err
	}
	return s.tariff.CalculateCost(at), at, nil
}

// LogPickup prices a pickup and stores it at the front of the log
func (s *PickupService) LogPickup(ctx context.Context, timestamp, child string) (*storage.Pickup, error) {
	child = strings.TrimSpace(child)
	if strings.TrimSpace(timestamp) == "" || child == "" {
		return nil, ErrInvalidRequest
	}

	costInfo, at, err := s.Quote(timestamp)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pickups, err := s.storage.Load(ctx)
	if err != nil {
		// refuse to overwrite a log that could not be read
		s.metrics.StorageError("load")
		s.logger.Error("Failed to load pickup log before write", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	now := s.now()
	pickup := &storage.Pickup{
		ID:         nextID(now, pickups),
		Timestamp:  timestamp,
		Child:      child,
		PickupTime: at.Format("15:04"),
		Date:       at.Format("2006-01-02"),
		Day:        at.Weekday().String(),
		Cost:       costInfo.Cost,
		TimeSlot:   costInfo.TimeSlot,
		CreatedAt:  now.UTC(),
	}

	if appender, ok := s.storage.(storage.Appender); ok {
		err = appender.Append(ctx, pickup)
	} else {
		err = s.storage.Save(ctx, append([]*storage.Pickup{pickup}, pickups...))
	}
	if err != nil {
		s.metrics.StorageError("save")
		s.logger.Error("Failed to save pickup log", zap.Int64("pickup_id", pickup.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	cost, _ := pickup.Cost.Float64()
	s.metrics.ObservePickup(pickup.TimeSlot, cost)
	s.logger.Info("Pickup logged",
		zap.Int64("pickup_id", pickup.ID),
		zap.String("child", pickup.Child),
		zap.String("date", pickup.Date),
		zap.String("pickup_time", pickup.PickupTime),
		zap.String("time_slot", pickup.TimeSlot),
		zap.String("cost", pickup.Cost.StringFixed(2)),
	)

	if s.streamer != nil {
		s.streamer.StreamPickupEvent(ctx, "pickup_logged", pickup)
	}

	return pickup, nil
}

// ListPickups returns the filtered log with totals and per-month statistics
func (s *PickupService) ListPickups(ctx context.Context, filter report.Filter) *PickupListing {
	pickups := report.FilterPickups(s.loadForRead(ctx), filter)

	return &PickupListing{
		Pickups:      pickups,
		TotalCost:    report.TotalCost(pickups),
		TotalPickups: len(pickups),
		MonthlyStats: report.Summarize(pickups),
	}
}

// CurrentMonth returns the YYYY-MM key of today in the service location
func (s *PickupService) CurrentMonth() string {
	return s.now().In(s.location).Format("2006-01")
}

// Export renders a CSV report. The detail export covers month, or the
// current month when month is empty. The summary export covers every month
// in the log, most recent first.
func (s *PickupService) Export(ctx context.Context, exportType, month string) (*Export, error) {
	if month == "" {
		month = s.CurrentMonth()
	}
	pickups := s.loadForRead(ctx)
	filename := s.filenamePrefix + "-" + month

	var buf bytes.Buffer
	buf.WriteString(report.BOM)

	if exportType == ExportSummary {
		summaries := report.Summarize(pickups)
		report.SortByMonthDesc(summaries)
		if err := report.WriteSummary(&buf, summaries); err != nil {
			return nil, fmt.Errorf("failed to render summary: %w", err)
		}
		return &Export{Filename: filename + "-summary.csv", Content: buf.Bytes()}, nil
	}

	selected := report.FilterPickups(pickups, report.Filter{Month: month})
	if err := report.WriteDetail(&buf, selected); err != nil {
		return nil, fmt.Errorf("failed to render export: %w", err)
	}
	return &Export{Filename: filename + ".csv", Content: buf.Bytes()}, nil
}

// loadForRead treats an unreadable log as empty
func (s *PickupService) loadForRead(ctx context.Context) []*storage.Pickup {
	pickups, err := s.storage.Load(ctx)
	if err != nil {
		s.metrics.StorageError("load")
		s.logger.Warn("Failed to load pickup log, treating as empty", zap.Error(err))
		return []*storage.Pickup{}
	}
	return pickups
}

// nextID derives an id from the creation time that is greater than every existing id
func nextID(now time.Time, pickups []*storage.Pickup) int64 {
	id := now.UnixMilli()
	for _, p := range pickups {
		if p.ID >= id {
			id = p.ID + 1
		}
	}
	return id
}
