package kinesis

import (
	"context"
	"encoding/json"
	"time"

	"pickup-service/internal/storage"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kinesis"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// KinesisAPI interface for mocking
type KinesisAPI interface {
	PutRecord(ctx context.Context, params *kinesis.PutRecordInput, optFns ...func(*kinesis.Options)) (*kinesis.PutRecordOutput, error)
}

type Streamer struct {
	client     KinesisAPI
	streamName string
	logger     *zap.Logger
}

type PickupEvent struct {
	PickupID   int64           `json:"pickup_id"`
	EventType  string          `json:"event_type"`
	Timestamp  time.Time       `json:"timestamp"`
	Child      string          `json:"child"`
	Date       string          `json:"date"`
	PickupTime string          `json:"pickup_time"`
	Cost       decimal.Decimal `json:"cost"`
	TimeSlot   string          `json:"time_slot"`
}

func NewStreamer(client KinesisAPI, streamName string, logger *zap.Logger) *Streamer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Streamer{
		client:     client,
		streamName: streamName,
		logger:     logger,
	}
}

// StreamPickupEvent publishes a pickup event. Failures are logged and dropped.
func (s *Streamer) StreamPickupEvent(ctx context.Context, eventType string, pickup *storage.Pickup) {
	if s.client == nil {
		return // Kinesis not enabled
	}

	event := PickupEvent{
		PickupID:   pickup.ID,
		EventType:  eventType,
		Timestamp:  time.Now().UTC(),
		Child:      pickup.Child,
		Date:       pickup.Date,
		PickupTime: pickup.PickupTime,
		Cost:       pickup.Cost,
		TimeSlot:   pickup.TimeSlot,
	}

	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("Failed to marshal pickup event", zap.Int64("pickup_id", pickup.ID), zap.Error(err))
		return
	}

	_, err = s.client.PutRecord(ctx, &kinesis.PutRecordInput{
		StreamName:   aws.String(s.streamName),
		Data:         data,
		PartitionKey: aws.String(pickup.Child),
	})

	if err != nil {
		s.logger.Error("Failed to stream pickup event",
			zap.Int64("pickup_id", pickup.ID),
			zap.String("event_type", eventType),
			zap.Error(err))
	} else {
		s.logger.Debug("Streamed pickup event", zap.Int64("pickup_id", pickup.ID), zap.String("event_type", eventType))
	}
}
