package kinesis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"pickup-service/internal/storage"

	"github.com/aws/aws-sdk-go-v2/service/kinesis"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type MockKinesisClient struct {
	mock.Mock
}

func (m *MockKinesisClient) PutRecord(ctx context.Context, params *kinesis.PutRecordInput, optFns ...func(*kinesis.Options)) (*kinesis.PutRecordOutput, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(*kinesis.PutRecordOutput), args.Error(1)
}

func samplePickup() *storage.Pickup {
	return &storage.Pickup{
		ID:         1709736612000,
		Child:      "Alex",
		PickupTime: "15:50",
		Date:       "2024-03-06",
		Day:        "Wednesday",
		Cost:       decimal.RequireFromString("0.66"),
		TimeSlot:   "15:45-16:15",
	}
}

func TestStreamer_StreamPickupEvent(t *testing.T) {
	mockClient := new(MockKinesisClient)
	streamer := NewStreamer(mockClient, "pickup-events", zap.NewNop())

	var captured *kinesis.PutRecordInput
	mockClient.On("PutRecord", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(*kinesis.PutRecordInput)
		}).
		Return(&kinesis.PutRecordOutput{}, nil)

	streamer.StreamPickupEvent(context.Background(), "pickup_logged", samplePickup())

	mockClient.AssertExpectations(t)
	require.NotNil(t, captured)
	assert.Equal(t, "pickup-events", *captured.StreamName)
	assert.Equal(t, "Alex", *captured.PartitionKey)

	var event map[string]interface{}
	require.NoError(t, json.Unmarshal(captured.Data, &event))
	assert.Equal(t, "pickup_logged", event["event_type"])
	assert.Equal(t, float64(1709736612000), event["pickup_id"])
	assert.Equal(t, "Alex", event["child"])
	assert.Equal(t, "2024-03-06", event["date"])
	assert.Equal(t, "15:50", event["pickup_time"])
	assert.Equal(t, "15:45-16:15", event["time_slot"])
	assert.NotEmpty(t, event["timestamp"])

	cost, err := decimal.NewFromString(string(mustRaw(t, captured.Data, "cost")))
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.66").Equal(cost))
}

func TestStreamer_ErrorIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	mockClient := new(MockKinesisClient)
	streamer := NewStreamer(mockClient, "pickup-events", zap.New(core))

	mockClient.On("PutRecord", mock.Anything, mock.Anything).
		Return(&kinesis.PutRecordOutput{}, errors.New("stream not found"))

	streamer.StreamPickupEvent(context.Background(), "pickup_logged", samplePickup())

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "Failed to stream pickup event", logs.All()[0].Message)
}

func TestStreamer_Disabled(t *testing.T) {
	streamer := NewStreamer(nil, "", nil)

	assert.NotPanics(t, func() {
		streamer.StreamPickupEvent(context.Background(), "pickup_logged", samplePickup())
	})
}

func mustRaw(t *testing.T, data []byte, key string) json.RawMessage {
	t.Helper()
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &fields))
	raw, ok := fields[key]
	require.True(t, ok, "missing field %s", key)
	return raw
}
