package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilePickupStorage_MissingFileIsEmpty(t *testing.T) {
	storage := NewFilePickupStorage(filepath.Join(t.TempDir(), "pickup-logs.json"))

	pickups, err := storage.Load(context.Background())

	assert.NoError(t, err)
	assert.NotNil(t, pickups)
	assert.Empty(t, pickups)
}

func TestFilePickupStorage_SaveCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "nested", "pickup-logs.json")
	storage := NewFilePickupStorage(path)
	ctx := context.Background()

	createdAt := time.Date(2024, 3, 6, 14, 50, 12, 0, time.UTC)
	pickups := []*Pickup{
		{
			ID:         1709736612000,
			Timestamp:  "2024-03-06T15:50:00",
			Child:      "Alex",
			PickupTime: "15:50",
			Date:       "2024-03-06",
			Day:        "Wednesday",
			Cost:       decimal.RequireFromString("0.66"),
			TimeSlot:   "15:45-16:15",
			CreatedAt:  createdAt,
		},
	}

	require.NoError(t, storage.Save(ctx, pickups))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.False(t, info.IsDir())

	loaded, err := storage.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "Alex", loaded[0].Child)
	assert.Equal(t, "15:45-16:15", loaded[0].TimeSlot)
	assert.True(t, decimal.RequireFromString("0.66").Equal(loaded[0].Cost))
	assert.True(t, createdAt.Equal(loaded[0].CreatedAt))
}

func TestFilePickupStorage_Format(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pickup-logs.json")
	storage := NewFilePickupStorage(path)

	require.NoError(t, storage.Save(context.Background(), []*Pickup{
		{ID: 7, Child: "Alex", Date: "2024-03-06", Cost: decimal.RequireFromString("0.66")},
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, "\n  {\n")
	assert.Contains(t, content, `"cost": 0.66`)
	assert.Contains(t, content, `"pickupTime"`)
	assert.Contains(t, content, `"timeSlot"`)
}

func TestFilePickupStorage_SaveEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pickup-logs.json")
	storage := NewFilePickupStorage(path)

	require.NoError(t, storage.Save(context.Background(), nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestFilePickupStorage_ReadsExistingDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pickup-logs.json")
	doc := `[
  {
    "id": 1709736612000,
    "timestamp": "2024-03-06T15:50:00.000Z",
    "child": "Alex",
    "pickupTime": "15:50",
    "date": "2024-03-06",
    "day": "Wednesday",
    "cost": 0.66,
    "timeSlot": "15:45-16:15",
    "createdAt": "2024-03-06T15:50:12.000Z"
  }
]`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	pickups, err := NewFilePickupStorage(path).Load(context.Background())

	require.NoError(t, err)
	require.Len(t, pickups, 1)
	assert.Equal(t, int64(1709736612000), pickups[0].ID)
	assert.Equal(t, "15:50", pickups[0].PickupTime)
	assert.Equal(t, "2024-03", pickups[0].Month())
	assert.True(t, decimal.RequireFromString("0.66").Equal(pickups[0].Cost))
}

func TestFilePickupStorage_NullDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pickup-logs.json")
	require.NoError(t, os.WriteFile(path, []byte("null"), 0o644))

	pickups, err := NewFilePickupStorage(path).Load(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, pickups)
	assert.Empty(t, pickups)
}

func TestFilePickupStorage_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pickup-logs.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFilePickupStorage(path).Load(context.Background())

	assert.True(t, errors.Is(err, ErrCorrupt), "expected ErrCorrupt, got %v", err)
}

func TestFilePickupStorage_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	storage := NewFilePickupStorage(filepath.Join(dir, "pickup-logs.json"))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, storage.Save(ctx, []*Pickup{{ID: int64(i)}}))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "pickup-logs.json", entries[0].Name())
}

func TestPickup_Month(t *testing.T) {
	assert.Equal(t, "2024-03", (&Pickup{Date: "2024-03-06"}).Month())
	assert.Equal(t, "", (&Pickup{}).Month())
	assert.Equal(t, "", (&Pickup{Date: "2024"}).Month())
}
