package service

import (
	"errors"
	"testing"
	"time"
)

func TestParseTimestamp(t *testing.T) {
	cet := time.FixedZone("CET", 60*60)

	tests := []struct {
		name  string
		value string
		want  time.Time
	}{
		{"local wall time", "2024-03-06T15:50:00", time.Date(2024, 3, 6, 15, 50, 0, 0, cet)},
		{"local wall time without seconds", "2024-03-06T15:50", time.Date(2024, 3, 6, 15, 50, 0, 0, cet)},
		{"local wall time with fraction", "2024-03-06T15:50:00.250", time.Date(2024, 3, 6, 15, 50, 0, 250000000, cet)},
		{"space separated", "2024-03-06 15:50", time.Date(2024, 3, 6, 15, 50, 0, 0, cet)},
		{"utc is converted", "2024-03-06T14:50:00.000Z", time.Date(2024, 3, 6, 15, 50, 0, 0, cet)},
		{"offset is converted", "2024-03-06T16:50:00+02:00", time.Date(2024, 3, 6, 15, 50, 0, 0, cet)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.value, cet)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
			if got.Format("15:04") != "15:50" {
				t.Errorf("Expected wall time 15:50, got %s", got.Format("15:04"))
			}
		})
	}
}

func TestParseTimestamp_Invalid(t *testing.T) {
	for _, value := range []string{"", "   ", "yesterday", "06-03-2024 15:50", "2024-13-01T10:00:00"} {
		_, err := ParseTimestamp(value, time.UTC)
		if !errors.Is(err, ErrInvalidTimestamp) {
			t.Errorf("ParseTimestamp(%q): expected ErrInvalidTimestamp, got %v", value, err)
		}
	}
}
