package ui

import (
	"testing"
	"time"
)

func TestFormatSize(t *testing.T) {
	testCases := []struct {
		size     int64
		expected string
	}{
		{0, "0.0 B"},
		{512, "512.0 B"},
		{1023, "1023.0 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
		{5 * 1024 * 1024 * 1024, "5.0 GB"},
		{3 * 1024 * 1024 * 1024 * 1024, "3.0 TB"},
	}

	for _, tc := range testCases {
		if got := FormatSize(tc.size); got != tc.expected {
			t.Errorf("FormatSize(%d): expected %q, got %q", tc.size, tc.expected, got)
		}
	}
}

func TestFormatTime(t *testing.T) {
	if got := FormatTime(time.Time{}); got != "-" {
		t.Errorf("zero time should render as dash, got %q", got)
	}

	ts := time.Date(2024, 3, 15, 9, 5, 0, 0, time.UTC)
	if got := FormatTime(ts); got != "2024-03-15 09:05" {
		t.Errorf("unexpected time format %q", got)
	}
}
