package ui

import (
	"fmt"
	"time"
)

// FormatSize renders a byte count with one decimal place at 1024 thresholds.
func FormatSize(size int64) string {
	v := float64(size)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if v < 1024 {
			return fmt.Sprintf("%.1f %s", v, unit)
		}
		v /= 1024
	}
	return fmt.Sprintf("%.1f TB", v)
}

// FormatTime renders a modification time for the file table. The zero time
// means the stat failed and shows as a dash.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}
