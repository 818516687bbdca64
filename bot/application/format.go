package application

import (
	"strconv"
	"time"
)

// Display formatting is pinned to the audience's zone, independent of
// where the process runs.
var displayZone = time.FixedZone("UTC+8", 8*3600)

const sourceNote = "*数据来源 Apple 官方*"

func formatInt(v int64) string { return strconv.FormatInt(v, 10) }

func formatFloat(v float64) string {
	// no scientific notation for common values
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatTime(t time.Time) string {
	return t.In(displayZone).Format("2006-01-02 15:04:05")
}

func shortDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(displayZone).Format("2006-01-02")
}

var byteUnits = []string{"B", "KB", "MB", "GB", "TB"}

func formatBytes(n int64) string {
	if n <= 0 {
		return "未知"
	}
	f := float64(n)
	i := 0
	for f >= 1024 && i < len(byteUnits)-1 {
		f /= 1024
		i++
	}
	return strconv.FormatFloat(f, 'f', 1, 64) + " " + byteUnits[i]
}

func formatPrice(price float64, hasPrice bool, currency string) string {
	if !hasPrice {
		return "未知"
	}
	if price == 0 {
		return "免费"
	}
	s := formatFloat(price)
	if currency != "" {
		s += " " + currency
	}
	return s
}
