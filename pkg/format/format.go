package format

import (
	"fmt"
	"time"

	"github.com/docker/go-units"
)

const (
	zeroPercent = "0%"
	zeroLatency = "0ms"
	never       = "never"
)

// Bytes renders a byte count in binary units, e.g. "1.5KiB"
func Bytes[T ~int64 | ~uint64](bytes T) string {
	return units.BytesSize(float64(bytes))
}

// Duration formats a duration coarsely, sub-second values keep full precision
func Duration(d time.Duration) string {
	if d < time.Second {
		return d.String()
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}

func Percentage(value float64) string {
	switch value {
	case 0:
		return zeroPercent
	case 100:
		return "100%"
	}
	return fmt.Sprintf("%.1f%%", value)
}

func Latency(ms int64) string {
	if ms <= 0 {
		return zeroLatency
	}
	if ms >= 1000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000.0)
	}
	return fmt.Sprintf("%dms", ms)
}

// TimeAgo uses go-units' human duration, e.g. "About a minute ago"
func TimeAgo(t time.Time) string {
	if t.IsZero() {
		return never
	}
	return units.HumanDuration(time.Since(t)) + " ago"
}
