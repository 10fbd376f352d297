package utils

import "time"

// NowUnix returns the current time as unix seconds with millisecond precision,
// the timestamp format used across job and history payloads.
func NowUnix() float64 {
	return UnixSeconds(time.Now())
}

func UnixSeconds(t time.Time) float64 {
	if t.IsZero() {
		return 0
	}
	return float64(t.UnixMilli()) / 1000.0
}
