package integration

import "time"

func abs(value float64) float64 {
	if value < 0 {
		return -value
	}
	return value
}

func orNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
