package utils

import "time"

// NowUTC is the single clock used for persisted timestamps.
func NowUTC() time.Time {
	return time.Now().UTC()
}
