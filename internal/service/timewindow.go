package service

import (
	"time"

	"github.com/darulhuda/institute-api/internal/models"
)

// Time-range tokens accepted by the analytics endpoints.
const (
	TimeRangeOneMonth   = "1month"
	TimeRangeThreeMonth = "3months"
	TimeRangeSixMonth   = "6months"
	TimeRangeOneYear    = "1year"
)

// DefaultTimeRange is applied when a token is missing or unrecognized. A bad
// filter on a reporting endpoint never hard-fails; it falls back silently.
const DefaultTimeRange = TimeRangeThreeMonth

// Fixed lookback durations so end-start is exact for every token.
var timeRangeDurations = map[string]time.Duration{
	TimeRangeOneMonth:   30 * 24 * time.Hour,
	TimeRangeThreeMonth: 90 * 24 * time.Hour,
	TimeRangeSixMonth:   180 * 24 * time.Hour,
	TimeRangeOneYear:    365 * 24 * time.Hour,
}

// ResolveTimeWindow maps a time-range token onto the half-open interval
// [now-duration, now). It returns the window together with the token that was
// actually applied.
func ResolveTimeWindow(token string, now time.Time) (models.TimeWindow, string) {
	duration, ok := timeRangeDurations[token]
	if !ok {
		token = DefaultTimeRange
		duration = timeRangeDurations[token]
	}
	end := now.UTC()
	return models.TimeWindow{Start: end.Add(-duration), End: end}, token
}
