package services

import "time"

// All streak and stats windowing works on midnight-UTC day boundaries.
// Mixing local time in here silently breaks streak continuity across
// timezones, so every date that enters the engine passes through these.

func TruncateToUTCDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

func TodayUTC(now time.Time) time.Time {
	return TruncateToUTCDay(now)
}

func YesterdayUTC(now time.Time) time.Time {
	return TodayUTC(now).AddDate(0, 0, -1)
}

// daysBetween counts whole days between two midnight-UTC dates.
func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// RangeBounds resolves a stats range preset to [start, end]. Unknown presets
// fall back to a week, matching the API default.
func RangeBounds(preset string, now time.Time) (time.Time, time.Time) {
	u := now.UTC()
	end := time.Date(u.Year(), u.Month(), u.Day(), 23, 59, 59, int(999*time.Millisecond), time.UTC)

	var start time.Time
	switch preset {
	case "day":
		start = TodayUTC(now)
	case "month":
		start = TruncateToUTCDay(u.AddDate(0, -1, 0))
	case "year":
		start = TruncateToUTCDay(u.AddDate(-1, 0, 0))
	default: // week
		start = TruncateToUTCDay(u.AddDate(0, 0, -7))
	}
	return start, end
}
