package util

import "time"

// ChartTimeLayout renders history samples as month/day hour:minute.
const ChartTimeLayout = "01/02 15:04"

// FormatChartTime formats t in its own location using ChartTimeLayout.
func FormatChartTime(t time.Time) string {
	return t.Format(ChartTimeLayout)
}

// TrailingWindow returns the [now-days, now] range truncated to whole seconds.
func TrailingWindow(now time.Time, days int) (time.Time, time.Time) {
	to := now.Truncate(time.Second)
	return to.AddDate(0, 0, -days), to
}

// RangeDays converts a Yahoo-style range token (1d, 5d, 1mo, 3mo, 6mo, 1y) to calendar days.
func RangeDays(rng string) (int, bool) {
	switch rng {
	case "1d":
		return 1, true
	case "5d":
		return 5, true
	case "1mo":
		return 30, true
	case "3mo":
		return 91, true
	case "6mo":
		return 182, true
	case "1y":
		return 365, true
	default:
		return 0, false
	}
}
