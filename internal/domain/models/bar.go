package models

import (
	"sort"
	"time"
)

// Bar is one OHLCV observation for a fixed trading period.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Series is a time-ordered run of bars for one symbol, oldest first.
type Series struct {
	Symbol string
	Bars   []Bar
}

// Len returns the number of bars.
func (s Series) Len() int { return len(s.Bars) }

// Closes extracts the close prices in series order.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Last returns the newest bar.
func (s Series) Last() (Bar, bool) {
	if len(s.Bars) == 0 {
		return Bar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Normalize sorts bars oldest to newest and drops duplicate timestamps, keeping the later entry.
func (s *Series) Normalize() {
	sort.SliceStable(s.Bars, func(i, j int) bool { return s.Bars[i].Time.Before(s.Bars[j].Time) })
	out := s.Bars[:0]
	for _, b := range s.Bars {
		if n := len(out); n > 0 && out[n-1].Time.Equal(b.Time) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	s.Bars = out
}
