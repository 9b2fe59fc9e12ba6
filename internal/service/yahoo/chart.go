package yahoo

import (
	"time"

	"StockSignal/internal/domain/models"
)

// chartResponse mirrors the v8 chart API. Price arrays hold nulls for halted or
// missing sessions, hence the pointers.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol               string `json:"symbol"`
		ExchangeTimezoneName string `json:"exchangeTimezoneName"`
		GMTOffset            int    `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

func (r *chartResult) location() *time.Location {
	if name := r.Meta.ExchangeTimezoneName; name != "" {
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	if r.Meta.GMTOffset != 0 {
		return time.FixedZone("", r.Meta.GMTOffset)
	}
	return time.UTC
}

// bars converts the columnar quote arrays into bars in exchange local time,
// skipping samples without a close.
func (r *chartResult) bars() []models.Bar {
	if len(r.Indicators.Quote) == 0 {
		return nil
	}
	q := r.Indicators.Quote[0]
	loc := r.location()

	out := make([]models.Bar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		c := at(q.Close, i)
		if c == nil {
			continue
		}
		b := models.Bar{Time: time.Unix(ts, 0).In(loc), Close: *c}
		b.Open = valueOr(at(q.Open, i), *c)
		b.High = valueOr(at(q.High, i), *c)
		b.Low = valueOr(at(q.Low, i), *c)
		b.Volume = valueOr(at(q.Volume, i), 0)
		out = append(out, b)
	}
	return out
}

func at(xs []*float64, i int) *float64 {
	if i < len(xs) {
		return xs[i]
	}
	return nil
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
