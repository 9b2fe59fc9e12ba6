package features

import (
	"math"

	"StockSignal/internal/domain/models"

	"gonum.org/v1/gonum/stat"
)

const (
	// MinBars is the shortest series accepted before any indicator work is attempted.
	MinBars = 50
	// NeutralRSI is reported when the trailing loss mean is zero.
	NeutralRSI = 50.0

	rsiPeriod = 14
	volPeriod = 10
)

// horizons are the ret_k / ma_k lags, in row order.
var horizons = [...]int{1, 3, 5, 10, 20, 50}

// RequiredBars is the first series length able to define every feature (ret_50 needs close[t-50]).
var RequiredBars = horizons[len(horizons)-1] + 1

// Table holds every fully defined feature row of a series.
// Positions[i] is the bar index Rows[i] was computed at.
type Table struct {
	Positions []int
	Rows      []models.FeatureRow
}

// Len returns the number of usable rows.
func (t Table) Len() int { return len(t.Rows) }

// Last returns the newest usable row and its bar index.
func (t Table) Last() (models.FeatureRow, int, bool) {
	if len(t.Rows) == 0 {
		return models.FeatureRow{}, -1, false
	}
	n := len(t.Rows) - 1
	return t.Rows[n], t.Positions[n], true
}

// ComputeTable runs a single pass over closes, keeping one trailing window per rolling
// indicator, and returns the rows where all 14 features are defined and finite.
func ComputeTable(closes []float64) Table {
	lags := newWindow(RequiredBars)
	mas := make([]*window, len(horizons))
	for i, k := range horizons {
		mas[i] = newWindow(k)
	}
	rets := newWindow(volPeriod)
	gains := newWindow(rsiPeriod)
	losses := newWindow(rsiPeriod)

	var table Table
	for t, c := range closes {
		lags.push(c)
		defined := true
		var row models.FeatureRow

		for i, k := range horizons {
			mas[i].push(c)
			row[2*i+1] = mas[i].mean()
			if !mas[i].full() {
				defined = false
			}

			prev, ok := lags.ago(k)
			if !ok {
				defined = false
				continue
			}
			row[2*i] = pctChange(c, prev)
		}

		if prev, ok := lags.ago(1); ok {
			rets.push(pctChange(c, prev))
			delta := c - prev
			gains.push(math.Max(delta, 0))
			losses.push(math.Max(-delta, 0))
		}

		if rets.full() {
			row[models.FeatVol10] = stat.StdDev(rets.values(), nil)
		} else {
			defined = false
		}
		if gains.full() {
			row[models.FeatRSI14] = rsi(gains, losses)
		} else {
			defined = false
		}

		if defined && rowFinite(row) {
			table.Positions = append(table.Positions, t)
			table.Rows = append(table.Rows, row)
		}
	}
	return table
}

// Compute returns the feature row of the newest bar that has full indicator coverage.
func Compute(series models.Series) (models.FeatureRow, error) {
	if series.Len() < MinBars {
		return models.FeatureRow{}, &models.InsufficientDataError{
			Symbol: series.Symbol,
			Have:   series.Len(),
			Need:   MinBars,
			Reason: "not enough historical data",
		}
	}
	row, _, ok := ComputeTable(series.Closes()).Last()
	if !ok {
		return models.FeatureRow{}, &models.InsufficientDataError{
			Symbol: series.Symbol,
			Have:   series.Len(),
			Need:   RequiredBars,
			Reason: "indicators produced no usable row",
		}
	}
	return row, nil
}

// pctChange is (cur-prev)/prev; a zero previous close counts as no change.
func pctChange(cur, prev float64) float64 {
	if prev == 0 {
		return 0
	}
	return (cur - prev) / prev
}

func rsi(gains, losses *window) float64 {
	if losses.allZero() {
		return NeutralRSI
	}
	rs := gains.mean() / losses.mean()
	return 100 - 100/(1+rs)
}

func rowFinite(row models.FeatureRow) bool {
	for _, v := range row {
		if !isFinite(v) {
			return false
		}
	}
	return true
}
