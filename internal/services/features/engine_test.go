package features

import (
	"errors"
	"math"
	"testing"
	"time"

	"StockSignal/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seriesOf(closes []float64) models.Series {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.Bar, len(closes))
	for i, c := range closes {
		bars[i] = models.Bar{Time: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return models.Series{Symbol: "TEST", Bars: bars}
}

// wave is a deterministic, non-monotonic price path.
func wave(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + 10*math.Sin(float64(i)/3) + float64(i)*0.2
	}
	return out
}

func mean(xs []float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

func sampleStd(xs []float64) float64 {
	m := mean(xs)
	s := 0.0
	for _, x := range xs {
		s += (x - m) * (x - m)
	}
	return math.Sqrt(s / float64(len(xs)-1))
}

func TestCompute_MatchesDefinitions(t *testing.T) {
	closes := wave(80)
	row, err := Compute(seriesOf(closes))
	require.NoError(t, err)

	n := len(closes) - 1
	for _, k := range horizons {
		ret, _ := row.Get(retName(k))
		ma, _ := row.Get(maName(k))
		assert.InDelta(t, (closes[n]-closes[n-k])/closes[n-k], ret, 1e-12, "ret_%d", k)
		assert.InDelta(t, mean(closes[n-k+1:]), ma, 1e-9, "ma_%d", k)
	}
	assert.Equal(t, closes[n], row.Close())

	var r1 []float64
	for i := n - 9; i <= n; i++ {
		r1 = append(r1, (closes[i]-closes[i-1])/closes[i-1])
	}
	assert.InDelta(t, sampleStd(r1), row.Vol10(), 1e-12)

	var gain, loss float64
	for i := n - 13; i <= n; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	want := 100 - 100/(1+(gain/14)/(loss/14))
	assert.InDelta(t, want, row.RSI14(), 1e-9)
}

func retName(k int) string { return models.FeatureNames[indexOf(k)*2] }
func maName(k int) string  { return models.FeatureNames[indexOf(k)*2+1] }

func indexOf(k int) int {
	for i, h := range horizons {
		if h == k {
			return i
		}
	}
	panic("unknown horizon")
}

func TestCompute_InsufficientData(t *testing.T) {
	_, err := Compute(seriesOf(wave(49)))
	var ide *models.InsufficientDataError
	require.True(t, errors.As(err, &ide))
	assert.Equal(t, 49, ide.Have)
	assert.Equal(t, MinBars, ide.Need)
	assert.Contains(t, err.Error(), "not enough historical data")

	_, err = Compute(seriesOf(nil))
	assert.True(t, models.IsInsufficientData(err))
}

func TestCompute_FiftyBarsHaveNoUsableRow(t *testing.T) {
	_, err := Compute(seriesOf(wave(50)))
	var ide *models.InsufficientDataError
	require.True(t, errors.As(err, &ide))
	assert.Equal(t, RequiredBars, ide.Need)
	assert.Contains(t, err.Error(), "no usable row")
}

func TestCompute_FirstUsableRow(t *testing.T) {
	closes := wave(RequiredBars)
	row, err := Compute(seriesOf(closes))
	require.NoError(t, err)
	assert.InDelta(t, (closes[50]-closes[0])/closes[0], row[models.FeatRet50], 1e-12)
}

func TestComputeTable_DropsLeadingRows(t *testing.T) {
	table := ComputeTable(wave(70))
	require.Equal(t, 20, table.Len())
	assert.Equal(t, 50, table.Positions[0])
	_, pos, ok := table.Last()
	assert.True(t, ok)
	assert.Equal(t, 69, pos)
	for _, row := range table.Rows {
		for i, v := range row {
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0), "feature %s", models.FeatureNames[i])
		}
	}
}

func TestCompute_Deterministic(t *testing.T) {
	s := seriesOf(wave(120))
	a, err := Compute(s)
	require.NoError(t, err)
	b, err := Compute(s)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCompute_RSINeutralWhenNoLosses(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 50 + float64(i/2)
	}
	row, err := Compute(seriesOf(closes))
	require.NoError(t, err)
	assert.Equal(t, NeutralRSI, row.RSI14())
}

func TestCompute_RSINeutralAfterLossesLeaveWindow(t *testing.T) {
	closes := wave(60)
	last := closes[len(closes)-1]
	for i := 0; i < 20; i++ {
		last += 0.1
		closes = append(closes, last)
	}
	row, err := Compute(seriesOf(closes))
	require.NoError(t, err)
	assert.Equal(t, NeutralRSI, row.RSI14())
}

func TestCompute_RSIKnownValue(t *testing.T) {
	closes := wave(40)
	p := closes[len(closes)-1]
	for i := 0; i < 14; i++ {
		if i%2 == 0 {
			p += 2
		} else {
			p--
		}
		closes = append(closes, p)
	}
	row, err := Compute(seriesOf(closes))
	require.NoError(t, err)
	// mean gain 1, mean loss 0.5 -> rs 2
	assert.InDelta(t, 100-100/3.0, row.RSI14(), 1e-9)
}

func TestCompute_ZeroPreviousClose(t *testing.T) {
	closes := wave(80)
	closes[78] = 0
	row, err := Compute(seriesOf(closes))
	require.NoError(t, err)
	assert.Equal(t, 0.0, row[models.FeatRet1])
	for _, v := range row {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
}

func TestComputeTable_SkipsRowsTouchedByNaN(t *testing.T) {
	closes := wave(140)
	closes[60] = math.NaN()
	table := ComputeTable(closes)
	for _, pos := range table.Positions {
		assert.False(t, pos >= 60 && pos <= 110, "row %d should be dropped", pos)
	}
	_, pos, ok := table.Last()
	require.True(t, ok)
	assert.Equal(t, 139, pos)
}
