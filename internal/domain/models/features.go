package models

// NumFeatures is the width of a feature row.
const NumFeatures = 14

// Feature positions inside a FeatureRow. The order is the classifier input binding.
const (
	FeatRet1 = iota
	FeatMA1
	FeatRet3
	FeatMA3
	FeatRet5
	FeatMA5
	FeatRet10
	FeatMA10
	FeatRet20
	FeatMA20
	FeatRet50
	FeatMA50
	FeatVol10
	FeatRSI14
)

// FeatureNames lists feature names in row order.
var FeatureNames = [NumFeatures]string{
	"ret_1", "ma_1",
	"ret_3", "ma_3",
	"ret_5", "ma_5",
	"ret_10", "ma_10",
	"ret_20", "ma_20",
	"ret_50", "ma_50",
	"vol_10", "rsi_14",
}

// FeatureRow holds the 14 indicator values of one bar position.
type FeatureRow [NumFeatures]float64

// FeatureIndex returns the row position of a feature name.
func FeatureIndex(name string) (int, bool) {
	for i, n := range FeatureNames {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// FeatureRowFromMap binds named values to the canonical order. Unknown names are ignored;
// missing names are reported.
func FeatureRowFromMap(m map[string]float64) (FeatureRow, []string) {
	var row FeatureRow
	var missing []string
	for i, name := range FeatureNames {
		v, ok := m[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		row[i] = v
	}
	return row, missing
}

// Vector returns the row as a fresh slice in canonical order.
func (r FeatureRow) Vector() []float64 {
	out := make([]float64, NumFeatures)
	copy(out, r[:])
	return out
}

// Map returns the row keyed by feature name.
func (r FeatureRow) Map() map[string]float64 {
	m := make(map[string]float64, NumFeatures)
	for i, name := range FeatureNames {
		m[name] = r[i]
	}
	return m
}

// Get returns a feature by name.
func (r FeatureRow) Get(name string) (float64, bool) {
	i, ok := FeatureIndex(name)
	if !ok {
		return 0, false
	}
	return r[i], true
}

func (r FeatureRow) Close() float64 { return r[FeatMA1] }
func (r FeatureRow) MA10() float64  { return r[FeatMA10] }
func (r FeatureRow) MA20() float64  { return r[FeatMA20] }
func (r FeatureRow) MA50() float64  { return r[FeatMA50] }
func (r FeatureRow) Vol10() float64 { return r[FeatVol10] }
func (r FeatureRow) RSI14() float64 { return r[FeatRSI14] }
