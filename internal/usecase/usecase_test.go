package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"StockSignal/internal/domain/models"
	domrepo "StockSignal/internal/domain/repository"
	"StockSignal/internal/services/signal"
	"StockSignal/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func risingSeries(n int) models.Series {
	s := models.Series{Bars: make([]models.Bar, n)}
	for i := range s.Bars {
		c := 100 + 0.5*float64(i)
		s.Bars[i] = models.Bar{Time: day0.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return s
}

type fakeBars struct {
	series models.Series
	err    error
	calls  int
	days   int
}

func (f *fakeBars) FetchDailyBars(_ context.Context, symbol string, days int) (models.Series, error) {
	f.calls++
	f.days = days
	if f.err != nil {
		return models.Series{}, f.err
	}
	s := f.series
	s.Symbol = symbol
	return s, nil
}

func (f *fakeBars) Name() string { return "fake" }

type fakeMetrics struct {
	mu          sync.Mutex
	predictions []string
	errors      []string
	cache       map[string][]bool
	lastPrice   map[string]float64
	latencies   []string
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{cache: map[string][]bool{}, lastPrice: map[string]float64{}}
}

func (m *fakeMetrics) RecordPrediction(strategy, sig string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions = append(m.predictions, strategy+":"+sig)
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, kind)
}

func (m *fakeMetrics) RecordLastPrice(symbol string, price float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastPrice[symbol] = price
}

func (m *fakeMetrics) RecordLatency(op string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencies = append(m.latencies, op)
}

func (m *fakeMetrics) RecordCache(ns string, hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[ns] = append(m.cache[ns], hit)
}

var _ domrepo.Metrics = (*fakeMetrics)(nil)

type stubDecider struct{ d models.Decision }

func (s stubDecider) Decide(context.Context, float64, models.FeatureRow) models.Decision { return s.d }

func TestPredict_RulesOnRisingSeries(t *testing.T) {
	bars := &fakeBars{series: risingSeries(60)}
	m := newFakeMetrics()
	uc := NewPredictUseCase(bars, signal.NewSelector(nil), m, nil, 150)

	res, err := uc.Predict(context.Background(), PredictParams{Symbol: " aapl "})
	require.NoError(t, err)

	assert.Equal(t, 150, bars.days)
	assert.Equal(t, "AAPL", res.Symbol)
	assert.Equal(t, models.SignalBuy, res.Signal)
	assert.Equal(t, res.Signal, res.Prediction)
	assert.Equal(t, 0.75, res.Confidence)
	assert.Equal(t, models.StrategyRules, res.Strategy)
	assert.Equal(t, 129.5, res.CurrentPrice)
	assert.Equal(t, 50.0, res.Details.RSI)
	assert.Equal(t, 117.25, res.Details.MA50)
	// ret_1 on a linear series only drifts in the 5th decimal.
	assert.Equal(t, 0.0, res.Details.Volatility)

	assert.Equal(t, []string{"rules:BUY"}, m.predictions)
	assert.Equal(t, 129.5, m.lastPrice["AAPL"])
	assert.Equal(t, []string{"predict"}, m.latencies)
	assert.False(t, uc.HasModel())
}

func TestPredict_Deterministic(t *testing.T) {
	uc := NewPredictUseCase(&fakeBars{series: risingSeries(80)}, signal.NewSelector(nil), nil, nil, 150)
	a, err := uc.Predict(context.Background(), PredictParams{Symbol: "MSFT"})
	require.NoError(t, err)
	b, err := uc.Predict(context.Background(), PredictParams{Symbol: "MSFT"})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestPredict_InsufficientData(t *testing.T) {
	m := newFakeMetrics()
	uc := NewPredictUseCase(&fakeBars{series: risingSeries(49)}, signal.NewSelector(nil), m, nil, 150)

	_, err := uc.Predict(context.Background(), PredictParams{Symbol: "NEWCO"})
	require.Error(t, err)

	var ide *models.InsufficientDataError
	require.ErrorAs(t, err, &ide)
	assert.Equal(t, "NEWCO", ide.Symbol)
	assert.Equal(t, 49, ide.Have)
	assert.Equal(t, []string{"insufficient_data"}, m.errors)
	assert.Empty(t, m.predictions)
}

func TestPredict_FetchErrors(t *testing.T) {
	cases := map[string]struct {
		err  error
		kind string
	}{
		"not found": {models.ErrSymbolNotFound, "symbol_not_found"},
		"upstream":  {&models.UpstreamFetchError{Source: "yahoo", Symbol: "AAPL", Err: errors.New("502")}, "upstream"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			m := newFakeMetrics()
			uc := NewPredictUseCase(&fakeBars{err: tc.err}, signal.NewSelector(nil), m, nil, 150)
			_, err := uc.Predict(context.Background(), PredictParams{Symbol: "AAPL"})
			assert.ErrorIs(t, err, tc.err)
			assert.Equal(t, []string{tc.kind}, m.errors)
		})
	}
}

func TestPredict_EmptySymbol(t *testing.T) {
	bars := &fakeBars{series: risingSeries(60)}
	uc := NewPredictUseCase(bars, signal.NewSelector(nil), nil, nil, 150)
	_, err := uc.Predict(context.Background(), PredictParams{Symbol: "   "})
	assert.ErrorIs(t, err, models.ErrInvalidSymbol)
	assert.Zero(t, bars.calls)
}

func TestPredict_StrategySelection(t *testing.T) {
	model := stubDecider{d: models.Decision{Signal: models.SignalSell, Confidence: 0.6666, Strategy: models.StrategyModel}}
	uc := NewPredictUseCase(&fakeBars{series: risingSeries(60)}, signal.NewSelector(model), nil, nil, 150)
	assert.True(t, uc.HasModel())

	res, err := uc.Predict(context.Background(), PredictParams{Symbol: "AAPL"})
	require.NoError(t, err)
	assert.Equal(t, models.StrategyModel, res.Strategy)
	assert.Equal(t, models.SignalSell, res.Signal)
	assert.Equal(t, 0.67, res.Confidence)

	res, err = uc.Predict(context.Background(), PredictParams{Symbol: "AAPL", Strategy: models.StrategyRules})
	require.NoError(t, err)
	assert.Equal(t, models.StrategyRules, res.Strategy)
	assert.Equal(t, models.SignalBuy, res.Signal)
}

func TestPredict_BarOverride(t *testing.T) {
	series := risingSeries(60)
	bars := &fakeBars{series: series}
	uc := NewPredictUseCase(bars, signal.NewSelector(nil), nil, nil, 150)

	last := series.Bars[59].Time
	res, err := uc.Predict(context.Background(), PredictParams{
		Symbol: "AAPL",
		Bar:    &models.Bar{Time: last.Add(20 * time.Hour), Open: 60, High: 61, Low: 49, Close: 50},
	})
	require.NoError(t, err)
	assert.Equal(t, 50.0, res.CurrentPrice)
	assert.Equal(t, models.SignalSell, res.Signal)
	assert.Equal(t, 0.75, res.Confidence)
	// the fetched series is not mutated
	assert.Equal(t, 129.5, bars.series.Bars[59].Close)
}

func TestWithBar(t *testing.T) {
	series := risingSeries(3)
	now := day0.AddDate(0, 0, 10)

	replaced := withBar(series, models.Bar{Time: day0.AddDate(0, 0, 2).Add(15 * time.Hour), Close: 1}, now)
	require.Equal(t, 3, replaced.Len())
	assert.Equal(t, 1.0, replaced.Bars[2].Close)
	assert.True(t, replaced.Bars[2].Time.Equal(series.Bars[2].Time))

	appended := withBar(series, models.Bar{Close: 2}, now)
	require.Equal(t, 4, appended.Len())
	assert.True(t, appended.Bars[3].Time.Equal(now))

	stale := withBar(series, models.Bar{Time: day0.AddDate(-1, 0, 0), Close: 3}, now)
	require.Equal(t, 4, stale.Len())
	assert.True(t, stale.Bars[3].Time.After(stale.Bars[2].Time))

	assert.Equal(t, 101.0, series.Bars[2].Close)
}

func TestAssemble_SanitizesNonFinite(t *testing.T) {
	var row models.FeatureRow
	row[models.FeatRSI14] = math.NaN()
	row[models.FeatVol10] = math.Inf(1)
	row[models.FeatMA50] = 12.345

	res := assemble("X", math.Inf(-1), row, models.Decision{Signal: models.SignalHold, Confidence: math.NaN(), Strategy: models.StrategyRules})
	assert.Equal(t, 0.0, res.CurrentPrice)
	assert.Equal(t, 0.0, res.Confidence)
	assert.Equal(t, 0.0, res.Details.RSI)
	assert.Equal(t, 0.0, res.Details.Volatility)
	assert.Equal(t, 12.35, res.Details.MA50)
}

type fakeHistory struct {
	series models.Series
	err    error
	calls  int
	last   [2]string
}

func (f *fakeHistory) FetchBars(_ context.Context, symbol, rng string, iv domrepo.Interval) (models.Series, error) {
	f.calls++
	f.last = [2]string{rng, string(iv)}
	return f.series, f.err
}

func TestHistory_FormatsAndCaches(t *testing.T) {
	src := &fakeHistory{series: models.Series{Bars: []models.Bar{
		{Time: time.Date(2025, 3, 4, 9, 30, 0, 0, time.UTC), Close: 101.234},
		{Time: time.Date(2025, 3, 4, 10, 30, 0, 0, time.UTC), Close: 101.235},
	}}}
	mem := cache.NewMemoryCache()
	defer mem.Close()
	m := newFakeMetrics()
	uc := NewHistoryUseCase(src, mem, time.Minute, m, nil, "1mo", domrepo.Interval1h)

	want := []models.HistoryPoint{{Time: "03/04 09:30", Price: 101.23}, {Time: "03/04 10:30", Price: 101.24}}

	got, err := uc.History(context.Background(), HistoryParams{Symbol: "aapl"})
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, [2]string{"1mo", "1h"}, src.last)

	got, err = uc.History(context.Background(), HistoryParams{Symbol: "AAPL"})
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, []bool{false, true}, m.cache["history"])
}

func TestHistory_EmptyIsNotCached(t *testing.T) {
	src := &fakeHistory{}
	mem := cache.NewMemoryCache()
	defer mem.Close()
	uc := NewHistoryUseCase(src, mem, time.Minute, nil, nil, "", "")

	_, err := uc.History(context.Background(), HistoryParams{Symbol: "ZZZZ"})
	assert.ErrorIs(t, err, models.ErrNoHistory)
	_, err = uc.History(context.Background(), HistoryParams{Symbol: "ZZZZ"})
	assert.ErrorIs(t, err, models.ErrNoHistory)
	assert.Equal(t, 2, src.calls)
}

func TestHistory_RefreshOverwrites(t *testing.T) {
	src := &fakeHistory{series: models.Series{Bars: []models.Bar{{Time: day0, Close: 1}}}}
	mem := cache.NewMemoryCache()
	defer mem.Close()
	uc := NewHistoryUseCase(src, mem, time.Minute, nil, nil, "1mo", domrepo.Interval1h)

	_, err := uc.History(context.Background(), HistoryParams{Symbol: "AAPL"})
	require.NoError(t, err)

	src.series.Bars[0].Close = 2
	n, err := uc.Refresh(context.Background(), HistoryParams{Symbol: "AAPL"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := uc.History(context.Background(), HistoryParams{Symbol: "AAPL"})
	require.NoError(t, err)
	assert.Equal(t, 2.0, got[0].Price)
	assert.Equal(t, 2, src.calls)
}

func TestHistory_NilCache(t *testing.T) {
	src := &fakeHistory{series: models.Series{Bars: []models.Bar{{Time: day0, Close: 1}}}}
	uc := NewHistoryUseCase(src, nil, time.Minute, nil, nil, "1mo", domrepo.Interval1h)
	_, err := uc.History(context.Background(), HistoryParams{Symbol: "AAPL"})
	require.NoError(t, err)
	_, err = uc.History(context.Background(), HistoryParams{Symbol: "AAPL"})
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

type fakeSearcher struct {
	body  []byte
	err   error
	calls int
	query string
}

func (f *fakeSearcher) Search(_ context.Context, q string) ([]byte, error) {
	f.calls++
	f.query = q
	return f.body, f.err
}

func TestSearch_PassthroughAndCache(t *testing.T) {
	s := &fakeSearcher{body: []byte(`{"quotes":[{"symbol":"AAPL"}]}`)}
	mem := cache.NewMemoryCache()
	defer mem.Close()
	m := newFakeMetrics()
	uc := NewSearchUseCase(s, mem, time.Hour, m)

	body, err := uc.Search(context.Background(), " Apple ")
	require.NoError(t, err)
	assert.JSONEq(t, `{"quotes":[{"symbol":"AAPL"}]}`, string(body))
	assert.Equal(t, "Apple", s.query)

	_, err = uc.Search(context.Background(), "apple")
	require.NoError(t, err)
	assert.Equal(t, 1, s.calls)
	assert.Equal(t, []bool{false, true}, m.cache["search"])
}

func TestSearch_ErrorNotCached(t *testing.T) {
	s := &fakeSearcher{err: &models.UpstreamFetchError{Source: "yahoo search", Err: errors.New("timeout")}}
	mem := cache.NewMemoryCache()
	defer mem.Close()
	m := newFakeMetrics()
	uc := NewSearchUseCase(s, mem, time.Hour, m)

	_, err := uc.Search(context.Background(), "x")
	require.Error(t, err)
	_, err = uc.Search(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, 2, s.calls)
	assert.Equal(t, []string{"upstream", "upstream"}, m.errors)
}
