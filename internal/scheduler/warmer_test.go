package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"StockSignal/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRefresher struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
}

func (f *fakeRefresher) Refresh(ctx context.Context, p usecase.HistoryParams) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, p.Symbol)
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("missing deadline")
	}
	if f.fail[p.Symbol] {
		return 0, errors.New("upstream down")
	}
	return 10, nil
}

func TestRunOnce(t *testing.T) {
	r := &fakeRefresher{fail: map[string]bool{"MSFT": true}}
	w := NewCacheWarmer(r, []string{"AAPL", "MSFT", "SPY"}, time.Second, nil)

	assert.Equal(t, 2, w.RunOnce(context.Background()))
	assert.Equal(t, []string{"AAPL", "MSFT", "SPY"}, r.calls)
}

func TestRunOnce_StopsWhenCanceled(t *testing.T) {
	r := &fakeRefresher{}
	w := NewCacheWarmer(r, []string{"AAPL", "MSFT"}, time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, 0, w.RunOnce(ctx))
	assert.Empty(t, r.calls)
}

func TestRegister(t *testing.T) {
	w := NewCacheWarmer(&fakeRefresher{}, []string{"AAPL"}, time.Second, nil)
	require.NoError(t, w.Register("@every 5m"))
	require.NoError(t, w.Register("*/10 * * * *"))
	assert.Error(t, w.Register("every now and then"))
	assert.Len(t, w.cron.Entries(), 2)

	w.Start()
	w.Stop()
}
