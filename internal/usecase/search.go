package usecase

import (
	"context"
	"strings"
	"time"

	domrepo "StockSignal/internal/domain/repository"
	"StockSignal/pkg/cache"
)

// SearchUseCase forwards ticker lookups and caches the raw upstream JSON.
type SearchUseCase struct {
	searcher domrepo.SymbolSearcher
	cache    cache.Service
	ttl      time.Duration
	metrics  domrepo.Metrics
}

func NewSearchUseCase(searcher domrepo.SymbolSearcher, c cache.Service, ttl time.Duration, metrics domrepo.Metrics) *SearchUseCase {
	return &SearchUseCase{searcher: searcher, cache: c, ttl: ttl, metrics: metrics}
}

// Search returns the provider's response body unchanged.
func (uc *SearchUseCase) Search(ctx context.Context, query string) ([]byte, error) {
	query = strings.TrimSpace(query)
	key := cache.GenerateKeyWithParams("search", cache.HashKey(strings.ToLower(query)))

	start := time.Now()
	body, hit, err := cache.GetOrLoad(ctx, uc.cache, key, uc.ttl, func(ctx context.Context) ([]byte, error) {
		return uc.searcher.Search(ctx, query)
	})
	if uc.metrics != nil {
		uc.metrics.RecordCache("search", hit)
		uc.metrics.RecordLatency("search", time.Since(start))
		if err != nil {
			uc.metrics.RecordError(errorKind(err))
		}
	}
	return body, err
}
