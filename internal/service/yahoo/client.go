package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"StockSignal/internal/domain/models"
	"StockSignal/internal/domain/repository"
	xhttp "StockSignal/pkg/http"
	"StockSignal/pkg/logger"
	xutil "StockSignal/pkg/util"
)

const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultSearchURL = "https://query2.finance.yahoo.com"

	userAgent = "Mozilla/5.0 (compatible; StockSignal/1.0)"
	source    = "yahoo"
)

// DefaultAliases maps index shorthands to Yahoo tickers.
var DefaultAliases = map[string]string{
	"SPX":    "^GSPC",
	"SP500":  "^GSPC",
	"SPX500": "^GSPC",
	"NDX":    "^NDX",
	"DJI":    "^DJI",
	"VIX":    "^VIX",
}

// Client reads the Yahoo Finance chart and search APIs.
type Client struct {
	baseURL   string
	searchURL string
	aliases   map[string]string
	http      *xhttp.Client
	now       func() time.Time
	log       *logger.Logger
}

var (
	_ repository.BarSource      = (*Client)(nil)
	_ repository.HistorySource  = (*Client)(nil)
	_ repository.SymbolSearcher = (*Client)(nil)
)

// Option configures Client.
type Option func(*Client)

// WithBaseURL overrides the chart API host.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithSearchURL overrides the search API host.
func WithSearchURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.searchURL = strings.TrimRight(u, "/")
		}
	}
}

// WithAliases adds symbol aliases on top of DefaultAliases.
func WithAliases(m map[string]string) Option {
	return func(c *Client) {
		for k, v := range m {
			c.aliases[xutil.NormalizeSymbol(k)] = v
		}
	}
}

// WithClock sets the time source used for period windows.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New builds a Yahoo client. Transport options such as timeout and proxy go to httpOpts.
func New(httpOpts []xhttp.ClientOption, opts ...Option) (*Client, error) {
	hc, err := xhttp.NewClient(append([]xhttp.ClientOption{xhttp.WithUserAgent(userAgent)}, httpOpts...)...)
	if err != nil {
		return nil, fmt.Errorf("yahoo http client: %w", err)
	}
	c := &Client{
		baseURL:   DefaultBaseURL,
		searchURL: DefaultSearchURL,
		aliases:   make(map[string]string, len(DefaultAliases)),
		http:      hc,
		now:       time.Now,
	}
	for k, v := range DefaultAliases {
		c.aliases[k] = v
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Name() string { return source }

// Ticker resolves aliases. Unknown symbols pass through unchanged.
func (c *Client) Ticker(symbol string) string {
	if t, ok := c.aliases[symbol]; ok {
		return t
	}
	return symbol
}

// FetchDailyBars fetches daily bars over [now-days, now].
func (c *Client) FetchDailyBars(ctx context.Context, symbol string, days int) (models.Series, error) {
	from, to := xutil.TrailingWindow(c.now(), days)
	params := map[string][]string{
		"period1":  {strconv.FormatInt(from.Unix(), 10)},
		"period2":  {strconv.FormatInt(to.Unix(), 10)},
		"interval": {"1d"},
		"events":   {"history"},
	}
	return c.fetchChart(ctx, symbol, params)
}

// FetchBars fetches bars over a named range such as 1mo at the given interval.
func (c *Client) FetchBars(ctx context.Context, symbol string, rng string, interval repository.Interval) (models.Series, error) {
	params := map[string][]string{
		"range":    {rng},
		"interval": {string(interval)},
	}
	return c.fetchChart(ctx, symbol, params)
}

func (c *Client) fetchChart(ctx context.Context, symbol string, params map[string][]string) (models.Series, error) {
	series := models.Series{Symbol: symbol}
	ticker := c.Ticker(symbol)

	var raw []byte
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.baseURL + "/v8/finance/chart/" + url.PathEscape(ticker),
		QueryParams: params,
	}, &raw)

	var se *xhttp.StatusError
	switch {
	case errors.As(err, &se):
		// Yahoo answers unknown tickers with 404 and a chart error body.
		raw = se.Body
		if se.Code != http.StatusNotFound {
			return series, &models.UpstreamFetchError{Source: source, Symbol: symbol, Err: err}
		}
	case err != nil:
		return series, &models.UpstreamFetchError{Source: source, Symbol: symbol, Err: err}
	}

	var chart chartResponse
	if uerr := json.Unmarshal(raw, &chart); uerr != nil {
		if se != nil {
			return series, models.ErrSymbolNotFound
		}
		return series, &models.UpstreamFetchError{Source: source, Symbol: symbol, Err: fmt.Errorf("decode chart: %w", uerr)}
	}
	if e := chart.Chart.Error; e != nil {
		if se != nil || strings.EqualFold(e.Code, "Not Found") {
			return series, fmt.Errorf("%s: %w", e.Description, models.ErrSymbolNotFound)
		}
		return series, &models.UpstreamFetchError{Source: source, Symbol: symbol, Err: fmt.Errorf("%s: %s", e.Code, e.Description)}
	}
	if se != nil {
		return series, models.ErrSymbolNotFound
	}
	if len(chart.Chart.Result) == 0 {
		return series, nil
	}

	series.Bars = chart.Chart.Result[0].bars()
	series.Normalize()
	if c.log != nil {
		c.log.Debug("yahoo chart fetched",
			logger.String("symbol", symbol),
			logger.String("ticker", ticker),
			logger.Int("bars", series.Len()),
		)
	}
	return series, nil
}

// Search forwards query to the autocomplete endpoint and returns the raw JSON body.
func (c *Client) Search(ctx context.Context, query string) ([]byte, error) {
	var raw []byte
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.searchURL + "/v1/finance/search",
		QueryParams: map[string][]string{"q": {query}},
	}, &raw)
	if err != nil {
		return nil, &models.UpstreamFetchError{Source: source + " search", Err: err}
	}
	if !json.Valid(raw) {
		return nil, &models.UpstreamFetchError{Source: source + " search", Err: fmt.Errorf("invalid json body")}
	}
	return raw, nil
}
