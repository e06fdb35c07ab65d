package marketdata

import (
	"context"
	"fmt"
	"time"

	"LureScan/internal/domain/models"
	drepo "LureScan/internal/domain/repository"
	pkghttp "LureScan/pkg/http"
)

// Client fetches bar windows from an OHLCV HTTP service. It is the funnel's
// market data source when ClickHouse is not the backend.
type Client struct {
	baseURL string
	apiKey  string
	http    *pkghttp.Client
}

type Option func(*Client)

func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http = pkghttp.NewClient(pkghttp.WithTimeout(d)) }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		http:    pkghttp.NewClient(pkghttp.WithTimeout(15 * time.Second)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type windowRequest struct {
	Symbols  []string `json:"symbols"`
	Period   string   `json:"period"`
	BarCount int      `json:"bar_count"`
}

type wireBar struct {
	T int64   `json:"t"` // unix seconds, bucket start
	O float64 `json:"o"`
	H float64 `json:"h"`
	L float64 `json:"l"`
	C float64 `json:"c"`
	V float64 `json:"v"`
}

type windowResponse struct {
	Windows map[string][]wireBar `json:"windows"`
}

// FetchWindows requests the last barCount bars for every symbol in one round
// trip. Symbols unknown to the service are absent from the response.
func (c *Client) FetchWindows(ctx context.Context, symbols []string, period drepo.Period, barCount int) (map[string]models.BarWindow, error) {
	if len(symbols) == 0 {
		return map[string]models.BarWindow{}, nil
	}

	var resp windowResponse
	opts := &pkghttp.RequestOptions{
		Method: pkghttp.MethodPost,
		URL:    c.baseURL + "/api/v1/bars/window",
		Body: windowRequest{
			Symbols:  symbols,
			Period:   string(period),
			BarCount: barCount,
		},
	}
	if c.apiKey != "" {
		opts.Headers = map[string]string{"X-API-Key": c.apiKey}
	}
	if err := c.http.SendAndParse(ctx, opts, &resp); err != nil {
		return nil, fmt.Errorf("fetch windows: %w", err)
	}

	out := make(map[string]models.BarWindow, len(resp.Windows))
	for sym, bars := range resp.Windows {
		w := make(models.BarWindow, 0, len(bars))
		for _, b := range bars {
			w = append(w, models.Bar{
				Bucket: time.Unix(b.T, 0),
				Symbol: sym,
				Open:   b.O,
				High:   b.H,
				Low:    b.L,
				Close:  b.C,
				Volume: b.V,
			})
		}
		out[sym] = w
	}
	return out, nil
}
