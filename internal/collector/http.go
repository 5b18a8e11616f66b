package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"TrendSentinel/internal/model"
)

// HTTPFetcher implements Fetcher against a REST candle API returning either a
// JSON array of candles or an object with a "candles" array.
type HTTPFetcher struct {
	BaseURL   string
	APIKey    string
	UserAgent string
	Client    *http.Client
	limiter   *rate.Limiter
}

// NewHTTPFetcher creates a new fetcher with optional proxy support.
// rps <= 0 disables rate limiting.
func NewHTTPFetcher(baseURL, apiKey, proxyURL string, rps float64) *HTTPFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	return &HTTPFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		limiter: rate.NewLimiter(limit, 5),
	}
}

func (f *HTTPFetcher) Name() string { return "http" }

func (f *HTTPFetcher) FetchCandles(ctx context.Context, symbol string, date time.Time, res model.Resolution) ([]model.Candle, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("date", date.Format("2006-01-02"))
	q.Set("resolution", fmt.Sprint(int(res)))
	endpoint := fmt.Sprintf("%s/api/v1/candles?%s", f.BaseURL, q.Encode())

	body, err := f.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	return parseCandles(body)
}

func (f *HTTPFetcher) get(ctx context.Context, endpoint string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch candles: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read candles: %w", err)
	}
	switch resp.StatusCode {
	case http.StatusOK:
		return body, nil
	case http.StatusNotFound:
		return nil, ErrNoData
	}
	return nil, fmt.Errorf("fetch candles: status %d, body: %s", resp.StatusCode, string(body))
}

// parseCandles reads {timestamp, open, high, low, close, volume} objects.
// Timestamps are unix seconds.
func parseCandles(body []byte) ([]model.Candle, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("decode candles: invalid json")
	}
	root := gjson.ParseBytes(body)
	if !root.IsArray() {
		root = root.Get("candles")
	}
	var candles []model.Candle
	root.ForEach(func(_, v gjson.Result) bool {
		candles = append(candles, model.Candle{
			Time:   time.Unix(v.Get("timestamp").Int(), 0).UTC(),
			Open:   v.Get("open").Float(),
			High:   v.Get("high").Float(),
			Low:    v.Get("low").Float(),
			Close:  v.Get("close").Float(),
			Volume: v.Get("volume").Float(),
		})
		return true
	})
	if len(candles) == 0 {
		return nil, ErrNoData
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Time.Before(candles[j].Time) })
	return candles, nil
}
