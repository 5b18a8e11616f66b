package collector

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/tidwall/gjson"

	"TrendSentinel/internal/model"
)

// YahooFetcher implements Fetcher using the Yahoo Finance chart API.
// It only serves the intervals Yahoo publishes; the session builds the rest.
type YahooFetcher struct {
	*HTTPFetcher
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker
}

// NewYahooFetcher creates a new Yahoo Finance fetcher.
func NewYahooFetcher(proxyURL string, rps float64) *YahooFetcher {
	hf := NewHTTPFetcher("https://query1.finance.yahoo.com", "", proxyURL, rps)
	hf.UserAgent = "Mozilla/5.0"
	return &YahooFetcher{
		HTTPFetcher: hf,
		SymbolMap: map[string]string{
			"NIFTY":     "^NSEI",
			"BANKNIFTY": "^NSEBANK",
			"SPX":       "^GSPC",
		},
	}
}

func (f *YahooFetcher) Name() string { return "yahoo" }

var yahooIntervals = map[model.Resolution]string{
	model.OneMinute:   "1m",
	model.FiveMinutes: "5m",
}

func (f *YahooFetcher) yahooSymbol(symbol string) string {
	if mapped, ok := f.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

func (f *YahooFetcher) FetchCandles(ctx context.Context, symbol string, date time.Time, res model.Resolution) ([]model.Candle, error) {
	interval, ok := yahooIntervals[res]
	if !ok {
		return nil, ErrNoData
	}
	day := SessionDay(date)
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=%s&period1=%d&period2=%d",
		f.BaseURL, url.PathEscape(f.yahooSymbol(symbol)), interval, day.Unix(), day.AddDate(0, 0, 1).Unix())

	body, err := f.get(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("yahoo: %w", err)
	}
	return parseChart(body)
}

func parseChart(body []byte) ([]model.Candle, error) {
	chart := gjson.GetBytes(body, "chart")
	if desc := chart.Get("error.description"); desc.Exists() {
		return nil, fmt.Errorf("yahoo api error: %s", desc.String())
	}
	result := chart.Get("result.0")
	stamps := result.Get("timestamp").Array()
	quote := result.Get("indicators.quote.0")
	opens, highs := quote.Get("open").Array(), quote.Get("high").Array()
	lows, closes := quote.Get("low").Array(), quote.Get("close").Array()
	volumes := quote.Get("volume").Array()

	candles := make([]model.Candle, 0, len(stamps))
	for i, ts := range stamps {
		if i >= len(opens) || i >= len(highs) || i >= len(lows) || i >= len(closes) {
			break
		}
		// null bars mark minutes without trades
		if closes[i].Type == gjson.Null || opens[i].Type == gjson.Null {
			continue
		}
		c := model.Candle{
			Time:  time.Unix(ts.Int(), 0).UTC(),
			Open:  opens[i].Float(),
			High:  highs[i].Float(),
			Low:   lows[i].Float(),
			Close: closes[i].Float(),
		}
		if i < len(volumes) {
			c.Volume = volumes[i].Float()
		}
		candles = append(candles, c)
	}
	if len(candles) == 0 {
		return nil, ErrNoData
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Time.Before(candles[j].Time) })
	return candles, nil
}
