package portfolio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Series is a close-price history for one symbol. Missing closes are NaN.
type Series struct {
	Times  []time.Time
	Closes []float64
}

// Quoter fetches close-price history for a symbol.
type Quoter interface {
	History(ctx context.Context, symbol string, start, end time.Time, interval string) (Series, error)
}

// YahooClient pulls price history from the Yahoo Finance chart API.
type YahooClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewYahooClient returns a client against the public endpoint.
func NewYahooClient() *YahooClient {
	return &YahooClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    "https://query1.finance.yahoo.com",
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// History fetches closes for [start, end] at the given interval
// ("1d", "1wk", "1mo"). A symbol with no data in the window comes back
// as an empty series, not an error.
func (c *YahooClient) History(ctx context.Context, symbol string, start, end time.Time, interval string) (Series, error) {
	params := url.Values{}
	params.Set("period1", strconv.FormatInt(start.Unix(), 10))
	params.Set("period2", strconv.FormatInt(end.Unix(), 10))
	params.Set("interval", interval)

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Series{}, err
	}
	// Yahoo rejects the default Go user agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; unibot/1.0)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Series{}, fmt.Errorf("failed to fetch %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return Series{}, fmt.Errorf("yahoo chart returned %d for %s", resp.StatusCode, symbol)
	}

	var parsed chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Series{}, fmt.Errorf("failed to decode chart for %s: %w", symbol, err)
	}
	if e := parsed.Chart.Error; e != nil {
		return Series{}, fmt.Errorf("yahoo error for %s: %s", symbol, e.Description)
	}
	if len(parsed.Chart.Result) == 0 {
		return Series{}, nil
	}

	result := parsed.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return Series{}, nil
	}
	closes := result.Indicators.Quote[0].Close

	n := min(len(result.Timestamp), len(closes))
	series := Series{
		Times:  make([]time.Time, 0, n),
		Closes: make([]float64, 0, n),
	}
	for idx := 0; idx < n; idx++ {
		series.Times = append(series.Times, time.Unix(result.Timestamp[idx], 0).UTC())
		if closes[idx] == nil {
			series.Closes = append(series.Closes, math.NaN())
		} else {
			series.Closes = append(series.Closes, *closes[idx])
		}
	}
	return series, nil
}
