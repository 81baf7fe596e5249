// Package csfloat prices CS2 items against the CSFloat listing market.
// Lookups are cached per client, including misses, so repeated names
// cost one request.
package csfloat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/uniyx/unibot/pkg/cache"
)

const (
	defaultBaseURL = "https://csfloat.com/api/v1/listings"

	requestTimeout = 25 * time.Second
	getAttempts    = 2
	userAgent      = "csfloat-valuator/1.2"
	minKeyLen      = 8
)

// DefaultSleep is the pause between listing requests, there to stay
// under the CSFloat rate limit during long inventory runs.
const DefaultSleep = 500 * time.Millisecond

// trailingParen captures everything before a final parenthetical, so
// "AK-47 | Redline (Field-Tested)" broadens to "AK-47 | Redline".
var trailingParen = regexp.MustCompile(`^(.*?)(?:\s*\([^)]*\))$`)

// Listing is one market listing as returned by the API.
type Listing struct {
	ID    json.Number `json:"id"`
	Price float64     `json:"price"`
}

// Quote is a priced lookup result. URL records the exact request that
// produced it, for audit output.
type Quote struct {
	Cents     int64
	ListingID string
	URL       string
}

// Client queries the CSFloat listings API with a personal key.
type Client struct {
	httpClient *http.Client
	baseURL    string
	key        string
	sleep      time.Duration
	verbose    bool
	logOut     io.Writer

	retryPause time.Duration
	ratePause  time.Duration

	cache cache.Cache
}

// New validates the key and builds a client. The sleep applies after
// every listing request, cache hits skip it.
func New(apiKey string, sleep time.Duration, verbose bool) (*Client, error) {
	if len(strings.TrimSpace(apiKey)) < minKeyLen {
		return nil, errors.New("Missing CSFloat API key. Set CSFLOAT_API_KEY or pass --key.")
	}
	if sleep < 0 {
		sleep = 0
	}
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    defaultBaseURL,
		key:        strings.ReplaceAll(strings.TrimSpace(apiKey), "Bearer ", ""),
		sleep:      sleep,
		verbose:    verbose,
		logOut:     os.Stdout,
		retryPause: 600 * time.Millisecond,
		ratePause:  1200 * time.Millisecond,
		cache:      cache.NewMemory(),
	}, nil
}

// get fetches listings for the given query. Auth rejections and rate
// limits both consume an attempt, after which the last failure is
// wrapped in a single terminal error.
func (c *Client) get(ctx context.Context, params url.Values) ([]Listing, string, error) {
	finalURL := c.baseURL + "?" + params.Encode()
	if c.verbose {
		fmt.Fprintf(c.logOut, "[CSFloat] GET %s\n", finalURL)
	}

	var lastErr error
	for attempt := 0; attempt < getAttempts; attempt++ {
		pause := time.Duration(attempt+1) * c.retryPause

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
		if err != nil {
			return nil, finalURL, err
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", c.key)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			if err := c.wait(ctx, pause); err != nil {
				return nil, finalURL, err
			}
			continue
		}

		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("CSFloat auth rejected (%d). Check your key.", resp.StatusCode)
			if err := c.wait(ctx, pause); err != nil {
				return nil, finalURL, err
			}
			continue
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = errors.New("rate limited (429)")
			if err := c.wait(ctx, time.Duration(attempt+1)*c.ratePause); err != nil {
				return nil, finalURL, err
			}
			continue
		}
		if resp.StatusCode >= 400 {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastErr = fmt.Errorf("HTTP %d for url: %s", resp.StatusCode, finalURL)
			if err := c.wait(ctx, pause); err != nil {
				return nil, finalURL, err
			}
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			if err := c.wait(ctx, pause); err != nil {
				return nil, finalURL, err
			}
			continue
		}
		if len(strings.TrimSpace(string(body))) == 0 {
			return nil, finalURL, nil
		}

		var listings []Listing
		if err := json.Unmarshal(body, &listings); err != nil {
			// A well-formed non-array payload means "no listings",
			// anything else is a transport problem worth retrying.
			if json.Valid(body) {
				return nil, finalURL, nil
			}
			lastErr = err
			if err := c.wait(ctx, pause); err != nil {
				return nil, finalURL, err
			}
			continue
		}
		return listings, finalURL, nil
	}
	return nil, finalURL, fmt.Errorf("CSFloat request failed after retries: %v", lastErr)
}

func (c *Client) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LowestExact returns the cheapest listing for the exact market hash
// name, or nil when nothing is listed. Both outcomes are cached.
func (c *Client) LowestExact(ctx context.Context, marketHashName string) (*Quote, error) {
	key := strings.TrimSpace("exact|" + marketHashName)
	if q, ok := c.cached(ctx, key); ok {
		return q, nil
	}

	params := url.Values{}
	params.Set("market_hash_name", marketHashName)
	params.Set("limit", "1")
	params.Set("sort_by", "lowest_price")
	return c.lookup(ctx, key, params)
}

// LowestBroad retries a miss with the final parenthetical stripped,
// which trades wear precision for any price at all. Names without a
// parenthetical have nothing to broaden and resolve to nil.
func (c *Client) LowestBroad(ctx context.Context, marketHashName string) (*Quote, error) {
	base := strings.TrimSpace(marketHashName)
	if m := trailingParen.FindStringSubmatch(marketHashName); m != nil {
		base = strings.TrimSpace(m[1])
	}

	key := "broad|" + base
	if q, ok := c.cached(ctx, key); ok {
		return q, nil
	}
	if base == marketHashName {
		c.store(ctx, key, nil)
		return nil, nil
	}

	params := url.Values{}
	params.Set("market_hash_name", base)
	params.Set("limit", "1")
	params.Set("sort_by", "lowest_price")
	return c.lookup(ctx, key, params)
}

// RecentListings fetches the newest site-wide listings, used by the
// probe flag to prove a key works at all.
func (c *Client) RecentListings(ctx context.Context, limit int) ([]Listing, error) {
	params := url.Values{}
	params.Set("limit", fmt.Sprintf("%d", limit))
	params.Set("sort_by", "most_recent")
	listings, _, err := c.get(ctx, params)
	return listings, err
}

func (c *Client) lookup(ctx context.Context, cacheKey string, params url.Values) (*Quote, error) {
	listings, finalURL, err := c.get(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := c.wait(ctx, c.sleep); err != nil {
		return nil, err
	}

	var q *Quote
	if len(listings) > 0 {
		q = &Quote{
			Cents:     int64(listings[0].Price),
			ListingID: listings[0].ID.String(),
			URL:       finalURL,
		}
	}
	c.store(ctx, cacheKey, q)
	return q, nil
}

// cached reads a previous result. A stored null is a known miss, which
// is as much of a hit as a price.
func (c *Client) cached(ctx context.Context, key string) (*Quote, bool) {
	data, ok, err := c.cache.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	var q *Quote
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, false
	}
	return q, true
}

func (c *Client) store(ctx context.Context, key string, q *Quote) {
	data, err := json.Marshal(q)
	if err != nil {
		return
	}
	c.cache.Set(ctx, key, data, 0)
}
