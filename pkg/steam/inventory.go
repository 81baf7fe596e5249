// Package steam pulls public CS2 inventories from the Steam community
// endpoints. No API key is involved, which also means the endpoints are
// rate limited and refuse private inventories outright.
package steam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	appID     = "730"
	contextID = "2"
	pageCount = "100"

	requestTimeout = 25 * time.Second
	userAgent      = "csfloat-valuator/1.1"
)

var steamID64Pattern = regexp.MustCompile(`<steamID64>(\d+)</steamID64>`)

// ErrInventoryPrivate reports a 403 from the inventory endpoint, which
// Steam uses both for private profiles and hidden inventories.
var ErrInventoryPrivate = errors.New("Inventory is private or not accessible.")

// HTTPError is a non-2xx reply from a Steam endpoint.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d error for url: %s", e.StatusCode, e.URL)
}

// Asset is one inventory item, already joined with its description.
type Asset struct {
	Name       string
	Marketable int
}

// Client talks to steamcommunity.com.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		baseURL:    "https://steamcommunity.com",
	}
}

// ResolveVanity turns a vanity profile name into a SteamID64. A value
// that already looks like a SteamID64 passes through untouched.
func (c *Client) ResolveVanity(ctx context.Context, vanity string) (string, error) {
	vanity = strings.Trim(strings.TrimSpace(vanity), "/")
	if isDigits(vanity) && len(vanity) >= 16 {
		return vanity, nil
	}

	profileURL := fmt.Sprintf("%s/id/%s/?xml=1", c.baseURL, vanity)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, profileURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return "", &HTTPError{StatusCode: resp.StatusCode, URL: profileURL}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	m := steamID64Pattern.FindStringSubmatch(string(body))
	if m == nil {
		return "", fmt.Errorf("Could not resolve vanity '%s'. Provide --steamid.", vanity)
	}
	return m[1], nil
}

type inventoryPage struct {
	Assets []struct {
		ClassID    string `json:"classid"`
		InstanceID string `json:"instanceid"`
	} `json:"assets"`
	Descriptions []struct {
		ClassID        string `json:"classid"`
		InstanceID     string `json:"instanceid"`
		MarketHashName string `json:"market_hash_name"`
		MarketName     string `json:"market_name"`
		Marketable     int    `json:"marketable"`
	} `json:"descriptions"`
	MoreItems   int    `json:"more_items"`
	LastAssetID string `json:"last_assetid"`
}

// FetchInventory pages through the whole CS2 inventory and returns the
// named assets. Items whose description carries no market name are
// dropped, matching what the market itself would show.
func (c *Client) FetchInventory(ctx context.Context, steamID64 string) ([]Asset, error) {
	endpoint := fmt.Sprintf("%s/inventory/%s/%s/%s", c.baseURL, steamID64, appID, contextID)

	var assets []Asset
	start := ""
	for {
		q := url.Values{}
		q.Set("l", "english")
		q.Set("count", pageCount)
		if start != "" {
			q.Set("start_assetid", start)
		}
		pageURL := endpoint + "?" + q.Encode()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode == http.StatusForbidden {
			resp.Body.Close()
			return nil, ErrInventoryPrivate
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, &HTTPError{StatusCode: resp.StatusCode, URL: pageURL}
		}

		var page inventoryPage
		err = json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("decoding inventory page: %w", err)
		}

		descs := make(map[string]int, len(page.Descriptions))
		for idx, d := range page.Descriptions {
			descs[d.ClassID+"_"+d.InstanceID] = idx
		}
		for _, a := range page.Assets {
			idx, ok := descs[a.ClassID+"_"+a.InstanceID]
			if !ok {
				continue
			}
			d := page.Descriptions[idx]
			name := strings.TrimSpace(d.MarketHashName)
			if name == "" {
				name = strings.TrimSpace(d.MarketName)
			}
			if name == "" {
				continue
			}
			assets = append(assets, Asset{Name: name, Marketable: d.Marketable})
		}

		if page.MoreItems != 1 || page.LastAssetID == "" {
			break
		}
		start = page.LastAssetID
	}
	return assets, nil
}

// CountByName collapses assets into name -> quantity. Unmarketable
// items are skipped unless asked for, since they cannot be priced on
// the market anyway.
func CountByName(assets []Asset, includeUnmarketable bool) map[string]int {
	counts := make(map[string]int)
	for _, a := range assets {
		if !includeUnmarketable && a.Marketable == 0 {
			continue
		}
		name := strings.TrimSpace(a.Name)
		if name == "" {
			continue
		}
		counts[name]++
	}
	return counts
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
