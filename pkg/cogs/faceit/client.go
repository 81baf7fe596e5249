package faceit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/uniyx/unibot/pkg/cache"
)

const (
	defaultBaseURL = "https://open.faceit.com/data/v4"

	getRetries   = 3
	matchFanout  = 6
	errBodyLimit = 200
)

var (
	kdKeys  = []string{"Average K/D Ratio", "K/D Ratio", "K/D"}
	adrKeys = []string{"Average Damage/Round", "ADR", "Average Damage per Round"}
)

// Roster is the default set of nicknames for /faceit without a user.
var Roster = []string{
	"uni",
	"bud",
	"hoax",
	"oldfranz",
	"xCaptain",
	"Benjitora",
	"Sham",
}

// Client talks to the FACEIT data API. When a cache is attached,
// resolved player identities are reused for cacheTTL so a roster
// refresh does not repeat seven lookups.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	retryBackoff time.Duration

	cache    cache.Cache
	cacheTTL time.Duration
}

// NewClient builds a client with the given API key.
func NewClient(apiKey string) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		baseURL:      defaultBaseURL,
		apiKey:       apiKey,
		retryBackoff: 750 * time.Millisecond,
	}
}

// getJSON fetches a URL with bearer auth, backing off and retrying on
// rate limits. The backoff doubles per attempt.
func (c *Client) getJSON(ctx context.Context, rawURL string, params url.Values, out any) error {
	if len(params) > 0 {
		rawURL = rawURL + "?" + params.Encode()
	}

	backoff := c.retryBackoff
	for attempt := 0; attempt < getRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < getRetries-1 {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
			continue
		}

		if resp.StatusCode >= 400 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, errBodyLimit))
			resp.Body.Close()
			return fmt.Errorf("FACEIT GET %s failed [%d]: %s", rawURL, resp.StatusCode, string(body))
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to decode %s: %w", rawURL, err)
		}
		return nil
	}
	return errors.New("Exhausted retries to FACEIT API")
}

// Player is the resolved identity for one nickname.
type Player struct {
	ID       string
	Nickname string
	Elo      *int
	URL      string
	Avatar   string
}

// ResolvePlayer looks up a nickname and pulls the CS2 elo, falling back
// to CSGO for accounts that never migrated.
func (c *Client) ResolvePlayer(ctx context.Context, nickname string) (Player, error) {
	cacheKey := "faceit|player|" + strings.ToLower(strings.TrimSpace(nickname))
	if p, ok := c.cachedPlayer(ctx, cacheKey); ok {
		return p, nil
	}

	var data struct {
		PlayerID  string                    `json:"player_id"`
		Nickname  string                    `json:"nickname"`
		Avatar    string                    `json:"avatar"`
		FaceitURL string                    `json:"faceit_url"`
		Games     map[string]map[string]any `json:"games"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/players", url.Values{"nickname": {nickname}}, &data); err != nil {
		return Player{}, err
	}
	if data.PlayerID == "" {
		return Player{}, fmt.Errorf("Could not resolve player_id for '%s'", nickname)
	}

	nick := data.Nickname
	if nick == "" {
		nick = nickname
	}

	game := data.Games["cs2"]
	if len(game) == 0 {
		game = data.Games["csgo"]
	}
	var elo *int
	if v, ok := numeric(game["faceit_elo"]); ok {
		n := int(v)
		elo = &n
	}

	p := Player{
		ID:       data.PlayerID,
		Nickname: nick,
		Elo:      elo,
		URL:      safeURL(data.FaceitURL),
		Avatar:   data.Avatar,
	}
	c.storePlayer(ctx, cacheKey, p)
	return p, nil
}

func (c *Client) cachedPlayer(ctx context.Context, key string) (Player, bool) {
	if c.cache == nil {
		return Player{}, false
	}
	data, ok, err := c.cache.Get(ctx, key)
	if err != nil || !ok {
		return Player{}, false
	}
	var p Player
	if err := json.Unmarshal(data, &p); err != nil {
		return Player{}, false
	}
	return p, true
}

func (c *Client) storePlayer(ctx context.Context, key string, p Player) {
	if c.cache == nil {
		return
	}
	data, err := json.Marshal(p)
	if err != nil {
		return
	}
	c.cache.Set(ctx, key, data, c.cacheTTL)
}

// LifetimeStats returns the lifetime stat map with trimmed keys.
func (c *Client) LifetimeStats(ctx context.Context, playerID string) (map[string]string, error) {
	var data struct {
		Lifetime map[string]any `json:"lifetime"`
	}
	endpoint := fmt.Sprintf("%s/players/%s/stats/cs2", c.baseURL, playerID)
	if err := c.getJSON(ctx, endpoint, nil, &data); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(data.Lifetime))
	for k, v := range data.Lifetime {
		if s, ok := v.(string); ok {
			out[strings.TrimSpace(k)] = s
		} else {
			out[strings.TrimSpace(k)] = fmt.Sprintf("%v", v)
		}
	}
	return out, nil
}

// pickKey tries candidates in order, then retries case-insensitively.
func pickKey(stats map[string]string, candidates []string) string {
	for _, k := range candidates {
		if v, ok := stats[k]; ok {
			return v
		}
	}
	lower := make(map[string]string, len(stats))
	for k := range stats {
		lower[strings.ToLower(k)] = k
	}
	for _, k := range candidates {
		if orig, ok := lower[strings.ToLower(k)]; ok {
			return stats[orig]
		}
	}
	return ""
}

// RecentStats aggregates K/D and ADR over the player's last matches.
type RecentStats struct {
	KD      *float64
	ADR     *float64
	Matches int
}

type matchStats struct {
	Rounds []struct {
		Teams []struct {
			Players []struct {
				Nickname    string         `json:"nickname"`
				PlayerStats map[string]any `json:"player_stats"`
			} `json:"players"`
		} `json:"teams"`
	} `json:"rounds"`
}

// RecentStatsLastN lists the last n matches and sums kills and deaths
// across them. ADR per match is already an average, so the mean over
// matches is used. Individual match fetches that fail are skipped.
func (c *Client) RecentStatsLastN(ctx context.Context, playerID, nickname string, n int) (RecentStats, error) {
	var hist struct {
		Items []struct {
			MatchID string `json:"match_id"`
		} `json:"items"`
	}
	endpoint := fmt.Sprintf("%s/players/%s/history", c.baseURL, playerID)
	params := url.Values{"game": {"cs2"}, "limit": {strconv.Itoa(n)}}
	if err := c.getJSON(ctx, endpoint, params, &hist); err != nil {
		return RecentStats{}, err
	}

	matchIDs := make([]string, 0, len(hist.Items))
	for _, it := range hist.Items {
		if it.MatchID != "" {
			matchIDs = append(matchIDs, it.MatchID)
		}
	}
	if len(matchIDs) == 0 {
		return RecentStats{}, nil
	}

	payloads := make([]*matchStats, len(matchIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(matchFanout)
	for idx, mid := range matchIDs {
		idx, mid := idx, mid
		g.Go(func() error {
			var ms matchStats
			if err := c.getJSON(gctx, fmt.Sprintf("%s/matches/%s/stats", c.baseURL, mid), nil, &ms); err != nil {
				return nil
			}
			payloads[idx] = &ms
			return nil
		})
	}
	_ = g.Wait()

	killsTotal := 0
	deathsTotal := 0
	var adrValues []float64
	for _, ms := range payloads {
		if ms == nil || len(ms.Rounds) == 0 {
			continue
		}
		// CS2 matches carry both teams in a single rounds entry.
		for _, team := range ms.Rounds[0].Teams {
			for _, p := range team.Players {
				if !strings.EqualFold(p.Nickname, nickname) {
					continue
				}
				if k, ok := numeric(p.PlayerStats["Kills"]); ok {
					killsTotal += int(k)
				}
				if d, ok := numeric(p.PlayerStats["Deaths"]); ok {
					deathsTotal += int(d)
				}
				adrRaw := p.PlayerStats["ADR"]
				if adrRaw == nil || adrRaw == "" {
					adrRaw = p.PlayerStats["Average Damage/Round"]
				}
				if v, ok := numeric(adrRaw); ok {
					adrValues = append(adrValues, v)
				}
			}
		}
	}

	var out RecentStats
	switch {
	case killsTotal == 0 && deathsTotal == 0:
	case deathsTotal == 0:
		v := float64(killsTotal)
		out.KD = &v
	default:
		v := float64(killsTotal) / float64(deathsTotal)
		out.KD = &v
	}
	if len(adrValues) > 0 {
		sum := 0.0
		for _, v := range adrValues {
			sum += v
		}
		mean := sum / float64(len(adrValues))
		out.ADR = &mean
	}

	out.Matches = len(adrValues)
	if out.Matches == 0 {
		out.Matches = len(matchIDs)
	}
	return out, nil
}

func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func safeURL(u string) string {
	if u == "" {
		return ""
	}
	return strings.TrimRight(strings.ReplaceAll(u, "{lang}", "en"), "/")
}
