package faceit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniyx/unibot/pkg/cache"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &Client{
		httpClient:   srv.Client(),
		baseURL:      srv.URL,
		apiKey:       "test-key",
		retryBackoff: time.Millisecond,
	}
}

func TestResolvePlayer(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/players", r.URL.Path)
		assert.Equal(t, "uni", r.URL.Query().Get("nickname"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Write([]byte(`{
			"player_id": "p1",
			"nickname": "Uni",
			"avatar": "https://cdn.example/a.png",
			"faceit_url": "https://www.faceit.com/{lang}/players/Uni/",
			"games": {"cs2": {"faceit_elo": 2001}}
		}`))
	}))

	p, err := client.ResolvePlayer(context.Background(), "uni")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "Uni", p.Nickname)
	require.NotNil(t, p.Elo)
	assert.Equal(t, 2001, *p.Elo)
	assert.Equal(t, "https://www.faceit.com/en/players/Uni", p.URL)
	assert.Equal(t, "https://cdn.example/a.png", p.Avatar)
}

func TestResolvePlayerCSGOFallback(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"player_id": "p2", "nickname": "old", "games": {"csgo": {"faceit_elo": 1500}}}`))
	}))

	p, err := client.ResolvePlayer(context.Background(), "old")
	require.NoError(t, err)
	require.NotNil(t, p.Elo)
	assert.Equal(t, 1500, *p.Elo)
}

func TestResolvePlayerUnknown(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))

	_, err := client.ResolvePlayer(context.Background(), "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Could not resolve player_id for 'ghost'")
}

func TestResolvePlayerCached(t *testing.T) {
	var calls int
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"player_id": "p1", "nickname": "Uni", "games": {"cs2": {"faceit_elo": 2001}}}`))
	}))
	client.cache = cache.NewMemory()
	client.cacheTTL = time.Minute

	first, err := client.ResolvePlayer(context.Background(), "uni")
	require.NoError(t, err)

	// Same nickname up to case and whitespace hits the cache.
	second, err := client.ResolvePlayer(context.Background(), "  UNI ")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	require.NotNil(t, second.Elo)
	assert.Equal(t, 2001, *second.Elo)
}

func TestGetJSONRetriesRateLimit(t *testing.T) {
	var calls int
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"player_id": "p1", "nickname": "uni"}`))
	}))

	_, err := client.ResolvePlayer(context.Background(), "uni")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestGetJSONErrorTruncatesBody(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(strings.Repeat("x", 500)))
	}))

	_, err := client.ResolvePlayer(context.Background(), "uni")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[404]")
	assert.LessOrEqual(t, len(err.Error()), 300)
}

func TestLifetimeStatsTrimsKeys(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/players/p1/stats/cs2", r.URL.Path)
		w.Write([]byte(`{"lifetime": {" K/D Ratio ": "1.18", "Matches": 900}}`))
	}))

	life, err := client.LifetimeStats(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "1.18", life["K/D Ratio"])
	assert.Equal(t, "900", life["Matches"])
}

func TestPickKey(t *testing.T) {
	stats := map[string]string{"k/d ratio": "1.10", "ADR": "80"}
	assert.Equal(t, "1.10", pickKey(stats, kdKeys))
	assert.Equal(t, "80", pickKey(stats, adrKeys))
	assert.Equal(t, "", pickKey(map[string]string{}, kdKeys))
}

func recentStatsHandler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/players/p1/history", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "cs2", r.URL.Query().Get("game"))
		assert.Equal(t, "30", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"items": [{"match_id": "m1"}, {"match_id": "m2"}]}`))
	})
	matchPayload := func(kills, deaths, adr string) string {
		return `{"rounds": [{"teams": [{"players": [
			{"nickname": "UNI", "player_stats": {"Kills": "` + kills + `", "Deaths": "` + deaths + `", "ADR": "` + adr + `"}},
			{"nickname": "other", "player_stats": {"Kills": "99", "Deaths": "1", "ADR": "200"}}
		]}]}]}`
	}
	mux.HandleFunc("/matches/m1/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(matchPayload("20", "10", "85.5")))
	})
	mux.HandleFunc("/matches/m2/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(matchPayload("30", "10", "90.5")))
	})
	return mux
}

func TestRecentStatsLastN(t *testing.T) {
	client := newTestClient(t, recentStatsHandler(t))

	rec, err := client.RecentStatsLastN(context.Background(), "p1", "uni", 30)
	require.NoError(t, err)
	require.NotNil(t, rec.KD)
	assert.InDelta(t, 2.5, *rec.KD, 1e-9)
	require.NotNil(t, rec.ADR)
	assert.InDelta(t, 88.0, *rec.ADR, 1e-9)
	assert.Equal(t, 2, rec.Matches)
}

func TestRecentStatsEmptyHistory(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": []}`))
	}))

	rec, err := client.RecentStatsLastN(context.Background(), "p1", "uni", 30)
	require.NoError(t, err)
	assert.Nil(t, rec.KD)
	assert.Nil(t, rec.ADR)
	assert.Equal(t, 0, rec.Matches)
}

func TestRecentStatsZeroDeaths(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/players/p1/history", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": [{"match_id": "m1"}]}`))
	})
	mux.HandleFunc("/matches/m1/stats", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rounds": [{"teams": [{"players": [
			{"nickname": "uni", "player_stats": {"Kills": "15", "Deaths": "0"}}
		]}]}]}`))
	})
	client := newTestClient(t, mux)

	rec, err := client.RecentStatsLastN(context.Background(), "p1", "uni", 30)
	require.NoError(t, err)
	require.NotNil(t, rec.KD)
	assert.Equal(t, 15.0, *rec.KD)
	assert.Nil(t, rec.ADR)
	// No ADR samples, so the match-id count stands in.
	assert.Equal(t, 1, rec.Matches)
}

func TestSafeURL(t *testing.T) {
	assert.Equal(t, "", safeURL(""))
	assert.Equal(t, "https://faceit.com/en/players/x", safeURL("https://faceit.com/{lang}/players/x/"))
}
