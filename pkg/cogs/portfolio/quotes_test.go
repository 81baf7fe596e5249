package portfolio

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chartServer(t *testing.T, handler http.HandlerFunc) *YahooClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return &YahooClient{httpClient: srv.Client(), baseURL: srv.URL}
}

func TestYahooHistory(t *testing.T) {
	client := chartServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/AAPL", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "1d", q.Get("interval"))
		assert.NotEmpty(t, q.Get("period1"))
		assert.NotEmpty(t, q.Get("period2"))
		w.Write([]byte(`{"chart":{"result":[{"timestamp":[1700000000,1700086400],` +
			`"indicators":{"quote":[{"close":[189.5,null]}]}}],"error":null}}`))
	})

	series, err := client.History(context.Background(), "AAPL",
		time.Now().AddDate(0, 0, -30), time.Now(), "1d")
	require.NoError(t, err)
	require.Len(t, series.Times, 2)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), series.Times[0])
	assert.Equal(t, 189.5, series.Closes[0])
	assert.True(t, math.IsNaN(series.Closes[1]))
}

func TestYahooHistoryAPIError(t *testing.T) {
	client := chartServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	})

	_, err := client.History(context.Background(), "NOPE", time.Now(), time.Now(), "1d")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No data found")
}

func TestYahooHistoryHTTPError(t *testing.T) {
	client := chartServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.History(context.Background(), "AAPL", time.Now(), time.Now(), "1d")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestYahooHistoryEmptyResult(t *testing.T) {
	client := chartServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"chart":{"result":[],"error":null}}`))
	})

	series, err := client.History(context.Background(), "AAPL", time.Now(), time.Now(), "1d")
	require.NoError(t, err)
	assert.Empty(t, series.Times)
}
