package portfolio

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniyx/unibot/pkg/cache"
)

type countingQuoter struct {
	series Series
	calls  int
}

func (c *countingQuoter) History(_ context.Context, _ string, _, _ time.Time, _ string) (Series, error) {
	c.calls++
	return c.series, nil
}

func TestCachedQuoterServesFromCache(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	inner := &countingQuoter{series: Series{
		Times:  []time.Time{base, base.Add(24 * time.Hour), base.Add(48 * time.Hour)},
		Closes: []float64{100, math.NaN(), 102},
	}}
	q := NewCachedQuoter(inner, cache.NewMemory(), time.Minute)

	start, end := base, base.Add(72*time.Hour)
	first, err := q.History(context.Background(), "AAPL", start, end, "1d")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)

	second, err := q.History(context.Background(), "AAPL", start, end, "1d")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls, "second lookup should not hit upstream")

	require.Len(t, second.Closes, 3)
	assert.Equal(t, first.Times, second.Times)
	assert.Equal(t, 100.0, second.Closes[0])
	assert.True(t, math.IsNaN(second.Closes[1]), "NaN close must survive the round trip")
	assert.Equal(t, 102.0, second.Closes[2])
}

func TestCachedQuoterKeysOnRequestShape(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	inner := &countingQuoter{series: Series{}}
	q := NewCachedQuoter(inner, cache.NewMemory(), time.Minute)

	_, err := q.History(context.Background(), "AAPL", base, base.Add(time.Hour), "1d")
	require.NoError(t, err)
	_, err = q.History(context.Background(), "MSFT", base, base.Add(time.Hour), "1d")
	require.NoError(t, err)
	_, err = q.History(context.Background(), "AAPL", base, base.Add(time.Hour), "1wk")
	require.NoError(t, err)
	assert.Equal(t, 3, inner.calls)
}
