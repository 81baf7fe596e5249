package portfolio

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/uniyx/unibot/pkg/cache"
)

// CachedQuoter fronts another Quoter with a shared cache, so repeated
// chart requests inside the TTL cost zero upstream calls. Cache
// failures fall through to the upstream quietly.
type CachedQuoter struct {
	inner Quoter
	store cache.Cache
	ttl   time.Duration
}

func NewCachedQuoter(inner Quoter, store cache.Cache, ttl time.Duration) *CachedQuoter {
	return &CachedQuoter{inner: inner, store: store, ttl: ttl}
}

// cachedSeries is the storable form of a Series. NaN closes become
// JSON nulls because NaN itself does not marshal.
type cachedSeries struct {
	Times  []int64    `json:"t"`
	Closes []*float64 `json:"c"`
}

// History implements Quoter.
func (q *CachedQuoter) History(ctx context.Context, symbol string, start, end time.Time, interval string) (Series, error) {
	key := fmt.Sprintf("quotes|%s|%s|%d|%d", symbol, interval, start.Unix(), end.Unix())

	if raw, ok, err := q.store.Get(ctx, key); err != nil {
		log.WithError(err).WithField("symbol", symbol).Debug("Quote cache read failed")
	} else if ok {
		var stored cachedSeries
		if err := json.Unmarshal(raw, &stored); err == nil {
			return stored.toSeries(), nil
		}
	}

	series, err := q.inner.History(ctx, symbol, start, end, interval)
	if err != nil {
		return Series{}, err
	}

	if raw, err := json.Marshal(fromSeries(series)); err == nil {
		if err := q.store.Set(ctx, key, raw, q.ttl); err != nil {
			log.WithError(err).WithField("symbol", symbol).Debug("Quote cache write failed")
		}
	}
	return series, nil
}

func fromSeries(s Series) cachedSeries {
	out := cachedSeries{
		Times:  make([]int64, len(s.Times)),
		Closes: make([]*float64, len(s.Closes)),
	}
	for i, ts := range s.Times {
		out.Times[i] = ts.Unix()
	}
	for i, c := range s.Closes {
		if math.IsNaN(c) {
			continue
		}
		v := c
		out.Closes[i] = &v
	}
	return out
}

func (cs cachedSeries) toSeries() Series {
	out := Series{
		Times:  make([]time.Time, len(cs.Times)),
		Closes: make([]float64, len(cs.Closes)),
	}
	for i, ts := range cs.Times {
		out.Times[i] = time.Unix(ts, 0).UTC()
	}
	for i, c := range cs.Closes {
		if c == nil {
			out.Closes[i] = math.NaN()
			continue
		}
		out.Closes[i] = *c
	}
	return out
}
