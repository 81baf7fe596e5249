package portfolio

import (
	"errors"
	"math"
	"sort"
	"strings"
	"time"
)

// rangeWindow maps a named range to its window and sample interval.
// Everything runs in UTC.
func rangeWindow(name string, now time.Time) (start, end time.Time, interval string, err error) {
	now = now.UTC()
	end = now
	switch strings.ToLower(name) {
	case "daily":
		start = now.AddDate(0, 0, -30)
		interval = "1d"
	case "weekly":
		start = now.AddDate(0, 0, -26*7)
		interval = "1wk"
	case "monthly":
		start = now.AddDate(0, 0, -365)
		interval = "1mo"
	case "ytd":
		start = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
		interval = "1d"
	default:
		err = errors.New("Range must be one of: daily, weekly, monthly, ytd")
	}
	return start, end, interval, err
}

type symbolSeries struct {
	Symbol string
	Series Series
}

// alignSeries joins per-symbol histories onto the union of their
// timestamps. Gaps forward-fill from the last observation and leading
// gaps backfill from the first one.
func alignSeries(list []symbolSeries) ([]time.Time, map[string][]float64) {
	seen := make(map[int64]time.Time)
	for _, s := range list {
		for _, t := range s.Series.Times {
			seen[t.UnixNano()] = t
		}
	}
	keys := make([]int64, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	times := make([]time.Time, len(keys))
	for i, k := range keys {
		times[i] = seen[k]
	}

	aligned := make(map[string][]float64, len(list))
	for _, s := range list {
		byTime := make(map[int64]float64, len(s.Series.Times))
		for i, t := range s.Series.Times {
			if i < len(s.Series.Closes) {
				byTime[t.UnixNano()] = s.Series.Closes[i]
			}
		}

		last := math.NaN()
		track := make([]float64, 0, len(keys))
		for _, k := range keys {
			if v, ok := byTime[k]; ok && !math.IsNaN(v) {
				last = v
			}
			track = append(track, last)
		}

		firstObs := math.NaN()
		for _, v := range track {
			if !math.IsNaN(v) {
				firstObs = v
				break
			}
		}
		for i, v := range track {
			if math.IsNaN(v) {
				track[i] = firstObs
			}
		}
		aligned[s.Symbol] = track
	}
	return times, aligned
}

// totalSeries sums shares times price across symbols per timestamp.
func totalSeries(aligned map[string][]float64, shares map[string]int) []float64 {
	var n int
	for _, prices := range aligned {
		n = len(prices)
		break
	}
	total := make([]float64, n)
	for sym, prices := range aligned {
		qty := float64(shares[sym])
		for i, p := range prices {
			total[i] += p * qty
		}
	}
	return total
}
