package csfloat

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePricer struct {
	exact map[string]*Quote
	broad map[string]*Quote
	err   error

	exactCalls []string
	broadCalls []string
}

func (f *fakePricer) LowestExact(_ context.Context, name string) (*Quote, error) {
	f.exactCalls = append(f.exactCalls, name)
	if f.err != nil {
		return nil, f.err
	}
	return f.exact[name], nil
}

func (f *fakePricer) LowestBroad(_ context.Context, name string) (*Quote, error) {
	f.broadCalls = append(f.broadCalls, name)
	if f.err != nil {
		return nil, f.err
	}
	return f.broad[name], nil
}

func TestValuateTable(t *testing.T) {
	counts := map[string]int{"Ak": 2, "B (FT)": 1}
	pricer := &fakePricer{
		exact: map[string]*Quote{"Ak": {Cents: 1050, ListingID: "77", URL: "u1"}},
		broad: map[string]*Quote{"B (FT)": {Cents: 200, ListingID: "88", URL: "u2"}},
	}

	var buf bytes.Buffer
	total, rows, err := Valuate(context.Background(), &buf, counts, pricer, true)
	require.NoError(t, err)
	assert.Equal(t, int64(2300), total)

	sep := strings.Repeat("-", 39)
	want := []string{
		"Item    Qty      Unit ($)    Subtotal ($)",
		sep,
		"Ak      2         10.50           21.00",
		"  ↳ source: exact id=77 cents=1050 url=u1",
		"B (FT)  1          2.00            2.00",
		"  ↳ source: broad id=88 cents=200 url=u2",
		sep,
		"TOTAL" + strings.Repeat(" ", 28) + "23.00",
		"",
	}
	assert.Equal(t, want, strings.Split(buf.String(), "\n"))

	assert.Equal(t, []string{"Ak", "B (FT)"}, pricer.exactCalls)
	assert.Equal(t, []string{"B (FT)"}, pricer.broadCalls)

	require.Len(t, rows, 2)
	assert.Equal(t, "exact", rows[0].Mode)
	assert.True(t, rows[0].Priced)
	assert.Equal(t, int64(2100), rows[0].SubtotalCents)
	assert.Equal(t, "broad", rows[1].Mode)
	assert.Equal(t, int64(200), rows[1].SubtotalCents)
}

func TestValuateUnpricedRow(t *testing.T) {
	counts := map[string]int{"Sticker": 1}
	pricer := &fakePricer{}

	var buf bytes.Buffer
	total, rows, err := Valuate(context.Background(), &buf, counts, pricer, true)
	require.NoError(t, err)
	assert.Zero(t, total)

	out := buf.String()
	assert.Contains(t, out, "Sticker  1           n/a            0.00")
	assert.Contains(t, out, "  ↳ source: none found [exact]")

	require.Len(t, rows, 1)
	assert.False(t, rows[0].Priced)
	assert.Nil(t, rows[0].UnitCents)
	assert.Equal(t, "exact", rows[0].Mode)
	assert.Zero(t, rows[0].SubtotalCents)
}

func TestValuateNoSourceLines(t *testing.T) {
	counts := map[string]int{"Ak": 1}
	pricer := &fakePricer{exact: map[string]*Quote{"Ak": {Cents: 100, ListingID: "1", URL: "u"}}}

	var buf bytes.Buffer
	_, _, err := Valuate(context.Background(), &buf, counts, pricer, false)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "↳ source")
}

func TestValuateEmpty(t *testing.T) {
	var buf bytes.Buffer
	total, rows, err := Valuate(context.Background(), &buf, nil, &fakePricer{}, true)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Nil(t, rows)
	assert.Equal(t, "No items to value.\n", buf.String())
}

func TestValuatePropagatesErrors(t *testing.T) {
	counts := map[string]int{"Ak": 1}
	pricer := &fakePricer{err: errors.New("boom")}

	var buf bytes.Buffer
	_, _, err := Valuate(context.Background(), &buf, counts, pricer, true)
	assert.ErrorContains(t, err, "boom")
}

func TestValuateSortsCaseInsensitively(t *testing.T) {
	counts := map[string]int{"zeta": 1, "Alpha": 1, "beta": 1}
	pricer := &fakePricer{}

	var buf bytes.Buffer
	_, rows, err := Valuate(context.Background(), &buf, counts, pricer, false)
	require.NoError(t, err)
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Name
	}
	assert.Equal(t, []string{"Alpha", "beta", "zeta"}, names)
}

func TestFormatUSD(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{99, "0.99"},
		{1050, "10.50"},
		{100000, "1,000.00"},
		{123456789, "1,234,567.89"},
		{-1050, "-10.50"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatUSD(tt.cents), "%d", tt.cents)
	}
}
