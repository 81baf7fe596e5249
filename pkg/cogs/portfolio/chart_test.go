package portfolio

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsciiLineChartBasic(t *testing.T) {
	got := asciiLineChart([]float64{1, 2, 3}, 70, 3, "")
	want := strings.Join([]string{
		"3.00 │   •",
		"     │  • ",
		"1.00 │ •  ",
		"     └────",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestAsciiLineChartYLabel(t *testing.T) {
	got := asciiLineChart([]float64{1, 2, 3}, 70, 3, "Portfolio value (USD)")
	assert.True(t, strings.HasPrefix(got, "Portfolio value (USD)\n"))
}

func TestAsciiLineChartFlatSeries(t *testing.T) {
	got := asciiLineChart([]float64{5, 5, 5}, 70, 3, "")
	lines := strings.Split(got, "\n")
	// A flat series pads the scale by one either side.
	assert.True(t, strings.HasPrefix(lines[0], "6.00 │"))
	assert.True(t, strings.HasPrefix(lines[2], "4.00 │"))
	assert.Equal(t, " │ •••", lines[1][4:])
}

func TestAsciiLineChartDownsamples(t *testing.T) {
	values := make([]float64, 300)
	for i := range values {
		values[i] = float64(i)
	}
	got := asciiLineChart(values, 50, 12, "")
	lines := strings.Split(got, "\n")
	// Axis line is labelWidth + " └" + width+1 dashes. The last sampled
	// value is values[294], so the top label is 294.00.
	axis := lines[len(lines)-1]
	assert.Equal(t, 51, strings.Count(axis, "─"))
	for _, line := range lines[:len(lines)-1] {
		assert.Len(t, []rune(line), len("294.00")+3+50)
	}
}

func TestAsciiLineChartNoData(t *testing.T) {
	assert.Equal(t, "(no data)", asciiLineChart(nil, 70, 12, ""))
	assert.Equal(t, "(no data)", asciiLineChart([]float64{math.NaN(), math.NaN()}, 70, 12, ""))
}

func TestFormatCommas(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{100, "100.00"},
		{1234.5, "1,234.50"},
		{-1234567.891, "-1,234,567.89"},
		{0.5, "0.50"},
		{999999.999, "1,000,000.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatCommas(tt.in))
	}
}
