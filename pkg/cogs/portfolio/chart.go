package portfolio

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// asciiLineChart renders values as a dot-and-connector plot with min and
// max labels on the y axis. Matches plain code blocks, so no color.
func asciiLineChart(values []float64, width, height int, ylabel string) string {
	allNaN := true
	for _, v := range values {
		if !math.IsNaN(v) {
			allNaN = false
			break
		}
	}
	if len(values) == 0 || allNaN {
		return "(no data)"
	}

	var xs []float64
	if len(values) > width {
		step := float64(len(values)) / float64(width)
		xs = make([]float64, width)
		for i := range xs {
			xs[i] = values[int(float64(i)*step)]
		}
	} else {
		xs = append([]float64(nil), values...)
		width = len(xs)
	}

	vmin, vmax := math.Inf(1), math.Inf(-1)
	for _, v := range xs {
		if math.IsNaN(v) {
			continue
		}
		if v < vmin {
			vmin = v
		}
		if v > vmax {
			vmax = v
		}
	}
	if nearlyEqual(vmin, vmax) {
		vmin -= 1.0
		vmax += 1.0
	}

	yFor := func(v float64) int {
		return int(math.RoundToEven((v - vmin) * float64(height-1) / (vmax - vmin)))
	}

	grid := make([][]rune, height)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", width))
	}

	prevY := 0
	havePrev := false
	for x, v := range xs {
		if math.IsNaN(v) {
			continue
		}
		y := yFor(v)
		grid[height-1-y][x] = '•'
		if havePrev {
			y0 := height - 1 - prevY
			y1 := height - 1 - y
			if y0 != y1 {
				step := 1
				if y1 < y0 {
					step = -1
				}
				for yy := y0 + step; yy != y1; yy += step {
					if grid[yy][x] == ' ' {
						grid[yy][x] = '│'
					}
				}
			}
		}
		prevY = y
		havePrev = true
	}

	topLabel := formatCommas(vmax)
	botLabel := formatCommas(vmin)
	labelWidth := max(len(topLabel), len(botLabel))

	lines := make([]string, 0, height+2)
	for r, row := range grid {
		lab := strings.Repeat(" ", labelWidth)
		switch r {
		case 0:
			lab = fmt.Sprintf("%*s", labelWidth, topLabel)
		case height - 1:
			lab = fmt.Sprintf("%*s", labelWidth, botLabel)
		}
		lines = append(lines, fmt.Sprintf("%s │ %s", lab, string(row)))
	}
	if ylabel != "" {
		lines = append([]string{ylabel}, lines...)
	}
	lines = append(lines, strings.Repeat(" ", labelWidth)+" └"+strings.Repeat("─", width+1))
	return strings.Join(lines, "\n")
}

func nearlyEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9*math.Max(math.Abs(a), math.Abs(b))
}

// formatCommas renders a value with thousands separators and two
// decimals, e.g. 1234567.8 as 1,234,567.80.
func formatCommas(v float64) string {
	if math.IsNaN(v) {
		return "nan"
	}
	if math.IsInf(v, 0) {
		if v > 0 {
			return "inf"
		}
		return "-inf"
	}

	s := strconv.FormatFloat(v, 'f', 2, 64)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	pre := len(intPart) % 3
	if pre > 0 {
		b.WriteString(intPart[:pre])
	}
	for idx := pre; idx < len(intPart); idx += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[idx : idx+3])
	}

	out := b.String() + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}
