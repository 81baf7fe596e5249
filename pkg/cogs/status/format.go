package status

import (
	"fmt"
	"strings"
	"time"
)

var byteUnits = []string{"B", "KB", "MB", "GB", "TB", "PB"}

// fmtBytes renders a byte count with a precision that shrinks as the
// number grows, e.g. 1.50 KB, 23.4 MB, 512 GB.
func fmtBytes(n float64) string {
	i := 0
	for n >= 1024 && i < len(byteUnits)-1 {
		n /= 1024.0
		i++
	}
	switch {
	case n >= 100:
		return fmt.Sprintf("%.0f %s", n, byteUnits[i])
	case n >= 10:
		return fmt.Sprintf("%.1f %s", n, byteUnits[i])
	default:
		return fmt.Sprintf("%.2f %s", n, byteUnits[i])
	}
}

func fmtPct(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}

// fmtDur renders a duration as 1d 2h 3m 4s, omitting leading zero units
// but always keeping seconds.
func fmtDur(d time.Duration) string {
	seconds := int64(d.Seconds())
	days := seconds / 86400
	seconds %= 86400
	hours := seconds / 3600
	seconds %= 3600
	minutes := seconds / 60
	seconds %= 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))
	return strings.Join(parts, " ")
}

// truncateField keeps a value inside Discord's 1024-char field limit.
func truncateField(s string) string {
	r := []rune(s)
	if len(r) <= 1024 {
		return s
	}
	return string(r[:1024])
}
