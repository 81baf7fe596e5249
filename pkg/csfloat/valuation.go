package csfloat

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	unitWidth     = 12
	subtotalWidth = 14
	minNameWidth  = 4
)

// Pricer is the lookup surface the valuation needs.
type Pricer interface {
	LowestExact(ctx context.Context, marketHashName string) (*Quote, error)
	LowestBroad(ctx context.Context, marketHashName string) (*Quote, error)
}

// Row is one valued line item. UnitCents is nil when no listing was
// found in either mode, in which case the subtotal stays zero.
type Row struct {
	Name          string
	Qty           int
	UnitCents     *int64
	SubtotalCents int64
	Priced        bool
	Mode          string
	ListingID     string
	URL           string
}

// Valuate prices every item and streams a table to w as results come
// in, so long inventories show progress instead of a final dump. Items
// try an exact lookup first, then the broadened name.
func Valuate(ctx context.Context, w io.Writer, counts map[string]int, pricer Pricer, showSource bool) (int64, []Row, error) {
	if len(counts) == 0 {
		fmt.Fprintln(w, "No items to value.")
		return 0, nil, nil
	}

	names := make([]string, 0, len(counts))
	nameW, qtyW := minNameWidth, 0
	for name, qty := range counts {
		names = append(names, name)
		if l := utf8.RuneCountInString(name); l > nameW {
			nameW = l
		}
		if l := len(strconv.Itoa(qty)); l > qtyW {
			qtyW = l
		}
	}
	sort.Slice(names, func(i, j int) bool {
		li, lj := strings.ToLower(names[i]), strings.ToLower(names[j])
		if li != lj {
			return li < lj
		}
		return names[i] < names[j]
	})

	sep := strings.Repeat("-", nameW+qtyW+unitWidth+subtotalWidth+6)
	fmt.Fprintf(w, "%-*s  %*s  %*s  %*s\n", nameW, "Item", qtyW, "Qty", unitWidth, "Unit ($)", subtotalWidth, "Subtotal ($)")
	fmt.Fprintln(w, sep)

	var totalCents int64
	rows := make([]Row, 0, len(names))
	for _, name := range names {
		qty := counts[name]

		used, err := pricer.LowestExact(ctx, name)
		if err != nil {
			return 0, nil, err
		}
		mode := "exact"
		if used == nil {
			broad, err := pricer.LowestBroad(ctx, name)
			if err != nil {
				return 0, nil, err
			}
			if broad != nil {
				used = broad
				mode = "broad"
			}
		}

		row := Row{Name: name, Qty: qty, Mode: mode}
		if used != nil {
			unit := used.Cents
			row.UnitCents = &unit
			row.SubtotalCents = unit * int64(qty)
			row.Priced = true
			row.ListingID = used.ListingID
			row.URL = used.URL
			totalCents += row.SubtotalCents
		}

		fmt.Fprintf(w, "%-*s  %*d  %*s  %*s\n",
			nameW, name, qtyW, qty, unitWidth, fmtCents(row.UnitCents), subtotalWidth, formatUSD(row.SubtotalCents))
		if showSource {
			if row.UnitCents == nil {
				fmt.Fprintf(w, "  ↳ source: none found [%s]\n", mode)
			} else {
				fmt.Fprintf(w, "  ↳ source: %s id=%s cents=%d url=%s\n", mode, row.ListingID, *row.UnitCents, row.URL)
			}
		}
		rows = append(rows, row)
	}

	fmt.Fprintln(w, sep)
	fmt.Fprintf(w, "%-*s  %*s  %*s  %*s\n", nameW, "TOTAL", qtyW, "", unitWidth, "", subtotalWidth-1, formatUSD(totalCents))
	return totalCents, rows, nil
}

func fmtCents(c *int64) string {
	if c == nil {
		return "n/a"
	}
	return formatUSD(*c)
}

// formatUSD renders cents as dollars with thousands separators.
func formatUSD(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	digits := strconv.FormatInt(cents/100, 10)

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i := 0; i < len(digits); i++ {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteByte(digits[i])
	}
	fmt.Fprintf(&b, ".%02d", cents%100)
	return b.String()
}
