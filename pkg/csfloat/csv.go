package csfloat

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

var csvHeader = []string{"name", "qty", "unit_usd", "subtotal_usd", "priced", "mode", "listing_id"}

// WriteCSV dumps the valued rows plus a trailing TOTAL record.
func WriteCSV(path string, rows []Row, grandCents int64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	w.UseCRLF = true

	records := make([][]string, 0, len(rows)+2)
	records = append(records, csvHeader)
	for _, r := range rows {
		var unit int64
		if r.UnitCents != nil {
			unit = *r.UnitCents
		}
		records = append(records, []string{
			r.Name,
			strconv.Itoa(r.Qty),
			centsToUSD(unit),
			centsToUSD(r.SubtotalCents),
			yesNo(r.Priced),
			r.Mode,
			r.ListingID,
		})
	}
	records = append(records, []string{"TOTAL", "", "", centsToUSD(grandCents), "", "", ""})

	if err := w.WriteAll(records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// centsToUSD is the plain two-decimal form used in the CSV, without
// thousands separators.
func centsToUSD(cents int64) string {
	neg := cents < 0
	if neg {
		cents = -cents
	}
	s := fmt.Sprintf("%d.%02d", cents/100, cents%100)
	if neg {
		s = "-" + s
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
