package csfloat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	unit := int64(1050)
	rows := []Row{
		{Name: "Ak", Qty: 2, UnitCents: &unit, SubtotalCents: 2100, Priced: true, Mode: "exact", ListingID: "77"},
		{Name: "Sticker", Qty: 1, Mode: "exact"},
	}

	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, WriteCSV(path, rows, 2100))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(string(raw), "\r\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "name,qty,unit_usd,subtotal_usd,priced,mode,listing_id", lines[0])
	assert.Equal(t, "Ak,2,10.50,21.00,yes,exact,77", lines[1])
	assert.Equal(t, "Sticker,1,0.00,0.00,no,exact,", lines[2])
	assert.Equal(t, "TOTAL,,,21.00,,,", lines[3])
	assert.Empty(t, lines[4])
}

func TestWriteCSVBadPath(t *testing.T) {
	err := WriteCSV(filepath.Join(t.TempDir(), "missing", "out.csv"), nil, 0)
	assert.Error(t, err)
}

func TestCentsToUSD(t *testing.T) {
	assert.Equal(t, "0.00", centsToUSD(0))
	assert.Equal(t, "10.50", centsToUSD(1050))
	assert.Equal(t, "1234567.89", centsToUSD(123456789))
	assert.Equal(t, "-10.50", centsToUSD(-1050))
}
