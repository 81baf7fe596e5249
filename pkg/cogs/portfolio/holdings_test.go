package portfolio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadHoldingsYAML(t *testing.T) {
	path := writeFile(t, "portfolio.yaml", "aapl: 10\nMSFT: 5\n")
	shares, err := LoadHoldings(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"AAPL": 10, "MSFT": 5}, shares)
}

func TestLoadHoldingsJSON(t *testing.T) {
	path := writeFile(t, "portfolio.json", `{"goog": 3, "nvda": 2.0}`)
	shares, err := LoadHoldings(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"GOOG": 3, "NVDA": 2}, shares)
}

func TestLoadHoldingsStringShares(t *testing.T) {
	path := writeFile(t, "portfolio.yml", `tsla: "7"`)
	shares, err := LoadHoldings(path)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"TSLA": 7}, shares)
}

func TestLoadHoldingsMissingFile(t *testing.T) {
	_, err := LoadHoldings(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Portfolio file not found:")
}

func TestLoadHoldingsBadExtension(t *testing.T) {
	path := writeFile(t, "portfolio.txt", "AAPL: 10")
	_, err := LoadHoldings(path)
	require.Error(t, err)
	assert.Equal(t, "Unsupported portfolio extension. Use .yaml, .yml, or .json", err.Error())
}

func TestLoadHoldingsEmpty(t *testing.T) {
	path := writeFile(t, "portfolio.yaml", "")
	_, err := LoadHoldings(path)
	require.Error(t, err)
	assert.Equal(t, "Portfolio file has no positions", err.Error())

	path = writeFile(t, "portfolio.json", "")
	_, err = LoadHoldings(path)
	require.Error(t, err)
	assert.Equal(t, "Portfolio file has no positions", err.Error())
}
