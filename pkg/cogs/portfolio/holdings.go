package portfolio

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadHoldings reads a {SYMBOL: shares} map from a YAML or JSON file.
// Symbols are uppercased. Error text is user-facing.
func LoadHoldings(path string) (map[string]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("Portfolio file not found: %s", path)
		}
		return nil, err
	}

	var raw map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".json":
		if len(bytes.TrimSpace(data)) == 0 {
			data = []byte("{}")
		}
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		return nil, errors.New("Unsupported portfolio extension. Use .yaml, .yml, or .json")
	}

	out := make(map[string]int, len(raw))
	for k, v := range raw {
		n, err := coerceShares(v)
		if err != nil {
			return nil, fmt.Errorf("invalid share count for %s: %w", k, err)
		}
		out[strings.ToUpper(k)] = n
	}
	if len(out) == 0 {
		return nil, errors.New("Portfolio file has no positions")
	}
	return out, nil
}

func coerceShares(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(n))
	default:
		return 0, fmt.Errorf("unsupported value %v", v)
	}
}
