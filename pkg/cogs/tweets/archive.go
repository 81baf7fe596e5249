package tweets

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"regexp"
	"strings"
	"sync"
)

// Twitter exports ship as "window.YTD.tweets.part0 = [...]". The prefix
// before the first brace or bracket is the assignment to strip.
var assignmentPrefix = regexp.MustCompile(`(?s)^[^{\[]*=\s*`)

type entry struct {
	id   string
	text string // lowercased for keyword search
}

// parseArchive strips the JS assignment wrapper and collects (id, text)
// pairs. Entries are usually wrapped as {"tweet": {...}} but plain
// objects are tolerated too.
func parseArchive(data []byte) ([]entry, error) {
	payload := strings.TrimSpace(assignmentPrefix.ReplaceAllString(string(data), ""))

	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()
	var items []map[string]any
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("failed to parse archive: %w", err)
	}

	entries := make([]entry, 0, len(items))
	for _, obj := range items {
		tw := obj
		if inner, present := obj["tweet"]; present {
			m, ok := inner.(map[string]any)
			if !ok {
				continue
			}
			tw = m
		}
		id := tweetID(tw)
		if id == "" {
			continue
		}
		entries = append(entries, entry{id: id, text: strings.ToLower(tweetText(tw))})
	}
	return entries, nil
}

func tweetID(tw map[string]any) string {
	if s, ok := tw["id_str"].(string); ok && s != "" {
		return s
	}
	// Numeric ids survive as json.Number, so 64-bit ids keep their digits.
	switch v := tw["id"].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	}
	return ""
}

func tweetText(tw map[string]any) string {
	if s, ok := tw["full_text"].(string); ok && s != "" {
		return s
	}
	if s, ok := tw["text"].(string); ok && s != "" {
		return s
	}
	if ext, ok := tw["extended_tweet"].(map[string]any); ok {
		if s, ok := ext["full_text"].(string); ok {
			return s
		}
	}
	return ""
}

// Archive lazily loads the tweet export and invalidates on source
// version change, so edits to the file show up without a restart.
type Archive struct {
	mu      sync.Mutex
	source  Source
	entries []entry
	version string
}

// NewArchive wraps a source without touching it yet.
func NewArchive(source Source) *Archive {
	return &Archive{source: source}
}

// Describe names the backing source for user-facing messages.
func (a *Archive) Describe() string { return a.source.Describe() }

func (a *Archive) needsReload(ctx context.Context) bool {
	if a.version == "" || len(a.entries) == 0 {
		return true
	}
	v, err := a.source.Version(ctx)
	if err != nil {
		return true
	}
	return v != a.version
}

func (a *Archive) load(ctx context.Context) error {
	data, version, err := a.source.Read(ctx)
	if err != nil {
		return err
	}
	entries, err := parseArchive(data)
	if err != nil {
		return err
	}
	// New state is recorded only when the parse succeeds.
	a.entries = entries
	a.version = version
	return nil
}

func (a *Archive) ensureLoaded(ctx context.Context) error {
	if a.needsReload(ctx) {
		return a.load(ctx)
	}
	return nil
}

// RandomID picks uniformly from the archive, restricted to tweets whose
// text contains keyword (case-insensitive) when one is given.
func (a *Archive) RandomID(ctx context.Context, keyword string) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.ensureLoaded(ctx); err != nil {
		return "", err
	}

	k := strings.ToLower(strings.TrimSpace(keyword))
	pool := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		if k == "" || strings.Contains(e.text, k) {
			pool = append(pool, e.id)
		}
	}
	if len(pool) == 0 {
		return "", fmt.Errorf("no tweets matched keyword '%s' in %s", keyword, a.source.Describe())
	}
	return pool[rand.Intn(len(pool))], nil
}

// Reload drops the cached state and reparses, returning the new id count.
func (a *Archive) Reload(ctx context.Context) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.version = ""
	if err := a.load(ctx); err != nil {
		return 0, err
	}
	return len(a.entries), nil
}

// Count returns the number of loaded ids, loading on first use.
func (a *Archive) Count(ctx context.Context) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.ensureLoaded(ctx); err != nil {
		return 0, err
	}
	return len(a.entries), nil
}
