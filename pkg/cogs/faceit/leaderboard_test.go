package faceit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(v int) *int { return &v }

func TestFmtStat(t *testing.T) {
	assert.Equal(t, "n/a", fmtStat(""))
	assert.Equal(t, "1.18", fmtStat("1.18"))
	assert.Equal(t, "2", fmtStat("2"))
	assert.Equal(t, "2", fmtStat("2.0"))
	assert.Equal(t, "103.46", fmtStat("103.456"))
	assert.Equal(t, "abc", fmtStat("abc"))
}

func TestFmtElo(t *testing.T) {
	assert.Equal(t, "n/a", fmtElo(nil))
	assert.Equal(t, "2001", fmtElo(intp(2001)))
}

func TestSortRows(t *testing.T) {
	rows := []Row{
		{Name: "c", Elo: intp(100)},
		{Name: "nil1", Elo: nil},
		{Name: "a", Elo: intp(300)},
		{Name: "b", Elo: intp(200)},
		{Name: "nil2", Elo: nil},
	}
	sortRows(rows)

	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Name
	}
	assert.Equal(t, []string{"a", "b", "c", "nil1", "nil2"}, names)
}

func TestRenderTable(t *testing.T) {
	rows := []Row{
		{Name: "alpha", Elo: intp(1500), KD: "1.18", ADR: "85.5"},
		{Name: "bo", Elo: nil, KD: "n/a", ADR: "n/a"},
	}
	table := renderTable(rows, false)
	lines := strings.Split(table, "\n")
	require.Len(t, lines, 5)

	assert.Equal(t, "#  Player   ELO   K/D   ADR", lines[0])
	assert.Contains(t, lines[1], "(Lifetime)")
	assert.Equal(t, "-  -----  ----  ----  ----", lines[2])
	assert.Equal(t, "1  alpha  1500  1.18  85.5", lines[3])
	assert.Equal(t, "2  bo      n/a   n/a   n/a", lines[4])
}

func TestRenderTableLast30Scope(t *testing.T) {
	table := renderTable([]Row{{Name: "alpha", Elo: intp(1), KD: "1", ADR: "2"}}, true)
	assert.Contains(t, table, "(Last 30)")
	assert.NotContains(t, table, "(Lifetime)")
}

func TestBuildEmbed(t *testing.T) {
	rows := []Row{{
		Name:   "alpha",
		Elo:    intp(1500),
		KD:     "1.18",
		ADR:    "85.5",
		URL:    "https://www.faceit.com/en/players/alpha",
		Avatar: "https://cdn.example/a.png",
	}}
	embed := buildEmbed(rows, []string{"ghost: not found"}, false)

	assert.Equal(t, "FACEIT CS2 Leaderboard", embed.Title)
	assert.Equal(t, embedColor, embed.Color)
	assert.True(t, strings.HasPrefix(embed.Description, "```text\n"))
	assert.True(t, strings.HasSuffix(embed.Description, "\n```"))
	assert.Equal(t, "Source: FACEIT Data API", embed.Footer.Text)

	require.Len(t, embed.Fields, 2)
	assert.Equal(t, "Profiles", embed.Fields[0].Name)
	assert.Equal(t, "[alpha](https://www.faceit.com/en/players/alpha)", embed.Fields[0].Value)
	assert.Equal(t, "Notes", embed.Fields[1].Name)
	assert.Equal(t, "• ghost: not found", embed.Fields[1].Value)

	require.NotNil(t, embed.Thumbnail)
	assert.Equal(t, "https://cdn.example/a.png", embed.Thumbnail.URL)
}

func TestBuildEmbedNoThumbnailForMany(t *testing.T) {
	rows := []Row{
		{Name: "a", Avatar: "https://cdn.example/a.png"},
		{Name: "b", Avatar: "https://cdn.example/b.png"},
	}
	embed := buildEmbed(rows, nil, false)
	assert.Nil(t, embed.Thumbnail)
}
