package faceit

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
)

const embedColor = 0x2F3136

// Row is one rendered leaderboard line.
type Row struct {
	Name   string
	Elo    *int
	KD     string
	ADR    string
	URL    string
	Avatar string
}

// fmtStat renders a raw stat string: integers without decimals, other
// numbers with two, non-numbers as-is, and blanks as n/a.
func fmtStat(x string) string {
	if x == "" {
		return "n/a"
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
	if err != nil {
		return x
	}
	return fmtFloat(v)
}

func fmtFloat(v float64) string {
	if v == math.Trunc(v) && !math.IsInf(v, 0) {
		return strconv.Itoa(int(v))
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func fmtElo(elo *int) string {
	if elo == nil {
		return "n/a"
	}
	return strconv.Itoa(*elo)
}

// sortRows orders by elo descending with unknown elo last. The sort is
// stable so roster order survives among ties.
func sortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Elo, rows[j].Elo
		if (a == nil) != (b == nil) {
			return b == nil
		}
		if a == nil {
			return false
		}
		return *a > *b
	})
}

// renderTable builds the monospaced leaderboard body.
func renderTable(rows []Row, last30 bool) string {
	rankW := 1
	if len(rows) > 0 {
		rankW = len(strconv.Itoa(len(rows)))
	}
	nameW, eloW, kdW, adrW := 5, 3, 3, 3
	for _, r := range rows {
		nameW = max(nameW, len(r.Name))
		eloW = max(eloW, len(fmtElo(r.Elo)))
		kdW = max(kdW, len(r.KD))
		adrW = max(adrW, len(r.ADR))
	}

	scope := "Lifetime"
	if last30 {
		scope = "Last 30"
	}
	scopeLabel := "(" + scope + ")"

	lines := []string{
		fmt.Sprintf("%*s  %-*s  %*s  %*s  %*s", rankW, "#", nameW, "Player", eloW, "ELO", kdW, "K/D", adrW, "ADR"),
		fmt.Sprintf("%*s  %-*s  %*s  %*s  %*s", rankW, "", nameW, "", eloW, "", kdW, scopeLabel, adrW, scopeLabel),
		fmt.Sprintf("%s  %s  %s  %s  %s",
			strings.Repeat("-", rankW), strings.Repeat("-", nameW),
			strings.Repeat("-", eloW), strings.Repeat("-", kdW), strings.Repeat("-", adrW)),
	}
	for i, r := range rows {
		lines = append(lines, fmt.Sprintf("%*d  %-*s  %*s  %*s  %*s",
			rankW, i+1, nameW, r.Name, eloW, fmtElo(r.Elo), kdW, r.KD, adrW, r.ADR))
	}
	return strings.Join(lines, "\n")
}

// buildEmbed wraps the table with profile links, error notes, and an
// avatar thumbnail when a single player was requested.
func buildEmbed(rows []Row, notes []string, last30 bool) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "FACEIT CS2 Leaderboard",
		Description: "```text\n" + renderTable(rows, last30) + "\n```",
		Color:       embedColor,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Source: FACEIT Data API"},
	}

	links := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.URL != "" {
			links = append(links, fmt.Sprintf("[%s](%s)", r.Name, r.URL))
		}
	}
	if len(links) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Profiles",
			Value:  strings.Join(links, " • "),
			Inline: false,
		})
	}
	if len(notes) > 0 {
		bullets := make([]string, len(notes))
		for i, n := range notes {
			bullets[i] = "• " + n
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Notes",
			Value:  strings.Join(bullets, "\n"),
			Inline: false,
		})
	}
	if len(rows) == 1 && rows[0].Avatar != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: rows[0].Avatar}
	}
	return embed
}
