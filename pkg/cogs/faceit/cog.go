// Package faceit renders a FACEIT CS2 leaderboard for a player or the
// house roster.
package faceit

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/uniyx/unibot/pkg/bot"
	"github.com/uniyx/unibot/pkg/cache"
	"github.com/uniyx/unibot/pkg/config"
)

const (
	recentMatches  = 30
	requestTimeout = 5 * time.Minute
	playerCacheTTL = 5 * time.Minute
)

// Cog serves /faceit.
type Cog struct {
	client *Client
}

// New wires the cog. A missing API key is tolerated here and reported
// per-invocation so the rest of the bot still loads.
func New(cfg *config.Config) *Cog {
	c := &Cog{}
	if cfg.FaceitAPIKey != "" {
		c.client = NewClient(cfg.FaceitAPIKey)
	}
	return c
}

// NewWithCache is New plus a store for resolved player identities, so
// back-to-back roster refreshes skip the resolution round trips.
func NewWithCache(cfg *config.Config, store cache.Cache) *Cog {
	c := New(cfg)
	if c.client != nil && store != nil {
		c.client.cache = store
		c.client.cacheTTL = playerCacheTTL
	}
	return c
}

// Name implements bot.Module.
func (c *Cog) Name() string { return "faceit" }

// Commands implements bot.Module.
func (c *Cog) Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "faceit",
			Description: "FACEIT CS2 ELO, K/D, ADR for a user or the roster. Optionally compute over last 30 matches.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "user",
					Description: "Optional FACEIT nickname. If omitted, uses the hardcoded roster.",
					Required:    false,
				},
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "last30",
					Description: "If true, compute K/D and ADR over the last 30 matches instead of lifetime.",
					Required:    false,
				},
			},
		},
	}
}

// Handle implements bot.Module.
func (c *Cog) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) (bool, error) {
	if i.ApplicationCommandData().Name != "faceit" {
		return false, nil
	}
	return true, c.leaderboard(s, i)
}

func (c *Cog) leaderboard(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if c.client == nil {
		return bot.ReplyEphemeral(s, i, "FACEIT_API_KEY is not set on the bot host. Set it and try again.")
	}
	if err := bot.Defer(s, i); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	user := bot.StringOption(i, "user", "")
	last30 := bot.BoolOption(i, "last30", false)

	targets := Roster
	if user != "" {
		targets = []string{user}
	}

	var rows []Row
	var notes []string
	for _, nick := range targets {
		row, err := c.buildRow(ctx, nick, last30)
		if err != nil {
			notes = append(notes, fmt.Sprintf("%s: %v", nick, err))
			continue
		}
		rows = append(rows, row)
	}
	sortRows(rows)

	return bot.FollowupEmbed(s, i, buildEmbed(rows, notes, last30))
}

func (c *Cog) buildRow(ctx context.Context, nick string, last30 bool) (Row, error) {
	p, err := c.client.ResolvePlayer(ctx, nick)
	if err != nil {
		return Row{}, err
	}

	var kd, adr string
	if last30 {
		rec, err := c.client.RecentStatsLastN(ctx, p.ID, p.Nickname, recentMatches)
		if err != nil {
			return Row{}, err
		}
		kd, adr = "n/a", "n/a"
		if rec.KD != nil {
			kd = fmtFloat(*rec.KD)
		}
		if rec.ADR != nil {
			adr = fmtFloat(*rec.ADR)
		}
	} else {
		life, err := c.client.LifetimeStats(ctx, p.ID)
		if err != nil {
			return Row{}, err
		}
		kd = fmtStat(pickKey(life, kdKeys))
		adr = fmtStat(pickKey(life, adrKeys))
	}

	return Row{Name: p.Nickname, Elo: p.Elo, KD: kd, ADR: adr, URL: p.URL, Avatar: p.Avatar}, nil
}
