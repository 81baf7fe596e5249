// Package uptime reports when the bot process started using Discord's
// client-side timestamp rendering.
package uptime

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/uniyx/unibot/pkg/bot"
)

// Cog answers uptime queries against a fixed start instant.
type Cog struct {
	started time.Time
}

// New returns the uptime cog anchored at started.
func New(started time.Time) *Cog {
	return &Cog{started: started}
}

// Name implements bot.Module.
func (c *Cog) Name() string { return "uptime" }

// Commands implements bot.Module.
func (c *Cog) Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{Name: "uptime", Description: "How long the bot has been up"},
		{Name: "started", Description: "When the bot started, in several formats"},
	}
}

// Handle implements bot.Module.
func (c *Cog) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) (bool, error) {
	switch i.ApplicationCommandData().Name {
	case "uptime":
		return true, bot.Reply(s, i, fmt.Sprintf("Started <t:%d:R>", c.started.Unix()))
	case "started":
		return true, bot.ReplyEphemeral(s, i, startedMessage(c.started))
	}
	return false, nil
}

func startedMessage(started time.Time) string {
	unix := started.Unix()
	return fmt.Sprintf("Absolute: <t:%d:T>\nShort:    <t:%d:f>\nRelative: <t:%d:R>", unix, unix, unix)
}
