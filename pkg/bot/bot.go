// Package bot wires the Discord session, the command modules, and the
// health state together. The bot is slash-only: it identifies with the
// Guilds intent and never processes message content.
package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"

	"github.com/uniyx/unibot/pkg/config"
	"github.com/uniyx/unibot/pkg/health"
	"github.com/uniyx/unibot/pkg/metrics"
)

// latencyRefreshInterval paces the background gauge updates.
const latencyRefreshInterval = 10 * time.Second

// Bot owns the gateway session and dispatches interactions to modules.
type Bot struct {
	session *discordgo.Session
	modules []Module
	cfg     *config.Config
	state   *health.State
	metrics *metrics.Metrics
	guildID string
}

// New builds the session. The guild id must already be validated.
func New(cfg *config.Config, modules []Module, state *health.State, m *metrics.Metrics) (*Bot, error) {
	guildID, err := cfg.GuildID()
	if err != nil {
		return nil, err
	}

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	// Slash only. Guild metadata is all the gateway needs to send us.
	session.Identify.Intents = discordgo.IntentsGuilds

	b := &Bot{
		session: session,
		modules: modules,
		cfg:     cfg,
		state:   state,
		metrics: m,
		guildID: fmt.Sprintf("%d", guildID),
	}

	session.AddHandler(b.onReady)
	session.AddHandler(b.onDisconnect)
	session.AddHandler(b.onResume)
	session.AddHandler(b.onInteraction)

	return b, nil
}

// Run opens the gateway connection and blocks until ctx is canceled.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open gateway session: %w", err)
	}

	go b.refreshLatency(ctx)

	<-ctx.Done()
	log.Info("Closing gateway session")
	return b.session.Close()
}

// refreshLatency keeps the latency gauge and health record current while
// the session lives.
func (b *Bot) refreshLatency(ctx context.Context) {
	ticker := time.NewTicker(latencyRefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ms := b.session.HeartbeatLatency().Milliseconds()
			if b.metrics != nil {
				b.metrics.GatewayLatency.Set(float64(ms))
			}
			if b.state.Ready() {
				b.state.SetLatency(ms)
			}
		case <-ctx.Done():
			return
		}
	}
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.state.SetStatus(health.StatusConnected)

	// Guild-scoped sync for instant availability.
	var commands []*discordgo.ApplicationCommand
	for _, m := range b.modules {
		commands = append(commands, m.Commands()...)
	}
	synced, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, b.guildID, commands)
	if err != nil {
		log.WithError(err).Error("Failed to sync commands")
	} else {
		names := make([]string, 0, len(synced))
		for _, c := range synced {
			names = append(names, c.Name)
		}
		log.WithFields(log.Fields{
			"guild":    b.guildID,
			"commands": names,
		}).Infof("Synced %d commands", len(synced))
	}

	// Visible instance tag in presence.
	if err := s.UpdateGameStatus(0, fmt.Sprintf("unibot [%s]", b.cfg.InstanceTag)); err != nil {
		log.WithError(err).Error("Failed to set presence")
	}

	latency := s.HeartbeatLatency().Milliseconds()
	b.state.SetReady(len(b.modules), latency)
	if b.metrics != nil {
		b.metrics.CogsLoaded.Set(float64(len(b.modules)))
		b.metrics.GatewayLatency.Set(float64(latency))
	}

	log.Infof("Logged in as %s (%s) | latency=%dms | cogs=%d",
		r.User.Username, r.User.ID, latency, len(b.modules))
}

func (b *Bot) onDisconnect(_ *discordgo.Session, _ *discordgo.Disconnect) {
	b.state.SetStatus(health.StatusDisconnected)
	log.Warn("Gateway disconnected")
}

func (b *Bot) onResume(_ *discordgo.Session, _ *discordgo.Resumed) {
	b.state.SetStatus(health.StatusReady)
	log.Info("Gateway session resumed")
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	name := i.ApplicationCommandData().Name
	start := time.Now()

	for _, m := range b.modules {
		handled, err := m.Handle(s, i)
		if !handled {
			continue
		}
		status := "ok"
		if err != nil {
			status = "error"
			log.WithError(err).WithFields(log.Fields{
				"command": name,
				"module":  m.Name(),
			}).Error("Command failed")
		}
		if b.metrics != nil {
			b.metrics.ObserveInteraction(name, status, time.Since(start))
		}
		return
	}

	log.WithFields(log.Fields{"command": name}).Warn("No module claimed command")
}
