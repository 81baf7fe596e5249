// Package status reports bot and host health as a Discord embed, with
// an optional deep-dive over CPU, disks, network, processes, and
// containers.
package status

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/docker/docker/client"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/uniyx/unibot/pkg/bot"
	"github.com/uniyx/unibot/pkg/config"
	"github.com/uniyx/unibot/pkg/version"
)

const (
	blurple       = 0x5865F2
	dockerTimeout = 5 * time.Second
)

// Cog serves /status.
type Cog struct {
	repoURL string
	ver     version.Info
	started time.Time

	mu      sync.Mutex
	nicLast map[string]nicSample

	newDocker func() (containerLister, error)
}

// New wires the cog. The started instant anchors the uptime line.
func New(cfg *config.Config, started time.Time) *Cog {
	return &Cog{
		repoURL: cfg.RepoURL,
		ver:     version.Resolve(),
		started: started,
		nicLast: make(map[string]nicSample),
		newDocker: func() (containerLister, error) {
			return client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
		},
	}
}

// Name implements bot.Module.
func (c *Cog) Name() string { return "status" }

// Commands implements bot.Module.
func (c *Cog) Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "status",
			Description: "Show service status.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "verbose",
					Description: "Include deep system details",
					Required:    false,
				},
			},
		},
	}
}

// Handle implements bot.Module.
func (c *Cog) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) (bool, error) {
	if i.ApplicationCommandData().Name != "status" {
		return false, nil
	}
	verbose := bot.BoolOption(i, "verbose", false)
	return true, bot.ReplyEmbed(s, i, c.statusEmbed(s, verbose))
}

func (c *Cog) statusEmbed(s *discordgo.Session, verbose bool) *discordgo.MessageEmbed {
	t0 := time.Now()

	embed := &discordgo.MessageEmbed{
		Title:     "unibot Status",
		Color:     blurple,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Author:    &discordgo.MessageEmbedAuthor{Name: "uniyx/unibot", URL: c.repoURL},
	}

	var wsMS *int64
	if s != nil {
		if ms := s.HeartbeatLatency().Milliseconds(); ms > 0 {
			wsMS = &ms
		}
	}

	var procCPU *float64
	var procRSS *uint64
	if cpuPct, rss, err := sampleProcess(); err == nil {
		procCPU = &cpuPct
		procRSS = &rss
	}

	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:   "Bot",
		Value:  strings.Join(c.botLines(wsMS, procCPU, procRSS), "\n"),
		Inline: true,
	})
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:   "Host",
		Value:  strings.Join(hostLines(), "\n"),
		Inline: true,
	})
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:   "Versions",
		Value:  c.versionsLine(),
		Inline: false,
	})

	if verbose {
		c.addVerboseFields(embed)
	}

	footer := []string{fmt.Sprintf("Roundtrip %d ms", time.Since(t0).Milliseconds())}
	if wsMS != nil {
		footer = append(footer, fmt.Sprintf("Websocket %d ms", *wsMS))
	}
	embed.Footer = &discordgo.MessageEmbedFooter{Text: strings.Join(footer, " | ")}
	return embed
}

func (c *Cog) botLines(wsMS *int64, procCPU *float64, procRSS *uint64) []string {
	var lines []string
	if wsMS != nil {
		lines = append(lines, fmt.Sprintf("Ping: `%d ms`", *wsMS))
	}
	lines = append(lines, fmt.Sprintf("Uptime: `%s`", fmtDur(time.Since(c.started))))
	if procCPU != nil {
		lines = append(lines, fmt.Sprintf("Proc CPU: `%s`", fmtPct(*procCPU)))
	}
	if procRSS != nil {
		lines = append(lines, fmt.Sprintf("Proc Mem: `%s`", fmtBytes(float64(*procRSS))))
	}
	return lines
}

func hostLines() []string {
	osName, kernel, arch := osInfo()
	lines := []string{fmt.Sprintf("OS: `%s` · Arch: `%s`", strings.TrimSpace(osName+" "+kernel), arch)}

	if up, err := host.Uptime(); err == nil {
		lines = append(lines, fmt.Sprintf("Host Uptime: `%s`", fmtDur(time.Duration(up)*time.Second)))
	}
	phys, logical := cpuCounts()
	if util, err := cpuUtil(); err == nil {
		lines = append(lines, fmt.Sprintf("CPU: `%dC/%dT` · Util `%s`", phys, logical, fmtPct(util)))
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		lines = append(lines, fmt.Sprintf("Mem: `%s` (%s/%s)",
			fmtPct(vm.UsedPercent), fmtBytes(float64(vm.Used)), fmtBytes(float64(vm.Total))))
	}
	return lines
}

func (c *Cog) versionsLine() string {
	parts := []string{fmt.Sprintf("Go `%s` · discordgo `%s`", runtime.Version(), discordgo.VERSION)}
	if c.ver.Version != "" {
		parts = append(parts, fmt.Sprintf("Version `%s`", c.ver.Version))
	}
	if c.ver.ShortCommit != "" && c.ver.FullCommit != "" {
		parts = append(parts, fmt.Sprintf("Commit [`%s`](%s/commit/%s)", c.ver.ShortCommit, c.repoURL, c.ver.FullCommit))
	}
	return strings.Join(parts, " · ")
}

func (c *Cog) addVerboseFields(embed *discordgo.MessageEmbed) {
	_, logical := cpuCounts()
	if detail, err := cpuDetail(logical); err == nil && detail != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "CPU Detail", Value: truncateField(detail), Inline: false,
		})
	}

	if lines := diskLines(); len(lines) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Disks", Value: truncateField(strings.Join(lines, "\n")), Inline: false,
		})
	}

	if lines := c.networkLines(time.Now()); len(lines) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Network", Value: truncateField(strings.Join(lines, "\n")), Inline: false,
		})
	}

	topCPU, topMem := topProcesses()
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name: "Top CPU", Value: truncateField(formatProcRows(topCPU)), Inline: true,
	})
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name: "Top Memory", Value: truncateField(formatProcRows(topMem)), Inline: true,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dockerTimeout)
	defer cancel()
	if lines := c.dockerLines(ctx); len(lines) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "Docker", Value: strings.Join(lines, "\n"), Inline: false,
		})
	}
}
