// Package portfolio charts the value of a stock portfolio as ASCII,
// priced from Yahoo Finance.
package portfolio

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/sync/errgroup"

	"github.com/uniyx/unibot/pkg/bot"
	"github.com/uniyx/unibot/pkg/config"
)

const (
	chartHeight  = 12
	defaultWidth = 70
	minWidth     = 20
	maxWidth     = 160
	fetchTimeout = 30 * time.Second
)

// Cog renders /portfolio_chart.
type Cog struct {
	quotes      Quoter
	defaultFile string
	now         func() time.Time
}

// New wires the cog against the live Yahoo endpoint.
func New(cfg *config.Config) *Cog {
	return &Cog{
		quotes:      NewYahooClient(),
		defaultFile: cfg.PortfolioPath,
		now:         time.Now,
	}
}

// NewWithQuoter swaps the price source, used to put a cache in front
// of Yahoo.
func NewWithQuoter(cfg *config.Config, quotes Quoter) *Cog {
	c := New(cfg)
	c.quotes = quotes
	return c
}

// Name implements bot.Module.
func (c *Cog) Name() string { return "portfolio" }

// Commands implements bot.Module.
func (c *Cog) Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "portfolio_chart",
			Description: "ASCII chart of your portfolio value over time.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "range_name",
					Description: "Time range",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "daily", Value: "daily"},
						{Name: "weekly", Value: "weekly"},
						{Name: "monthly", Value: "monthly"},
						{Name: "ytd", Value: "ytd"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "file_path",
					Description: "Path to portfolio file (.yaml, .yml, .json)",
					Required:    false,
				},
				{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "normalize",
					Description: "Scale to start at 100",
					Required:    false,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "points",
					Description: "Chart width in points (20 to 160)",
					Required:    false,
				},
			},
		},
	}
}

// Handle implements bot.Module.
func (c *Cog) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) (bool, error) {
	if i.ApplicationCommandData().Name != "portfolio_chart" {
		return false, nil
	}
	return true, c.chart(s, i)
}

func (c *Cog) chart(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if err := bot.Defer(s, i); err != nil {
		return err
	}

	path := bot.StringOption(i, "file_path", c.defaultFile)
	shares, err := LoadHoldings(path)
	if err != nil {
		if replyErr := bot.FollowupEphemeral(s, i, fmt.Sprintf("Failed to load portfolio: %v", err)); replyErr != nil {
			return replyErr
		}
		return err
	}

	rangeName := bot.StringOption(i, "range_name", "")
	start, end, interval, err := rangeWindow(rangeName, c.now())
	if err != nil {
		if replyErr := bot.FollowupEphemeral(s, i, err.Error()); replyErr != nil {
			return replyErr
		}
		return err
	}

	symbols := make([]string, 0, len(shares))
	for sym := range shares {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	results := make([]Series, len(symbols))
	g, gctx := errgroup.WithContext(ctx)
	for idx, sym := range symbols {
		idx, sym := idx, sym
		g.Go(func() error {
			series, err := c.quotes.History(gctx, sym, start, end, interval)
			if err != nil {
				return fmt.Errorf("%s: %w", sym, err)
			}
			results[idx] = series
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if replyErr := bot.FollowupEphemeral(s, i, fmt.Sprintf("Failed to fetch prices: %v", err)); replyErr != nil {
			return replyErr
		}
		return err
	}

	list := make([]symbolSeries, 0, len(symbols))
	for idx, sym := range symbols {
		if len(results[idx].Times) == 0 {
			msg := fmt.Sprintf("No price data for %s in the requested range.", sym)
			if replyErr := bot.FollowupEphemeral(s, i, msg); replyErr != nil {
				return replyErr
			}
			return fmt.Errorf("no price data for %s", sym)
		}
		list = append(list, symbolSeries{Symbol: sym, Series: results[idx]})
	}

	_, aligned := alignSeries(list)
	totals := totalSeries(aligned, shares)

	ylabel := "Portfolio value (USD)"
	if bot.BoolOption(i, "normalize", false) && len(totals) > 0 {
		base := totals[0]
		if base == 0 || math.IsNaN(base) {
			msg := "Cannot normalize because the first value is zero or NaN."
			if replyErr := bot.FollowupEphemeral(s, i, msg); replyErr != nil {
				return replyErr
			}
			return fmt.Errorf("cannot normalize from base %v", base)
		}
		for idx, v := range totals {
			totals[idx] = 100.0 * v / base
		}
		ylabel = "Portfolio index (start = 100)"
	}

	width := int(bot.IntOption(i, "points", defaultWidth))
	width = max(minWidth, min(maxWidth, width))

	positions := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		px := aligned[sym]
		chg := 0.0
		if len(px) > 0 && px[0] != 0 && !math.IsNaN(px[0]) {
			chg = (px[len(px)-1]/px[0] - 1.0) * 100.0
		}
		positions = append(positions, fmt.Sprintf("%s: %d shares [%+.2f%%]", sym, shares[sym], chg))
	}

	label := fmt.Sprintf("%s to %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	chart := asciiLineChart(totals, width, chartHeight, ylabel)

	var b strings.Builder
	b.WriteString("Portfolio Chart\n")
	fmt.Fprintf(&b, "Range: %s  (%s)\n", strings.ToUpper(rangeName), label)
	b.WriteString("Positions: " + strings.Join(positions, " | ") + "\n")
	b.WriteString("```\n")
	b.WriteString(chart)
	b.WriteString("\n```\n")

	return bot.Followup(s, i, b.String())
}
