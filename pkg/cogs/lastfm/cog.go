// Package lastfm builds top-album collages from Last.fm scrobbles.
package lastfm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/sync/errgroup"

	"github.com/uniyx/unibot/pkg/bot"
	"github.com/uniyx/unibot/pkg/config"
)

const (
	defaultLimit = 25
	defaultCols  = 5
	defaultCell  = 240

	blurple = 0x5865F2

	gridTimeout = 2 * time.Minute
)

// periodMap translates the visible timespan choices to API values.
var periodMap = map[string]string{
	"Last 7 days":   "7day",
	"Last 30 days":  "1month",
	"Last 90 days":  "3month",
	"Last 180 days": "6month",
	"Last 365 days": "12month",
	"All time":      "overall",
}

var periodChoices = []string{
	"Last 7 days",
	"Last 30 days",
	"Last 90 days",
	"Last 180 days",
	"Last 365 days",
	"All time",
}

// albumSource is the slice of the Last.fm client the cog needs.
type albumSource interface {
	TopAlbums(ctx context.Context, username, period string, limit int) ([]Album, error)
	FetchImage(ctx context.Context, url string) image.Image
}

// Cog serves /lastfm.
type Cog struct {
	client albumSource
}

// New wires the cog, failing when no API key is configured.
func New(cfg *config.Config) (*Cog, error) {
	if cfg.LastfmAPIKey == "" {
		return nil, errors.New("set LASTFM_API_KEY in environment to use the Last.fm cog")
	}
	return &Cog{client: NewClient(cfg.LastfmAPIKey)}, nil
}

// Name implements bot.Module.
func (c *Cog) Name() string { return "lastfm" }

// Commands implements bot.Module.
func (c *Cog) Commands() []*discordgo.ApplicationCommand {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(periodChoices))
	for _, p := range periodChoices {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{Name: p, Value: p})
	}
	return []*discordgo.ApplicationCommand{
		{
			Name:        "lastfm",
			Description: "Top albums grid from Last.fm",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "username",
					Description: "Last.fm username",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "timespan",
					Description: "Time span window",
					Required:    true,
					Choices:     choices,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "limit",
					Description: "How many albums to include in the grid (1–100). Defaults to 25.",
					Required:    false,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "columns",
					Description: "Grid columns. Defaults to 5.",
					Required:    false,
				},
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "cell_size",
					Description: "Pixel size of each tile. Defaults to 240.",
					Required:    false,
				},
			},
		},
	}
}

// Handle implements bot.Module.
func (c *Cog) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) (bool, error) {
	if i.ApplicationCommandData().Name != "lastfm" {
		return false, nil
	}
	return true, c.grid(s, i)
}

func (c *Cog) grid(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	if err := bot.Defer(s, i); err != nil {
		return err
	}

	username := bot.StringOption(i, "username", "")
	timespan := bot.StringOption(i, "timespan", "")
	limit := clamp(int(bot.IntOption(i, "limit", defaultLimit)), 1, 100)
	columns := clamp(int(bot.IntOption(i, "columns", defaultCols)), 1, 10)
	cellSize := clamp(int(bot.IntOption(i, "cell_size", defaultCell)), 100, 512)

	ctx, cancel := context.WithTimeout(context.Background(), gridTimeout)
	defer cancel()

	grid, _, err := c.buildGrid(ctx, username, timespan, limit, columns, cellSize)
	if err != nil {
		if replyErr := bot.FollowupEphemeral(s, i, fmt.Sprintf("Failed to build album grid: %v", err)); replyErr != nil {
			return replyErr
		}
		return err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, grid); err != nil {
		if replyErr := bot.FollowupEphemeral(s, i, fmt.Sprintf("Failed to build album grid: %v", err)); replyErr != nil {
			return replyErr
		}
		return err
	}

	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("%s • Top %d", timespan, limit),
		Color: blurple,
		Author: &discordgo.MessageEmbedAuthor{
			Name: username,
			URL:  fmt.Sprintf("https://www.last.fm/user/%s", username),
		},
		Image: &discordgo.MessageEmbedImage{URL: "attachment://lastfm_grid.png"},
	}
	file := &discordgo.File{
		Name:        "lastfm_grid.png",
		ContentType: "image/png",
		Reader:      &buf,
	}
	return bot.FollowupEmbed(s, i, embed, file)
}

// buildGrid fetches the album list and art and composes the collage,
// returning the labels alongside for captions.
func (c *Cog) buildGrid(ctx context.Context, username, timespan string, limit, cols, cell int) (image.Image, []string, error) {
	period, ok := periodMap[timespan]
	if !ok {
		return nil, nil, fmt.Errorf("unknown timespan %q", timespan)
	}

	albums, err := c.client.TopAlbums(ctx, username, period, limit)
	if err != nil {
		return nil, nil, err
	}
	if len(albums) == 0 {
		return nil, nil, errors.New("No top albums returned. The user may have no scrobbles for that period.")
	}

	images := make([]image.Image, len(albums))
	g, gctx := errgroup.WithContext(ctx)
	for idx, a := range albums {
		u := pickImageURL(a)
		if u == "" {
			continue
		}
		idx, u := idx, u
		g.Go(func() error {
			images[idx] = c.client.FetchImage(gctx, u)
			return nil
		})
	}
	_ = g.Wait()

	tiles := make([]image.Image, len(albums))
	for idx, img := range images {
		if img == nil {
			tiles[idx] = placeholderTile(cell)
		} else {
			tiles[idx] = img
		}
	}
	return composeGrid(tiles, cols, cell), albumLabels(albums), nil
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
