// Package tweets serves random entries from a Twitter archive export,
// read from local disk or S3.
package tweets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/uniyx/unibot/pkg/bot"
	"github.com/uniyx/unibot/pkg/config"
)

const sourceTimeout = 15 * time.Second

// Cog posts fxtwitter links for archived tweets.
type Cog struct {
	archive  *Archive
	username string
}

// New wires the archive source from config. The Twitter handle is
// required because it is part of every posted URL.
func New(cfg *config.Config) (*Cog, error) {
	if cfg.TwitterUsername == "" {
		return nil, errors.New("set TWITTER_USERNAME in your environment")
	}
	return &Cog{
		archive:  NewArchive(NewSource(cfg.TweetsPath, cfg.AWSRegion)),
		username: cfg.TwitterUsername,
	}, nil
}

// Name implements bot.Module.
func (c *Cog) Name() string { return "tweets" }

// Commands implements bot.Module.
func (c *Cog) Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "random_tweet",
			Description: "Post a random tweet from my archive. Optionally filter by keyword.",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "keyword",
					Description: "Optional keyword to search within tweet text, e.g., 'dog'",
					Required:    false,
				},
			},
		},
		{Name: "reload_tweets", Description: "Reload the tweet archive"},
	}
}

// Handle implements bot.Module.
func (c *Cog) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) (bool, error) {
	switch i.ApplicationCommandData().Name {
	case "random_tweet":
		return true, c.randomTweet(s, i)
	case "reload_tweets":
		return true, c.reloadTweets(s, i)
	}
	return false, nil
}

func (c *Cog) randomTweet(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	ctx, cancel := context.WithTimeout(context.Background(), sourceTimeout)
	defer cancel()

	keyword := bot.StringOption(i, "keyword", "")
	id, err := c.archive.RandomID(ctx, keyword)
	if err != nil {
		if replyErr := bot.ReplyEphemeral(s, i, fmt.Sprintf("Could not pick a tweet: %v", err)); replyErr != nil {
			return replyErr
		}
		return err
	}
	return bot.Reply(s, i, fmt.Sprintf("https://fxtwitter.com/%s/status/%s", c.username, id))
}

func (c *Cog) reloadTweets(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	ctx, cancel := context.WithTimeout(context.Background(), sourceTimeout)
	defer cancel()

	count, err := c.archive.Reload(ctx)
	if err != nil {
		if replyErr := bot.ReplyEphemeral(s, i, fmt.Sprintf("Reload failed: %v", err)); replyErr != nil {
			return replyErr
		}
		return err
	}
	return bot.ReplyEphemeral(s, i, fmt.Sprintf("Reloaded archive from `%s` (%d IDs).", c.archive.Describe(), count))
}
