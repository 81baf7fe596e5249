package bot

import (
	"github.com/bwmarrin/discordgo"
)

// Reply sends an immediate channel-visible text response.
func Reply(s *discordgo.Session, i *discordgo.InteractionCreate, content string) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
}

// ReplyEphemeral sends an immediate response visible only to the caller.
func ReplyEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// ReplyEmbed sends an immediate embed response.
func ReplyEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

// Defer acknowledges the interaction so a slow handler gets the full
// fifteen-minute followup window instead of the three-second one.
func Defer(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
}

// Followup sends a text followup after a Defer.
func Followup(s *discordgo.Session, i *discordgo.InteractionCreate, content string) error {
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
	})
	return err
}

// FollowupEphemeral sends a caller-only text followup after a Defer.
func FollowupEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) error {
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	return err
}

// FollowupEmbed sends an embed followup, optionally with attached files.
func FollowupEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, files ...*discordgo.File) error {
	_, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Embeds: []*discordgo.MessageEmbed{embed},
		Files:  files,
	})
	return err
}

// Options indexes the command options by name for lookup.
func Options(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	opts := i.ApplicationCommandData().Options
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(opts))
	for _, o := range opts {
		m[o.Name] = o
	}
	return m
}

// StringOption returns the named string option or a fallback.
func StringOption(i *discordgo.InteractionCreate, name, fallback string) string {
	if o, ok := Options(i)[name]; ok {
		return o.StringValue()
	}
	return fallback
}

// IntOption returns the named integer option or a fallback.
func IntOption(i *discordgo.InteractionCreate, name string, fallback int64) int64 {
	if o, ok := Options(i)[name]; ok {
		return o.IntValue()
	}
	return fallback
}

// BoolOption returns the named boolean option or a fallback.
func BoolOption(i *discordgo.InteractionCreate, name string, fallback bool) bool {
	if o, ok := Options(i)[name]; ok {
		return o.BoolValue()
	}
	return fallback
}
