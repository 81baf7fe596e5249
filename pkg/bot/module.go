package bot

import "github.com/bwmarrin/discordgo"

// Module is one self-contained set of slash commands (a cog). Modules are
// constructed up front; Commands is collected once for the guild-scoped
// sync, and Handle is offered every command interaction in turn.
type Module interface {
	// Name identifies the module in logs.
	Name() string
	// Commands returns the application commands the module contributes.
	Commands() []*discordgo.ApplicationCommand
	// Handle reports whether the interaction belonged to this module, plus
	// any handling error. A handling error never leaves the interaction
	// unanswered; modules reply with a user-facing message themselves.
	Handle(s *discordgo.Session, i *discordgo.InteractionCreate) (bool, error)
}
