// Package basic provides the smoke-test commands: ping, echo, and a
// dice roller.
package basic

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/uniyx/unibot/pkg/bot"
)

const (
	maxDice  = 100
	maxSides = 1000
)

var dicePattern = regexp.MustCompile(`^(\d+)d(\d+)$`)

// Cog implements the basic command set.
type Cog struct{}

// New returns the basic cog.
func New() *Cog { return &Cog{} }

// Name implements bot.Module.
func (c *Cog) Name() string { return "basic" }

// Commands implements bot.Module.
func (c *Cog) Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{Name: "ping", Description: "Latency check"},
		{
			Name:        "echo",
			Description: "Repeat after me",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "text",
					Description: "What should I say?",
					Required:    true,
				},
			},
		},
		{
			Name:        "roll",
			Description: "Roll dice, e.g. 2d6",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "dice",
					Description: "NdM dice spec",
					Required:    true,
				},
			},
		},
	}
}

// Handle implements bot.Module.
func (c *Cog) Handle(s *discordgo.Session, i *discordgo.InteractionCreate) (bool, error) {
	switch i.ApplicationCommandData().Name {
	case "ping":
		ms := s.HeartbeatLatency().Milliseconds()
		return true, bot.Reply(s, i, fmt.Sprintf("Pong %d ms", ms))
	case "echo":
		return true, bot.Reply(s, i, bot.StringOption(i, "text", ""))
	case "roll":
		spec := bot.StringOption(i, "dice", "")
		count, sides, err := parseRoll(spec)
		if err != nil {
			return true, bot.ReplyEphemeral(s, i, "Invalid format. Use NdM, like 2d6.")
		}
		rolls := make([]int, count)
		for n := range rolls {
			rolls[n] = rand.Intn(sides) + 1
		}
		return true, bot.Reply(s, i, formatRoll(spec, rolls))
	}
	return false, nil
}

// parseRoll validates an NdM dice spec. Count is capped at 100 dice and
// sides must sit in [2, 1000].
func parseRoll(spec string) (count, sides int, err error) {
	m := dicePattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(spec)))
	if m == nil {
		return 0, 0, fmt.Errorf("invalid dice spec %q", spec)
	}
	count, err = strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, err
	}
	sides, err = strconv.Atoi(m[2])
	if err != nil {
		return 0, 0, err
	}
	if count < 1 || count > maxDice {
		return 0, 0, fmt.Errorf("dice count %d out of range", count)
	}
	if sides < 2 || sides > maxSides {
		return 0, 0, fmt.Errorf("sides %d out of range", sides)
	}
	return count, sides, nil
}

func formatRoll(spec string, rolls []int) string {
	parts := make([]string, len(rolls))
	total := 0
	for n, r := range rolls {
		parts[n] = strconv.Itoa(r)
		total += r
	}
	return fmt.Sprintf("%s → [%s] = **%d**", spec, strings.Join(parts, ", "), total)
}
