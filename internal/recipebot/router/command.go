package router

import (
	"strings"
)

// Kind identifies what an inbound message asks for.
type Kind int

const (
	FreeText Kind = iota
	Popular
	Recipe
	Detail
	Plan
	Recommend
	Collect
	History
	Nutrition
	Help
	Delete
)

var kindNames = map[Kind]string{
	FreeText:  "free_text",
	Popular:   "popular",
	Recipe:    "recipe",
	Detail:    "detail",
	Plan:      "plan",
	Recommend: "recommend",
	Collect:   "collect",
	History:   "history",
	Nutrition: "nutrition",
	Help:      "help",
	Delete:    "delete",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// commandTokens maps a slash command, without the slash, to its kind.
var commandTokens = map[string]Kind{
	"popular":   Popular,
	"recipe":    Recipe,
	"detail":    Detail,
	"plan":      Plan,
	"recommend": Recommend,
	"collect":   Collect,
	"history":   History,
	"nutrition": Nutrition,
	"help":      Help,
	"start":     Help,
	"delete":    Delete,
}

var usages = map[Kind]string{
	Recipe:    "Usage: /recipe <ingredients> <taste>",
	Detail:    "Usage: /detail <recipe_name>",
	Plan:      "Usage: /plan <duration> <calories>",
	Recommend: "Usage: /recommend <ingredient1> <ingredient2>...",
	Collect:   "Usage: /collect <recipe_name>",
	Nutrition: "Usage: /nutrition <recipe_name>",
	Delete:    "Usage: /delete <recipe_name>",
}

// Command is one parsed inbound message.
type Command struct {
	Kind Kind
	// Args are the whitespace-separated tokens after the command token.
	Args []string
	// Text is the full trimmed message.
	Text string
	// Bot is the username after "@" in "/name@BotName", empty when the
	// command is not addressed to a particular bot.
	Bot string
}

// AddressedTo reports whether c is meant for the bot called username. Plain
// commands and free text are addressed to every bot; an empty username
// accepts everything.
func (c Command) AddressedTo(username string) bool {
	if c.Bot == "" || username == "" {
		return true
	}
	return strings.EqualFold(c.Bot, strings.TrimPrefix(username, "@"))
}

// UsageError reports missing or malformed command arguments.
type UsageError struct {
	Usage string
}

func (e *UsageError) Error() string {
	return e.Usage
}

// Parse classifies text. A leading "/name" or "/name@BotName" token naming a
// known command yields that command; anything else is FreeText.
func Parse(text string) Command {
	text = strings.TrimSpace(text)
	cmd := Command{Kind: FreeText, Text: text}
	if !strings.HasPrefix(text, "/") {
		return cmd
	}

	fields := strings.Fields(text)
	token := strings.TrimPrefix(fields[0], "/")
	var bot string
	if at := strings.IndexByte(token, '@'); at >= 0 {
		token, bot = token[:at], token[at+1:]
	}
	kind, ok := commandTokens[strings.ToLower(token)]
	if !ok {
		return cmd
	}
	cmd.Kind = kind
	cmd.Bot = bot
	cmd.Args = fields[1:]
	return cmd
}

// Validate checks the arguments of c. Multi-token arguments (ingredients,
// recipe names) are returned joined by single spaces; /plan returns its two
// tokens unchanged.
func (c Command) Validate() ([]string, error) {
	switch c.Kind {
	case Recipe, Recommend, Detail, Collect, Nutrition, Delete:
		if len(c.Args) == 0 {
			return nil, &UsageError{Usage: usages[c.Kind]}
		}
		return []string{strings.Join(c.Args, " ")}, nil
	case Plan:
		if len(c.Args) != 2 {
			return nil, &UsageError{Usage: usages[c.Kind]}
		}
		return c.Args, nil
	default:
		return nil, nil
	}
}
