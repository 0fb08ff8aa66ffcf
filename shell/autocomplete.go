package shell

import (
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/domino14/rookery/config"
)

// ShellCompleter provides context-aware autocomplete for shell commands
type ShellCompleter struct {
	sc *ShellController
}

func NewShellCompleter(sc *ShellController) *ShellCompleter {
	return &ShellCompleter{sc: sc}
}

type CommandMetadata struct {
	Options []string
	Args    []string
}

var commandMetadata = map[string]CommandMetadata{
	"position": {Args: []string{"startpos", "fen", "moves"}},
	"go": {
		Options: []string{"-depth", "-movetime"},
		Args:    []string{"infinite"},
	},
	"tt":     {Args: []string{"clear", "stats"}},
	"remote": {Options: []string{"-movetime"}},
	"help":   {Args: helpTopics},
}

var commandNames = []string{
	"position", "go", "stop", "result", "diag", "display", "play", "undo",
	"aiplay", "book", "tt", "set", "script", "remote", "help", "exit",
}

var boolValues = []string{"true", "false"}

var promotionValues = []string{
	config.PromotionsAll, config.PromotionsQueenOnly, config.PromotionsQueenAndKnight,
}

// Do implements the readline.AutoComplete interface
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])

	fields, err := shellquote.Split(text)
	if err != nil {
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var completions []string

	if len(fields) == 0 || (len(fields) == 1 && !endsWithSpace) {
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = commandNames
	} else {
		cmdName := fields[0]
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}
		// number of complete arguments after the command
		nargs := len(fields) - 1
		if !endsWithSpace {
			nargs--
		}

		switch {
		case cmdName == "set" && nargs == 0:
			completions = c.sc.config.AllKeys()
		case cmdName == "set" && nargs == 1:
			switch fields[1] {
			case config.ConfigPromotionsToSearch:
				completions = promotionValues
			case config.ConfigFixedDepth, config.ConfigIterativeDeepening,
				config.ConfigUseTranspositionTable, config.ConfigClearTTEachMove,
				config.ConfigEndlessMode, config.ConfigUseThreading, config.ConfigUseBook:
				completions = boolValues
			}
		default:
			if metadata, exists := commandMetadata[cmdName]; exists {
				if strings.HasPrefix(prefix, "-") {
					completions = metadata.Options
				} else {
					completions = append(append([]string{}, metadata.Args...), metadata.Options...)
				}
			}
		}
	}

	var matches [][]rune
	for _, completion := range completions {
		if strings.HasPrefix(completion, prefix) {
			matches = append(matches, []rune(completion[len(prefix):]))
		}
	}
	return matches, len(prefix)
}
