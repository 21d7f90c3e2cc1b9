package shell

import (
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/hexsim/hexsim/board"
)

// ShellCompleter completes command names, options, help topics and the
// empty cells of the current board.
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
	"hint":    {Options: []string{"-top"}},
	"ranking": {Options: []string{"-top"}},
	"help":    {Args: []string{"rules", "hint", "ranking"}},
}

var commandNames = []string{"help", "hint", "ranking", "board", "info", "quit"}

// Do implements the readline.AutoCompleter interface.
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
		completions = append(completions, commandNames...)
		completions = append(completions, c.freeCells(prefix)...)
	} else {
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}
		if metadata, exists := commandMetadata[fields[0]]; exists {
			if strings.HasPrefix(prefix, "-") || len(metadata.Args) == 0 {
				completions = metadata.Options
			} else {
				completions = metadata.Args
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

// freeCells lists the empty cells in the column named by prefix, so "c"
// completes to C1, C2 and so on. Nothing is offered without a column.
func (c *ShellCompleter) freeCells(prefix string) []string {
	if c.sc == nil || c.sc.game == nil || len(prefix) != 1 {
		return nil
	}
	b := c.sc.game.Board()
	col := int(strings.ToUpper(prefix)[0]) - 'A'
	if col < 0 || col >= b.Size() {
		return nil
	}
	var cells []string
	for row := 0; row < b.Size(); row++ {
		idx := b.ToIndex(col, row)
		if b.At(idx) == board.Empty {
			// Keep the case that was typed so the prefix still matches.
			cells = append(cells, prefix+b.CoordString(idx)[1:])
		}
	}
	return cells
}
