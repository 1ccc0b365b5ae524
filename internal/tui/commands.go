package tui

import (
	"strconv"
	"strings"
)

// command is a parsed slash command typed into the input.
type command struct {
	name string
	arg  string
}

// parseCommand splits "/name arg..." input. ok is false for a plain question.
func parseCommand(input string) (command, bool) {
	s := strings.TrimSpace(input)
	if !strings.HasPrefix(s, "/") {
		return command{}, false
	}
	name, arg, _ := strings.Cut(s[1:], " ")
	return command{name: strings.ToLower(name), arg: strings.TrimSpace(arg)}, true
}

// unquote strips one pair of surrounding quotes, as left by dragging a file
// into most terminals.
func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// resolveIndex turns "2" into the second of names; other input is returned
// unchanged.
func resolveIndex(arg string, names []string) string {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(names) {
		return arg
	}
	return names[n-1]
}

const helpText = `Commands:
  /upload PATH     upload a PDF manual
  /select NAME|N   ask questions about a manual (no argument: general mode)
  /delete NAME|N   delete a manual (asks for confirmation)
  /manuals         reload the manual list
  /example N       put example question N in the input
  /clear           clear the conversation
  /help            show this help
  /quit            leave`
