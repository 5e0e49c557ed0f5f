package command

import "strings"

// Route is a parsed command input.
type Route struct {
	Args []string
	Raw  string
}

// known top-level commands and their subcommands
var commandTree = map[string][]string{
	"session":     {"kill", "cleanup"},
	"cleanup":     nil,
	"browse":      nil,
	"logs":        {"clear"},
	"settings":    nil,
	"hide-exited": nil,
	"refresh":     nil,
	"logout":      nil,
	"version":     nil,
	"help":        nil,
}

// ParseRoute splits input into args. Unknown verbs still parse; the
// executor reports them as errors.
func ParseRoute(input string) Route {
	input = strings.TrimSpace(input)
	return Route{Args: strings.Fields(input), Raw: input}
}

// Known reports whether the verb is part of the command tree.
func Known(verb string) bool {
	_, ok := commandTree[verb]
	return ok
}
