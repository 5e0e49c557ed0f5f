package command

import (
	"sort"
	"strings"
)

// Candidate is a completion option with a description.
type Candidate struct {
	Value string // the text to insert
	Desc  string // short description
}

// Completer provides live completion for the command line.
type Completer struct {
	sessionIDs []string
}

// NewCompleter creates a completer.
func NewCompleter() *Completer {
	return &Completer{}
}

// SetSessionIDs updates the available session IDs.
func (c *Completer) SetSessionIDs(ids []string) {
	c.sessionIDs = ids
}

// command tree with descriptions
type cmdEntry struct {
	subs []subEntry
	desc string
}

type subEntry struct {
	name string
	desc string
}

var commands = map[string]cmdEntry{
	"session": {desc: "Manage sessions", subs: []subEntry{
		{"kill", "Kill a running session"},
		{"cleanup", "Remove an exited session"},
	}},
	"cleanup":     {desc: "Remove all exited sessions"},
	"browse":      {desc: "Open the file browser"},
	"logs":        {desc: "Open the log viewer", subs: []subEntry{{"clear", "Clear the server log"}}},
	"settings":    {desc: "Open settings"},
	"hide-exited": {desc: "Toggle the exited filter"},
	"refresh":     {desc: "Refetch all data"},
	"logout":      {desc: "Discard the auth token"},
	"version":     {desc: "Show version"},
	"help":        {desc: "Show help"},
}

// Complete returns candidates for the current input.
func (c *Completer) Complete(input string) []Candidate {
	parts := strings.Fields(input)
	trailing := strings.HasSuffix(input, " ")

	// No input yet or partial first word: show top-level commands.
	if len(parts) == 0 || (len(parts) == 1 && !trailing) {
		prefix := ""
		if len(parts) == 1 {
			prefix = parts[0]
		}
		return c.topLevelCandidates(prefix)
	}

	cmd := parts[0]
	entry, ok := commands[cmd]
	if !ok {
		return nil
	}

	// First word complete, show subcommands.
	if len(parts) == 1 && trailing {
		return subCandidates(entry.subs, "")
	}
	if len(parts) == 2 && !trailing {
		return subCandidates(entry.subs, parts[1])
	}

	// Subcommand complete, show session IDs where they apply.
	if (len(parts) == 2 && trailing) || (len(parts) == 3 && !trailing) {
		prefix := ""
		if len(parts) == 3 {
			prefix = parts[2]
		}
		if cmd == "session" {
			sub := parts[1]
			if sub == "kill" || sub == "cleanup" {
				return c.dynamicCandidates(c.sessionIDs, prefix, "session")
			}
		}
	}

	return nil
}

func (c *Completer) topLevelCandidates(prefix string) []Candidate {
	keys := make([]string, 0, len(commands))
	for k := range commands {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var result []Candidate
	for _, k := range keys {
		if prefix == "" || strings.HasPrefix(k, prefix) {
			result = append(result, Candidate{Value: k, Desc: commands[k].desc})
		}
	}
	return result
}

func subCandidates(subs []subEntry, prefix string) []Candidate {
	var result []Candidate
	for _, s := range subs {
		if prefix == "" || strings.HasPrefix(s.name, prefix) {
			result = append(result, Candidate{Value: s.name, Desc: s.desc})
		}
	}
	return result
}

func (c *Completer) dynamicCandidates(items []string, prefix, kind string) []Candidate {
	var result []Candidate
	for _, item := range items {
		if prefix == "" || strings.HasPrefix(item, prefix) {
			result = append(result, Candidate{Value: item, Desc: kind})
		}
	}
	return result
}
