// Package logs parses the server's raw log blob into structured
// entries. Entries are rebuilt wholesale on every poll cycle; there is
// no incremental merge.
package logs

import (
	"bufio"
	"regexp"
	"strings"
)

// Entry is one parsed log line, plus any continuation lines.
type Entry struct {
	Timestamp string
	Level     string // lowercased: debug, info, warn, error
	Module    string
	Message   string
	IsClient  bool
}

// lineRe matches "TIMESTAMP LEVEL [MODULE] MESSAGE". Anything that
// doesn't match is a continuation of the previous entry.
var lineRe = regexp.MustCompile(`^(\S+) (\w+) \[([^\]]+)\] (.*)$`)

// Parse converts a raw log blob into entries. Continuation lines are
// appended to the previous entry's message joined by a newline; a
// leading continuation with no previous entry is dropped.
func Parse(raw string) []Entry {
	var entries []Entry

	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 256*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		m := lineRe.FindStringSubmatch(line)
		if m == nil {
			if len(entries) > 0 {
				entries[len(entries)-1].Message += "\n" + line
			}
			continue
		}

		module := m[3]
		isClient := false
		if rest, ok := strings.CutPrefix(module, "CLIENT:"); ok {
			module = rest
			isClient = true
		}

		entries = append(entries, Entry{
			Timestamp: m[1],
			Level:     strings.ToLower(m[2]),
			Module:    module,
			Message:   m[4],
			IsClient:  isClient,
		})
	}

	return entries
}

// severity orders levels for threshold filtering.
var severity = map[string]int{
	"debug": 0,
	"info":  1,
	"warn":  2,
	"error": 3,
}

// Levels in ascending severity, for cycling through filter settings.
var Levels = []string{"debug", "info", "warn", "error"}

// Filter returns the entries at or above level that match the source
// and query constraints. An unknown or empty level admits everything.
func Filter(entries []Entry, level string, clientOnly, serverOnly bool, query string) []Entry {
	min, hasMin := severity[level]
	query = strings.ToLower(query)

	var out []Entry
	for _, e := range entries {
		if hasMin {
			if sev, ok := severity[e.Level]; !ok || sev < min {
				continue
			}
		}
		if clientOnly && !e.IsClient {
			continue
		}
		if serverOnly && e.IsClient {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(e.Message), query) &&
			!strings.Contains(strings.ToLower(e.Module), query) {
			continue
		}
		out = append(out, e)
	}
	return out
}
