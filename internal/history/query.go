package history

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mode selects how query results are printed
type Mode string

const (
	ModeCommands    Mode = "commands"
	ModeInteractive Mode = "interactive"
	ModeJSON        Mode = "json"
	ModeYAML        Mode = "yaml"
)

// Modes lists every supported output mode
var Modes = []Mode{ModeCommands, ModeInteractive, ModeJSON, ModeYAML}

// ParseMode validates s, treating an empty string as ModeCommands
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return ModeCommands, nil
	}
	for _, m := range Modes {
		if Mode(s) == m {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown history mode: %s", s)
}

// Query returns the entries recorded in dir whose command or request contains
// filter (case-insensitive), newest first, one per distinct command
func Query(entries []Entry, dir, filter string) []Entry {
	needle := strings.ToLower(filter)

	// Walk backwards so that, after a stable sort, ties keep later appends first
	matched := make([]Entry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if e.Path != dir {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(e.Command), needle) &&
			!strings.Contains(strings.ToLower(e.Request), needle) {
			continue
		}
		matched = append(matched, e)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp > matched[j].Timestamp
	})

	seen := make(map[string]bool)
	unique := make([]Entry, 0, len(matched))
	for _, e := range matched {
		if seen[e.Command] {
			continue
		}
		seen[e.Command] = true
		unique = append(unique, e)
	}

	return unique
}

type record struct {
	Command   string `json:"command" yaml:"command"`
	Request   string `json:"request" yaml:"request"`
	Timestamp int64  `json:"timestamp" yaml:"timestamp"`
}

// Write prints entries to w in the given mode
func Write(w io.Writer, entries []Entry, mode Mode) error {
	switch mode {
	case ModeCommands:
		for _, e := range entries {
			if _, err := fmt.Fprintln(w, e.Command); err != nil {
				return err
			}
		}
		return nil

	case ModeInteractive:
		for _, e := range entries {
			if _, err := fmt.Fprintf(w, "%s\t# %s\n", e.Command, e.Request); err != nil {
				return err
			}
		}
		return nil

	case ModeJSON:
		data, err := json.MarshalIndent(records(entries), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal history: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err

	case ModeYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records(entries)); err != nil {
			return fmt.Errorf("failed to marshal history: %w", err)
		}
		return enc.Close()

	default:
		return fmt.Errorf("unknown history mode: %s", mode)
	}
}

func records(entries []Entry) []record {
	out := make([]record, len(entries))
	for i, e := range entries {
		out[i] = record{Command: e.Command, Request: e.Request, Timestamp: e.Timestamp}
	}
	return out
}
