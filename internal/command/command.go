// Package command defines the operations the sgf tool can perform.
package command

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknown is returned when a command name is not recognized.
var ErrUnknown = errors.New("unknown command")

// Command identifies a tool operation.
type Command uint8

const (
	List Command = iota
	Add
	Dump
	Update
	Inspect
)

// Default is the command run when none is given.
const Default = Dump

// names is the single mapping between commands and their string form.
var names = [...]string{
	List:    "list",
	Add:     "add",
	Dump:    "dump",
	Update:  "update",
	Inspect: "inspect",
}

// String returns the command name.
func (c Command) String() string {
	if int(c) < len(names) {
		return names[c]
	}
	return "unknown"
}

// Parse returns the command named by s. Matching is case-insensitive.
func Parse(s string) (Command, error) {
	token := strings.ToLower(strings.TrimSpace(s))
	for c, name := range names {
		if name == token {
			return Command(c), nil //nolint:gosec // bounded by len(names)
		}
	}
	return Default, fmt.Errorf("%w %q (want one of: %s)", ErrUnknown, s, strings.Join(Names(), ", "))
}

// Names returns every command name in declaration order.
func Names() []string {
	return append([]string(nil), names[:]...)
}

// Set implements pflag.Value.
func (c *Command) Set(s string) error {
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Type implements pflag.Value.
func (c *Command) Type() string { return "command" }

// NeedsOutput reports whether the command writes a new container.
func (c Command) NeedsOutput() bool {
	return c == Add || c == Update
}

// NeedsEntry reports whether the command operates on one member.
func (c Command) NeedsEntry() bool {
	return c == Add || c == Update || c == Dump
}
