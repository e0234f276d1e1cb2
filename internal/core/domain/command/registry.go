package command

import (
	"fmt"
	"restorebot/internal/core/domain"
	"restorebot/internal/core/port"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Registry maps command words such as "/restore" to their handlers. The zero value is ready to use.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]port.Command
}

func NewRegistry(handlers ...port.Command) *Registry {
	r := &Registry{}
	for _, h := range handlers {
		r.Register(h)
	}
	return r
}

// Register adds handler under its lower-cased command word. A later handler for the same word replaces
// the earlier one.
func (r *Registry) Register(handler port.Command) {
	name := strings.ToLower(handler.GetCommand())

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.commands == nil {
		r.commands = make(map[string]port.Command)
	}
	if _, ok := r.commands[name]; ok {
		log.Warn().Str("command", name).Msg("replacing command handler")
	}

	log.Info().Str("command", name).Msg("registered command")
	r.commands[name] = handler
}

func (r *Registry) Get(command string) (port.Command, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	handler, ok := r.commands[command]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownCommand, command)
	}

	return handler, nil
}

// ListCommands returns the registered command words in alphabetical order.
func (r *Registry) ListCommands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	slices.Sort(names)

	return names
}

// ParseCommand returns the lower-cased command word of text, without a trailing @botname mention.
func ParseCommand(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}

	name, _, _ := strings.Cut(fields[0], "@")
	return strings.ToLower(name)
}

// CommandArgs returns the words following the command word. Captions may separate them with newlines.
func CommandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return nil
	}
	return fields[1:]
}
