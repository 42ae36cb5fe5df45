package queue

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/muratoffalex/emotebot/internal/events"
)

var (
	ErrEmptyCommandName = errors.New("command name cannot be empty")
	ErrDuplicateCommand = errors.New("command already registered")
)

type namedEventHandler struct {
	name    string
	handler EventHandler
}

// Registry maps command names and event kinds to their handlers. It replaces
// runtime handler discovery: everything is registered explicitly at startup.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]CommandHandler
	aliases  map[string]string
	events   map[events.Kind][]namedEventHandler
	log      LogHandler
}

func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]CommandHandler),
		aliases:  make(map[string]string),
		events:   make(map[events.Kind][]namedEventHandler),
	}
}

func (r *Registry) RegisterCommand(name string, aliases []string, handler CommandHandler) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return ErrEmptyCommandName
	}
	if handler == nil {
		return fmt.Errorf("command %q: nil handler", name)
	}

	normalized := make([]string, 0, len(aliases))
	for _, alias := range aliases {
		alias = strings.ToLower(strings.TrimSpace(alias))
		if alias == "" {
			return fmt.Errorf("command %q: %w", name, ErrEmptyCommandName)
		}
		if alias == name || slices.Contains(normalized, alias) {
			return fmt.Errorf("%w: alias %s repeated for %s", ErrDuplicateCommand, alias, name)
		}
		normalized = append(normalized, alias)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.taken(name) {
		return fmt.Errorf("%w: %s", ErrDuplicateCommand, name)
	}
	for _, alias := range normalized {
		if r.taken(alias) {
			return fmt.Errorf("%w: alias %s", ErrDuplicateCommand, alias)
		}
	}

	r.commands[name] = handler
	for _, alias := range normalized {
		r.aliases[alias] = name
	}
	return nil
}

// taken must be called with r.mu held.
func (r *Registry) taken(name string) bool {
	_, isCommand := r.commands[name]
	_, isAlias := r.aliases[name]
	return isCommand || isAlias
}

// RegisterEvent appends handler to the fan-out list for kind. Handlers run in
// registration order.
func (r *Registry) RegisterEvent(name string, kind events.Kind, handler EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events[kind] = append(r.events[kind], namedEventHandler{name: name, handler: handler})
}

func (r *Registry) SetLogHandler(handler LogHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.log = handler
}

func (r *Registry) ResolveCommand(name string) (CommandHandler, bool) {
	name = strings.ToLower(name)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if target, ok := r.aliases[name]; ok {
		name = target
	}
	handler, ok := r.commands[name]
	return handler, ok
}

func (r *Registry) eventHandlers(kind events.Kind) []namedEventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return slices.Clone(r.events[kind])
}

func (r *Registry) logHandler() LogHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.log
}

// Commands returns the registered command names, sorted.
func (r *Registry) Commands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
