package pipeline

import (
	"fmt"
	"sort"
	"sync"

	"document-converter/internal/mediatype"
)

type registration struct {
	pattern mediatype.Pattern
	steps   []Step
}

// Registry maps actions to ordered (media type pattern, steps) entries.
// Resolve is safe for concurrent use; Register and Clear are meant for setup.
type Registry struct {
	mu      sync.RWMutex
	entries map[string][]registration
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string][]registration)}
}

// Register appends an entry for action. Earlier entries win on Resolve.
func (r *Registry) Register(action, pattern string, steps ...Step) error {
	if action == "" {
		return fmt.Errorf("register: empty action")
	}
	p, err := mediatype.Compile(pattern)
	if err != nil {
		return fmt.Errorf("register %s: %w", action, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[action] = append(r.entries[action], registration{
		pattern: p,
		steps:   append([]Step(nil), steps...),
	})
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(action, pattern string, steps ...Step) {
	if err := r.Register(action, pattern, steps...); err != nil {
		panic(err)
	}
}

// Resolve returns the steps of the first entry for action whose pattern
// matches mediaType.
func (r *Registry) Resolve(action, mediaType string) ([]Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, reg := range r.entries[action] {
		if reg.pattern.Match(mediaType) {
			return reg.steps, nil
		}
	}
	return nil, &TaskNotFoundError{Action: action, MediaType: mediaType}
}

// Clear drops every entry for action.
func (r *Registry) Clear(action string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, action)
}

// Actions lists registered actions in sorted order.
func (r *Registry) Actions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.entries))
	for action := range r.entries {
		out = append(out, action)
	}
	sort.Strings(out)
	return out
}

// Patterns lists the media type patterns registered for action, in
// resolution order.
func (r *Registry) Patterns(action string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	regs := r.entries[action]
	out := make([]string, 0, len(regs))
	for _, reg := range regs {
		out = append(out, reg.pattern.String())
	}
	return out
}
