// Package filter decides which windows are managed, by WM_CLASS.
package filter

import (
	"strings"
	"sync"

	"github.com/1broseidon/tilestate/internal/config"
)

// Filter matches window classes case-insensitively.
type Filter struct {
	mu      sync.RWMutex
	include map[string]bool
	exclude map[string]bool
}

// New creates a filter from the manage section of the config.
func New(m config.Manage) *Filter {
	f := &Filter{}
	f.Update(m)
	return f
}

// Update replaces the class lists.
func (f *Filter) Update(m config.Manage) {
	include := classSet(m.IncludeClasses)
	exclude := classSet(m.ExcludeClasses)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.include = include
	f.exclude = exclude
}

// Manages reports whether a window of the given class should be managed.
func (f *Filter) Manages(class string) bool {
	class = strings.ToLower(class)

	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.exclude[class] {
		return false
	}
	return len(f.include) == 0 || f.include[class]
}

func classSet(classes []string) map[string]bool {
	set := make(map[string]bool, len(classes))
	for _, class := range classes {
		set[strings.ToLower(strings.TrimSpace(class))] = true
	}
	return set
}
