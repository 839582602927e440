// Package catalog serves the enumerated choice lists shown by intake stage
// forms. Lists ship with built-in defaults and can be replaced from YAML.
package catalog

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/consult-portal/internal/models"
)

// ErrUnknownChoice is returned when an answer is not a choice of its list
var ErrUnknownChoice = errors.New("unknown choice")

// Loader manages loading and caching of option lists
type Loader struct {
	mu    sync.RWMutex
	lists map[string]*models.OptionList
}

// NewLoader creates a loader seeded with the built-in lists
func NewLoader() *Loader {
	l := &Loader{lists: make(map[string]*models.OptionList)}
	for _, list := range defaultLists() {
		l.lists[list.Name] = list
	}
	return l
}

// LoadFromDir loads every YAML list in dir, replacing lists of the same name
func (l *Loader) LoadFromDir(dir string) error {
	slog.Info("loading option lists from directory", "dir", dir)

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			continue
		}
		files = append(files, matches...)
	}

	loaded := 0
	for _, file := range files {
		if err := l.LoadFromFile(file); err != nil {
			slog.Warn("failed to load option list", "file", file, "error", err)
			continue
		}
		loaded++
	}

	slog.Info("option lists loaded", "count", loaded, "total_files", len(files))
	return nil
}

// LoadFromFile loads a single option list from a YAML file
func (l *Loader) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var list models.OptionList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	if list.Name == "" {
		return fmt.Errorf("option list name is required")
	}
	if len(list.Choices) == 0 {
		return fmt.Errorf("option list %s has no choices", list.Name)
	}

	seen := make(map[string]bool, len(list.Choices))
	for i, c := range list.Choices {
		if c.Value == "" {
			return fmt.Errorf("option list %s: choice %d has no value", list.Name, i)
		}
		if seen[c.Value] {
			return fmt.Errorf("option list %s: duplicate value %q", list.Name, c.Value)
		}
		seen[c.Value] = true
		if c.Label == "" {
			list.Choices[i].Label = c.Value
		}
	}

	l.mu.Lock()
	l.lists[list.Name] = &list
	l.mu.Unlock()

	slog.Info("option list loaded", "name", list.Name, "choices", len(list.Choices))
	return nil
}

// Get retrieves a list by name
func (l *Loader) Get(name string) *models.OptionList {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lists[name]
}

// List returns all lists sorted by name
func (l *Loader) List() []*models.OptionList {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*models.OptionList, 0, len(l.lists))
	for _, list := range l.lists {
		result = append(result, list)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Contains reports whether value is a choice of the named list
func (l *Loader) Contains(name, value string) bool {
	return l.Get(name).Contains(value)
}

// CheckAnswers verifies every answer whose field name has an option list.
// Strings and string elements of arrays must be choices of that list; nil
// values and fields without a list are not checked.
func (l *Loader) CheckAnswers(data map[string]interface{}) error {
	fields := make([]string, 0, len(data))
	for field := range data {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var bad []string
	for _, field := range fields {
		list := l.Get(field)
		if list == nil {
			continue
		}

		var values []string
		switch v := data[field].(type) {
		case string:
			values = []string{v}
		case []string:
			values = v
		case []interface{}:
			for _, item := range v {
				if s, ok := item.(string); ok {
					values = append(values, s)
				}
			}
		}

		for _, value := range values {
			if !list.Contains(value) {
				bad = append(bad, fmt.Sprintf("%s=%q", field, value))
			}
		}
	}

	if len(bad) > 0 {
		return fmt.Errorf("%w: %s", ErrUnknownChoice, strings.Join(bad, ", "))
	}
	return nil
}
