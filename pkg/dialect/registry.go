package dialect

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Dialect registry
var (
	dialectsMu     sync.RWMutex
	dialects       = make(map[string]*Dialect)
	extensions     = make(map[string]*Dialect)
	defaultDialect *Dialect
)

// ErrDialectRequired is returned by entry points that were given a nil dialect.
var ErrDialectRequired = errors.New("dialect is required")

// Get looks a dialect up by name, ignoring case.
func Get(name string) (*Dialect, bool) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := dialects[strings.ToLower(name)]
	return d, ok
}

// MustGet returns a dialect by name or an error naming the known dialects.
func MustGet(name string) (*Dialect, error) {
	if d, ok := Get(name); ok {
		return d, nil
	}
	return nil, fmt.Errorf("unknown dialect %q (known: %s)", name, strings.Join(List(), ", "))
}

// Register registers a dialect and its extensions in the global registry.
func Register(d *Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[strings.ToLower(d.Name)] = d
	for _, ext := range d.extensions {
		extensions[ext] = d
	}
}

// SetDefault sets the dialect used when none can be inferred.
func SetDefault(d *Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	defaultDialect = d
}

// Default returns the default dialect.
func Default() *Dialect {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	return defaultDialect
}

// List returns the registered names in sorted order.
func List() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FromFilename returns the dialect registered for the file's extension.
func FromFilename(name string) (*Dialect, bool) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return nil, false
	}
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := extensions[ext]
	return d, ok
}
