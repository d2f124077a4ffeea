package bank

import (
	"errors"
	"fmt"
	"sort"
)

var ErrUnknownBank = errors.New("unknown bank code")

// Entry binds a bank code to its provider and the prefix its virtual
// account numbers carry.
type Entry struct {
	Code          string
	Name          string
	AccountPrefix string
	Provider      Provider
}

// Registry maps bank codes to providers. Adding a bank means registering an
// implementation, not branching on the code elsewhere.
type Registry struct {
	entries map[string]Entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

func (r *Registry) Register(entry Entry) error {
	if entry.Code == "" {
		return errors.New("bank code is required")
	}
	if entry.Provider == nil {
		return errors.New("provider is required")
	}
	if _, exists := r.entries[entry.Code]; exists {
		return fmt.Errorf("bank %q already registered", entry.Code)
	}
	r.entries[entry.Code] = entry
	return nil
}

func (r *Registry) Lookup(code string) (Entry, error) {
	entry, ok := r.entries[code]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownBank, code)
	}
	return entry, nil
}

// Codes returns the registered bank codes in stable order.
func (r *Registry) Codes() []string {
	codes := make([]string, 0, len(r.entries))
	for code := range r.entries {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
