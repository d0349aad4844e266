package registry

import (
	"context"
	"sync"
)

// Memory is an in-process Registry.
type Memory struct {
	mu      sync.RWMutex
	entries []Entry
}

// NewMemory returns an empty in-process registry.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) List(_ context.Context) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

func (m *Memory) Lookup(_ context.Context, name string) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := Match(m.entries, name)
	if !ok {
		return Entry{}, notFound(name)
	}
	return e, nil
}

func (m *Memory) Create(_ context.Context, name, url string) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := checkUnique(m.entries, name, url); err != nil {
		return Entry{}, err
	}
	e := newEntry(name, url)
	m.entries = append(m.entries, e)
	return e, nil
}

func (m *Memory) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.entries {
		if e.Name == name {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return nil
		}
	}
	return notFound(name)
}

func (m *Memory) Close() error {
	return nil
}
