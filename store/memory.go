package store

import (
	"context"
	"sync"
	"time"

	"github.com/MrEthical07/goSession/identity"
)

// MemoryPrimary keeps the credential slot in process memory.
type MemoryPrimary struct {
	mu        sync.Mutex
	value     string
	expiresAt time.Time
	opts      options
}

// NewMemoryPrimary creates an empty in-memory primary slot.
func NewMemoryPrimary(opts ...Option) *MemoryPrimary {
	return &MemoryPrimary{opts: applyOptions(opts)}
}

func (m *MemoryPrimary) SetPrimary(_ context.Context, raw string, ttl time.Duration) error {
	if err := checkCredential(raw, ttl, m.opts.maxBytes); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = raw
	m.expiresAt = m.opts.now().Add(ttl)
	return nil
}

func (m *MemoryPrimary) GetPrimary(context.Context) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.value == "" {
		return "", false, nil
	}
	if !m.opts.now().Before(m.expiresAt) {
		m.value = ""
		m.expiresAt = time.Time{}
		return "", false, nil
	}
	return m.value, true, nil
}

func (m *MemoryPrimary) ClearPrimary(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = ""
	m.expiresAt = time.Time{}
	return nil
}

// MemoryShadow keeps shadow records in process memory. The map itself is the
// namespace index, so scans never see foreign keys.
type MemoryShadow struct {
	mu      sync.Mutex
	records map[string][]byte
	opts    options
}

// NewMemoryShadow creates an empty in-memory shadow store.
func NewMemoryShadow(opts ...Option) *MemoryShadow {
	return &MemoryShadow{
		records: make(map[string][]byte),
		opts:    applyOptions(opts),
	}
}

func (m *MemoryShadow) SetShadow(_ context.Context, user identity.Identity, expiresAt time.Time) error {
	if user.ID == "" {
		return ErrMissingID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.opts.now().Before(expiresAt) {
		delete(m.records, user.ID)
		return nil
	}
	data, err := encodeEntry(user, expiresAt)
	if err != nil {
		return err
	}
	m.records[user.ID] = data
	return nil
}

func (m *MemoryShadow) GetShadow(_ context.Context, id string) (ShadowEntry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.liveLocked(id, m.opts.now())
}

func (m *MemoryShadow) RemoveShadow(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
	return nil
}

func (m *MemoryShadow) ScanShadow(context.Context) ([]ShadowEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.opts.now()
	entries := make([]ShadowEntry, 0, len(m.records))
	for id := range m.records {
		entry, ok, _ := m.liveLocked(id, now)
		if ok {
			entries = append(entries, entry)
		}
	}
	sortEntries(entries)
	return entries, nil
}

func (m *MemoryShadow) PurgeShadow(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.records)
	return nil
}

// Len returns the number of stored records, including not yet collected garbage.
func (m *MemoryShadow) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func (m *MemoryShadow) liveLocked(id string, now time.Time) (ShadowEntry, bool, error) {
	data, ok := m.records[id]
	if !ok {
		return ShadowEntry{}, false, nil
	}
	entry, ok := decodeEntry(id, data)
	if !ok || !entry.LiveAt(now) {
		delete(m.records, id)
		return ShadowEntry{}, false, nil
	}
	return entry, true, nil
}
