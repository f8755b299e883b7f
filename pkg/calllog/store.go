package calllog

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Logger is the minimal interface for recording entries.
type Logger interface {
	Log(entry *Entry)
}

// Store records entries and answers queries over them.
type Store interface {
	Logger

	// Get retrieves an entry by ID.
	Get(id string) *Entry

	// List returns entries newest first, optionally filtered.
	List(filter *Filter) []*Entry

	// Clear removes all entries.
	Clear()

	// Count returns the number of entries.
	Count() int

	// Subscribe delivers entries logged after the call. The returned
	// function unsubscribes and closes the channel.
	Subscribe() (Subscriber, func())
}

// Filter defines criteria for selecting entries. Zero fields match anything.
type Filter struct {
	Kind      string
	Operation string

	// Method is compared case-insensitively.
	Method string

	// Path matches the entry path exactly or as a segment prefix.
	Path string

	StatusCode int

	// HasError filters by error presence.
	HasError *bool

	Limit  int
	Offset int
}

// Subscriber receives new entries.
type Subscriber chan *Entry

// Memory is an in-memory Store with FIFO eviction.
type Memory struct {
	mu          sync.RWMutex
	entries     []*Entry
	maxEntries  int
	subMu       sync.RWMutex
	subscribers map[Subscriber]struct{}
}

var _ Store = (*Memory)(nil)

// NewMemory creates a store holding at most maxEntries entries.
func NewMemory(maxEntries int) *Memory {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &Memory{
		entries:     make([]*Entry, 0, min(maxEntries, 64)),
		maxEntries:  maxEntries,
		subscribers: make(map[Subscriber]struct{}),
	}
}

// Log records an entry, assigning an ID and timestamp when missing.
func (m *Memory) Log(entry *Entry) {
	if entry == nil {
		return
	}

	m.mu.Lock()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if entry.Kind == "" {
		entry.Kind = KindRoute
	}
	if len(m.entries) >= m.maxEntries {
		m.entries = m.entries[1:]
	}
	m.entries = append(m.entries, entry)
	m.mu.Unlock()

	m.subMu.RLock()
	for sub := range m.subscribers {
		select {
		case sub <- entry:
		default:
		}
	}
	m.subMu.RUnlock()
}

// Get retrieves an entry by ID.
func (m *Memory) Get(id string) *Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, e := range m.entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}

// List returns entries newest first.
func (m *Memory) List(filter *Filter) []*Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Entry, 0, len(m.entries))
	for i := len(m.entries) - 1; i >= 0; i-- {
		if filter != nil && !filter.matches(m.entries[i]) {
			continue
		}
		result = append(result, m.entries[i])
	}

	if filter != nil {
		if filter.Offset > 0 {
			if filter.Offset >= len(result) {
				return []*Entry{}
			}
			result = result[filter.Offset:]
		}
		if filter.Limit > 0 && filter.Limit < len(result) {
			result = result[:filter.Limit]
		}
	}
	return result
}

// Count returns the number of entries.
func (m *Memory) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// CountMatching returns the number of entries matching filter, ignoring its
// Limit and Offset.
func (m *Memory) CountMatching(filter Filter) int {
	filter.Limit, filter.Offset = 0, 0
	return len(m.List(&filter))
}

// Clear removes all entries.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = m.entries[:0]
}

// Subscribe registers a buffered subscriber. Entries are dropped for slow
// subscribers. Call the returned function to unsubscribe.
func (m *Memory) Subscribe() (Subscriber, func()) {
	sub := make(Subscriber, 64)
	m.subMu.Lock()
	m.subscribers[sub] = struct{}{}
	m.subMu.Unlock()

	var once sync.Once
	return sub, func() {
		once.Do(func() {
			m.subMu.Lock()
			delete(m.subscribers, sub)
			m.subMu.Unlock()
			close(sub)
		})
	}
}

func (f *Filter) matches(e *Entry) bool {
	if f.Kind != "" && e.Kind != f.Kind {
		return false
	}
	if f.Operation != "" && e.Operation != f.Operation {
		return false
	}
	if f.Method != "" && !strings.EqualFold(e.Method, f.Method) {
		return false
	}
	if f.Path != "" && !matchesPathPrefix(e.Path, f.Path) {
		return false
	}
	if f.StatusCode != 0 && e.StatusCode != f.StatusCode {
		return false
	}
	if f.HasError != nil && *f.HasError != e.Failed() {
		return false
	}
	return true
}

// matchesPathPrefix matches whole segments: /items matches /items and
// /items/42 but not /itemsets.
func matchesPathPrefix(path, prefix string) bool {
	if path == prefix {
		return true
	}
	prefix = strings.TrimSuffix(prefix, "/")
	return strings.HasPrefix(path, prefix+"/")
}
