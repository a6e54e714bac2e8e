// Package sink implements spec.md §4.6's ResultSink and the concrete
// destinations a decode session can commit FieldRecords to. The
// registry pattern mirrors how the teacher repo's adapter package
// looks up a hardware backend by name: a host picks a sink by name at
// config time rather than the core packages knowing about any
// concrete destination.
package sink

import (
	"fmt"
	"sync"

	"github.com/flexray-tools/analyzer/frame"
)

// Packet is one committed frame's records, numbered in commit order.
type Packet struct {
	ID      uint64
	Records []frame.FieldRecord
}

// Memory is the simplest frame.Sink: it buffers committed packets in
// memory. It backs tests and is the default sink for decode runs,
// since the shipped configuration's export format is "memory".
type Memory struct {
	mu        sync.Mutex
	nextID    uint64
	building  []frame.FieldRecord
	open      bool
	Packets   []Packet
}

// NewMemory returns an empty Memory sink.
func NewMemory() *Memory { return &Memory{} }

// OpenPacket implements frame.Sink.
func (m *Memory) OpenPacket() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.open = true
	m.building = m.building[:0]
}

// Commit implements frame.Sink.
func (m *Memory) Commit(record frame.FieldRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.building = append(m.building, record)
}

// CommitPacket implements frame.Sink. It returns the new packet's ID.
func (m *Memory) CommitPacket() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	records := make([]frame.FieldRecord, len(m.building))
	copy(records, m.building)
	m.Packets = append(m.Packets, Packet{ID: id, Records: records})
	m.building = m.building[:0]
	m.open = false
	return id
}

// CancelPacket implements frame.Sink.
func (m *Memory) CancelPacket() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.building = m.building[:0]
	m.open = false
}

// IsOpen reports whether a packet is currently being built. Used by
// tests asserting OpenPacket/CommitPacket/CancelPacket pairing.
func (m *Memory) IsOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

// Multi fans every call out to all of its member sinks, in order, so
// a decode session can commit to a durable export and a live viewer
// at the same time.
type Multi []frame.Sink

// OpenPacket implements frame.Sink.
func (m Multi) OpenPacket() {
	for _, s := range m {
		s.OpenPacket()
	}
}

// Commit implements frame.Sink.
func (m Multi) Commit(record frame.FieldRecord) {
	for _, s := range m {
		s.Commit(record)
	}
}

// CommitPacket implements frame.Sink. It returns the last member's ID.
func (m Multi) CommitPacket() uint64 {
	var id uint64
	for _, s := range m {
		id = s.CommitPacket()
	}
	return id
}

// CancelPacket implements frame.Sink.
func (m Multi) CancelPacket() {
	for _, s := range m {
		s.CancelPacket()
	}
}

// Factory builds a frame.Sink from a destination string, whose
// meaning is factory-specific (a file path, "-" for stdout, etc).
type Factory func(destination string) (frame.Sink, error)

var (
	registryMu sync.Mutex
	registry   = map[string]Factory{}
)

// Register adds a named sink factory, callable from config or the
// CLI's --format flag. Panics on a duplicate name, the same
// programmer-error guard the teacher's adapter registry skips but
// cobra's own command registration uses.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("sink: factory %q already registered", name))
	}
	registry[name] = factory
}

// Open builds the named sink for destination. name must have been
// registered by an import's init, such as export.CSV or export.YAML.
func Open(name, destination string) (frame.Sink, error) {
	registryMu.Lock()
	factory, ok := registry[name]
	registryMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("sink: no factory registered for %q", name)
	}
	return factory(destination)
}

func init() {
	Register("memory", func(string) (frame.Sink, error) { return NewMemory(), nil })
}
