package cart

import (
	"context"
	"sync"
)

// MemorySnapshots keeps snapshots in process memory. Used in tests and when
// the engine runs without a database.
type MemorySnapshots struct {
	mu   sync.Mutex
	data map[string][]Line
}

func NewMemorySnapshots() *MemorySnapshots {
	return &MemorySnapshots{data: make(map[string][]Line)}
}

func (m *MemorySnapshots) Load(_ context.Context, key string) ([]Line, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lines, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	out := make([]Line, len(lines))
	copy(out, lines)
	return out, nil
}

func (m *MemorySnapshots) Save(_ context.Context, key string, lines []Line) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]Line, len(lines))
	copy(stored, lines)
	m.data[key] = stored
	return nil
}
