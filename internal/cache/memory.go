package cache

import "sync"

// Memory is an in-process Store. It counts operations so tests can assert on cache traffic.
type Memory struct {
	mu      sync.Mutex
	entries map[string]string
	gets    int
	puts    int
}

func NewMemory() *Memory {
	return &Memory{entries: map[string]string{}}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	v, ok := m.entries[key]
	return v, ok, nil
}

func (m *Memory) Put(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.puts++
	m.entries[key] = value
	return nil
}

func (m *Memory) Stats() (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Stats{Backend: BackendMemory, Entries: len(m.entries)}
	for _, v := range m.entries {
		s.Bytes += int64(len(v))
	}
	return s, nil
}

// Puts returns how many times Put was called.
func (m *Memory) Puts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

// Gets returns how many times Get was called.
func (m *Memory) Gets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gets
}

func (m *Memory) Close() error { return nil }
