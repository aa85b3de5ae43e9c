package config

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Manager holds nested configuration addressed with dot paths such as
// "database.connections.sqlite.database".
type Manager struct {
	mu     sync.RWMutex
	config map[string]any
}

func NewManager() *Manager {
	return &Manager{config: make(map[string]any)}
}

// Load replaces the whole configuration.
func (m *Manager) Load(data map[string]any) {
	if data == nil {
		data = make(map[string]any)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.config = data
}

// Set stores value at key, creating intermediate maps. A scalar on the way is
// replaced by a map.
func (m *Manager) Set(key string, value any) {
	if key == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	parts := strings.Split(key, ".")
	node := m.config
	for _, part := range parts[:len(parts)-1] {
		child, ok := node[part].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[part] = child
		}
		node = child
	}
	node[parts[len(parts)-1]] = value
}

// Get returns the value at key, or nil.
func (m *Manager) Get(key string) any {
	if key == "" {
		return nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var current any = m.config
	for _, part := range strings.Split(key, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		if current, ok = node[part]; !ok {
			return nil
		}
	}
	return current
}

func (m *Manager) Has(key string) bool {
	return m.Get(key) != nil
}

func (m *Manager) GetString(key string) string {
	switch v := m.Get(key).(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (m *Manager) GetInt(key string) int {
	return int(m.GetInt64(key))
}

// GetInt64 accepts YAML integers, floats and numeric strings.
func (m *Manager) GetInt64(key string) int64 {
	switch v := m.Get(key).(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case uint64:
		return int64(v)
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n
	default:
		return 0
	}
}

// GetBool accepts booleans and strconv.ParseBool strings.
func (m *Manager) GetBool(key string) bool {
	switch v := m.Get(key).(type) {
	case bool:
		return v
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(v))
		return b
	default:
		return false
	}
}

// GetAll returns the underlying map; callers must not modify it.
func (m *Manager) GetAll() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

var global = NewManager()

// InitializeGlobal replaces the global configuration with data.
func InitializeGlobal(data map[string]any) {
	global.Load(data)
}

// LoadGlobal loads every YAML file of dir into the global configuration.
func LoadGlobal(dir string) error {
	data, err := NewLoader(dir).Load()
	if err != nil {
		return err
	}
	InitializeGlobal(data)
	return nil
}

func GetGlobal() *Manager {
	return global
}
