package mockapi

import (
	"sync"
	"time"
)

// store is the in-memory state backing the mock API. Everything is lost on
// restart, which is the point: each test run starts clean.
type store struct {
	mu      sync.RWMutex
	devices map[string]map[string]any
	rules   map[string]map[string]any
}

func newStore() *store {
	return &store{
		devices: make(map[string]map[string]any),
		rules:   make(map[string]map[string]any),
	}
}

func (s *store) listDevices() []map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]map[string]any, 0, len(s.devices))
	for _, d := range s.devices {
		out = append(out, cloneDoc(d))
	}
	return out
}

func (s *store) getDevice(id string) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.devices[id]
	if !ok {
		return nil, false
	}
	return cloneDoc(d), true
}

// putDevice stores a device. Returns false if the id already exists and
// replace is not set.
func (s *store) putDevice(id string, doc map[string]any, replace bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.devices[id]; exists && !replace {
		return false
	}
	s.devices[id] = cloneDoc(doc)
	return true
}

func (s *store) deleteDevice(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.devices[id]; !ok {
		return false
	}
	delete(s.devices, id)
	return true
}

func (s *store) listRules() []map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]map[string]any, 0, len(s.rules))
	for _, r := range s.rules {
		out = append(out, cloneDoc(r))
	}
	return out
}

func (s *store) getRule(id string) (map[string]any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rules[id]
	if !ok {
		return nil, false
	}
	return cloneDoc(r), true
}

func (s *store) putRule(id string, doc map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules[id] = cloneDoc(doc)
}

// patchRule merges the given fields into an existing rule.
func (s *store) patchRule(id string, fields map[string]any) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rules[id]
	if !ok {
		return nil, false
	}
	for k, v := range fields {
		r[k] = v
	}
	r["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	return cloneDoc(r), true
}

func (s *store) deleteRule(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[id]; !ok {
		return false
	}
	delete(s.rules, id)
	return true
}

func (s *store) counts() (devices, rules int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.devices), len(s.rules)
}

// cloneDoc shallow-copies a document so callers cannot mutate stored state.
func cloneDoc(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
