package registry

import "sync"

// Memory is the single-process Registry. It is the production registry when
// the server runs as one instance, and the backing delivery map for the
// Redis registry when it does not.
type Memory struct {
	mu     sync.RWMutex
	topics map[string]map[Subscriber]struct{}
}

func NewMemory() *Memory {
	return &Memory{
		topics: make(map[string]map[Subscriber]struct{}),
	}
}

func (m *Memory) Join(topic string, sub Subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()

	members, ok := m.topics[topic]
	if !ok {
		members = make(map[Subscriber]struct{})
		m.topics[topic] = members
	}
	members[sub] = struct{}{}
}

func (m *Memory) Leave(topic string, sub Subscriber) {
	m.mu.Lock()
	defer m.mu.Unlock()

	members, ok := m.topics[topic]
	if !ok {
		return
	}
	delete(members, sub)
	if len(members) == 0 {
		delete(m.topics, topic)
	}
}

// Broadcast delivers payload to a snapshot of the topic's members taken at
// call time. Members joining or leaving concurrently may or may not see this
// message; stable members see it exactly once.
func (m *Memory) Broadcast(topic string, payload []byte) error {
	m.mu.RLock()
	members := make([]Subscriber, 0, len(m.topics[topic]))
	for sub := range m.topics[topic] {
		members = append(members, sub)
	}
	m.mu.RUnlock()

	for _, sub := range members {
		sub.Deliver(payload)
	}
	return nil
}

// Members reports the current size of a topic's membership.
func (m *Memory) Members(topic string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.topics[topic])
}
