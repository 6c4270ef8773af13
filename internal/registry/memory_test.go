package registry

import (
	"fmt"
	"sync"
	"testing"
)

type recordingSubscriber struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (s *recordingSubscriber) Deliver(payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, payload)
}

func (s *recordingSubscriber) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payloads)
}

func (s *recordingSubscriber) last() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.payloads) == 0 {
		return nil
	}
	return s.payloads[len(s.payloads)-1]
}

func TestMemoryBroadcastDeliversToAllMembers(t *testing.T) {
	reg := NewMemory()
	s1 := &recordingSubscriber{}
	s2 := &recordingSubscriber{}

	reg.Join("note:1", s1)
	reg.Join("note:1", s2)

	if err := reg.Broadcast("note:1", []byte("hello")); err != nil {
		t.Fatalf("Broadcast() error = %v", err)
	}

	if s1.count() != 1 || s2.count() != 1 {
		t.Errorf("expected exactly one delivery each, got %d and %d", s1.count(), s2.count())
	}
	if string(s1.last()) != "hello" {
		t.Errorf("unexpected payload: %s", s1.last())
	}
}

func TestMemoryJoinIsIdempotent(t *testing.T) {
	reg := NewMemory()
	sub := &recordingSubscriber{}

	reg.Join("note:1", sub)
	reg.Join("note:1", sub)

	if got := reg.Members("note:1"); got != 1 {
		t.Errorf("expected 1 member after double join, got %d", got)
	}

	reg.Broadcast("note:1", []byte("m"))
	if sub.count() != 1 {
		t.Errorf("expected single delivery, got %d", sub.count())
	}
}

func TestMemoryLeaveIsIdempotent(t *testing.T) {
	reg := NewMemory()
	sub := &recordingSubscriber{}

	reg.Join("note:1", sub)
	reg.Leave("note:1", sub)
	reg.Leave("note:1", sub)

	if got := reg.Members("note:1"); got != 0 {
		t.Errorf("expected 0 members, got %d", got)
	}

	// leaving a topic that never existed must not panic
	reg.Leave("note:ghost", sub)
}

func TestMemoryJoinThenLeaveDeliversNothing(t *testing.T) {
	reg := NewMemory()
	sub := &recordingSubscriber{}

	reg.Join("note:1", sub)
	reg.Leave("note:1", sub)
	reg.Broadcast("note:1", []byte("m"))

	if sub.count() != 0 {
		t.Errorf("expected no deliveries after leave, got %d", sub.count())
	}
}

func TestMemoryTopicsAreIsolated(t *testing.T) {
	reg := NewMemory()
	noteSub := &recordingSubscriber{}
	listSub := &recordingSubscriber{}

	reg.Join(NoteTopic("abc"), noteSub)
	reg.Join(AllNotesTopic, listSub)

	reg.Broadcast(NoteTopic("abc"), []byte("note event"))

	if noteSub.count() != 1 {
		t.Errorf("note subscriber expected 1 delivery, got %d", noteSub.count())
	}
	if listSub.count() != 0 {
		t.Errorf("list subscriber expected 0 deliveries, got %d", listSub.count())
	}
}

func TestMemoryDeliveryOrderPerSubscriber(t *testing.T) {
	reg := NewMemory()
	sub := &recordingSubscriber{}
	reg.Join("note:1", sub)

	for i := 0; i < 50; i++ {
		reg.Broadcast("note:1", []byte(fmt.Sprintf("%d", i)))
	}

	sub.mu.Lock()
	defer sub.mu.Unlock()
	for i, p := range sub.payloads {
		if string(p) != fmt.Sprintf("%d", i) {
			t.Fatalf("delivery %d out of order: got %s", i, p)
		}
	}
}

func TestMemoryConcurrentJoinLeaveBroadcast(t *testing.T) {
	reg := NewMemory()

	stable := &recordingSubscriber{}
	reg.Join("note:1", stable)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sub := &recordingSubscriber{}
			reg.Join("note:1", sub)
			reg.Leave("note:1", sub)
		}()
		go func() {
			defer wg.Done()
			reg.Broadcast("note:1", []byte("m"))
		}()
	}
	wg.Wait()

	if stable.count() != 20 {
		t.Errorf("stable member expected 20 deliveries, got %d", stable.count())
	}
	if got := reg.Members("note:1"); got != 1 {
		t.Errorf("expected only the stable member to remain, got %d", got)
	}
}
