package registry

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

type channelSubscriber struct {
	ch chan []byte
}

func newChannelSubscriber() *channelSubscriber {
	return &channelSubscriber{ch: make(chan []byte, 16)}
}

func (s *channelSubscriber) Deliver(payload []byte) {
	s.ch <- payload
}

func (s *channelSubscriber) wait(t *testing.T) []byte {
	t.Helper()
	select {
	case p := <-s.ch:
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for delivery")
		return nil
	}
}

func setupTestRedis(t *testing.T) *Redis {
	t.Helper()

	m := miniredis.RunT(t)
	reg, err := NewRedis("redis://" + m.Addr())
	if err != nil {
		t.Fatalf("NewRedis() error = %v", err)
	}
	if err := reg.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { reg.Close() })

	return reg
}

func TestRedisBroadcastLoopsBackToLocalSubscriber(t *testing.T) {
	reg := setupTestRedis(t)

	sub := newChannelSubscriber()
	reg.Join("note:1", sub)

	if err := reg.Broadcast("note:1", []byte(`{"type":"update"}`)); err != nil {
		t.Fatalf("Broadcast() error = %v", err)
	}

	if got := string(sub.wait(t)); got != `{"type":"update"}` {
		t.Errorf("unexpected payload: %s", got)
	}
}

func TestRedisTopicsAreIsolated(t *testing.T) {
	reg := setupTestRedis(t)

	noteSub := newChannelSubscriber()
	listSub := newChannelSubscriber()
	reg.Join(NoteTopic("abc"), noteSub)
	reg.Join(AllNotesTopic, listSub)

	if err := reg.Broadcast(AllNotesTopic, []byte("list event")); err != nil {
		t.Fatalf("Broadcast() error = %v", err)
	}

	if got := string(listSub.wait(t)); got != "list event" {
		t.Errorf("unexpected payload: %s", got)
	}

	select {
	case p := <-noteSub.ch:
		t.Errorf("note subscriber received a list event: %s", p)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRedisLeaveStopsDelivery(t *testing.T) {
	reg := setupTestRedis(t)

	sub := newChannelSubscriber()
	reg.Join("note:1", sub)
	reg.Leave("note:1", sub)

	if err := reg.Broadcast("note:1", []byte("m")); err != nil {
		t.Fatalf("Broadcast() error = %v", err)
	}

	select {
	case p := <-sub.ch:
		t.Errorf("received delivery after leave: %s", p)
	case <-time.After(100 * time.Millisecond):
	}

	if got := reg.Members("note:1"); got != 0 {
		t.Errorf("expected 0 members, got %d", got)
	}
}
