// Package registry is the pub/sub layer that fans live events out to
// connected sessions. Topics are runtime-only routing keys: one global
// list topic plus one topic per note.
package registry

// AllNotesTopic receives note_created / note_deleted events for the list view.
const AllNotesTopic = "all-notes"

// NoteTopic returns the broadcast topic for a single note.
func NoteTopic(noteID string) string {
	return "note:" + noteID
}

// Subscriber is an open connection registered on a topic. Deliver must not
// block; slow consumers are expected to drop themselves rather than stall
// the broadcaster.
type Subscriber interface {
	Deliver(payload []byte)
}

// Registry tracks topic membership and routes broadcasts. Join and Leave are
// idempotent. Broadcast delivers to each member at call time exactly once;
// no acknowledgment is awaited.
type Registry interface {
	Join(topic string, sub Subscriber)
	Leave(topic string, sub Subscriber)
	Broadcast(topic string, payload []byte) error
}
