package websocket

import "encoding/json"

type MessageType string

const (
	// TypeEdit is the only inbound type a note session accepts.
	TypeEdit MessageType = "edit"

	// Outbound types. Field names on the wire are fixed for client
	// compatibility.
	TypeUpdate      MessageType = "update"
	TypeNoteCreated MessageType = "note_created"
	TypeNoteDeleted MessageType = "note_deleted"
)

// Inbound is the client->server message shape. Content is a pointer so a
// missing field can be told apart from an empty string and dropped.
type Inbound struct {
	Type    MessageType `json:"type"`
	Content *string     `json:"content"`
}

type UpdateMessage struct {
	Type     MessageType `json:"type"`
	Content  string      `json:"content"`
	SenderID *string     `json:"sender_id"`
}

type NoteCreatedMessage struct {
	Type MessageType `json:"type"`
	Note interface{} `json:"note"`
}

type NoteDeletedMessage struct {
	Type   MessageType `json:"type"`
	NoteID string      `json:"note_id"`
}

// EncodeUpdate builds the live-edit broadcast payload. senderID is null on
// the wire when empty.
func EncodeUpdate(content, senderID string) ([]byte, error) {
	msg := UpdateMessage{Type: TypeUpdate, Content: content}
	if senderID != "" {
		msg.SenderID = &senderID
	}
	return json.Marshal(msg)
}

func EncodeNoteCreated(note interface{}) ([]byte, error) {
	return json.Marshal(NoteCreatedMessage{Type: TypeNoteCreated, Note: note})
}

func EncodeNoteDeleted(noteID string) ([]byte, error) {
	return json.Marshal(NoteDeletedMessage{Type: TypeNoteDeleted, NoteID: noteID})
}
