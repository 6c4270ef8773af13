package handler

import (
	"log"
	"net/http"

	"collabnotes-server/internal/config"
	"collabnotes-server/internal/registry"
	"collabnotes-server/internal/websocket"
	"collabnotes-server/pkg/jwt"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	ws "github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	registry  registry.Registry
	jwtSecret string
	timings   websocket.Timings
	upgrader  ws.Upgrader
}

func NewWebSocketHandler(reg registry.Registry, jwtSecret string, cfg config.WebSocketConfig) *WebSocketHandler {
	return &WebSocketHandler{
		registry:  reg,
		jwtSecret: jwtSecret,
		timings: websocket.Timings{
			WriteWait:      cfg.WriteWait,
			PongWait:       cfg.PongWait,
			PingPeriod:     cfg.PingPeriod,
			MaxMessageSize: cfg.MaxMessageSize,
		},
		upgrader: ws.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// HandleList serves the note-list feed. Anonymous connections are tolerated
// here; the write APIs feeding this topic enforce auth themselves. The
// session is receive-only: it relays note_created / note_deleted and ignores
// everything the client sends.
func (h *WebSocketHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, _ := h.identify(r)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WebSocket] Failed to upgrade connection: %v", err)
		return
	}

	h.open(websocket.NewClient(uuid.New().String(), userID, registry.AllNotesTopic, true, conn, h.registry, h.timings))
}

// HandleNote serves the per-note live channel. A valid identity is required
// before any group is joined; on failure the connection is refused outright.
func (h *WebSocketHandler) HandleNote(w http.ResponseWriter, r *http.Request) {
	userID, err := h.identify(r)
	if err != nil {
		log.Printf("[WebSocket] Rejected note connection: %v", err)
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	noteID := mux.Vars(r)["note_id"]

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WebSocket] Failed to upgrade connection: %v", err)
		return
	}

	h.open(websocket.NewClient(uuid.New().String(), userID, registry.NoteTopic(noteID), false, conn, h.registry, h.timings))
}

func (h *WebSocketHandler) open(client *websocket.Client) {
	h.registry.Join(client.Topic, client)
	log.Printf("client %s joined %s", client.ID, client.Topic)

	go client.WritePump()
	go client.ReadPump()
}

// identify resolves the connection's identity from the token query parameter
// or a bearer header.
func (h *WebSocketHandler) identify(r *http.Request) (string, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = r.Header.Get("Authorization")
		if len(token) > 7 && token[:7] == "Bearer " {
			token = token[7:]
		}
	}

	claims, err := jwt.ValidateToken(token, h.jwtSecret)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}
