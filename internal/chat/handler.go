package chat

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"travelxguide/internal/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all for now (Dev mode)
	},
}

type Handler struct {
	hub   *Hub
	store Store
}

func NewHandler(hub *Hub, store Store) *Handler {
	return &Handler{
		hub:   hub,
		store: store,
	}
}

// ServeWs upgrades an authenticated request to a websocket and hands the
// connection to the hub.
func (h *Handler) ServeWs(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(middleware.UserKey).(int)
	name, ok2 := r.Context().Value(middleware.NameKey).(string)
	if !ok || !ok2 {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade", slog.Any("error", err))
		return
	}

	client := newClient(h.hub, conn, userID, name)
	h.hub.RegisterClient(client)

	go client.writePump()
	go client.readPump()
}

// History serves a room's persisted messages in creation order.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "roomID")
	if roomID == "" {
		respondError(w, http.StatusBadRequest, "room id is required")
		return
	}

	messages, err := h.store.ListByRoom(r.Context(), roomID)
	if err != nil {
		slog.Error("list messages", slog.Any("error", err), slog.String("room_id", roomID))
		respondError(w, http.StatusInternalServerError, "Failed to fetch messages")
		return
	}

	if messages == nil {
		messages = []*Message{}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"messages": messages,
	})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]any{
		"success": false,
		"message": msg,
	})
}
