package handlers

import (
	"log"
	"net/http"

	"github.com/Dosada05/tournament-engine/events"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub      *events.Hub
	upgrader websocket.Upgrader
}

// NewWebSocketHandler: allowedOrigins ["*"] пускает всех.
func NewWebSocketHandler(hub *events.Hub, allowedOrigins []string) *WebSocketHandler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// ServeInstance подписывает клиента на события одного слота.
// Клиент подключается к /ws/tiers/{tierID}/instances/{instanceID}
func (h *WebSocketHandler) ServeInstance(w http.ResponseWriter, r *http.Request) {
	tierID, instanceID, err := getSlotFromURL(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.serve(w, r, events.RoomFor(tierID, instanceID))
}

// ServeLobby подписывает клиента на все события.
func (h *WebSocketHandler) ServeLobby(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, events.LobbyRoom)
}

func (h *WebSocketHandler) serve(w http.ResponseWriter, r *http.Request, roomID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отправляет HTTP ошибку клиенту
		log.Printf("Failed to upgrade connection for room %s: %v", roomID, err)
		return
	}

	client := &events.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: roomID,
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()

	log.Printf("Client registered and pumps started for room %s.", roomID)
}
