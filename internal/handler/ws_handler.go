package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"notably/config"
	"notably/internal/auth"
	"notably/internal/cache"
	"notably/internal/domain"
	"notably/internal/repository"
	"notably/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type WSHandler struct {
	cfg      *config.JWTConfig
	hub      *ws.Hub
	groups   *repository.GroupRepository
	presence *cache.PresenceCache
}

func NewWSHandler(cfg *config.JWTConfig, hub *ws.Hub, groups *repository.GroupRepository, presence *cache.PresenceCache) *WSHandler {
	return &WSHandler{cfg: cfg, hub: hub, groups: groups, presence: presence}
}

type clientFrame struct {
	Event string `json:"event"`
	Room  string `json:"room,omitempty"`
}

// Serve upgrades the connection and joins the client to its personal room
// plus every group room it is a member of at connect time. Groups joined
// afterwards require a "join" frame or a reconnect.
func (h *WSHandler) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
		return
	}
	claims, err := auth.ParseAccessToken(h.cfg, token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed for user %d: %v", claims.UserID, err)
		return
	}

	client := &ws.Client{
		UserID: claims.UserID,
		Role:   claims.Role,
		Send:   make(chan []byte, sendBufferSize),
	}
	h.hub.Register(client)
	h.hub.Join(client, domain.UserRoom(claims.UserID))

	memberships, err := h.groups.ListMemberships(claims.UserID)
	if err != nil {
		log.Printf("[ws] membership snapshot failed for user %d: %v", claims.UserID, err)
	}
	for _, m := range memberships {
		h.hub.Join(client, domain.GroupRoom(m.GroupID))
	}

	if h.presence != nil {
		if err := h.presence.SetOnline(context.Background(), claims.UserID); err != nil {
			log.Printf("[ws] presence set online user %d: %v", claims.UserID, err)
		}
	}

	go h.writePump(conn, client)
	go h.readPump(conn, client)
}

func (h *WSHandler) readPump(conn *websocket.Conn, client *ws.Client) {
	defer func() {
		client.Close()
		conn.Close()
		if h.presence != nil {
			if err := h.presence.SetOffline(context.Background(), client.UserID); err != nil {
				log.Printf("[ws] presence set offline user %d: %v", client.UserID, err)
			}
		}
	}()
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		if h.presence != nil {
			h.presence.SetOnline(context.Background(), client.UserID)
		}
		return nil
	})
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] read error user %d: %v", client.UserID, err)
			}
			return
		}
		var frame clientFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}
		switch frame.Event {
		case "join":
			h.handleJoin(client, frame.Room)
		case "leave":
			if frame.Room != "" {
				h.hub.Leave(client, frame.Room)
			}
		}
	}
}

// handleJoin admits a client into a group room after a membership check.
// Personal rooms are assigned at connect time and cannot be joined by hand.
func (h *WSHandler) handleJoin(client *ws.Client, room string) {
	groupID, ok := domain.ParseGroupRoom(room)
	if !ok {
		return
	}
	member, err := h.groups.IsMember(groupID, client.UserID)
	if err != nil || !member {
		return
	}
	h.hub.Join(client, room)
}

func (h *WSHandler) writePump(conn *websocket.Conn, client *ws.Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case data, ok := <-client.Send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
