package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"

	"github.com/yunko006/blindotesto/internal/hub"
	"github.com/yunko006/blindotesto/internal/protocol"
	"github.com/yunko006/blindotesto/internal/room"
	"github.com/yunko006/blindotesto/internal/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSHandler upgrades room connections and hands them to the protocol handler.
type WSHandler struct {
	Rooms    *room.Store
	Protocol *protocol.Handler
}

// ServeWS godoc
// @Summary      Join a room over websocket
// @Description  Upgrades to a websocket bound to a room. Identity comes from the session token when present, otherwise from the client_id and name query parameters. An unknown room id is created on first join.
// @Tags         rooms
// @Param        id        path  string true  "Room ID (join code)"
// @Param        client_id query string false "Participant id (ignored when a token is sent)"
// @Param        name      query string false "Display name"
// @Param        password  query string false "Room password, when the room has one"
// @Success      101
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Router       /ws/{id} [get]
func (h *WSHandler) ServeWS(c *gin.Context) {
	roomID := c.Param("id")

	clientID := c.Query("client_id")
	name := c.DefaultQuery("name", clientID)
	if tokenID, ok := c.Get("participantID"); ok {
		clientID = tokenID.(string)
		if tokenName, ok := c.Get("displayName"); ok && tokenName.(string) != "" {
			name = tokenName.(string)
		}
	}
	if clientID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "client_id is required"})
		return
	}

	// Joinability and password checks happen before the upgrade so the
	// client gets a proper HTTP status instead of an immediate close.
	if rm, err := h.Rooms.Get(roomID); err == nil {
		if rm.Ended() {
			c.JSON(http.StatusForbidden, gin.H{"error": "Room has ended"})
			return
		}
		if !rm.CheckPassword(checkBcrypt, c.Query("password")) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid room password"})
			return
		}
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	sub, rm, err := h.Protocol.Connect(roomID, clientID, name)
	if err != nil {
		code := websocket.ClosePolicyViolation
		if err == hub.ErrInvalidParticipant {
			code = websocket.CloseUnsupportedData
		}
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(code, err.Error()))
		conn.Close()
		return
	}

	ws.NewConn(conn, sub, func(data []byte) {
		h.Protocol.Handle(rm, sub, data)
	}, func() {
		h.Protocol.Disconnect(sub, rm)
	}).Start()
}

func checkBcrypt(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
