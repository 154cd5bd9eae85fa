package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/yunko006/blindotesto/internal/chat"
	"github.com/yunko006/blindotesto/internal/room"
)

// RoomHandler serves the request/response side of rooms: creation, listing
// and chat history. Live state flows over the websocket endpoint.
type RoomHandler struct {
	Rooms *room.Store
	Chat  *chat.Log
}

// region --- DTOs ---

type RoomInput struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type RoomCreatedResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	HasPassword bool   `json:"has_password"`
}

type ChatHistoryResponse struct {
	Messages []chat.Entry `json:"messages"`
}

// endregion

// CreateRoom godoc
// @Summary      Create a new room
// @Description  Creates a room and returns its id, which doubles as the join code.
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        input body RoomInput false "Room Info"
// @Success      201  {object}  RoomCreatedResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /rooms [post]
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var input RoomInput
	// Body is optional; an empty body creates an unnamed, open room.
	_ = c.ShouldBindJSON(&input)

	var passwordHash string
	if input.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create room"})
			return
		}
		passwordHash = string(hash)
	}

	rm := h.Rooms.Create(input.Name, passwordHash)
	info := rm.Info()

	c.JSON(http.StatusCreated, RoomCreatedResponse{
		ID:          info.ID,
		Name:        info.Name,
		HasPassword: info.HasPassword,
	})
}

// GetRooms godoc
// @Summary      List rooms
// @Description  Gets the public summary of every active room.
// @Tags         rooms
// @Produce      json
// @Success      200 {array} room.Info
// @Router       /rooms [get]
func (h *RoomHandler) GetRooms(c *gin.Context) {
	c.JSON(http.StatusOK, h.Rooms.Infos())
}

// GetRoomByID godoc
// @Summary      Get a room
// @Description  Gets the public summary of one room.
// @Tags         rooms
// @Produce      json
// @Param        id path string true "Room ID"
// @Success      200 {object} room.Info
// @Failure      404 {object} ErrorResponse
// @Router       /rooms/{id} [get]
func (h *RoomHandler) GetRoomByID(c *gin.Context) {
	rm, err := h.Rooms.Get(c.Param("id"))
	if errors.Is(err, room.ErrRoomNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		return
	}
	c.JSON(http.StatusOK, rm.Info())
}

// GetRoomChat godoc
// @Summary      Get a room's chat history
// @Description  Replays the retained chat history of a room in append order.
// @Tags         rooms
// @Produce      json
// @Param        id    path  string true  "Room ID"
// @Param        limit query int    false "Max messages" default(50)
// @Success      200 {object} ChatHistoryResponse
// @Failure      404 {object} ErrorResponse
// @Router       /rooms/{id}/chat [get]
func (h *RoomHandler) GetRoomChat(c *gin.Context) {
	roomID := c.Param("id")
	if _, err := h.Rooms.Get(roomID); errors.Is(err, room.ErrRoomNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	c.JSON(http.StatusOK, ChatHistoryResponse{Messages: h.Chat.History(roomID, limit)})
}
