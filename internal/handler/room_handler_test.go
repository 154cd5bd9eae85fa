package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yunko006/blindotesto/internal/chat"
	"github.com/yunko006/blindotesto/internal/room"
)

func newRoomRouter(t *testing.T) (*gin.Engine, *RoomHandler) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := &RoomHandler{
		Rooms: room.NewStore(room.StoreOptions{}),
		Chat:  chat.NewLog(),
	}

	router := gin.New()
	router.POST("/api/v1/rooms", h.CreateRoom)
	router.GET("/api/v1/rooms", h.GetRooms)
	router.GET("/api/v1/rooms/:id", h.GetRoomByID)
	router.GET("/api/v1/rooms/:id/chat", h.GetRoomChat)
	return router, h
}

func doRequest(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateRoom(t *testing.T) {
	router, h := newRoomRouter(t)

	w := doRequest(router, http.MethodPost, "/api/v1/rooms", `{"name":"Friday quiz","password":"s3cret"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp RoomCreatedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.ID, 8)
	assert.Equal(t, "Friday quiz", resp.Name)
	assert.True(t, resp.HasPassword)

	rm, err := h.Rooms.Get(resp.ID)
	require.NoError(t, err)
	assert.True(t, rm.CheckPassword(func(hash, pw string) bool { return pw == "s3cret" }, "s3cret"))
}

func TestCreateRoom_EmptyBody(t *testing.T) {
	router, _ := newRoomRouter(t)

	w := doRequest(router, http.MethodPost, "/api/v1/rooms", "")
	require.Equal(t, http.StatusCreated, w.Code)

	var resp RoomCreatedResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.ID, 8)
	assert.False(t, resp.HasPassword)
}

func TestGetRooms(t *testing.T) {
	router, h := newRoomRouter(t)
	h.Rooms.Create("one", "")
	h.Rooms.Create("two", "")

	w := doRequest(router, http.MethodGet, "/api/v1/rooms", "")
	require.Equal(t, http.StatusOK, w.Code)

	var infos []room.Info
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &infos))
	assert.Len(t, infos, 2)
}

func TestGetRoomByID(t *testing.T) {
	router, h := newRoomRouter(t)
	rm := h.Rooms.Create("quiz night", "")

	w := doRequest(router, http.MethodGet, "/api/v1/rooms/"+rm.ID(), "")
	require.Equal(t, http.StatusOK, w.Code)

	var info room.Info
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, rm.ID(), info.ID)
	assert.Equal(t, "quiz night", info.Name)

	w = doRequest(router, http.MethodGet, "/api/v1/rooms/nope1234", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetRoomChat(t *testing.T) {
	router, h := newRoomRouter(t)
	rm := h.Rooms.Create("quiz night", "")
	for i := 0; i < 3; i++ {
		h.Chat.Append(rm.ID(), "alice", "Alice", "msg", "host")
	}

	w := doRequest(router, http.MethodGet, "/api/v1/rooms/"+rm.ID()+"/chat?limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp ChatHistoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Messages, 2)

	w = doRequest(router, http.MethodGet, "/api/v1/rooms/nope1234/chat", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
