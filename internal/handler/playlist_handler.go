package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yunko006/blindotesto/internal/database"
	"github.com/yunko006/blindotesto/internal/models"
)

// ErrorResponse is the generic error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"An error message"`
}

// region --- DTOs ---

type PlaylistInput struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Owner       string          `json:"owner" binding:"required"`
	SpotifyID   string          `json:"spotify_id" binding:"required"`
	SpotifyURI  string          `json:"spotify_uri" binding:"required"`
	Tracks      json.RawMessage `json:"tracks"`
}

type PlaylistResponse struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Owner       string          `json:"owner"`
	SpotifyID   string          `json:"spotify_id"`
	SpotifyURI  string          `json:"spotify_uri"`
	Tracks      json.RawMessage `json:"tracks"`
}

func newPlaylistResponse(playlist models.Playlist) PlaylistResponse {
	return PlaylistResponse{
		ID:          playlist.ID,
		Name:        playlist.Name,
		Description: playlist.Description,
		Owner:       playlist.Owner,
		SpotifyID:   playlist.SpotifyID,
		SpotifyURI:  playlist.SpotifyURI,
		Tracks:      playlist.Tracks,
	}
}

// endregion

// CreatePlaylist godoc
// @Summary      Import a playlist
// @Description  Stores a playlist pulled from the streaming provider so rooms can pick clips from it.
// @Tags         playlists
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body PlaylistInput true "Playlist Info"
// @Success      201  {object}  PlaylistResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse "Playlist already imported"
// @Router       /playlists [post]
func CreatePlaylist(c *gin.Context) {
	var input PlaylistInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	playlist := models.Playlist{
		Name:        input.Name,
		Description: input.Description,
		Owner:       input.Owner,
		SpotifyID:   input.SpotifyID,
		SpotifyURI:  input.SpotifyURI,
		Tracks:      input.Tracks,
	}

	var existing models.Playlist
	if err := database.DB.Where("spotify_id = ?", input.SpotifyID).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Playlist already imported"})
		return
	}

	if err := database.DB.Create(&playlist).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create playlist"})
		return
	}

	c.JSON(http.StatusCreated, newPlaylistResponse(playlist))
}

// GetPlaylists godoc
// @Summary      List playlists
// @Description  Gets a paginated list of imported playlists, optionally filtered by owner.
// @Tags         playlists
// @Produce      json
// @Param        owner query string false "Filter by owner"
// @Param        page  query int    false "Page number" default(1)
// @Param        limit query int    false "Items per page" default(10)
// @Success      200 {object} PaginatedResponse[PlaylistResponse]
// @Router       /playlists [get]
func GetPlaylists(c *gin.Context) {
	page, limit := PageParams(c)

	query := database.DB.Model(&models.Playlist{})
	if owner := c.Query("owner"); owner != "" {
		query = query.Where("owner = ?", owner)
	}

	paginated, err := Paginate[models.Playlist](query, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch playlists"})
		return
	}

	responses := make([]PlaylistResponse, 0, len(paginated.Data))
	for _, playlist := range paginated.Data {
		responses = append(responses, newPlaylistResponse(playlist))
	}

	c.JSON(http.StatusOK, NewPaginatedResponse(responses, paginated.Meta.TotalItems, page, limit))
}

// GetPlaylistByID godoc
// @Summary      Get a playlist
// @Description  Gets one imported playlist with its tracks.
// @Tags         playlists
// @Produce      json
// @Param        id path int true "Playlist ID"
// @Success      200 {object} PlaylistResponse
// @Failure      404 {object} ErrorResponse
// @Router       /playlists/{id} [get]
func GetPlaylistByID(c *gin.Context) {
	var playlist models.Playlist
	if err := database.DB.First(&playlist, c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Playlist not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch playlist"})
		return
	}

	c.JSON(http.StatusOK, newPlaylistResponse(playlist))
}
