package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yunko006/blindotesto/pkg/jwt"
)

// region --- DTOs ---

type SessionInput struct {
	Name string `json:"name" binding:"required,min=1,max=32"`
}

type SessionResponse struct {
	ParticipantID string `json:"participant_id"`
	Name          string `json:"name"`
	Token         string `json:"token"`
}

// endregion

// CreateSession godoc
// @Summary      Create a guest session
// @Description  Issues a participant id and a bearer token for a display name. The id stays stable across reconnects for the token's lifetime.
// @Tags         session
// @Accept       json
// @Produce      json
// @Param        input body SessionInput true "Display name"
// @Success      201  {object}  SessionResponse
// @Failure      400  {object}  ErrorResponse
// @Router       /session [post]
func CreateSession(c *gin.Context) {
	var input SessionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	participantID := uuid.New().String()[:8]
	token, err := jwt.GenerateToken(participantID, input.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	c.JSON(http.StatusCreated, SessionResponse{
		ParticipantID: participantID,
		Name:          input.Name,
		Token:         token,
	})
}
