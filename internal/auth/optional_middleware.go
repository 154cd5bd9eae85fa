package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yunko006/blindotesto/pkg/jwt"
)

// OptionalAuthMiddleware inspects for a token and sets the participant
// identity if present and valid, but does not fail if the token is missing
// or invalid. The websocket endpoint uses this so bare client_id query
// parameters keep working.
func OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				if participantID, displayName, err := jwt.ValidateToken(parts[1]); err == nil {
					c.Set("participantID", participantID)
					c.Set("displayName", displayName)
				}
			}
		}
		c.Next()
	}
}
