package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yunko006/blindotesto/internal/config"
)

var ErrInvalidToken = errors.New("invalid session token")

// GenerateToken creates a new JWT for a guest participant session.
// The subject is the participant id; the display name travels in a claim.
func GenerateToken(participantID, displayName string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  participantID,
		"name": displayName,
		"exp":  time.Now().Add(time.Hour * 24).Unix(), // Token expires in 24 hours
		"iat":  time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(config.AppConfig.JWTSecret))
}

// ValidateToken parses a session token and returns the participant id and
// display name it carries.
func ValidateToken(tokenString string) (participantID, displayName string, err error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return "", "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", ErrInvalidToken
	}

	participantID, _ = claims["sub"].(string)
	displayName, _ = claims["name"].(string)
	if participantID == "" {
		return "", "", ErrInvalidToken
	}

	return participantID, displayName, nil
}
