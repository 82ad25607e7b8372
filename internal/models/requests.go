package models

import (
	"encoding/json"

	"github.com/golang-jwt/jwt/v5"
)

// ActionRequest is a reviewer verdict for one attachment key.
type ActionRequest struct {
	Filename     string          `json:"filename" binding:"required"`
	MessageIndex int             `json:"message_index"`
	Action       string          `json:"action" binding:"required,oneof=accept reject"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
}

// LoginRequest carries the reviewer password.
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// VerifyIdentitiesRequest is a batch username existence check.
type VerifyIdentitiesRequest struct {
	Usernames []string `json:"usernames" binding:"required"`
}

// Claims are the JWT claims issued to an authenticated reviewer.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}
