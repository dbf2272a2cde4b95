package auth

import (
	"github.com/angelmondragon/aerogourmet-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID    uint
	Name      string
	Role      enums.UserRole
	SessionID string
}

// AccessTokenClaims represents the typed JWT issued to clients. The JWT id
// doubles as the redis session id.
type AccessTokenClaims struct {
	UserID uint           `json:"user_id"`
	Name   string         `json:"name,omitempty"`
	Role   enums.UserRole `json:"role"`
	jwt.RegisteredClaims
}
