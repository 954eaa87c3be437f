package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	RoleTenant = "tenant"
	RoleWorker = "worker"
	RoleAdmin  = "admin"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	TenantID uuid.UUID
	Role     string
	Name     string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	TenantID uuid.UUID `json:"tenant_id"`
	Role     string    `json:"role"`
	Name     string    `json:"name,omitempty"`
	jwt.RegisteredClaims
}
