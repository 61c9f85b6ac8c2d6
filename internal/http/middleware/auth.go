// Package middleware carries the gin middleware: bearer-token auth and role
// gates for the developer and researcher surfaces.
package middleware

import (
	"net/http"
	"strings"
	"time"

	"ActivityScheduler/internal/domain"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

const (
	ctxParticipantID = "auth_participant_id"
	ctxRoles         = "auth_roles"
)

type Claims struct {
	Roles []domain.Role `json:"roles"`
	jwt.RegisteredClaims
}

// MintToken signs a bearer token for a participant. Used by the session
// tooling and by tests; the API itself only verifies.
func MintToken(secret []byte, participantID string, roles []domain.Role, ttl time.Duration) (string, error) {
	claims := Claims{
		Roles: roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   participantID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// RequireAuth validates the Authorization header and stashes the caller's
// identity and roles in the request context.
func RequireAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})
		if err != nil || !token.Valid || claims.Subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ctxParticipantID, claims.Subject)
		c.Set(ctxRoles, claims.Roles)
		c.Next()
	}
}

// RequireRole gates a route group on one role. Runs after RequireAuth.
func RequireRole(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !HasRole(c, role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "caller is not authorized"})
			return
		}
		c.Next()
	}
}

// ParticipantID returns the authenticated caller's id.
func ParticipantID(c *gin.Context) string {
	id, _ := c.Get(ctxParticipantID)
	s, _ := id.(string)
	return s
}

func HasRole(c *gin.Context, role domain.Role) bool {
	v, _ := c.Get(ctxRoles)
	roles, _ := v.([]domain.Role)
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
