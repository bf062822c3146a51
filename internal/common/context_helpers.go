package common

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	AuthorizationHeader     = "Authorization"
	AuthorizationTypeBearer = "Bearer"
)

// Keys the auth middleware stores on the gin context. The role and display
// name come from the user record, not from the token.
const (
	UserIDKey          = "userID"
	UserEmailKey       = "userEmail"
	UserRoleKey        = "userRole"
	UserDisplayNameKey = "userDisplayName"
	UserClaimsKey      = "userClaims"
)

// GetTokenFromContext returns the bearer token of the request, or "" when the
// Authorization header is missing or uses another scheme.
func GetTokenFromContext(c *gin.Context) string {
	scheme, token, found := strings.Cut(strings.TrimSpace(c.GetHeader(AuthorizationHeader)), " ")
	if !found || !strings.EqualFold(scheme, AuthorizationTypeBearer) {
		return ""
	}
	return strings.TrimSpace(token)
}

// GetUserIDFromContext returns uuid.Nil for unauthenticated requests.
func GetUserIDFromContext(c *gin.Context) uuid.UUID {
	id, _ := c.Value(UserIDKey).(uuid.UUID)
	return id
}

func GetUserRoleFromContext(c *gin.Context) string {
	return c.GetString(UserRoleKey)
}

func GetUserDisplayNameFromContext(c *gin.Context) string {
	return c.GetString(UserDisplayNameKey)
}

// IsAdmin reports whether the caller's stored role is admin.
func IsAdmin(c *gin.Context) bool {
	return GetUserRoleFromContext(c) == RoleAdmin
}
