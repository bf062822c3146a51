package middleware

import (
	"errors"

	"religious_services_backend/internal/common"
	"religious_services_backend/internal/shared"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthMiddleware authenticates the bearer access token and loads the caller's
// current record. The role placed in the context comes from storage, so a
// demoted admin loses access with their next request.
func AuthMiddleware(tokenService shared.TokenService, blocklist shared.TokenBlocklist, users shared.UserLookup, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := authenticate(c, tokenService, blocklist, users, logger); err != nil {
			common.RespondWithError(c, err)
			return
		}
		c.Next()
	}
}

// OptionalAuthMiddleware authenticates the caller when a bearer token is
// present and lets anonymous requests through. An invalid token is rejected.
func OptionalAuthMiddleware(tokenService shared.TokenService, blocklist shared.TokenBlocklist, users shared.UserLookup, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader(common.AuthorizationHeader) == "" {
			c.Next()
			return
		}
		if err := authenticate(c, tokenService, blocklist, users, logger); err != nil {
			common.RespondWithError(c, err)
			return
		}
		c.Next()
	}
}

func authenticate(c *gin.Context, tokenService shared.TokenService, blocklist shared.TokenBlocklist, users shared.UserLookup, logger *zap.Logger) error {
	tokenString := common.GetTokenFromContext(c)
	if tokenString == "" {
		logger.Debug("Authorization header missing or malformed")
		return common.ErrUnauthorized.WithDetails("Authorization header format must be 'Bearer <token>'.")
	}

	claims, err := tokenService.ValidateToken(tokenString)
	if err != nil {
		logger.Debug("Token validation failed", zap.Error(err))
		return common.ErrUnauthorized.WithDetails("Invalid or expired token.")
	}

	revoked, err := blocklist.IsBlocklisted(c.Request.Context(), claims.ID)
	if err != nil {
		logger.Error("Blocklist lookup failed", zap.Error(err))
		return common.ErrInternalServer
	}
	if revoked {
		return common.ErrUnauthorized.WithDetails("Token has been revoked.")
	}

	usr, err := users.GetUserByID(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			logger.Warn("Token refers to a missing user", zap.String("userID", claims.UserID.String()))
			return common.ErrUnauthorized.WithDetails("User no longer exists.")
		}
		return err
	}

	c.Set(common.UserIDKey, usr.ID)
	c.Set(common.UserEmailKey, usr.Email)
	c.Set(common.UserRoleKey, usr.Role)
	c.Set(common.UserDisplayNameKey, usr.DisplayName())
	c.Set(common.UserClaimsKey, claims)

	logger.Debug("User authenticated",
		zap.String("userID", usr.ID.String()),
		zap.String("role", usr.Role),
	)
	return nil
}

// GetUserClaimsFromContext retrieves the validated claims from the Gin context.
func GetUserClaimsFromContext(c *gin.Context) *shared.Claims {
	val, exists := c.Get(common.UserClaimsKey)
	if !exists {
		return nil
	}
	claims, ok := val.(*shared.Claims)
	if !ok {
		return nil
	}
	return claims
}

// RoleAuthMiddleware checks that the authenticated user has one of the allowed roles.
// It must run after AuthMiddleware.
func RoleAuthMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := common.GetUserRoleFromContext(c)
		if userRole == "" {
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Authentication required."))
			return
		}

		for _, role := range allowedRoles {
			if userRole == role {
				c.Next()
				return
			}
		}
		common.RespondWithError(c, common.ErrForbidden.WithDetails("You do not have sufficient permissions for this resource."))
	}
}

// AdminMiddleware restricts a route to admins.
func AdminMiddleware() gin.HandlerFunc {
	return RoleAuthMiddleware(common.RoleAdmin)
}
