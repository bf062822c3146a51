package auth

import (
	"context"

	"religious_services_backend/internal/common"
	"religious_services_backend/internal/middleware"
	"religious_services_backend/internal/shared"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves /auth: sign-up, sign-in, token refresh, logout and the
// caller's own profile.
type Handler struct {
	accounts  AccountService
	tokens    shared.TokenService
	blocklist shared.TokenBlocklist
	logger    *zap.Logger
}

func NewHandler(accounts AccountService, tokens shared.TokenService, blocklist shared.TokenBlocklist, logger *zap.Logger) *Handler {
	return &Handler{accounts: accounts, tokens: tokens, blocklist: blocklist, logger: logger.Named("AuthHandler")}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	group := router.Group("/auth")
	group.POST("/register", h.register)
	group.POST("/login", h.login)
	group.POST("/refresh-token", h.refreshToken)
	group.POST("/logout", authMW, h.logout)
	group.GET("/me", authMW, h.me)
}

func (h *Handler) register(c *gin.Context) {
	var req shared.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	usr, tokens, err := h.accounts.Register(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "User registered successfully.", SessionResponse{User: shared.ToUserResponse(usr), Token: tokens})
}

func (h *Handler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	usr, tokens, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Login successful.", SessionResponse{User: shared.ToUserResponse(usr), Token: tokens})
}

func (h *Handler) refreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	tokens, err := h.refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Token refreshed successfully.", tokens)
}

// refresh exchanges a live refresh token for a new access token. The role in
// the new token is taken from the stored user.
func (h *Handler) refresh(ctx context.Context, refreshToken string) (*shared.TokenResponse, error) {
	claims, err := h.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		h.logger.Debug("Refresh token rejected", zap.Error(err))
		return nil, common.ErrUnauthorized.WithDetails("Invalid or expired refresh token.")
	}
	revoked, err := h.blocklist.IsBlocklisted(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, common.ErrUnauthorized.WithDetails("Refresh token has been revoked.")
	}

	usr, err := h.accounts.GetUserByID(ctx, claims.UserID)
	if err != nil {
		h.logger.Warn("Refresh token for unknown user", zap.Stringer("userID", claims.UserID), zap.Error(err))
		return nil, common.ErrUnauthorized.WithDetails("User associated with refresh token not found.")
	}
	access, expiresAt, err := h.tokens.GenerateAccessToken(usr)
	if err != nil {
		h.logger.Error("Signing refreshed access token failed", zap.Error(err), zap.Stringer("userID", usr.ID))
		return nil, common.ErrInternalServer.WithDetails("Could not generate new access token.")
	}
	return &shared.TokenResponse{
		AccessToken:  access,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		TokenType:    common.AuthorizationTypeBearer,
	}, nil
}

// logout revokes the presented access token and, when the body names one,
// the caller's refresh token. A refresh token of another user is ignored.
func (h *Handler) logout(c *gin.Context) {
	var req LogoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			common.RespondWithError(c, common.BindingError(err))
			return
		}
	}
	claims := middleware.GetUserClaimsFromContext(c)
	if claims == nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	revoke := []*shared.Claims{claims}
	if req.RefreshToken != "" {
		if rc, err := h.tokens.ParseRefreshToken(req.RefreshToken); err == nil && rc.UserID == claims.UserID {
			revoke = append(revoke, rc)
		}
	}
	for _, rc := range revoke {
		if err := h.blocklist.AddToBlocklist(c.Request.Context(), rc.ID, rc.ExpiresAt.Time); err != nil {
			common.RespondWithError(c, err)
			return
		}
	}

	h.logger.Info("User logged out", zap.Stringer("userID", claims.UserID), zap.Int("revoked", len(revoke)))
	common.RespondOK(c, "Logged out successfully.", nil)
}

func (h *Handler) me(c *gin.Context) {
	usr, err := h.accounts.GetUserByID(c.Request.Context(), common.GetUserIDFromContext(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "User profile retrieved successfully.", shared.ToUserResponse(usr))
}
