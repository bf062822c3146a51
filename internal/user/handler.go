package user

import (
	"religious_services_backend/internal/common"
	"religious_services_backend/internal/shared"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler struct holds dependencies for user handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new user handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger.Named("UserHandler"),
	}
}

// RegisterRoutes sets up the routes for user operations.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc, adminMW gin.HandlerFunc) {
	userGroup := router.Group("/users")
	userGroup.Use(authMW)
	{
		userGroup.PUT("/me/device-token", h.setDeviceToken)
	}

	adminGroup := router.Group("/admin/users")
	adminGroup.Use(authMW, adminMW)
	{
		adminGroup.GET("", h.listUsers)
		adminGroup.PUT("/:id/role", h.updateRole)
	}
}

func (h *Handler) setDeviceToken(c *gin.Context) {
	var req DeviceTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Device token: Invalid request body", zap.Error(err))
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	userID := common.GetUserIDFromContext(c)
	if err := h.service.SetDeviceToken(c.Request.Context(), userID, req.DeviceToken); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Device token updated.", nil)
}

func (h *Handler) listUsers(c *gin.Context) {
	var query ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	users, pagination, err := h.service.ListUsers(c.Request.Context(), query)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	responses := make([]shared.UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, shared.ToUserResponse(&users[i]))
	}
	common.RespondPaginated(c, "Users retrieved successfully.", responses, pagination)
}

func (h *Handler) updateRole(c *gin.Context) {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid user ID format."))
		return
	}
	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	if targetID == common.GetUserIDFromContext(c) && req.Role != common.RoleAdmin {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Admins cannot demote themselves."))
		return
	}
	usr, err := h.service.SetRole(c.Request.Context(), targetID, req.Role)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "User role updated.", shared.ToUserResponse(usr))
}
