package badge

import (
	"religious_services_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger.Named("BadgeHandler")}
}

// RegisterRoutes sets up the badge route. The read has no side effects and
// may be polled freely.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	router.GET("/badge-counts", authMW, h.getCounts)
}

func (h *Handler) getCounts(c *gin.Context) {
	userID := common.GetUserIDFromContext(c)
	counts, err := h.service.Get(c.Request.Context(), userID, common.IsAdmin(c))
	if err != nil {
		h.logger.Error("Failed to compute badge counts", zap.Error(err), zap.String("userID", userID.String()))
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Badge counts retrieved successfully.", counts)
}
