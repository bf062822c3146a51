package synagogue

import (
	"religious_services_backend/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger.Named("SynagogueHandler")}
}

// RegisterRoutes sets up the public directory and the admin management routes.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW, adminMW gin.HandlerFunc) {
	public := router.Group("/synagogues")
	{
		public.GET("", h.list)
		public.GET("/:idOrSlug", h.get)
	}

	admin := router.Group("/admin/synagogues")
	admin.Use(authMW, adminMW)
	{
		admin.GET("", h.adminList)
		admin.POST("", h.adminCreate)
		admin.PUT("/:id", h.adminUpdate)
		admin.DELETE("/:id", h.adminDelete)
	}
}

func toResponses(items []Synagogue) []SynagogueResponse {
	out := make([]SynagogueResponse, len(items))
	for i := range items {
		out[i] = ToSynagogueResponse(&items[i])
	}
	return out
}

func (h *Handler) respondList(c *gin.Context, includeInactive bool) {
	var query ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	query.IncludeInactive = includeInactive
	items, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Synagogues retrieved successfully.", toResponses(items), pagination)
}

func (h *Handler) list(c *gin.Context) {
	h.respondList(c, false)
}

func (h *Handler) adminList(c *gin.Context) {
	h.respondList(c, true)
}

func (h *Handler) get(c *gin.Context) {
	idOrSlug := c.Param("idOrSlug")
	var syn *Synagogue
	var err error
	if id, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		syn, err = h.service.GetByID(c.Request.Context(), id)
	} else {
		syn, err = h.service.GetBySlug(c.Request.Context(), idOrSlug)
	}
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if !syn.IsActive {
		common.RespondWithError(c, common.ErrNotFound.WithDetails("Synagogue not found."))
		return
	}
	common.RespondOK(c, "Synagogue retrieved successfully.", ToSynagogueResponse(syn))
}

func (h *Handler) adminCreate(c *gin.Context) {
	var req SaveSynagogueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Admin create synagogue: Invalid request body", zap.Error(err))
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	syn, err := h.service.AdminCreate(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Synagogue created successfully.", ToSynagogueResponse(syn))
}

func (h *Handler) adminUpdate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid synagogue ID format."))
		return
	}
	var req SaveSynagogueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Admin update synagogue: Invalid request body", zap.Error(err), zap.String("synagogueID", id.String()))
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	syn, err := h.service.AdminUpdate(c.Request.Context(), id, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Synagogue updated successfully.", ToSynagogueResponse(syn))
}

func (h *Handler) adminDelete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid synagogue ID format."))
		return
	}
	if err := h.service.AdminDelete(c.Request.Context(), id); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}
