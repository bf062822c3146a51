package content

import (
	"net/http"

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
	return &Handler{service: service, logger: logger.Named("ContentHandler")}
}

// feeds maps each public path to the kind it serves.
var feeds = map[string]Kind{
	"/rulings": KindRuling,
	"/videos":  KindVideo,
	"/news":    KindNews,
}

// RegisterRoutes sets up the public feeds and the admin content routes.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW, adminMW gin.HandlerFunc) {
	router.GET("/rulings/daily", h.dailyRuling)
	for path, kind := range feeds {
		group := router.Group(path)
		group.GET("", h.list(kind))
		group.GET("/:idOrSlug", h.get(kind))
	}

	admin := router.Group("/admin/content")
	admin.Use(authMW, adminMW)
	{
		admin.GET("", h.adminList)
		admin.POST("", h.adminCreate)
		admin.PUT("/:id", h.adminUpdate)
		admin.DELETE("/:id", h.adminDelete)
		admin.POST("/:id/image", h.adminUploadImage)
	}
}

func (h *Handler) list(kind Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var query ListQuery
		if err := c.ShouldBindQuery(&query); err != nil {
			common.RespondWithError(c, common.BindingError(err))
			return
		}
		query.Kind = kind
		posts, pagination, err := h.service.List(c.Request.Context(), query)
		if err != nil {
			common.RespondWithError(c, err)
			return
		}
		common.RespondPaginated(c, "Posts retrieved successfully.", posts, pagination)
	}
}

func (h *Handler) get(kind Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		post, err := h.service.Get(c.Request.Context(), kind, c.Param("idOrSlug"))
		if err != nil {
			common.RespondWithError(c, err)
			return
		}
		common.RespondOK(c, "Post retrieved successfully.", post)
	}
}

func (h *Handler) dailyRuling(c *gin.Context) {
	post, err := h.service.DailyRuling(c.Request.Context())
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Daily ruling retrieved successfully.", post)
}

func (h *Handler) adminList(c *gin.Context) {
	var query ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	posts, pagination, err := h.service.AdminList(c.Request.Context(), query)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Posts retrieved successfully.", posts, pagination)
}

func (h *Handler) adminCreate(c *gin.Context) {
	var req SavePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Admin create post: Invalid request body", zap.Error(err))
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	post, err := h.service.AdminCreate(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Post created successfully.", post)
}

func parsePostID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid post ID format."))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) adminUpdate(c *gin.Context) {
	id, ok := parsePostID(c)
	if !ok {
		return
	}
	var req SavePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	post, err := h.service.AdminUpdate(c.Request.Context(), id, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Post updated successfully.", post)
}

func (h *Handler) adminDelete(c *gin.Context) {
	id, ok := parsePostID(c)
	if !ok {
		return
	}
	if err := h.service.AdminDelete(c.Request.Context(), id); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}

func (h *Handler) adminUploadImage(c *gin.Context) {
	id, ok := parsePostID(c)
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("image")
	if err != nil {
		if err == http.ErrMissingFile {
			common.RespondWithError(c, common.ErrBadRequest.WithDetails("Multipart field 'image' is required."))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(err.Error()))
		return
	}
	post, err := h.service.AdminSetImage(c.Request.Context(), id, fileHeader)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Image uploaded successfully.", post)
}
