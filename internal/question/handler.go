package question

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"religious_services_backend/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler serves the question lifecycle endpoints.
type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger.Named("QuestionHandler")}
}

// RegisterRoutes sets up the question routes. optionalAuthMW identifies the
// caller when a token is present so owners can read their own questions.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW, optionalAuthMW, adminMW gin.HandlerFunc) {
	public := router.Group("/questions")
	{
		public.GET("", h.listPublic)
		public.GET("/:id", optionalAuthMW, h.getQuestion)
	}

	authenticated := router.Group("/questions")
	authenticated.Use(authMW)
	{
		authenticated.POST("", h.createQuestion)
		authenticated.GET("/mine", h.listMine)
		authenticated.POST("/:id/mark-answer-viewed", h.markAnswerViewed)
	}

	moderation := router.Group("")
	moderation.Use(authMW, adminMW)
	{
		moderation.POST("/questions/:id/approve", h.approve)
		moderation.POST("/questions/:id/set-visible", h.setVisible)
		moderation.PUT("/questions/:id", h.updateQuestion)
		moderation.PUT("/answers/:id", h.updateAnswer)
	}

	admin := router.Group("/admin")
	admin.Use(authMW, adminMW)
	{
		admin.GET("/questions", h.listAdmin)
		admin.GET("/questions/export", h.export)
		admin.PUT("/questions/:id", h.updateQuestion)
		admin.DELETE("/questions/:id", h.deleteQuestion)
		admin.POST("/questions/:id/mark-seen", h.markSeen)
		admin.POST("/answers", h.answer)
	}
}

func parseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails(fmt.Sprintf("Invalid %s format.", name)))
		return uuid.Nil, false
	}
	return id, true
}

func viewerFromContext(c *gin.Context) *Viewer {
	userID := common.GetUserIDFromContext(c)
	if userID == uuid.Nil {
		return nil
	}
	return &Viewer{UserID: userID, IsAdmin: common.IsAdmin(c)}
}

func (h *Handler) createQuestion(c *gin.Context) {
	var req CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Create question: Invalid request body", zap.Error(err))
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	q, err := h.service.CreateQuestion(c.Request.Context(), common.GetUserIDFromContext(c), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Question submitted successfully.", q)
}

func (h *Handler) listPublic(c *gin.Context) {
	var query PublicListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	questions, pagination, err := h.service.ListPublic(c.Request.Context(), query)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Questions retrieved successfully.", questions, pagination)
}

func (h *Handler) listMine(c *gin.Context) {
	var query common.PaginationQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	questions, pagination, err := h.service.ListMine(c.Request.Context(), common.GetUserIDFromContext(c), query)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Questions retrieved successfully.", questions, pagination)
}

func (h *Handler) listAdmin(c *gin.Context) {
	var query AdminListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	questions, pagination, err := h.service.ListAdmin(c.Request.Context(), query)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Questions retrieved successfully.", questions, pagination)
}

func (h *Handler) getQuestion(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	q, err := h.service.GetQuestion(c.Request.Context(), id, viewerFromContext(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Question retrieved successfully.", q)
}

func (h *Handler) answer(c *gin.Context) {
	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Answer: Invalid request body", zap.Error(err))
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	a, err := h.service.Answer(c.Request.Context(), req.QuestionID, req.Content, common.GetUserDisplayNameFromContext(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Answer saved successfully.", a)
}

func (h *Handler) updateAnswer(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	a, err := h.service.UpdateAnswer(c.Request.Context(), id, req.Content)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Answer updated successfully.", a)
}

func (h *Handler) approve(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req ApproveRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			common.RespondWithError(c, common.BindingError(err))
			return
		}
	}
	approvedBy := strings.TrimSpace(req.ApprovedBy)
	if approvedBy == "" {
		approvedBy = common.GetUserDisplayNameFromContext(c)
	}
	q, err := h.service.Approve(c.Request.Context(), id, approvedBy)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Question approved successfully.", q)
}

func (h *Handler) setVisible(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req SetVisibleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	q, err := h.service.SetVisible(c.Request.Context(), id, *req.IsVisible)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Question visibility updated.", q)
}

func (h *Handler) updateQuestion(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	q, err := h.service.UpdateQuestion(c.Request.Context(), id, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Question updated successfully.", q)
}

func (h *Handler) markAnswerViewed(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	viewer := Viewer{UserID: common.GetUserIDFromContext(c), IsAdmin: common.IsAdmin(c)}
	if err := h.service.MarkAnswerViewed(c.Request.Context(), id, viewer); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Answer marked as viewed.", nil)
}

func (h *Handler) markSeen(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.MarkSeenByAdmin(c.Request.Context(), id); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Question marked as seen.", nil)
}

func (h *Handler) deleteQuestion(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}

func (h *Handler) export(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.service.Export(c.Request.Context(), &buf); err != nil {
		common.RespondWithError(c, err)
		return
	}
	filename := fmt.Sprintf("questions-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
