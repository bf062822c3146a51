package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LoggerContextKey holds the request-scoped *zap.Logger, when a middleware sets one.
const LoggerContextKey = "logger"

const statusSuccess = "success"

// Envelope is the body of every successful response.
type Envelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// PageEnvelope is the body of list responses. Data is always present, even
// when the page is empty.
type PageEnvelope struct {
	Envelope
	Data       interface{} `json:"data"`
	Pagination *Pagination `json:"pagination"`
}

func requestLogger(c *gin.Context) *zap.Logger {
	if l, ok := c.Get(LoggerContextKey); ok {
		if logger, ok := l.(*zap.Logger); ok {
			return logger
		}
	}
	return zap.NewNop()
}

// RespondWithError aborts with err rendered as JSON. Anything that is not an
// *APIError becomes a 500; its text is only exposed in gin debug mode.
func RespondWithError(c *gin.Context, err error) {
	apiErr, ok := IsAPIError(err)
	if !ok {
		requestLogger(c).Error("Unclassified error returned to client", zap.Error(err))
		apiErr = ErrInternalServer
		if gin.IsDebugging() {
			apiErr = ErrInternalServer.WithDetails(err.Error())
		}
	}
	c.AbortWithStatusJSON(apiErr.StatusCode, apiErr)
}

func respond(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Envelope{Status: statusSuccess, Message: message, Data: data})
}

func RespondOK(c *gin.Context, message string, data interface{}) {
	respond(c, http.StatusOK, message, data)
}

func RespondCreated(c *gin.Context, message string, data interface{}) {
	respond(c, http.StatusCreated, message, data)
}

func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// RespondPaginated writes one page of a list with its pagination block.
func RespondPaginated(c *gin.Context, message string, data interface{}, pagination *Pagination) {
	c.JSON(http.StatusOK, PageEnvelope{
		Envelope:   Envelope{Status: statusSuccess, Message: message},
		Data:       data,
		Pagination: pagination,
	})
}
