package middleware

import (
	"net/http"

	"religious_services_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	errNoRoute  = common.ErrNotFound.WithDetails("The requested endpoint does not exist.")
	errNoMethod = common.NewAPIError(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "The method is not allowed for the requested URL.")
)

// ErrorHandler renders errors attached with c.Error, and gin's bare 404/405
// replies, in the standard error body. Responses already written are left alone.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if c.Writer.Written() {
			return
		}

		if last := c.Errors.Last(); last != nil {
			if _, ok := common.IsAPIError(last.Err); !ok {
				logger.Error("Handler returned an unclassified error",
					zap.Error(last.Err),
					zap.String("path", c.Request.URL.Path),
					zap.String("request_id", c.GetString(RequestIDContextKey)),
				)
			}
			common.RespondWithError(c, last.Err)
			return
		}

		switch c.Writer.Status() {
		case http.StatusNotFound:
			c.AbortWithStatusJSON(http.StatusNotFound, errNoRoute)
		case http.StatusMethodNotAllowed:
			c.AbortWithStatusJSON(http.StatusMethodNotAllowed, errNoMethod)
		}
	}
}
