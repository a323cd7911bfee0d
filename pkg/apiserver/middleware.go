package apiserver

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kdeps/intake/pkg/domain"
	"github.com/kdeps/intake/pkg/logging"
	"github.com/kdeps/intake/pkg/messages"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

const (
	requestIDKey = "requestID"
	loggerKey    = "logger"
)

// RequestID reuses the client's X-Request-ID or generates one, and stores a
// logger tagged with it on the context.
func RequestID(base *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(requestIDKey, requestID)
		c.Set(loggerKey, base.With("requestID", requestID))
		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}

// GetRequestID returns the request ID set by RequestID.
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

func requestLogger(c *gin.Context) *logging.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(*logging.Logger); ok {
			return l
		}
	}
	return logging.GetLogger()
}

// RequestLogger logs one line per request once the handler chain is done.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		size := c.Writer.Size()
		if size < 0 {
			size = 0
		}
		requestLogger(c).Info(messages.MsgRequestCompleted,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"size", humanize.Bytes(uint64(size)),
			"duration", time.Since(start))
	}
}

// Recovery turns panics into a JSON 500.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		requestLogger(c).Error("panic recovered", "error", recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Message: messages.RespInternalError})
	})
}

// BearerAuth requires "Authorization: Bearer <token>". An empty token rejects
// every request.
func BearerAuth(token string) gin.HandlerFunc {
	expected := []byte(token)
	return func(c *gin.Context) {
		got, ok := bearerToken(c.GetHeader("Authorization"))
		if len(expected) == 0 || !ok || subtle.ConstantTimeCompare([]byte(got), expected) != 1 {
			respondError(c, domain.NewAppError(domain.ErrCodeUnauthorized, messages.RespUnauthorized))
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// BodyLimit caps the request body at limit bytes. Zero disables the cap.
func BodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limit <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > limit {
			respondError(c, tooLarge(limit))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

func tooLarge(limit int64) *domain.AppError {
	return domain.NewAppError(domain.ErrCodeRequestTooLarge, messages.RespRequestTooLarge).
		WithDetails("maxSize", humanize.Bytes(uint64(limit)))
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
