package apiserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kdeps/intake/pkg/domain"
	"github.com/kdeps/intake/pkg/messages"
)

const contentTypeZip = "application/zip"

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Message string `json:"message"`
}

// UploadResponse echoes the stored video path and the sensor arrays.
type UploadResponse struct {
	Video             string          `json:"video"`
	GyroscopeData     json.RawMessage `json:"gyroscopeData"`
	AccelerometerData json.RawMessage `json:"accelerometerData"`
}

// HealthResponse reports liveness and store counts.
type HealthResponse struct {
	Status     string `json:"status"`
	Datasets   int    `json:"datasets"`
	Incomplete int    `json:"incomplete"`
}

// respondError aborts with the status of err's AppError code. Anything that
// is not an AppError becomes a 500 without leaking its text.
func respondError(c *gin.Context, err error) {
	var appErr *domain.AppError
	if !errors.As(err, &appErr) {
		appErr = domain.NewAppError(domain.ErrCodeInternal, messages.RespInternalError).WithError(err)
	}

	logger := requestLogger(c)
	if appErr.StatusCode >= http.StatusInternalServerError {
		logger.Error(appErr.Message, "code", appErr.Code, "error", appErr.Err)
	} else {
		logger.Debug(appErr.Message, "code", appErr.Code, "status", appErr.StatusCode)
	}

	c.AbortWithStatusJSON(appErr.StatusCode, ErrorResponse{Message: appErr.Message})
}

func attachment(filename string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": filename}); v != "" {
		return v
	}
	return fmt.Sprintf("attachment; filename=%q", filename)
}
