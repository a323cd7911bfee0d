package domain_test

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"testing"

	"github.com/kdeps/intake/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code domain.AppErrorCode
		want int
	}{
		{domain.ErrCodeValidation, http.StatusBadRequest},
		{domain.ErrCodeDataFormat, http.StatusBadRequest},
		{domain.ErrCodeNotFound, http.StatusNotFound},
		{domain.ErrCodeUnauthorized, http.StatusForbidden},
		{domain.ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{domain.ErrCodeStorage, http.StatusInternalServerError},
		{domain.ErrCodeInternal, http.StatusInternalServerError},
		{domain.AppErrorCode("SOMETHING_ELSE"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, domain.GetHTTPStatus(tt.code))
		})
	}
}

func TestNewStorageErrorIncludesCause(t *testing.T) {
	cause := fs.ErrPermission
	err := domain.NewStorageError("failed to write video", cause)

	assert.Equal(t, domain.ErrCodeStorage, err.Code)
	assert.Equal(t, http.StatusInternalServerError, err.StatusCode)
	assert.Contains(t, err.Message, "failed to write video")
	assert.Contains(t, err.Message, cause.Error())
	assert.ErrorIs(t, err, fs.ErrPermission)
}

func TestIsCodeThroughWrapping(t *testing.T) {
	base := domain.NewNotFoundError("Video file x.mp4 not found")
	wrapped := fmt.Errorf("resolve: %w", base)

	assert.True(t, domain.IsCode(wrapped, domain.ErrCodeNotFound))
	assert.False(t, domain.IsCode(wrapped, domain.ErrCodeStorage))
	assert.False(t, domain.IsCode(errors.New("plain"), domain.ErrCodeNotFound))
}

func TestWithDetailsAndWithError(t *testing.T) {
	err := domain.NewAppError(domain.ErrCodeInternal, "")
	err.Details = nil

	err = err.WithDetails("id", "2024-01-01_10-00-00").WithError(errors.New("disk gone"))

	require.NotNil(t, err.Details)
	assert.Equal(t, "2024-01-01_10-00-00", err.Details["id"])
	assert.Equal(t, "disk gone", err.Message)
	assert.Equal(t, "[INTERNAL_ERROR] disk gone", err.Error())
}

func TestDataFormatError(t *testing.T) {
	cause := errors.New("invalid character")
	err := domain.NewDataFormatError("JSON data could not be parsed", cause)

	assert.Equal(t, domain.ErrCodeDataFormat, err.Code)
	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.ErrorIs(t, err, cause)
}
