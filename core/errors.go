package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	SyncErrorBadInput          = "MEETSYNC_BAD_INPUT"
	SyncErrorNotConnected      = "MEETSYNC_NOT_CONNECTED"
	SyncErrorProviderNotFound  = "MEETSYNC_PROVIDER_NOT_FOUND"
	SyncErrorRefreshFailed     = "MEETSYNC_REFRESH_FAILED"
	SyncErrorProviderAPIFailed = "MEETSYNC_PROVIDER_API_FAILED"
	SyncErrorPushFailed        = "MEETSYNC_PUSH_FAILED"
	SyncErrorInternal          = "MEETSYNC_INTERNAL_ERROR"
)

// MaxProviderErrorDetail bounds how much of a provider response body is
// carried inside an error envelope. Tokens are never part of detail.
const MaxProviderErrorDetail = 256

// TruncateDetail clamps provider error detail to MaxProviderErrorDetail
// bytes so oversized HTML error pages do not bloat logs or envelopes.
func TruncateDetail(detail string) string {
	detail = strings.TrimSpace(detail)
	if len(detail) <= MaxProviderErrorDetail {
		return detail
	}
	return detail[:MaxProviderErrorDetail]
}

func syncErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureSyncErrorEnvelope(richErr)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "unknown provider"), strings.Contains(msg, "not registered"):
		return newSyncError(err.Error(), goerrors.CategoryNotFound, SyncErrorProviderNotFound)
	case strings.Contains(msg, "connection not found"), strings.Contains(msg, "not connected"):
		return newSyncError(err.Error(), goerrors.CategoryAuth, SyncErrorNotConnected)
	case strings.Contains(msg, "refresh"):
		return newSyncError(err.Error(), goerrors.CategoryAuth, SyncErrorRefreshFailed)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "mismatch"):
		return newSyncError(err.Error(), goerrors.CategoryBadInput, SyncErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureSyncErrorEnvelope(mapped)
}

func newSyncError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureSyncErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureSyncErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = syncHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultSyncTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultSyncTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return SyncErrorBadInput
	case goerrors.CategoryNotFound:
		return SyncErrorProviderNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return SyncErrorNotConnected
	case goerrors.CategoryExternal:
		return SyncErrorProviderAPIFailed
	case goerrors.CategoryOperation:
		return SyncErrorPushFailed
	default:
		return SyncErrorInternal
	}
}

func syncHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryRateLimit:
		return http.StatusTooManyRequests
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// NotConnectedError builds the canonical "no usable connection" envelope.
func NotConnectedError(userID, providerID string) *goerrors.Error {
	return goerrors.New("connection not found for user and provider", goerrors.CategoryAuth).
		WithCode(http.StatusUnauthorized).
		WithTextCode(SyncErrorNotConnected).
		WithMetadata(map[string]any{
			"user_id":  userID,
			"provider": providerID,
		})
}

// RefreshFailedError wraps a provider refresh failure with bounded detail.
func RefreshFailedError(providerID string, statusCode int, detail string) *goerrors.Error {
	return goerrors.New("provider token refresh failed", goerrors.CategoryAuth).
		WithCode(http.StatusUnauthorized).
		WithTextCode(SyncErrorRefreshFailed).
		WithMetadata(map[string]any{
			"provider":    providerID,
			"status_code": statusCode,
			"detail":      TruncateDetail(detail),
		})
}

// ProviderAPIError wraps a non-2xx provider list/read response.
func ProviderAPIError(providerID string, statusCode int, detail string) *goerrors.Error {
	return goerrors.New("provider API request failed", goerrors.CategoryExternal).
		WithCode(http.StatusBadGateway).
		WithTextCode(SyncErrorProviderAPIFailed).
		WithMetadata(map[string]any{
			"provider":    providerID,
			"status_code": statusCode,
			"detail":      TruncateDetail(detail),
		})
}

// PushFailedError wraps a calendar write failure with bounded detail.
func PushFailedError(statusCode int, detail string) *goerrors.Error {
	return goerrors.New("calendar push failed", goerrors.CategoryOperation).
		WithCode(http.StatusBadGateway).
		WithTextCode(SyncErrorPushFailed).
		WithMetadata(map[string]any{
			"status_code": statusCode,
			"detail":      TruncateDetail(detail),
		})
}
