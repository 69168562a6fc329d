package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/exactsync/internal/erperr"
	journaldomain "github.com/smallbiznis/exactsync/internal/journal/domain"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type         string            `json:"type"`
	Message      string            `json:"message"`
	Errors       []ValidationError `json:"errors,omitempty"`
	SKUs         []string          `json:"skus,omitempty"`
	AuthorizeURL string            `json:"authorize_url,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware(authorizeURL func() string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapErrorWithAuthorizeURL(lastErr.Err, authorizeURL)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

// mapErrorWithAuthorizeURL adds the authorization link to errors that can
// only be resolved by the user granting access again.
func mapErrorWithAuthorizeURL(err error, authorizeURL func() string) (int, errorPayload) {
	status, payload := mapError(err)
	if status == http.StatusUnauthorized && authorizeURL != nil && errors.Is(err, erperr.ErrAuthRequired) {
		payload.AuthorizeURL = authorizeURL()
	}
	return status, payload
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	switch {
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  []ValidationError{{Field: "request", Code: "invalid_request", Message: "invalid request"}},
		}
	case errors.Is(err, journaldomain.ErrInvalidPageToken):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  []ValidationError{{Field: "page_token", Code: "invalid_page_token", Message: "invalid page token"}},
		}
	}

	var erpErr *erperr.Error
	if errors.As(err, &erpErr) && erpErr != nil {
		return mapERPError(erpErr)
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// mapERPError keeps the kind as the public error type so callers can branch
// on it the same way the services do.
func mapERPError(e *erperr.Error) (int, errorPayload) {
	payload := errorPayload{Type: string(e.Kind), Message: e.Message}

	switch e.Kind {
	case erperr.KindValidation:
		return http.StatusUnprocessableEntity, payload
	case erperr.KindAuthRequired, erperr.KindTokenRefreshFailed:
		payload.Message = "exact online authorization required"
		return http.StatusUnauthorized, payload
	case erperr.KindEntityNotFound:
		return http.StatusUnprocessableEntity, payload
	case erperr.KindItemNotFound:
		payload.SKUs = e.SKUs
		return http.StatusUnprocessableEntity, payload
	case erperr.KindTransport, erperr.KindInvalidTokenResponse:
		if payload.Message == "" {
			payload.Message = "exact online request failed"
		}
		return http.StatusBadGateway, payload
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

// classifyErrorForLog returns the error type and code written to the request log.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	if vErr := asValidationErrors(err); vErr != nil {
		code := "invalid_request"
		if len(vErr.Errors) > 0 {
			code = vErr.Errors[0].Code
		}
		return "validation_error", code
	}
	var erpErr *erperr.Error
	if errors.As(err, &erpErr) && erpErr != nil {
		return string(erpErr.Kind), erpErr.Op
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized", "unauthorized"
	case errors.Is(err, ErrNotFound):
		return "not_found", "not_found"
	case errors.Is(err, journaldomain.ErrInvalidPageToken):
		return "validation_error", "invalid_page_token"
	case errors.Is(err, ErrInvalidRequest):
		return "validation_error", "invalid_request"
	default:
		return "internal_error", "internal_error"
	}
}
