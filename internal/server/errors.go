package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/KaramelBytes/gradeboard/internal/analysis"
	"github.com/KaramelBytes/gradeboard/internal/parser"
)

// APIError is the JSON error body returned by every endpoint.
type APIError struct {
	StatusCode int         `json:"-"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// NewAPIError builds an APIError.
func NewAPIError(status int, code, message string) *APIError {
	return &APIError{StatusCode: status, ErrorCode: code, Message: message}
}

var (
	errNoFile      = NewAPIError(http.StatusBadRequest, "NO_FILE", "form field gradeFile is required")
	errRateLimited = NewAPIError(http.StatusTooManyRequests, "RATE_LIMITED", "upload rate limit exceeded, retry later")
)

// ValidationIssue describes one rejected request field.
type ValidationIssue struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// fromError maps domain and decode errors onto HTTP statuses.
func fromError(err error) *APIError {
	var (
		apiErr   *APIError
		empty    *analysis.EmptyDatasetError
		classify *analysis.ClassificationError
		missing  *analysis.MissingDatasetError
		notFound *analysis.NotFoundError
		decode   *parser.DecodeError
		tooLarge *http.MaxBytesError
		invalid  validator.ValidationErrors
	)
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &tooLarge), strings.Contains(err.Error(), "request body too large"):
		return NewAPIError(http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "uploaded file exceeds the size limit")
	case errors.As(err, &empty):
		return NewAPIError(http.StatusUnprocessableEntity, "EMPTY_DATASET", err.Error())
	case errors.As(err, &classify):
		return NewAPIError(http.StatusUnprocessableEntity, "UNCLASSIFIABLE_TABLE", err.Error())
	case errors.As(err, &missing):
		return NewAPIError(http.StatusBadRequest, "NO_DATASET", err.Error())
	case errors.As(err, &notFound):
		code := "NOT_FOUND"
		switch notFound.Kind {
		case "student":
			code = "STUDENT_NOT_FOUND"
		case "class":
			code = "CLASS_NOT_FOUND"
		}
		return NewAPIError(http.StatusNotFound, code, err.Error())
	case errors.Is(err, parser.ErrUnsupported):
		return NewAPIError(http.StatusBadRequest, "UNSUPPORTED_FORMAT", err.Error())
	case errors.As(err, &decode):
		return NewAPIError(http.StatusBadRequest, "DECODE_FAILED", err.Error())
	case errors.As(err, &invalid):
		issues := make([]ValidationIssue, 0, len(invalid))
		for _, fe := range invalid {
			issues = append(issues, ValidationIssue{Field: fe.Field(), Rule: fe.Tag()})
		}
		return &APIError{
			StatusCode: http.StatusBadRequest,
			ErrorCode:  "VALIDATION_FAILED",
			Message:    "request validation failed",
			Details:    issues,
		}
	default:
		return NewAPIError(http.StatusInternalServerError, "INTERNAL", "internal error")
	}
}
