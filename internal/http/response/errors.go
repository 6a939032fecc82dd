package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/agencyledger-backend/internal/domain/aggregates"
)

var codeStatus = map[domainagg.ErrorCode]int{
	domainagg.CodeValidation:             http.StatusBadRequest,
	domainagg.CodeInvalidAmount:          http.StatusUnprocessableEntity,
	domainagg.CodeInvalidObligationShape: http.StatusUnprocessableEntity,
	domainagg.CodeUnauthorized:           http.StatusForbidden,
	domainagg.CodeCrossTenantReference:   http.StatusForbidden,
	domainagg.CodeEntryNotFound:          http.StatusNotFound,
	domainagg.CodeObligationNotFound:     http.StatusNotFound,
	domainagg.CodeProjectNotFound:        http.StatusNotFound,
	domainagg.CodeAssignmentNotFound:     http.StatusNotFound,
	domainagg.CodeConflict:               http.StatusConflict,
	domainagg.CodeAggregationFailed:      http.StatusInternalServerError,
	domainagg.CodeInternal:               http.StatusInternalServerError,
	domainagg.CodeAggregationTimeout:     http.StatusServiceUnavailable,
}

// StatusFor maps an aggregate error code to its HTTP status. Unknown codes are 500.
func StatusFor(code domainagg.ErrorCode) int {
	if s, ok := codeStatus[code]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// RespondDomainError renders err with the status of its aggregate code. Internal failures
// never leak their cause to the client.
func RespondDomainError(c *gin.Context, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}
	code := domainagg.CodeOf(err)
	if code == "" {
		code = domainagg.CodeInternal
	}
	status := StatusFor(code)
	_ = c.Error(err)

	body := APIError{Code: string(code), Message: err.Error()}
	var aggErr *domainagg.Error
	if errors.As(err, &aggErr) && aggErr.Message != "" {
		body.Message = aggErr.Message
	}
	switch {
	case domainagg.IsRetryable(err):
		body.Retryable = true
		c.Header("Retry-After", "1")
	case status >= http.StatusInternalServerError:
		body.Message = "internal error"
	}
	writeError(c, status, body)
}
