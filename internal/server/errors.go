package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	paymentdomain "github.com/smallbiznis/payrelay/internal/payment/domain"
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

// errorResponse is the body of every JSON error the relay returns.
type errorResponse struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

var (
	ErrRateLimited = errors.New("rate_limited")
	ErrInternal    = errors.New("internal_error")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, payload)
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

// bindingError turns a gin binding failure into field-level validation errors.
func bindingError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return invalidRequestError()
	}
	out := &ValidationErrors{Errors: make([]ValidationError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Errors = append(out.Errors, ValidationError{
			Field:   strings.ToLower(fe.Field()),
			Code:    fe.Tag(),
			Message: "invalid value",
		})
	}
	return out
}

func mapError(err error) (int, errorResponse) {
	if err == nil {
		return http.StatusInternalServerError, errorResponse{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	var gwErr *paymentdomain.GatewayError
	if errors.As(err, &gwErr) && gwErr != nil {
		return mapGatewayError(gwErr)
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorResponse{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorResponse{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, paymentdomain.ErrInvalidSignature):
		return http.StatusUnauthorized, errorResponse{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorResponse{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	default:
		return http.StatusInternalServerError, errorResponse{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func mapGatewayError(err *paymentdomain.GatewayError) (int, errorResponse) {
	status := err.Status
	if status <= 0 {
		status = http.StatusBadGateway
	}
	errType := "gateway_error"
	if err.Kind == paymentdomain.GatewayTransport {
		errType = "gateway_unavailable"
	}
	message := strings.TrimSpace(err.Message)
	if message == "" {
		message = "payment gateway error"
	}
	return status, errorResponse{
		Type:    errType,
		Message: message,
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

var validationSentinels = []error{
	paymentdomain.ErrInvalidReference,
	paymentdomain.ErrMissingReference,
	paymentdomain.ErrInvalidEmail,
	paymentdomain.ErrInvalidAmount,
	paymentdomain.ErrInvalidPayload,
}

func isValidationError(err error) bool {
	return validationErrorCode(err) != ""
}

func validationErrorCode(err error) string {
	for _, sentinel := range validationSentinels {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return ""
}

func validationErrorField(code string) string {
	switch {
	case code == paymentdomain.ErrMissingReference.Error():
		return "reference"
	case strings.HasPrefix(code, "invalid_"):
		return strings.TrimPrefix(code, "invalid_")
	default:
		return ""
	}
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	case "missing_reference":
		return "reference is required"
	default:
		return "invalid value"
	}
}

// classifyErrorForLog reports the error type and code for request logs.
func classifyErrorForLog(err error) (string, string) {
	var gwErr *paymentdomain.GatewayError
	if errors.As(err, &gwErr) && gwErr != nil {
		return "gateway_" + string(gwErr.Kind), gwErr.Operation
	}
	status, payload := mapError(err)
	if status == http.StatusBadRequest && len(payload.Errors) > 0 {
		return payload.Type, payload.Errors[0].Code
	}
	return payload.Type, ""
}
