package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"taskboard/internal/service"
)

// envelope is the body of every API response.
type envelope struct {
	Success    bool                `json:"success"`
	Message    string              `json:"message"`
	Data       any                 `json:"data,omitempty"`
	Pagination *paginationResponse `json:"pagination,omitempty"`
	Errors     []fieldError        `json:"errors,omitempty"`
}

type fieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

func respondPage(c *gin.Context, message string, data any, page paginationResponse) {
	c.JSON(http.StatusOK, envelope{Success: true, Message: message, Data: data, Pagination: &page})
}

func abortWithError(c *gin.Context, status int, message string, errs ...fieldError) {
	c.AbortWithStatusJSON(status, envelope{Success: false, Message: message, Errors: errs})
}

// fail maps service errors onto the error taxonomy. Anything unrecognised is
// logged and reported with the generic fallback message.
func (h *Handler) fail(c *gin.Context, err error, fallback string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		abortWithError(c, http.StatusBadRequest, verr.Message, fieldError{Field: verr.Field, Message: verr.Message})
	case errors.Is(err, service.ErrEmailTaken):
		abortWithError(c, http.StatusBadRequest, "Email already registered")
	case errors.Is(err, service.ErrInvalidCredentials):
		abortWithError(c, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, service.ErrAccountDisabled):
		abortWithError(c, http.StatusUnauthorized, "Account is deactivated")
	case errors.Is(err, service.ErrIncorrectPassword):
		abortWithError(c, http.StatusBadRequest, "Current password is incorrect")
	case errors.Is(err, service.ErrTaskNotFound):
		abortWithError(c, http.StatusNotFound, "Task not found")
	case errors.Is(err, service.ErrUserNotFound):
		abortWithError(c, http.StatusNotFound, "User not found")
	case errors.Is(err, service.ErrExportDisabled):
		abortWithError(c, http.StatusServiceUnavailable, "Task export is not configured")
	default:
		h.logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"request_id": c.GetString(requestIDKey),
		}).WithError(err).Error(fallback)
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}

// failBinding reports a request that could not be decoded or did not pass
// its binding tags.
func failBinding(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]fieldError, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, fieldError{Field: fe.Field(), Message: describeFieldError(fe)})
		}
		abortWithError(c, http.StatusBadRequest, out[0].Message, out...)
		return
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		abortWithError(c, http.StatusBadRequest, "Invalid JSON body")
	case errors.As(err, &typeErr):
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Invalid value for %s", typeErr.Field))
	default:
		abortWithError(c, http.StatusBadRequest, "Invalid request: "+err.Error())
	}
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "Please provide a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s cannot exceed %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
