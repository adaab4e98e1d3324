package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"job-tracker/internal/repository"
	"job-tracker/internal/service"
)

const (
	codeDuplicateUsername  = "DuplicateUsername"
	codeInvalidCredentials = "InvalidCredentials"
	codeInvalidToken       = "InvalidToken"
	codeUnauthorized       = "Unauthorized"
	codeForbidden          = "Forbidden"
	codeNotFound           = "NotFound"
	codeBadRequest         = "BadRequest"
	codeInternal           = "InternalError"
	codeRateLimited        = "RateLimited"
	codeStorageUnavailable = "StorageUnavailable"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: code, Message: message})
}

// writeError maps service and repository errors onto HTTP statuses. Anything
// unrecognized is logged and answered with a generic 500.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDuplicateUsername):
		abortWithError(c, http.StatusBadRequest, codeDuplicateUsername, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		abortWithError(c, http.StatusBadRequest, codeInvalidCredentials, err.Error())
	case errors.Is(err, service.ErrInvalidToken):
		abortWithError(c, http.StatusUnauthorized, codeInvalidToken, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		c.Header("WWW-Authenticate", `Bearer error="invalid_token"`)
		abortWithError(c, http.StatusUnauthorized, codeUnauthorized, service.ErrUnauthorized.Error())
	case errors.Is(err, service.ErrForbidden):
		abortWithError(c, http.StatusForbidden, codeForbidden, err.Error())
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInvalidReference):
		abortWithError(c, http.StatusBadRequest, codeBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		abortWithError(c, http.StatusNotFound, codeNotFound, "resource not found")
	case errors.Is(err, service.ErrStorageUnavailable):
		abortWithError(c, http.StatusServiceUnavailable, codeStorageUnavailable, err.Error())
	default:
		h.logger.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("request failed")
		abortWithError(c, http.StatusInternalServerError, codeInternal, "internal server error")
	}
}

func badRequest(c *gin.Context, message string) {
	abortWithError(c, http.StatusBadRequest, codeBadRequest, message)
}
