package apihandlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"aicruit/internal/models"
	"aicruit/internal/store"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

// Error codes carried in APIError.Code.
const (
	CodeBadRequest  = "bad_request"
	CodeNotFound    = "not_found"
	CodeConflict    = "conflict"
	CodeInternal    = "internal_error"
	CodeUnavailable = "unavailable"
)

// APIError is the body of every failed API call.
// Example: { "error": { "code": "not_found", "message": "job posting 42: store: resource not found" } }
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error APIError `json:"error"`
}

// JSONError aborts the request with a structured error response.
func JSONError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: APIError{Code: code, Message: msg}})
}

func BadRequest(c *gin.Context, msg string) {
	JSONError(c, http.StatusBadRequest, CodeBadRequest, msg)
}

func NotFound(c *gin.Context, msg string) {
	JSONError(c, http.StatusNotFound, CodeNotFound, msg)
}

func Conflict(c *gin.Context, msg string) {
	JSONError(c, http.StatusConflict, CodeConflict, msg)
}

func Internal(c *gin.Context, msg string) {
	JSONError(c, http.StatusInternalServerError, CodeInternal, msg)
}

func Unavailable(c *gin.Context, msg string) {
	JSONError(c, http.StatusServiceUnavailable, CodeUnavailable, msg)
}

// respondWithError maps service and store errors to API error responses.
// Only unexpected errors are logged; the rest are client mistakes.
func respondWithError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		BadRequest(c, strings.TrimPrefix(err.Error(), models.ErrValidation.Error()+": "))
	case errors.Is(err, store.ErrNotFound), errors.Is(err, models.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, store.ErrDuplicate), errors.Is(err, store.ErrConflict), errors.Is(err, models.ErrConflict):
		Conflict(c, err.Error())
	default:
		log.WithError(err).WithField("op", op).Error("API request failed")
		Internal(c, fmt.Sprintf("%s: %v", op, err))
	}
}
