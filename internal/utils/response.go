package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"clinic-portal-server/internal/session"
	"clinic-portal-server/internal/upstream"
)

// ResponseData represents the structure of a standard API response.
type ResponseData struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Success sends a standard success response.
func Success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, ResponseData{
		Status:  http.StatusOK,
		Message: message,
		Data:    data,
	})
}

// Created sends a standard resource created response.
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, ResponseData{
		Status:  http.StatusCreated,
		Message: message,
		Data:    data,
	})
}

// Error sends a standard error response.
func Error(c *gin.Context, statusCode int, errorMessage string) {
	c.JSON(statusCode, ResponseData{
		Status:  statusCode,
		Message: "An error occurred",
		Error:   errorMessage,
	})
}

// BadRequest sends a 400 Bad Request error response.
func BadRequest(c *gin.Context, errorMessage string) {
	Error(c, http.StatusBadRequest, errorMessage)
}

// Unauthorized sends a 401 Unauthorized error response.
func Unauthorized(c *gin.Context, errorMessage string) {
	Error(c, http.StatusUnauthorized, errorMessage)
}

// NotFound sends a 404 Not Found error response.
func NotFound(c *gin.Context, errorMessage string) {
	Error(c, http.StatusNotFound, errorMessage)
}

// Conflict sends a 409 Conflict error response.
func Conflict(c *gin.Context, errorMessage string) {
	Error(c, http.StatusConflict, errorMessage)
}

// InternalServerError sends a 500 Internal Server Error response.
func InternalServerError(c *gin.Context, errorMessage string) {
	Error(c, http.StatusInternalServerError, errorMessage)
}

// FromError maps a classified session or upstream failure onto the response
// envelope. Every failure is recovered here; nothing propagates as a fault.
func FromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrInvalidStatus),
		errors.Is(err, session.ErrUnknownField),
		errors.Is(err, session.ErrNoPendingFile):
		BadRequest(c, err.Error())
	case errors.Is(err, session.ErrSessionBusy):
		Conflict(c, err.Error())
	case errors.Is(err, session.ErrSessionClosed):
		Error(c, http.StatusGone, err.Error())
	default:
		if ue, ok := upstream.AsError(err); ok {
			// Auth rejections pass through so the browser redirects to
			// login; everything else is a bad gateway from the portal's
			// point of view.
			switch ue.StatusCode {
			case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusBadRequest:
				Error(c, ue.StatusCode, ue.Error())
			default:
				Error(c, http.StatusBadGateway, ue.Error())
			}
			return
		}
		InternalServerError(c, err.Error())
	}
}
