package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/villastay/backend/internal/apperr"
)

// Body is the standard API response envelope.
type Body struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// NoContent sends 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, err string) {
	c.JSON(http.StatusBadRequest, Body{Success: false, Error: err, Code: "validation_error"})
}

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, err string) {
	c.JSON(http.StatusUnauthorized, Body{Success: false, Error: err, Code: "unauthorized"})
}

// Forbidden sends 403.
func Forbidden(c *gin.Context, err string) {
	c.JSON(http.StatusForbidden, Body{Success: false, Error: err, Code: "forbidden"})
}

// NotFound sends 404.
func NotFound(c *gin.Context, err string) {
	c.JSON(http.StatusNotFound, Body{Success: false, Error: err, Code: "not_found"})
}

// Internal sends 500.
func Internal(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, Body{Success: false, Error: err, Code: "internal_error"})
}

// Error maps a service error to its status and structured body.
// Internal errors are reported with a generic message only; the caller logs the cause.
func Error(c *gin.Context, err error) {
	status := apperr.Status(err)
	body := Body{Success: false, Code: apperr.Code(err)}
	if status == http.StatusInternalServerError {
		body.Error = "something went wrong, please try again"
		c.JSON(status, body)
		return
	}
	body.Error = err.Error()

	var (
		ve *apperr.ValidationError
		ce *apperr.ConflictError
		cp *apperr.CouponError
		te *apperr.TransitionError
	)
	switch {
	case errors.As(err, &ve):
		body.Error = ve.Error()
		body.Details = ve
	case errors.As(err, &ce):
		body.Details = ce
	case errors.As(err, &cp):
		body.Error = cp.Error()
		body.Details = cp
	case errors.As(err, &te):
		body.Details = te
	}
	c.JSON(status, body)
}

// Fail renders err like Error and logs it when it is an internal failure.
func Fail(c *gin.Context, logger *zap.Logger, err error) {
	if apperr.Status(err) == http.StatusInternalServerError && logger != nil {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Error(err),
		)
	}
	Error(c, err)
}
