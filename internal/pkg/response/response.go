package response

import (
	"errors"
	"net/http"
	"reflect"

	"github.com/gin-gonic/gin"
	"github.com/skillpath/core/internal/pkg/apperr"
)

// OK sends a 200 response. Arrays/slices are wrapped in {data: [...]}.
func OK(c *gin.Context, data interface{}) {
	if data != nil {
		v := reflect.ValueOf(data)
		if v.Kind() == reflect.Slice {
			c.JSON(http.StatusOK, gin.H{"data": data})
			return
		}
	}
	c.JSON(http.StatusOK, data)
}

// Created sends a 201 response.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// BadRequest sends a 400 error response.
func BadRequest(c *gin.Context, message string) {
	abortWith(c, http.StatusBadRequest, message, "")
}

// NotFoundMsg sends a 404 error response.
func NotFoundMsg(c *gin.Context, message string) {
	abortWith(c, http.StatusNotFound, message, "")
}

// MethodNotAllowed sends a 405 error response.
func MethodNotAllowed(c *gin.Context) {
	abortWith(c, http.StatusMethodNotAllowed, "method not allowed", "")
}

// InternalError sends a 500 error response.
func InternalError(c *gin.Context, err error) {
	abortWith(c, http.StatusInternalServerError, err.Error(), "")
}

// Error maps an application error to its HTTP representation.
func Error(c *gin.Context, err error) {
	var e *apperr.Error
	if !errors.As(err, &e) {
		InternalError(c, err)
		return
	}
	switch e.Kind {
	case apperr.KindNotFound:
		abortWith(c, http.StatusNotFound, e.Message, "")
	case apperr.KindValidation:
		abortWith(c, http.StatusUnprocessableEntity, e.Message, "")
	case apperr.KindExternal:
		abortWith(c, http.StatusBadGateway, e.Message, e.Stage)
	default:
		InternalError(c, err)
	}
}

func abortWith(c *gin.Context, code int, message, stage string) {
	body := gin.H{"ok": 0, "code": code, "message": message}
	if stage != "" {
		body["stage"] = stage
	}
	c.AbortWithStatusJSON(code, body)
}
