// Package response writes HTTP responses for the ragquery endpoints.
//
// Successful results are JSON. Failures are plain text: caller errors (4xx)
// carry the bare message, server errors (5xx) are prefixed with "Error: ".
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/ragquery/pkg/utils/errors"
)

// ErrorPrefix is prepended to 5xx bodies.
const ErrorPrefix = "Error: "

// OK writes v as a 200 JSON body.
func OK(c *gin.Context, v any) {
	c.JSON(http.StatusOK, v)
}

// Fail writes err as a plain-text body with the status its Errno maps to.
// Errors without an Errno in their chain are reported as internal errors.
func Fail(c *gin.Context, err error) {
	e := errors.FromError(err)
	status := e.HTTPStatus()
	c.Data(status, "text/plain; charset=utf-8", []byte(Body(e)))
}

// Abort writes err like Fail and stops the handler chain.
func Abort(c *gin.Context, err error) {
	Fail(c, err)
	c.Abort()
}

// Body returns the plain-text body for e.
func Body(e *errors.Errno) string {
	if e.HTTPStatus() < http.StatusInternalServerError {
		return e.Message
	}
	return ErrorPrefix + e.Error()
}
