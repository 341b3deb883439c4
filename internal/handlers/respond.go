package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/job-application-tracker/internal/dtos"
	"github.com/justsurfingit/job-application-tracker/internal/services"
)

// writeProcessError answers with the status and code tagged on err.
func writeProcessError(c *gin.Context, op string, err error) {
	pe := services.AsProcessError(op, err)
	c.JSON(pe.HTTPStatus(), dtos.ErrorResponse{
		Error:   pe.Kind.Code(),
		Details: pe.Error(),
	})
}

// bindJSON decodes the request body into obj. On failure it has already
// answered: 413 when the body went past LimitBody, 400 otherwise.
func bindJSON(c *gin.Context, obj any) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeProcessError(c, "read request", err)
		return false
	}
	c.JSON(http.StatusBadRequest, dtos.ErrorResponse{
		Error:   "invalid_request",
		Details: "Invalid JSON format: " + err.Error(),
	})
	return false
}
