package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/job-application-tracker/internal/auth"
	"github.com/justsurfingit/job-application-tracker/internal/dtos"
	"github.com/justsurfingit/job-application-tracker/internal/services"
)

// LinkProcessor is the part of services.LinkService the handler needs.
type LinkProcessor interface {
	Process(ctx context.Context, link, email string) (*services.NotificationRequest, error)
}

type LinkHandler struct {
	LinkService LinkProcessor
}

func NewLinkHandler(links LinkProcessor) *LinkHandler {
	return &LinkHandler{LinkService: links}
}

// ProcessLink is the POST /api/links/process endpoint
func (h *LinkHandler) ProcessLink(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok || claims.Email == "" {
		c.JSON(http.StatusUnauthorized, dtos.ErrorResponse{
			Error:   "Not authenticated",
			Details: "session has no email address to notify",
		})
		return
	}

	var req dtos.LinkProcessRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.LinkService.Process(c.Request.Context(), req.Link, claims.Email)
	if err != nil {
		writeProcessError(c, "process link", err)
		return
	}

	c.JSON(http.StatusOK, dtos.LinkProcessResponse{
		Message:         "Email sent successfully",
		JobTitle:        result.JobTitle,
		CompanyName:     result.CompanyName,
		CompanyLocation: result.CompanyLocation,
	})
}
