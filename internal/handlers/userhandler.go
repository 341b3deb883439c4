package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/job-application-tracker/internal/auth"
	"github.com/justsurfingit/job-application-tracker/internal/dtos"
	"github.com/justsurfingit/job-application-tracker/internal/services"
)

type UserHandler struct {
	UserService *services.UserService
	Tokens      *auth.TokenIssuer
}

func NewUserHandler(users *services.UserService, tokens *auth.TokenIssuer) *UserHandler {
	return &UserHandler{UserService: users, Tokens: tokens}
}

// Register is the POST /api/users/register endpoint
func (h *UserHandler) Register(c *gin.Context) {
	var req dtos.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	_, err := h.UserService.Register(c.Request.Context(), &req)
	switch {
	case errors.Is(err, services.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"message": "Username already taken"})
		return
	case errors.Is(err, services.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		log.Printf("❌ Register %q failed: %v", req.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully"})
}

// Login is the POST /api/users/login endpoint
func (h *UserHandler) Login(c *gin.Context) {
	var req dtos.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.UserService.Login(c.Request.Context(), &req)
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"message": "User not found"})
		return
	case errors.Is(err, services.ErrInvalidPassword):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid password"})
		return
	case err != nil:
		log.Printf("❌ Login %q failed: %v", req.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	token, err := h.Tokens.Issue(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dtos.LoginResponse{Message: "Login successful", Token: token})
}
