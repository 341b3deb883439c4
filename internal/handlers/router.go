package handlers

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/job-application-tracker/internal/auth"
)

// Deps is everything the router wires into routes.
type Deps struct {
	Links        *LinkHandler
	Users        *UserHandler
	Auth         *AuthHandler
	Tokens       *auth.TokenIssuer
	FrontendURL  string
	MaxBodyBytes int64
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), RequestID())

	config := cors.DefaultConfig()
	config.AllowOrigins = []string{strings.TrimRight(d.FrontendURL, "/")}
	config.AllowCredentials = true
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	config.ExposeHeaders = []string{requestIDHeader}
	config.MaxAge = 12 * time.Hour
	r.Use(cors.New(config))

	r.GET("/", Root)
	r.GET("/health", HealthCheck)

	requireAuth := auth.RequireAuth(d.Tokens)

	api := r.Group("/api", LimitBody(d.MaxBodyBytes))
	{
		api.POST("/users/register", d.Users.Register)
		api.POST("/users/login", d.Users.Login)

		api.POST("/links/process", requireAuth, d.Links.ProcessLink)
	}

	a := r.Group("/auth")
	{
		a.GET("/login/microsoft", d.Auth.LoginMicrosoft)
		a.GET("/microsoft/callback", d.Auth.MicrosoftCallback)
		a.GET("/user", requireAuth, d.Auth.CurrentUser)
	}

	return r
}
