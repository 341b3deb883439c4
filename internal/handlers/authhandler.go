package handlers

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/job-application-tracker/internal/auth"
	"github.com/justsurfingit/job-application-tracker/internal/dtos"
	"github.com/justsurfingit/job-application-tracker/internal/models"
	"github.com/justsurfingit/job-application-tracker/internal/services"
)

const stateCookie = "oauth_state"

type AuthHandler struct {
	// Microsoft is nil when sign-in with Microsoft is not configured.
	Microsoft   *auth.MicrosoftAuth
	UserService *services.UserService
	Tokens      *auth.TokenIssuer
	FrontendURL string
	// SecureCookies marks cookies Secure; set it when served over https.
	SecureCookies bool
}

// LoginMicrosoft is the GET /auth/login/microsoft endpoint
func (h *AuthHandler) LoginMicrosoft(c *gin.Context) {
	if h.Microsoft == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Microsoft sign-in is not configured"})
		return
	}
	state := auth.NewState()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, state, int((10 * time.Minute).Seconds()), "/", "", h.SecureCookies, true)
	c.Redirect(http.StatusFound, h.Microsoft.AuthCodeURL(state))
}

// MicrosoftCallback is the GET /auth/microsoft/callback endpoint
func (h *AuthHandler) MicrosoftCallback(c *gin.Context) {
	if h.Microsoft == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Microsoft sign-in is not configured"})
		return
	}

	want, err := c.Cookie(stateCookie)
	c.SetCookie(stateCookie, "", -1, "/", "", h.SecureCookies, true)
	if err != nil || want == "" || c.Query("state") != want {
		log.Println("⚠️  Microsoft callback with missing or mismatched state")
		h.redirectFrontend(c, "error")
		return
	}
	if e := c.Query("error"); e != "" {
		log.Printf("⚠️  Microsoft sign-in refused: %s %s", e, c.Query("error_description"))
		h.redirectFrontend(c, "error")
		return
	}

	profile, err := h.Microsoft.Exchange(c.Request.Context(), c.Query("code"))
	if err != nil {
		log.Printf("❌ Microsoft sign-in failed: %v", err)
		h.redirectFrontend(c, "error")
		return
	}

	user, err := h.UserService.SignInExternal(c.Request.Context(), models.ProviderMicrosoft,
		profile.Email(), profile.Email(), profile.DisplayName, profile.ID)
	if err != nil {
		log.Printf("❌ Saving Microsoft user %s failed: %v", profile.Email(), err)
		h.redirectFrontend(c, "error")
		return
	}

	token, err := h.Tokens.Issue(user)
	if err != nil {
		log.Printf("❌ Issuing session for %s failed: %v", user.Username, err)
		h.redirectFrontend(c, "error")
		return
	}

	log.Printf("✅ %s signed in with Microsoft", user.Username)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.SessionCookie, token, int(h.Tokens.TTL().Seconds()), "/", "", h.SecureCookies, true)
	h.redirectFrontend(c, "success")
}

// CurrentUser is the GET /auth/user endpoint
func (h *AuthHandler) CurrentUser(c *gin.Context) {
	claims, ok := auth.ClaimsFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}
	c.JSON(http.StatusOK, dtos.SessionUser{
		ID:       claims.Subject,
		Name:     claims.Name,
		Email:    claims.Email,
		Provider: claims.Provider,
	})
}

func (h *AuthHandler) redirectFrontend(c *gin.Context, outcome string) {
	c.Redirect(http.StatusFound, strings.TrimRight(h.FrontendURL, "/")+"/?auth="+outcome)
}
