package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/microsoft"
)

const graphMeURL = "https://graph.microsoft.com/v1.0/me"

// MicrosoftAuth runs the Azure AD authorization-code flow.
type MicrosoftAuth struct {
	OAuth *oauth2.Config
	// ProfileURL is the Graph endpoint the signed-in profile is read from.
	ProfileURL string
}

func NewMicrosoftAuth(clientID, clientSecret, tenantID, redirectURL string) *MicrosoftAuth {
	return &MicrosoftAuth{
		OAuth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     microsoft.AzureADEndpoint(tenantID),
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "profile", "email", "User.Read"},
		},
		ProfileURL: graphMeURL,
	}
}

// MicrosoftProfile is the subset of the Graph user we care about.
type MicrosoftProfile struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
}

// Email prefers the mailbox address and falls back to the sign-in name,
// which for most work and school accounts is also an address.
func (p MicrosoftProfile) Email() string {
	if p.Mail != "" {
		return p.Mail
	}
	return p.UserPrincipalName
}

// NewState returns an unguessable value for the OAuth state parameter.
func NewState() string {
	return uuid.NewString()
}

func (m *MicrosoftAuth) AuthCodeURL(state string) string {
	return m.OAuth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the callback code for a token and loads the profile with it.
func (m *MicrosoftAuth) Exchange(ctx context.Context, code string) (*MicrosoftProfile, error) {
	tok, err := m.OAuth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.ProfileURL, nil)
	if err != nil {
		return nil, err
	}
	res, err := m.OAuth.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("load profile: status %d", res.StatusCode)
	}

	var p MicrosoftProfile
	if err := json.NewDecoder(res.Body).Decode(&p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if p.Email() == "" {
		return nil, fmt.Errorf("profile %s has no email address", p.ID)
	}
	return &p, nil
}
