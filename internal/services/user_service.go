package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/justsurfingit/job-application-tracker/internal/dtos"
	"github.com/justsurfingit/job-application-tracker/internal/models"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidInput    = errors.New("invalid input")
)

type UserService struct {
	Store UserStore
}

func NewUserService(store UserStore) *UserService {
	return &UserService{Store: store}
}

// Register creates a local account. The notification address defaults to the
// username when the username is itself an email address.
func (s *UserService) Register(ctx context.Context, req *dtos.RegisterRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		if addr, err := mail.ParseAddress(username); err == nil {
			email = addr.Address
		}
	} else {
		addr, err := mail.ParseAddress(email)
		if err != nil {
			return nil, fmt.Errorf("%w: email is not a valid address", ErrInvalidInput)
		}
		email = addr.Address
	}

	if _, err := s.Store.FindByUsername(ctx, models.ProviderLocal, username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Provider:     models.ProviderLocal,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.Store.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login checks credentials and returns the account.
func (s *UserService) Login(ctx context.Context, req *dtos.LoginRequest) (*models.User, error) {
	user, err := s.Store.FindByUsername(ctx, models.ProviderLocal, strings.TrimSpace(req.Username))
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidPassword
	}
	return user, nil
}

// SignInExternal records a user who authenticated with an outside provider.
func (s *UserService) SignInExternal(ctx context.Context, provider, username, email, name, externalID string) (*models.User, error) {
	if username == "" {
		return nil, fmt.Errorf("%w: %s account has no username", ErrInvalidInput, provider)
	}
	return s.Store.UpsertExternal(ctx, &models.User{
		Username:   username,
		Provider:   provider,
		Email:      email,
		Name:       name,
		ExternalID: externalID,
	})
}
