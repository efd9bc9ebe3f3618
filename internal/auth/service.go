package auth

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/southern-apparels/sa-erp/internal/access"
	"github.com/southern-apparels/sa-erp/internal/backend"
)

// Backend is the subset of the backend auth API used by the gateway.
type Backend interface {
	Login(ctx context.Context, username, password string) (backend.TokenResponse, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, token string, dest any) error
	Register(ctx context.Context, req backend.RegisterRequest) (json.RawMessage, error)
	ForgotPassword(ctx context.Context, email string) (json.RawMessage, error)
	ResetPassword(ctx context.Context, resetToken, newPassword string) (json.RawMessage, error)
}

// Service bootstraps sessions against the backend.
type Service struct {
	backend Backend
	store   Store
}

// NewService constructs a new Service.
func NewService(b Backend, store Store) *Service {
	return &Service{backend: b, store: store}
}

// Login exchanges credentials for a token and caches the owner's profile.
func (s *Service) Login(ctx context.Context, username, password string) (string, *access.User, error) {
	tok, err := s.backend.Login(ctx, username, password)
	if err != nil {
		return "", nil, loginError(err)
	}
	if tok.AccessToken == "" {
		return "", nil, &backend.APIError{Status: 502, Detail: "Login failed"}
	}
	user, err := s.fetchProfile(ctx, tok.AccessToken)
	if err != nil {
		return "", nil, err
	}
	return tok.AccessToken, user, nil
}

// Logout drops the cached profile and notifies the backend. Backend failures do not
// keep the user signed in.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	_ = s.backend.Logout(ctx, token)
	return s.store.Delete(ctx, token)
}

// Me returns the cached profile, loading it from the backend on a miss.
func (s *Service) Me(ctx context.Context, token string) (*access.User, error) {
	user, err := s.store.Get(ctx, token)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return nil, err
	}
	return s.fetchProfile(ctx, token)
}

func (s *Service) fetchProfile(ctx context.Context, token string) (*access.User, error) {
	var user access.User
	if err := s.backend.Me(ctx, token, &user); err != nil {
		return nil, err
	}
	if err := s.store.Put(ctx, token, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Register creates an account on the backend.
func (s *Service) Register(ctx context.Context, req backend.RegisterRequest) (json.RawMessage, error) {
	return s.backend.Register(ctx, req)
}

// ForgotPassword starts a reset.
func (s *Service) ForgotPassword(ctx context.Context, email string) (json.RawMessage, error) {
	return s.backend.ForgotPassword(ctx, email)
}

// ResetPassword completes a reset.
func (s *Service) ResetPassword(ctx context.Context, resetToken, newPassword string) (json.RawMessage, error) {
	return s.backend.ResetPassword(ctx, resetToken, newPassword)
}

// loginError keeps the backend status and replaces generic details with "Login failed".
func loginError(err error) error {
	var apiErr *backend.APIError
	if !errors.As(err, &apiErr) || apiErr == backend.ErrUnavailable {
		return err
	}
	if apiErr.Detail == "" || strings.HasPrefix(apiErr.Detail, "API Error:") {
		return &backend.APIError{Status: apiErr.Status, Detail: "Login failed"}
	}
	return apiErr
}
