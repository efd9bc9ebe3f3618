package backend

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/southern-apparels/sa-erp/internal/routes"
)

// TokenResponse is the backend login answer.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// RegisterRequest is the self sign-up payload.
type RegisterRequest struct {
	Username    string `json:"username" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	FullName    string `json:"full_name" validate:"required"`
	Role        string `json:"role,omitempty"`
	Department  string `json:"department,omitempty"`
	Designation string `json:"designation,omitempty"`
}

// AuthService talks to the backend auth endpoints.
type AuthService struct {
	client *Client
}

// Login exchanges credentials for an access token.
func (s AuthService) Login(ctx context.Context, username, password string) (TokenResponse, error) {
	var out TokenResponse
	body := map[string]string{"username": username, "password": password}
	err := s.client.DoJSON(ctx, http.MethodPost, routes.AuthLogin, "", body, &out)
	return out, err
}

// Logout tells the backend the token is no longer in use.
func (s AuthService) Logout(ctx context.Context, token string) error {
	_, err := s.client.Do(ctx, http.MethodPost, routes.AuthLogout, token, nil)
	return err
}

// Register creates an account.
func (s AuthService) Register(ctx context.Context, req RegisterRequest) (json.RawMessage, error) {
	return s.client.Do(ctx, http.MethodPost, routes.AuthRegister, "", req)
}

// Me decodes the profile of the token's owner into dest.
func (s AuthService) Me(ctx context.Context, token string, dest any) error {
	return s.client.DoJSON(ctx, http.MethodGet, routes.AuthMe, token, nil, dest)
}

// ForgotPassword starts a password reset for the email.
func (s AuthService) ForgotPassword(ctx context.Context, email string) (json.RawMessage, error) {
	return s.client.Do(ctx, http.MethodPost, routes.AuthForgotPassword, "", map[string]string{"email": email})
}

// ResetPassword completes a reset with the emailed token.
func (s AuthService) ResetPassword(ctx context.Context, resetToken, newPassword string) (json.RawMessage, error) {
	body := map[string]string{"token": resetToken, "new_password": newPassword}
	return s.client.Do(ctx, http.MethodPost, routes.AuthResetPassword, "", body)
}
