package auth

import "github.com/southern-apparels/sa-erp/internal/routes"

// CookieName is the cookie carrying the backend bearer token.
const CookieName = "auth_token"

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

type redirectResponse struct {
	Redirect string `json:"redirect"`
}

type loginResponse struct {
	User     any    `json:"user"`
	Redirect string `json:"redirect"`
}

var (
	afterLogin  = routes.Dashboard
	afterLogout = routes.Login
)
