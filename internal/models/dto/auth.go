package dto

import "github.com/hongminglow/foodie-be/internal/models"

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token    string          `json:"token"`
	Identity models.Identity `json:"user"`
}

type ForgetPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type ProfileRequest struct {
	Name     string `json:"name"`
	PhotoURL string `json:"photoURL"`
}
