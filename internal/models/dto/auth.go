package dto

import "github.com/soultie/soultie-be/internal/models"

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Photo    string `json:"photo"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type RoleUpdateRequest struct {
	Role string `json:"role"`
}

type MembershipUpdateRequest struct {
	Type string `json:"type"`
}
