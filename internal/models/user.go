package models

import (
	"strings"
	"time"
)

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	AuthID    string    `json:"auth_id"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// DisplayName returns the name shown in the header, falling back to the username.
func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.Name); name != "" {
		return name
	}
	return u.Username
}

// Profile is the sign-up metadata stored alongside the identity.
type Profile struct {
	Username string `json:"username"`
	Name     string `json:"name"`
}

type RegisterRequest struct {
	Username        string `json:"username"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type LoginRequest struct {
	// Identifier is either a username or an email address.
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// MeResponse is the signed-in user plus the name the header shows.
type MeResponse struct {
	User
	DisplayName string `json:"display_name"`
}

type UsernameAvailabilityResponse struct {
	Username  string `json:"username"`
	Available bool   `json:"available"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
