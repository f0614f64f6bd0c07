package model

import "time"

// User represents a user row in the database.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Country      string
	Image        string
	IsVerified   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Response converts a User to its API representation.
func (u *User) Response() UserResponse {
	return UserResponse{
		ID:         u.ID,
		Email:      u.Email,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		Country:    u.Country,
		Image:      u.Image,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Country      string `json:"country"`
	Image        string `json:"image"`
	FrontBaseURL string `json:"frontBaseUrl"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents a successful login with a signed session token.
type LoginResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

// UpdateUserRequest carries the profile fields settable through the generic
// update path. Email, password and verification status deliberately have no
// fields here, so they cannot be changed via PUT.
type UpdateUserRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Country   *string `json:"country"`
	Image     *string `json:"image"`
}

// ResetPasswordRequest represents a password-reset email request.
type ResetPasswordRequest struct {
	Email        string `json:"email"`
	FrontBaseURL string `json:"frontBaseUrl"`
}

// ChangePasswordRequest carries the new password for a reset code redemption.
type ChangePasswordRequest struct {
	Password string `json:"password"`
}

// UserResponse represents user data safe for API responses (no sensitive fields).
type UserResponse struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Country    string    `json:"country"`
	Image      string    `json:"image"`
	IsVerified bool      `json:"isVerified"`
	CreatedAt  time.Time `json:"createdAt"`
}
