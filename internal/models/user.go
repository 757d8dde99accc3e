package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// User represents a registered diary user
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"displayName"`
	PasswordHash string    `json:"-"` // Never exposed
	CreatedAt    time.Time `json:"createdAt"`
	IsActive     bool      `json:"isActive"`
}

// UserResponse is the safe response format
type UserResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewUser creates a new user with a hashed password.
// The display name defaults to the local part of the email address.
func NewUser(email, password string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	if email == "" {
		return nil, ErrEmptyEmail
	}
	if !emailRegex.MatchString(email) {
		return nil, ErrInvalidEmail
	}

	user := &User{
		ID:          uuid.New().String(),
		Email:       email,
		DisplayName: strings.SplitN(email, "@", 2)[0],
		CreatedAt:   time.Now().UTC(),
		IsActive:    true,
	}

	if err := user.SetPassword(password); err != nil {
		return nil, err
	}

	return user, nil
}

// ToResponse converts User to UserResponse (safe for API)
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

// SetPassword hashes and sets the user's password using bcrypt (cost 12)
func (u *User) SetPassword(password string) error {
	if len(password) < 6 {
		return ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	u.PasswordHash = string(hash)
	return nil
}

// VerifyPassword checks if the provided password matches the hash (constant-time via bcrypt)
func (u *User) VerifyPassword(password string) bool {
	if u.PasswordHash == "" {
		return false
	}

	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// User errors
var (
	ErrEmptyEmail         = UserError{"email cannot be empty"}
	ErrInvalidEmail       = UserError{"email address is not valid"}
	ErrUserNotFound       = UserError{"user not found"}
	ErrEmailExists        = UserError{"email already registered"}
	ErrPasswordTooShort   = UserError{"password must be at least 6 characters"}
	ErrPasswordMismatch   = UserError{"passwords do not match"}
	ErrInvalidCredentials = UserError{"invalid email or password"}
)

type UserError struct {
	Message string
}

func (e UserError) Error() string {
	return e.Message
}
