package auth

import "strings"

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RegisterDTO is the transport shape for account creation.
type RegisterDTO struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshTokenDTO for refresh token requests
type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

// ValidationError represents a simple validation error from DTO validation.
type ValidationError struct {
	Msg string
}

func (v ValidationError) Error() string { return v.Msg }

// Validate checks required fields and returns a ValidationError on failure.
func (d LoginDTO) Validate() error {
	if strings.TrimSpace(d.Username) == "" {
		return ValidationError{Msg: "username is required"}
	}
	if d.Password == "" {
		return ValidationError{Msg: "password is required"}
	}
	return nil
}

func (d RegisterDTO) Validate() error {
	if strings.TrimSpace(d.Username) == "" {
		return ValidationError{Msg: "username is required"}
	}
	if !strings.Contains(d.Email, "@") {
		return ValidationError{Msg: "a valid email is required"}
	}
	if len(d.Password) < 8 {
		return ValidationError{Msg: "password must be at least 8 characters"}
	}
	return nil
}

// Validate for refresh token DTO
func (d RefreshTokenDTO) Validate() error {
	if d.RefreshToken == "" {
		return ValidationError{Msg: "refresh_token is required"}
	}
	return nil
}
