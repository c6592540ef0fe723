package user

import (
	"errors"
	"time"

	userDatamodel "github.com/frahmantamala/school-payments/internal/core/datamodel/user"
)

// User is the account profile exposed over the API. The password hash
// never leaves the service layer.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var ErrNotFound = errors.New("user not found")

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
