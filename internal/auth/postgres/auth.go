package auth

import (
	"database/sql"
	"fmt"

	"github.com/frahmantamala/school-payments/internal/core/datamodel/user"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetPasswordForUsername(username string) (string, string, error) {
	var passwordHash string
	var userID string
	query := `SELECT id, password_hash FROM users WHERE username = ?`

	row := r.db.Raw(query, username).Row()
	if err := row.Scan(&userID, &passwordHash); err != nil {
		if err == sql.ErrNoRows {
			return "", "", fmt.Errorf("user not found")
		}
		return "", "", err
	}
	return passwordHash, userID, nil
}

func (r *Repository) UsernameExists(username string) (bool, error) {
	var count int64
	if err := r.db.Model(&user.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *Repository) CreateUser(u *user.User) error {
	return r.db.Create(u).Error
}
