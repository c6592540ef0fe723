package user

import (
	"errors"

	userDatamodel "github.com/frahmantamala/school-payments/internal/core/datamodel/user"
	userPkg "github.com/frahmantamala/school-payments/internal/user"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) userPkg.Repository {
	return &Repository{db: db}
}

func (r *Repository) GetByID(userID string) (*userPkg.User, error) {
	var u userDatamodel.User
	err := r.db.Where("id = ?", userID).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, userPkg.ErrNotFound
		}
		return nil, err
	}
	return userPkg.FromDataModel(&u), nil
}
