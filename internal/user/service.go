package user

import (
	"fmt"
)

type Service struct {
	repo Repository
}

type Repository interface {
	GetByID(userID string) (*User, error)
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
	}
}

func (s *Service) GetByID(userID string) (*User, error) {
	u, err := s.repo.GetByID(userID)
	if err != nil {
		if err == ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return u, nil
}
