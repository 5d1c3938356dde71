package service

import (
	"context"

	"toolshare-backend/internal/domain"
	"toolshare-backend/internal/repository"
)

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetProfile(ctx context.Context, userID int32) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}
