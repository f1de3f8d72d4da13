package service

import (
	"errors"

	"upsc-prep/internal/model"
	"upsc-prep/internal/pkg/database"
)

var User = new(UserService)

type UserService struct{}

func (s *UserService) GetProfile(userID uint) (*model.User, error) {
	var user model.User
	if err := database.DB.First(&user, userID).Error; err != nil {
		return nil, errors.New("用户不存在")
	}
	return &user, nil
}

func (s *UserService) UpdateProfile(userID uint, nickname, avatar, email, phone string) error {
	updates := map[string]interface{}{}
	if nickname != "" {
		updates["nickname"] = nickname
	}
	if avatar != "" {
		updates["avatar"] = avatar
	}
	if email != "" {
		updates["email"] = email
	}
	if phone != "" {
		updates["phone"] = phone
	}

	if len(updates) == 0 {
		return nil
	}

	return database.DB.Model(&model.User{}).Where("id = ?", userID).Updates(updates).Error
}
