package model

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID        uint   `gorm:"primarykey"`
	Username  string `gorm:"size:64;uniqueIndex"`
	Password  string `gorm:"size:64"`
	Nickname  string `gorm:"size:64"`
	Avatar    string `gorm:"size:255"`
	Email     string `gorm:"size:128;index"`
	Phone     string `gorm:"size:20;index"`
	IsAdmin   bool   `gorm:"default:false"` // 是否是管理员
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}
