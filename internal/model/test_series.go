package model

import (
	"time"

	"gorm.io/gorm"
)

// 测试系列（题测套卷）
type TestSeries struct {
	ID            uint   `gorm:"primarykey"`
	Sort          int    `gorm:"default:0"`
	Name          string `gorm:"size:128"`
	Cover         string `gorm:"size:255"`
	Exam          string `gorm:"size:50;index"` // 所属考试
	Price         float64
	Description   string `gorm:"type:text"`
	Content       string `gorm:"type:text"` // 套卷说明与下载入口，购买后可见
	ValidityDays  int    `gorm:"default:0"` // 购买后有效期（天），0表示长期有效
	IsPublished   bool   `gorm:"default:true"`
	TestCount     int    `gorm:"default:0"` // 包含的测试数量
	QuestionCount int    `gorm:"default:0"` // 总题目数
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}
