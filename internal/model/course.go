package model

import (
	"time"

	"gorm.io/gorm"
)

// 课程
type Course struct {
	ID           uint   `gorm:"primarykey"`
	Sort         int    `gorm:"default:0"` // 课程排序
	Name         string `gorm:"size:128"`
	Cover        string `gorm:"size:255"`
	Exam         string `gorm:"size:50;index"` // 所属考试，如 prelims、mains
	Subject      string `gorm:"size:50"`       // 科目
	Price        float64
	Description  string `gorm:"type:text"`
	Content      string `gorm:"type:text"`     // 课程正文内容，购买后可见
	ValidityDays int    `gorm:"default:0"`     // 购买后有效期（天），0表示长期有效
	IsPublished  bool   `gorm:"default:true"`  // 是否上架
	LessonCount  int    `gorm:"default:0"`     // 课时数
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}
