package model

import (
	"time"

	"gorm.io/gorm"
)

// ProgressRecord 用户对某个课程/测试系列的学习进度
type ProgressRecord struct {
	ID             uint   `gorm:"primarykey"`
	UserID         uint   `gorm:"index"`
	ItemType       string `gorm:"size:20"` // course / test_series
	ItemID         uint   `gorm:"index"`
	TestsTaken     int    `gorm:"default:0"` // 已完成的测试数
	BestScore      float64
	LastScore      float64
	LastActivityAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

// StreakStats 连续学习统计
type StreakStats struct {
	ID             uint       `gorm:"primarykey"`
	UserID         uint       `gorm:"uniqueIndex"`
	CurrentStreak  int        `gorm:"default:0"` // 当前连续学习天数
	LongestStreak  int        `gorm:"default:0"` // 历史最长连续天数
	LastActiveDate *time.Time // 最近活跃日期（按天）
	Activity       string     `gorm:"type:json"` // 活跃度桶，JSON字符串
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// GetActivity 获取活跃度桶
func (s *StreakStats) GetActivity() (Metadata, error) {
	return DecodeMetadata(s.Activity)
}

// SetActivity 设置活跃度桶，入库前按场景校验
func (s *StreakStats) SetActivity(m Metadata) error {
	if err := m.Validate(MetadataScopeActivity); err != nil {
		return err
	}
	raw, err := m.Encode()
	if err != nil {
		return err
	}
	s.Activity = raw
	return nil
}
