package model

import (
	"time"

	"gorm.io/gorm"
)

// 可购买的内容类型
const (
	ItemTypeCourse     = "course"
	ItemTypeTestSeries = "test_series"
)

// 购买记录状态
const (
	PurchaseStatusPending   = "pending"
	PurchaseStatusCompleted = "completed"
	PurchaseStatusFailed    = "failed"
	PurchaseStatusRefunded  = "refunded"
)

// Purchase 购买记录，用户对课程或测试系列的访问凭证
// 只有 completed 且未过期的记录才授予访问权限
type Purchase struct {
	ID        uint   `gorm:"primarykey"`
	UserID    uint   `gorm:"index"`
	ItemType  string `gorm:"size:20;index"` // course / test_series
	ItemID    uint   `gorm:"index"`
	OrderNo   string `gorm:"size:64;index"` // 对应的订单号
	Amount    float64
	Status    string     `gorm:"size:20"` // pending, completed, failed, refunded
	ValidTill *time.Time // 有效期截止时间，NULL表示长期有效
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// IsActiveAt 判断在给定时刻是否有效：状态为completed且有效期严格晚于该时刻
func (p *Purchase) IsActiveAt(now time.Time) bool {
	if p.Status != PurchaseStatusCompleted {
		return false
	}
	if p.ValidTill == nil {
		return true
	}
	return now.Before(*p.ValidTill)
}

// IsActive 判断当前是否有效
func (p *Purchase) IsActive() bool {
	return p.IsActiveAt(time.Now())
}
