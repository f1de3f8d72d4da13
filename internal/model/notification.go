package model

import (
	"time"

	"gorm.io/gorm"
)

// 通知类型
const (
	NotificationKindPayment = "payment"
	NotificationKindCourse  = "course"
	NotificationKindSystem  = "system"
)

// Notification 站内通知
type Notification struct {
	ID        uint   `gorm:"primarykey"`
	UserID    uint   `gorm:"index"`
	Kind      string `gorm:"size:20"` // payment / course / system
	Title     string `gorm:"size:128"`
	Body      string `gorm:"type:text"`
	Metadata  string `gorm:"type:json"` // 附加数据，JSON字符串
	ReadAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// GetMetadata 获取通知附加数据
func (n *Notification) GetMetadata() (Metadata, error) {
	return DecodeMetadata(n.Metadata)
}

// SetMetadata 设置通知附加数据，入库前按场景校验
func (n *Notification) SetMetadata(m Metadata) error {
	if err := m.Validate(MetadataScopeNotification); err != nil {
		return err
	}
	raw, err := m.Encode()
	if err != nil {
		return err
	}
	n.Metadata = raw
	return nil
}
