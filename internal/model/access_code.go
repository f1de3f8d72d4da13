package model

import (
	"time"

	"gorm.io/gorm"
)

// AccessCode 兑换码，可不经支付直接开通课程或测试系列
type AccessCode struct {
	ID           uint           `json:"id" gorm:"primarykey"`
	Code         string         `json:"code" gorm:"size:18;uniqueIndex;comment:兑换码"` // 数字+字母混合18位
	ItemType     string         `json:"item_type" gorm:"size:20;comment:可兑换内容类型"`
	ItemID       *uint          `json:"item_id" gorm:"index;comment:绑定的内容ID"` // 为空表示同类型内容均可兑换
	ValidityDays int            `json:"validity_days" gorm:"comment:开通后的有效期天数"`
	Total        int            `json:"total" gorm:"comment:可兑换总数"`
	Used         int            `json:"used" gorm:"default:0;comment:已兑换数量"`
	ExpireDays   int            `json:"expire_days" gorm:"comment:兑换窗口天数"` // 超过创建时间+expire_days无法兑换
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

// AccessCodeRecord 兑换码使用记录
type AccessCodeRecord struct {
	ID         uint           `json:"id" gorm:"primarykey"`
	CodeID     uint           `json:"code_id" gorm:"index;comment:兑换码ID"`
	Code       string         `json:"code" gorm:"size:18;index"`
	UserID     uint           `json:"user_id" gorm:"index"`
	PurchaseID uint           `json:"purchase_id" gorm:"index"`
	OrderNo    string         `json:"order_no" gorm:"size:64"`
	ItemType   string         `json:"item_type" gorm:"size:20"`
	ItemID     uint           `json:"item_id" gorm:"index"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
}
