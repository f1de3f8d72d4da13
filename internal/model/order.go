package model

import (
	"time"

	"gorm.io/gorm"
)

// 订单状态
const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusCancelled = "cancelled"
	OrderStatusRefunding = "refunding"
	OrderStatusRefunded  = "refunded"
)

// PaymentOrder 支付订单
type PaymentOrder struct {
	ID               uint   `gorm:"primarykey"`
	OrderNo          string `gorm:"size:64;uniqueIndex"`
	UserID           uint   `gorm:"index"`
	User             User   `gorm:"foreignKey:UserID"`
	ItemType         string `gorm:"size:20"` // course / test_series
	ItemID           uint   `gorm:"index"`
	Amount           float64
	Status           string     `gorm:"size:20"` // pending, paid, cancelled, refunding, refunded
	PaymentType      string     `gorm:"size:20"` // 支付方式: razorpay, access_code, free
	GatewayOrderID   string     `gorm:"size:100;index"` // 网关侧订单ID
	GatewayPaymentID string     `gorm:"size:100"`       // 网关侧支付ID
	Notes            string     `gorm:"size:255"`
	PayTime          *time.Time // 使用指针类型，可以为 NULL
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        gorm.DeletedAt `gorm:"index"`
}

// 检查订单是否过期（15分钟未支付）
func (o *PaymentOrder) IsExpired() bool {
	return o.Status == OrderStatusPending && time.Since(o.CreatedAt) > 15*time.Minute
}
