package service

import (
	"errors"
	"time"

	"upsc-prep/internal/model"
	"upsc-prep/internal/pkg/database"
)

var Notification = new(NotificationService)

type NotificationService struct{}

// Create 创建站内通知，附加数据按场景校验后入库
func (s *NotificationService) Create(userID uint, kind, title, body string, metadata model.Metadata) (*model.Notification, error) {
	notification := &model.Notification{
		UserID: userID,
		Kind:   kind,
		Title:  title,
		Body:   body,
	}

	if metadata != nil {
		if err := notification.SetMetadata(metadata); err != nil {
			return nil, err
		}
	}

	if err := database.DB.Create(notification).Error; err != nil {
		return nil, err
	}

	return notification, nil
}

// GetList 获取用户的通知列表
func (s *NotificationService) GetList(userID uint, page, size int) ([]map[string]interface{}, int64, error) {
	db := database.DB.Model(&model.Notification{}).Where("user_id = ?", userID)

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var notifications []model.Notification
	offset := (page - 1) * size
	if err := db.Order("created_at desc").Offset(offset).Limit(size).Find(&notifications).Error; err != nil {
		return nil, 0, err
	}

	var result []map[string]interface{}
	for _, n := range notifications {
		metadata, _ := n.GetMetadata()
		result = append(result, map[string]interface{}{
			"id":         n.ID,
			"kind":       n.Kind,
			"title":      n.Title,
			"body":       n.Body,
			"metadata":   metadata,
			"read_at":    n.ReadAt,
			"created_at": n.CreatedAt,
		})
	}

	return result, total, nil
}

// UnreadCount 未读通知数
func (s *NotificationService) UnreadCount(userID uint) (int64, error) {
	var count int64
	err := database.DB.Model(&model.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Count(&count).Error
	return count, err
}

// MarkRead 标记单条通知已读
func (s *NotificationService) MarkRead(userID, notificationID uint) error {
	var notification model.Notification
	if err := database.DB.Where("id = ? AND user_id = ?", notificationID, userID).
		First(&notification).Error; err != nil {
		return errors.New("通知不存在")
	}

	if notification.ReadAt != nil {
		return nil
	}

	now := time.Now()
	return database.DB.Model(&notification).Update("read_at", &now).Error
}

// MarkAllRead 标记全部通知已读
func (s *NotificationService) MarkAllRead(userID uint) error {
	now := time.Now()
	return database.DB.Model(&model.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", &now).Error
}
