package service

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"upsc-prep/internal/model"
	"upsc-prep/internal/pkg/database"
	"upsc-prep/internal/pkg/logger"
)

var AccessCode = new(AccessCodeService)

type AccessCodeService struct{}

// Redeem 兑换码开通内容
// 整个兑换在一个事务里完成：校验 → 创建订单和购买记录 → 记录使用 → 更新计数
func (s *AccessCodeService) Redeem(userID uint, code string, itemType string, itemID uint) (*model.Purchase, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, errors.New("兑换码不能为空")
	}

	var purchase *model.Purchase

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var accessCode model.AccessCode
		if err := tx.Where("code = ?", code).First(&accessCode).Error; err != nil {
			return errors.New("兑换码不存在")
		}

		// 兑换窗口检查
		if accessCode.ExpireDays > 0 {
			deadline := accessCode.CreatedAt.AddDate(0, 0, accessCode.ExpireDays)
			if time.Now().After(deadline) {
				return errors.New("兑换码已过期")
			}
		}

		if accessCode.Used >= accessCode.Total {
			return errors.New("兑换码已被领完")
		}

		if accessCode.ItemType != itemType {
			return errors.New("兑换码不适用于该内容")
		}
		if accessCode.ItemID != nil && *accessCode.ItemID != itemID {
			return errors.New("兑换码不适用于该内容")
		}

		// 校验内容存在
		details := PaymentDetails{ItemType: itemType, CourseID: itemID, TestSeriesID: itemID}
		_, _, _, name, err := Payment.resolveItem(details)
		if err != nil {
			return err
		}

		// 检查重复兑换
		store := Entitlements.Get(userID)
		if ensureErr := store.Ensure(); ensureErr == nil && store.HasPurchased(itemType, itemID) {
			return errors.New("已持有该内容的有效权益")
		}

		now := time.Now()
		validityDays := accessCode.ValidityDays
		var validTill *time.Time
		if validityDays > 0 {
			t := now.AddDate(0, 0, validityDays)
			validTill = &t
		}

		order := &model.PaymentOrder{
			OrderNo:     generateOrderNo(),
			UserID:      userID,
			ItemType:    itemType,
			ItemID:      itemID,
			Amount:      0,
			Status:      model.OrderStatusPaid,
			PaymentType: "access_code",
			PayTime:     &now,
		}
		if err := tx.Create(order).Error; err != nil {
			return errors.New("创建订单失败")
		}

		purchase = &model.Purchase{
			UserID:    userID,
			ItemType:  itemType,
			ItemID:    itemID,
			OrderNo:   order.OrderNo,
			Amount:    0,
			Status:    model.PurchaseStatusCompleted,
			ValidTill: validTill,
		}
		if err := tx.Create(purchase).Error; err != nil {
			return errors.New("创建购买记录失败")
		}

		record := &model.AccessCodeRecord{
			CodeID:     accessCode.ID,
			Code:       accessCode.Code,
			UserID:     userID,
			PurchaseID: purchase.ID,
			OrderNo:    order.OrderNo,
			ItemType:   itemType,
			ItemID:     itemID,
		}
		if err := tx.Create(record).Error; err != nil {
			return errors.New("创建兑换记录失败")
		}

		// 乐观计数更新，并发兑换时防止超发
		result := tx.Model(&model.AccessCode{}).
			Where("id = ? AND used < total", accessCode.ID).
			Update("used", gorm.Expr("used + 1"))
		if result.Error != nil {
			return errors.New("更新兑换码计数失败")
		}
		if result.RowsAffected == 0 {
			return errors.New("兑换码已被领完")
		}

		logger.Infof("兑换码使用成功: user_id=%d, code=%s, item=%s/%d(%s)", userID, code, itemType, itemID, name)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 刷新权益缓存，让内容立即可访问
	if err := Entitlements.Get(userID).Refresh(); err != nil {
		logger.Warnf("刷新权益缓存失败: user_id=%d, err=%v", userID, err)
	}

	return purchase, nil
}

// Create 批量生成兑换码（管理端操作）
func (s *AccessCodeService) Create(itemType string, itemID *uint, validityDays, total, expireDays, count int) ([]model.AccessCode, error) {
	if itemType != model.ItemTypeCourse && itemType != model.ItemTypeTestSeries {
		return nil, errors.New("不支持的内容类型")
	}
	if count <= 0 || count > 500 {
		return nil, errors.New("单次生成数量必须在1到500之间")
	}
	if total <= 0 {
		return nil, errors.New("可兑换总数必须大于0")
	}

	codes := make([]model.AccessCode, 0, count)
	for i := 0; i < count; i++ {
		codes = append(codes, model.AccessCode{
			Code:         generateAccessCode(),
			ItemType:     itemType,
			ItemID:       itemID,
			ValidityDays: validityDays,
			Total:        total,
			ExpireDays:   expireDays,
		})
	}

	if err := database.DB.Create(&codes).Error; err != nil {
		return nil, err
	}

	return codes, nil
}

// GetList 兑换码列表（管理端操作）
func (s *AccessCodeService) GetList(page, size int, itemType string) ([]model.AccessCode, int64, error) {
	db := database.DB.Model(&model.AccessCode{})
	if itemType != "" {
		db = db.Where("item_type = ?", itemType)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []model.AccessCode
	offset := (page - 1) * size
	if err := db.Order("created_at desc").Offset(offset).Limit(size).Find(&list).Error; err != nil {
		return nil, 0, err
	}

	return list, total, nil
}

// Delete 删除兑换码（管理端操作）
func (s *AccessCodeService) Delete(codeID uint) error {
	return database.DB.Delete(&model.AccessCode{}, codeID).Error
}

// GetRecords 兑换记录列表（管理端操作）
func (s *AccessCodeService) GetRecords(page, size int, code string) ([]model.AccessCodeRecord, int64, error) {
	db := database.DB.Model(&model.AccessCodeRecord{})
	if code != "" {
		db = db.Where("code = ?", strings.ToUpper(code))
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []model.AccessCodeRecord
	offset := (page - 1) * size
	if err := db.Order("created_at desc").Offset(offset).Limit(size).Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// generateAccessCode 生成18位数字字母混合兑换码
func generateAccessCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:18]
}
