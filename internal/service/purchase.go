package service

import (
	"upsc-prep/internal/entitlement"
	"upsc-prep/internal/model"
	"upsc-prep/internal/pkg/database"
)

var Purchase = new(PurchaseService)

type PurchaseService struct{}

// Entitlements 进程级的会话权益缓存，按用户维护购买记录缓存
// 登出或退款时调用 Invalidate 销毁对应会话
var Entitlements = entitlement.NewProvider(fetchUserPurchases)

// fetchUserPurchases 权益缓存的数据来源
func fetchUserPurchases(userID uint) ([]model.Purchase, error) {
	var purchases []model.Purchase
	err := database.DB.Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&purchases).Error
	if err != nil {
		return nil, err
	}
	return purchases, nil
}

// GetList 获取用户的购买记录列表，附带内容名称
func (s *PurchaseService) GetList(userID uint) ([]map[string]interface{}, error) {
	var purchases []model.Purchase
	err := database.DB.Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&purchases).Error
	if err != nil {
		return nil, err
	}

	var result []map[string]interface{}
	for _, p := range purchases {
		result = append(result, map[string]interface{}{
			"id":         p.ID,
			"item_type":  p.ItemType,
			"item_id":    p.ItemID,
			"item_name":  s.itemName(p.ItemType, p.ItemID),
			"order_no":   p.OrderNo,
			"amount":     p.Amount,
			"status":     p.Status,
			"valid_till": p.ValidTill,
			"is_active":  p.IsActive(),
			"created_at": p.CreatedAt,
		})
	}

	return result, nil
}

// itemName 查询内容名称，内容不存在时返回默认值
func (s *PurchaseService) itemName(itemType string, itemID uint) string {
	switch itemType {
	case model.ItemTypeCourse:
		var course model.Course
		if err := database.DB.First(&course, itemID).Error; err == nil {
			return course.Name
		}
	case model.ItemTypeTestSeries:
		var series model.TestSeries
		if err := database.DB.First(&series, itemID).Error; err == nil {
			return series.Name
		}
	}
	return "未知内容"
}
