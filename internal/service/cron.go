package service

import (
	"time"

	"upsc-prep/internal/model"
	"upsc-prep/internal/pkg/database"
	"upsc-prep/internal/pkg/logger"
)

// CronService 定时任务服务
type CronService struct {
	stopChan chan struct{}
}

var Cron = &CronService{
	stopChan: make(chan struct{}),
}

// Start 启动定时任务
func (s *CronService) Start() {
	go s.handleExpiredOrders()
}

// Stop 停止定时任务
func (s *CronService) Stop() {
	close(s.stopChan)
}

// handleExpiredOrders 处理过期订单
// 超过15分钟未支付的订单取消，关联的pending购买记录转为failed
func (s *CronService) handleExpiredOrders() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			var orders []model.PaymentOrder
			if err := database.DB.Where("status = ? AND created_at <= ?",
				model.OrderStatusPending,
				time.Now().Add(-15*time.Minute)).
				Find(&orders).Error; err != nil {
				logger.Errorf("查询过期订单失败: %v", err)
				continue
			}

			for _, order := range orders {
				if err := database.DB.Model(&order).Update("status", model.OrderStatusCancelled).Error; err != nil {
					logger.Errorf("更新订单 %s 状态失败: %v", order.OrderNo, err)
					continue
				}
				if err := database.DB.Model(&model.Purchase{}).
					Where("order_no = ? AND status = ?", order.OrderNo, model.PurchaseStatusPending).
					Update("status", model.PurchaseStatusFailed).Error; err != nil {
					logger.Errorf("更新订单 %s 的购买记录失败: %v", order.OrderNo, err)
					continue
				}
				logger.Infof("订单 %s 已过期，状态已更新为cancelled", order.OrderNo)
			}

		case <-s.stopChan:
			return
		}
	}
}
