package service

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"upsc-prep/internal/config"
	"upsc-prep/internal/model"
	"upsc-prep/internal/pkg/checkout"
	"upsc-prep/internal/pkg/database"
	"upsc-prep/internal/pkg/logger"
)

var Payment = new(PaymentService)

// ErrPaymentInProgress 同一用户已有一笔支付在途时拒绝再次发起
var ErrPaymentInProgress = errors.New("已有支付在进行中，请勿重复提交")

type PaymentService struct {
	mu       sync.Mutex
	gateway  checkout.Gateway
	inFlight map[uint]bool
}

// PaymentDetails 支付目标
type PaymentDetails struct {
	ItemType     string
	CourseID     uint
	TestSeriesID uint
	Notes        string
}

// PaymentCallbacks 整个支付流程的完成通知，恰好触发其中一个一次
type PaymentCallbacks struct {
	OnSuccess func(*model.Purchase)
	OnError   func(error)
}

// Gateway 获取网关客户端，首次使用时按配置构建
func (s *PaymentService) Gateway() checkout.Gateway {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gateway == nil {
		s.gateway = checkout.NewClient(config.GlobalConfig.Razorpay)
	}
	return s.gateway
}

// SetGateway 注入网关实现（测试用）
func (s *PaymentService) SetGateway(g checkout.Gateway) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gateway = g
}

// resolveItem 解析支付目标对应的内容
func (s *PaymentService) resolveItem(details PaymentDetails) (itemID uint, price float64, validityDays int, name string, err error) {
	switch details.ItemType {
	case model.ItemTypeCourse:
		var course model.Course
		if dbErr := database.DB.First(&course, details.CourseID).Error; dbErr != nil {
			return 0, 0, 0, "", errors.New("课程不存在")
		}
		if !course.IsPublished {
			return 0, 0, 0, "", errors.New("课程未上架")
		}
		return course.ID, course.Price, course.ValidityDays, course.Name, nil
	case model.ItemTypeTestSeries:
		var series model.TestSeries
		if dbErr := database.DB.First(&series, details.TestSeriesID).Error; dbErr != nil {
			return 0, 0, 0, "", errors.New("测试系列不存在")
		}
		if !series.IsPublished {
			return 0, 0, 0, "", errors.New("测试系列未上架")
		}
		return series.ID, series.Price, series.ValidityDays, series.Name, nil
	default:
		return 0, 0, 0, "", fmt.Errorf("不支持的内容类型: %s", details.ItemType)
	}
}

// CreateOrder 创建本地订单和网关订单
// 本地订单为pending，同时建立一条pending购买记录作为后续的访问凭证
func (s *PaymentService) CreateOrder(userID uint, details PaymentDetails) (*model.PaymentOrder, *checkout.OrderDescriptor, error) {
	itemID, price, _, name, err := s.resolveItem(details)
	if err != nil {
		return nil, nil, err
	}

	// 检查是否已持有有效购买
	store := Entitlements.Get(userID)
	if err := store.Ensure(); err == nil && store.HasPurchased(details.ItemType, itemID) {
		return nil, nil, errors.New("已购买该内容且仍在有效期内")
	}

	orderNo := generateOrderNo()

	// 网关侧下单
	notes := map[string]string{
		"item_type": details.ItemType,
		"item_name": name,
	}
	if details.Notes != "" {
		notes["remark"] = details.Notes
	}

	descriptor, err := s.Gateway().CreateOrder(orderNo, toPaise(price), notes)
	if err != nil {
		return nil, nil, fmt.Errorf("网关下单失败: %v", err)
	}

	// 本地落库：订单 + pending购买记录
	order := &model.PaymentOrder{
		OrderNo:        orderNo,
		UserID:         userID,
		ItemType:       details.ItemType,
		ItemID:         itemID,
		Amount:         price,
		Status:         model.OrderStatusPending,
		GatewayOrderID: descriptor.GatewayOrderID,
		Notes:          details.Notes,
	}

	tx := database.DB.Begin()
	if err := tx.Create(order).Error; err != nil {
		tx.Rollback()
		return nil, nil, fmt.Errorf("保存订单失败: %v", err)
	}

	purchase := &model.Purchase{
		UserID:   userID,
		ItemType: details.ItemType,
		ItemID:   itemID,
		OrderNo:  orderNo,
		Amount:   price,
		Status:   model.PurchaseStatusPending,
	}
	if err := tx.Create(purchase).Error; err != nil {
		tx.Rollback()
		return nil, nil, fmt.Errorf("保存购买记录失败: %v", err)
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return nil, nil, fmt.Errorf("提交事务失败: %v", err)
	}

	return order, descriptor, nil
}

// CreateFreeOrder 免费内容直接开通，不经过网关
func (s *PaymentService) CreateFreeOrder(userID uint, details PaymentDetails) (*model.Purchase, error) {
	itemID, price, _, _, err := s.resolveItem(details)
	if err != nil {
		return nil, err
	}
	if price > 0 {
		return nil, errors.New("该内容不是免费内容")
	}

	store := Entitlements.Get(userID)
	if err := store.Ensure(); err == nil && store.HasPurchased(details.ItemType, itemID) {
		return nil, errors.New("已开通该内容")
	}

	order := &model.PaymentOrder{
		OrderNo:  generateOrderNo(),
		UserID:   userID,
		ItemType: details.ItemType,
		ItemID:   itemID,
		Amount:   0,
		Status:   model.OrderStatusPending,
	}
	if err := database.DB.Create(order).Error; err != nil {
		return nil, fmt.Errorf("保存订单失败: %v", err)
	}

	purchase := &model.Purchase{
		UserID:   userID,
		ItemType: details.ItemType,
		ItemID:   itemID,
		OrderNo:  order.OrderNo,
		Amount:   0,
		Status:   model.PurchaseStatusPending,
	}
	if err := database.DB.Create(purchase).Error; err != nil {
		return nil, fmt.Errorf("保存购买记录失败: %v", err)
	}

	return s.markPaid(order, "", "free")
}

// InitiatePayment 驱动完整支付流程:
// 创建订单 → 加载网关 → 打开收银台 → 验签 → 完成通知
// 各步骤严格顺序执行，任一步骤失败都不回滚之前的步骤，也不做重试；
// 调用方的完成回调无论走哪条路径都恰好触发一次。
// 同一用户同一时刻只允许一笔支付在途，重复发起返回 ErrPaymentInProgress。
func (s *PaymentService) InitiatePayment(userID uint, details PaymentDetails, cb PaymentCallbacks) error {
	s.mu.Lock()
	if s.inFlight == nil {
		s.inFlight = make(map[uint]bool)
	}
	if s.inFlight[userID] {
		s.mu.Unlock()
		return ErrPaymentInProgress
	}
	s.inFlight[userID] = true
	s.mu.Unlock()

	finish := func(purchase *model.Purchase, err error) {
		s.mu.Lock()
		delete(s.inFlight, userID)
		s.mu.Unlock()

		if err != nil {
			logger.Warnf("支付流程失败: user_id=%d, err=%v", userID, err)
			if cb.OnError != nil {
				cb.OnError(err)
			}
			return
		}
		if cb.OnSuccess != nil {
			cb.OnSuccess(purchase)
		}
	}

	// 第一步：创建订单，失败直接终止，无任何外部副作用需要清理
	order, descriptor, err := s.CreateOrder(userID, details)
	if err != nil {
		finish(nil, err)
		return nil
	}
	logger.Infof("发起支付: user_id=%d, order_no=%s", userID, order.OrderNo)

	gateway := s.Gateway()

	// 第二步：加载网关，进程内幂等；失败时订单保持pending，由过期清理兜底
	if err := gateway.Load(); err != nil {
		finish(nil, err)
		return nil
	}

	// 第三步：打开收银台，立即返回，后续步骤都发生在回调里
	gateway.Open(descriptor,
		func(conf checkout.Confirmation) {
			// 第四步：验签并落库，只有验签通过购买记录才转为completed
			purchase, verifyErr := s.Verify(userID, conf)
			if verifyErr != nil {
				finish(nil, verifyErr)
				return
			}
			// 第五步：完成通知（权益缓存已在Verify内刷新）
			finish(purchase, nil)
		},
		func(openErr error) {
			finish(nil, openErr)
		},
	)

	return nil
}

// Verify 校验支付确认凭证并完成订单
// 验签失败时不改动任何状态，购买记录保持非completed
func (s *PaymentService) Verify(userID uint, conf checkout.Confirmation) (*model.Purchase, error) {
	var order model.PaymentOrder
	if err := database.DB.Where("gateway_order_id = ? AND user_id = ?",
		conf.GatewayOrderID, userID).First(&order).Error; err != nil {
		return nil, errors.New("订单不存在")
	}

	// 已支付的订单重复验证直接返回结果
	if order.Status == model.OrderStatusPaid {
		var purchase model.Purchase
		if err := database.DB.Where("order_no = ?", order.OrderNo).First(&purchase).Error; err != nil {
			return nil, errors.New("购买记录不存在")
		}
		return &purchase, nil
	}

	if order.Status != model.OrderStatusPending {
		return nil, errors.New("订单状态不允许支付")
	}

	if !s.Gateway().VerifySignature(conf) {
		logger.Warnf("支付验签失败: order_no=%s", order.OrderNo)
		return nil, errors.New("支付验签失败，如已扣款请联系客服")
	}

	order.GatewayPaymentID = conf.GatewayPaymentID
	return s.markPaid(&order, conf.GatewayPaymentID, "razorpay")
}

// markPaid 订单转为已支付，购买记录转为completed并盖有效期
func (s *PaymentService) markPaid(order *model.PaymentOrder, gatewayPaymentID, paymentType string) (*model.Purchase, error) {
	// 计算有效期
	details := PaymentDetails{ItemType: order.ItemType, CourseID: order.ItemID, TestSeriesID: order.ItemID}
	_, _, validityDays, name, err := s.resolveItem(details)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var validTill *time.Time
	if validityDays > 0 {
		t := now.AddDate(0, 0, validityDays)
		validTill = &t
	}

	var purchase model.Purchase
	if err := database.DB.Where("order_no = ?", order.OrderNo).First(&purchase).Error; err != nil {
		return nil, errors.New("购买记录不存在")
	}

	tx := database.DB.Begin()

	orderUpdates := map[string]interface{}{
		"status":       model.OrderStatusPaid,
		"pay_time":     &now,
		"payment_type": paymentType,
	}
	if gatewayPaymentID != "" {
		orderUpdates["gateway_payment_id"] = gatewayPaymentID
	}
	if err := tx.Model(order).Updates(orderUpdates).Error; err != nil {
		tx.Rollback()
		return nil, errors.New("更新订单状态失败")
	}

	if err := tx.Model(&purchase).Updates(map[string]interface{}{
		"status":     model.PurchaseStatusCompleted,
		"valid_till": validTill,
	}).Error; err != nil {
		tx.Rollback()
		return nil, errors.New("更新购买记录失败")
	}

	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return nil, errors.New("提交事务失败")
	}

	purchase.Status = model.PurchaseStatusCompleted
	purchase.ValidTill = validTill

	// 刷新权益缓存，让访问判定立即生效
	if err := Entitlements.Get(order.UserID).Refresh(); err != nil {
		logger.Warnf("刷新权益缓存失败: user_id=%d, err=%v", order.UserID, err)
	}

	// 支付成功通知
	if _, err := Notification.Create(order.UserID, model.NotificationKindPayment,
		"购买成功", fmt.Sprintf("您已成功开通「%s」", name),
		model.Metadata{
			"order_no":  order.OrderNo,
			"item_type": order.ItemType,
			"item_id":   order.ItemID,
			"amount":    order.Amount,
		}); err != nil {
		logger.Warnf("创建支付通知失败: order_no=%s, err=%v", order.OrderNo, err)
	}

	logger.Infof("订单支付完成: order_no=%s, payment_type=%s", order.OrderNo, paymentType)
	return &purchase, nil
}

// HandleWebhook 处理网关异步通知
func (s *PaymentService) HandleWebhook(body []byte, signature string) error {
	if !s.Gateway().VerifyWebhook(body, signature) {
		return errors.New("通知验签失败")
	}

	event, err := checkout.ParseWebhook(body)
	if err != nil {
		return fmt.Errorf("解析通知失败: %v", err)
	}

	entity := event.Payload.Payment.Entity

	var order model.PaymentOrder
	if err := database.DB.Where("gateway_order_id = ?", entity.OrderID).First(&order).Error; err != nil {
		return errors.New("订单不存在")
	}

	switch event.Event {
	case "payment.captured":
		// 已支付的订单重复通知为幂等空操作
		if order.Status == model.OrderStatusPaid {
			return nil
		}
		if order.Status != model.OrderStatusPending {
			return errors.New("订单状态不允许支付")
		}
		_, err := s.markPaid(&order, entity.ID, "razorpay")
		return err
	case "payment.failed":
		// 支付失败：购买记录转为failed，订单保留pending允许重新支付
		if err := database.DB.Model(&model.Purchase{}).
			Where("order_no = ? AND status = ?", order.OrderNo, model.PurchaseStatusPending).
			Update("status", model.PurchaseStatusFailed).Error; err != nil {
			return errors.New("更新购买记录失败")
		}
		logger.Warnf("网关通知支付失败: order_no=%s, reason=%s", order.OrderNo, entity.Description)
		return nil
	default:
		logger.Debugf("忽略网关通知事件: %s", event.Event)
		return nil
	}
}

// Query 查询支付结果
func (s *PaymentService) Query(userID uint, orderNo string) (map[string]interface{}, error) {
	var order model.PaymentOrder
	if err := database.DB.Where("order_no = ? AND user_id = ?", orderNo, userID).First(&order).Error; err != nil {
		return nil, errors.New("订单不存在")
	}

	return map[string]interface{}{
		"order_no":     order.OrderNo,
		"status":       order.Status,
		"amount":       order.Amount,
		"payment_type": order.PaymentType,
		"pay_time":     order.PayTime,
	}, nil
}

// Cancel 取消支付，只有pending状态的订单可以取消
func (s *PaymentService) Cancel(userID uint, orderNo string) error {
	var order model.PaymentOrder
	if err := database.DB.Where("order_no = ? AND user_id = ?", orderNo, userID).First(&order).Error; err != nil {
		return errors.New("订单不存在")
	}

	if order.Status == model.OrderStatusCancelled {
		return nil
	}
	if order.Status != model.OrderStatusPending {
		return errors.New("订单状态不允许取消")
	}

	tx := database.DB.Begin()
	if err := tx.Model(&order).Update("status", model.OrderStatusCancelled).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("更新订单状态失败: %v", err)
	}
	if err := tx.Model(&model.Purchase{}).
		Where("order_no = ? AND status = ?", orderNo, model.PurchaseStatusPending).
		Update("status", model.PurchaseStatusFailed).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("更新购买记录失败: %v", err)
	}
	return tx.Commit().Error
}

// Refund 申请退款（管理端操作）
func (s *PaymentService) Refund(adminID uint, orderNo string, reason string) (map[string]interface{}, error) {
	var order model.PaymentOrder
	if err := database.DB.Where("order_no = ?", orderNo).First(&order).Error; err != nil {
		return nil, errors.New("订单不存在")
	}

	if order.Status != model.OrderStatusPaid {
		return nil, errors.New("订单状态不允许退款")
	}

	// 免费/兑换码开通的订单没有网关支付可退
	if order.GatewayPaymentID == "" {
		return nil, errors.New("该订单无网关支付记录")
	}

	if err := s.Gateway().Refund(order.GatewayPaymentID, toPaise(order.Amount)); err != nil {
		return nil, err
	}

	tx := database.DB.Begin()
	if err := tx.Model(&order).Update("status", model.OrderStatusRefunded).Error; err != nil {
		tx.Rollback()
		return nil, errors.New("更新订单状态失败")
	}
	if err := tx.Model(&model.Purchase{}).
		Where("order_no = ?", orderNo).
		Update("status", model.PurchaseStatusRefunded).Error; err != nil {
		tx.Rollback()
		return nil, errors.New("更新购买记录失败")
	}
	if err := tx.Commit().Error; err != nil {
		tx.Rollback()
		return nil, errors.New("提交事务失败")
	}

	// 退款后销毁会话缓存，下次访问重新拉取
	Entitlements.Invalidate(order.UserID)

	logger.Infof("退款完成: admin_id=%d, order_no=%s, reason=%s", adminID, orderNo, reason)
	return map[string]interface{}{
		"order_no": order.OrderNo,
		"amount":   order.Amount,
		"status":   model.OrderStatusRefunded,
	}, nil
}

// generateOrderNo 生成订单号
func generateOrderNo() string {
	return time.Now().Format("20060102150405") + fmt.Sprintf("%06d", rand.Intn(1000000))
}

// toPaise 金额转为最小货币单位
func toPaise(amount float64) int64 {
	return int64(amount*100 + 0.5)
}
