package service

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"upsc-prep/internal/entitlement"
	"upsc-prep/internal/model"
	"upsc-prep/internal/pkg/checkout"
	"upsc-prep/internal/pkg/database"
)

// fakeGateway 可控的网关实现
type fakeGateway struct {
	mu        sync.Mutex
	loadErr   error
	createErr error
	openMode  string // success / fail / hold
	refunds   []string
	refundErr error
}

func (g *fakeGateway) Load() error { return g.loadErr }

func (g *fakeGateway) CreateOrder(orderNo string, amount int64, notes map[string]string) (*checkout.OrderDescriptor, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	return &checkout.OrderDescriptor{
		GatewayOrderID: "order_" + orderNo,
		OrderNo:        orderNo,
		Amount:         amount,
		Currency:       "INR",
		KeyID:          "rzp_test_key",
	}, nil
}

func (g *fakeGateway) Open(order *checkout.OrderDescriptor, onSuccess checkout.SuccessFunc, onFailure checkout.FailureFunc) {
	switch g.openMode {
	case "success":
		onSuccess(checkout.Confirmation{
			GatewayOrderID:   order.GatewayOrderID,
			GatewayPaymentID: "pay_001",
			Signature:        "valid",
		})
	case "fail":
		onFailure(errors.New("支付失败或已取消"))
	default:
		// hold: 会话一直挂起，不触发回调
	}
}

func (g *fakeGateway) VerifySignature(c checkout.Confirmation) bool { return c.Signature == "valid" }

func (g *fakeGateway) VerifyWebhook(body []byte, signature string) bool { return signature == "valid" }

func (g *fakeGateway) Refund(gatewayPaymentID string, amount int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.refundErr != nil {
		return g.refundErr
	}
	g.refunds = append(g.refunds, gatewayPaymentID)
	return nil
}

// setupPaymentTest 准备内存数据库、权益缓存和可控网关
func setupPaymentTest(t *testing.T) *fakeGateway {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	database.DB = db

	Entitlements = entitlement.NewProvider(fetchUserPurchases)

	gw := &fakeGateway{openMode: "hold"}
	Payment = new(PaymentService)
	Payment.SetGateway(gw)
	return gw
}

func seedCourse(t *testing.T, price float64, validityDays int) model.Course {
	t.Helper()
	course := model.Course{
		Name:         "Prelims 综合课程",
		Exam:         "prelims",
		Price:        price,
		ValidityDays: validityDays,
		IsPublished:  true,
	}
	require.NoError(t, database.DB.Create(&course).Error)
	return course
}

func courseDetails(course model.Course) PaymentDetails {
	return PaymentDetails{ItemType: model.ItemTypeCourse, CourseID: course.ID}
}

func TestCreateOrder(t *testing.T) {
	setupPaymentTest(t)
	course := seedCourse(t, 499, 365)

	order, descriptor, err := Payment.CreateOrder(1, courseDetails(course))
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusPending, order.Status)
	assert.Equal(t, 499.0, order.Amount)
	assert.Equal(t, "order_"+order.OrderNo, descriptor.GatewayOrderID)
	assert.Equal(t, int64(49900), descriptor.Amount, "网关金额应为最小货币单位")

	// 同时建立pending购买记录，但不授予访问权限
	var purchase model.Purchase
	require.NoError(t, database.DB.Where("order_no = ?", order.OrderNo).First(&purchase).Error)
	assert.Equal(t, model.PurchaseStatusPending, purchase.Status)
	assert.False(t, Entitlements.Get(1).HasPurchased(model.ItemTypeCourse, course.ID))
}

func TestCreateOrderRejectsDuplicateEntitlement(t *testing.T) {
	setupPaymentTest(t)
	course := seedCourse(t, 499, 0)

	require.NoError(t, database.DB.Create(&model.Purchase{
		UserID:   1,
		ItemType: model.ItemTypeCourse,
		ItemID:   course.ID,
		OrderNo:  "existing",
		Status:   model.PurchaseStatusCompleted,
	}).Error)

	_, _, err := Payment.CreateOrder(1, courseDetails(course))
	assert.Error(t, err, "已持有有效权益时不应重复下单")
}

func TestCreateOrderUnpublished(t *testing.T) {
	setupPaymentTest(t)
	course := model.Course{Name: "草稿课程", Price: 100, IsPublished: false}
	require.NoError(t, database.DB.Create(&course).Error)

	_, _, err := Payment.CreateOrder(1, courseDetails(course))
	assert.Error(t, err)
}

func TestCreateFreeOrder(t *testing.T) {
	setupPaymentTest(t)
	course := seedCourse(t, 0, 30)

	purchase, err := Payment.CreateFreeOrder(1, courseDetails(course))
	require.NoError(t, err)

	assert.Equal(t, model.PurchaseStatusCompleted, purchase.Status)
	require.NotNil(t, purchase.ValidTill)
	assert.True(t, Entitlements.Get(1).HasPurchased(model.ItemTypeCourse, course.ID))

	var order model.PaymentOrder
	require.NoError(t, database.DB.Where("order_no = ?", purchase.OrderNo).First(&order).Error)
	assert.Equal(t, model.OrderStatusPaid, order.Status)
	assert.Equal(t, "free", order.PaymentType)
}

func TestCreateFreeOrderRejectsPaidContent(t *testing.T) {
	setupPaymentTest(t)
	course := seedCourse(t, 499, 0)

	_, err := Payment.CreateFreeOrder(1, courseDetails(course))
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	setupPaymentTest(t)
	course := seedCourse(t, 499, 365)

	order, descriptor, err := Payment.CreateOrder(1, courseDetails(course))
	require.NoError(t, err)

	purchase, err := Payment.Verify(1, checkout.Confirmation{
		GatewayOrderID:   descriptor.GatewayOrderID,
		GatewayPaymentID: "pay_001",
		Signature:        "valid",
	})
	require.NoError(t, err)

	assert.Equal(t, model.PurchaseStatusCompleted, purchase.Status)
	require.NotNil(t, purchase.ValidTill)

	var updated model.PaymentOrder
	require.NoError(t, database.DB.Where("order_no = ?", order.OrderNo).First(&updated).Error)
	assert.Equal(t, model.OrderStatusPaid, updated.Status)
	assert.Equal(t, "pay_001", updated.GatewayPaymentID)
	require.NotNil(t, updated.PayTime)

	// 权益缓存已刷新，内容立即可访问
	assert.True(t, Entitlements.Get(1).HasPurchased(model.ItemTypeCourse, course.ID))

	// 支付成功通知已送达
	var count int64
	database.DB.Model(&model.Notification{}).
		Where("user_id = ? AND kind = ?", 1, model.NotificationKindPayment).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestVerifyBadSignature(t *testing.T) {
	setupPaymentTest(t)
	course := seedCourse(t, 499, 365)

	order, descriptor, err := Payment.CreateOrder(1, courseDetails(course))
	require.NoError(t, err)

	_, err = Payment.Verify(1, checkout.Confirmation{
		GatewayOrderID:   descriptor.GatewayOrderID,
		GatewayPaymentID: "pay_001",
		Signature:        "forged",
	})
	require.Error(t, err)

	// 验签失败不改动任何状态
	var unchanged model.PaymentOrder
	require.NoError(t, database.DB.Where("order_no = ?", order.OrderNo).First(&unchanged).Error)
	assert.Equal(t, model.OrderStatusPending, unchanged.Status)
	assert.False(t, Entitlements.Get(1).HasPurchased(model.ItemTypeCourse, course.ID))
}

func TestVerifyIdempotent(t *testing.T) {
	setupPaymentTest(t)
	course := seedCourse(t, 499, 365)

	_, descriptor, err := Payment.CreateOrder(1, courseDetails(course))
	require.NoError(t, err)

	conf := checkout.Confirmation{
		GatewayOrderID:   descriptor.GatewayOrderID,
		GatewayPaymentID: "pay_001",
		Signature:        "valid",
	}

	first, err := Payment.Verify(1, conf)
	require.NoError(t, err)

	second, err := Payment.Verify(1, conf)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// 重复验证不会重复发通知
	var count int64
	database.DB.Model(&model.Notification{}).Where("user_id = ?", 1).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestInitiatePaymentSuccess(t *testing.T) {
	gw := setupPaymentTest(t)
	gw.openMode = "success"
	course := seedCourse(t, 499, 365)

	var successCount, errorCount int
	err := Payment.InitiatePayment(1, courseDetails(course), PaymentCallbacks{
		OnSuccess: func(p *model.Purchase) {
			successCount++
			assert.Equal(t, model.PurchaseStatusCompleted, p.Status)
		},
		OnError: func(err error) { errorCount++ },
	})
	require.NoError(t, err)

	assert.Equal(t, 1, successCount, "成功回调应恰好触发一次")
	assert.Equal(t, 0, errorCount)
	assert.True(t, Entitlements.Get(1).HasPurchased(model.ItemTypeCourse, course.ID))

	// 流程结束后在途标记清除，可以再次发起
	err = Payment.InitiatePayment(1, courseDetails(course), PaymentCallbacks{
		OnError: func(err error) { errorCount++ },
	})
	require.NoError(t, err)
	assert.Equal(t, 1, errorCount, "重复购买应走失败回调而不是返回错误")
}

func TestInitiatePaymentGatewayFailure(t *testing.T) {
	gw := setupPaymentTest(t)
	gw.openMode = "fail"
	course := seedCourse(t, 499, 365)

	var successCount, errorCount int
	err := Payment.InitiatePayment(1, courseDetails(course), PaymentCallbacks{
		OnSuccess: func(p *model.Purchase) { successCount++ },
		OnError:   func(err error) { errorCount++ },
	})
	require.NoError(t, err)

	assert.Equal(t, 0, successCount)
	assert.Equal(t, 1, errorCount, "失败回调应恰好触发一次")
	assert.False(t, Entitlements.Get(1).HasPurchased(model.ItemTypeCourse, course.ID))
}

func TestInitiatePaymentLoadFailure(t *testing.T) {
	gw := setupPaymentTest(t)
	gw.loadErr = errors.New("加载支付网关失败")
	course := seedCourse(t, 499, 365)

	var errorCount int
	err := Payment.InitiatePayment(1, courseDetails(course), PaymentCallbacks{
		OnSuccess: func(p *model.Purchase) { t.Error("不应走成功回调") },
		OnError:   func(err error) { errorCount++ },
	})
	require.NoError(t, err)
	assert.Equal(t, 1, errorCount)
}

func TestInitiatePaymentBusyGuard(t *testing.T) {
	gw := setupPaymentTest(t)
	gw.openMode = "hold"
	course := seedCourse(t, 499, 365)

	err := Payment.InitiatePayment(1, courseDetails(course), PaymentCallbacks{})
	require.NoError(t, err)

	// 第一笔还在途，同一用户再次发起被拒绝
	err = Payment.InitiatePayment(1, courseDetails(course), PaymentCallbacks{
		OnError: func(err error) { t.Error("在途拒绝不应走失败回调") },
	})
	assert.ErrorIs(t, err, ErrPaymentInProgress)

	// 其他用户不受影响
	err = Payment.InitiatePayment(2, courseDetails(course), PaymentCallbacks{})
	assert.NoError(t, err)
}

func TestHandleWebhookCaptured(t *testing.T) {
	setupPaymentTest(t)
	course := seedCourse(t, 499, 365)

	_, descriptor, err := Payment.CreateOrder(1, courseDetails(course))
	require.NoError(t, err)

	body := []byte(fmt.Sprintf(`{
		"event": "payment.captured",
		"payload": {"payment": {"entity": {"id": "pay_001", "order_id": "%s", "status": "captured"}}}
	}`, descriptor.GatewayOrderID))

	require.NoError(t, Payment.HandleWebhook(body, "valid"))
	assert.True(t, Entitlements.Get(1).HasPurchased(model.ItemTypeCourse, course.ID))

	// 重复通知为幂等空操作
	require.NoError(t, Payment.HandleWebhook(body, "valid"))
}

func TestHandleWebhookFailed(t *testing.T) {
	setupPaymentTest(t)
	course := seedCourse(t, 499, 365)

	order, descriptor, err := Payment.CreateOrder(1, courseDetails(course))
	require.NoError(t, err)

	body := []byte(fmt.Sprintf(`{
		"event": "payment.failed",
		"payload": {"payment": {"entity": {"id": "pay_001", "order_id": "%s", "status": "failed", "error_description": "余额不足"}}}
	}`, descriptor.GatewayOrderID))

	require.NoError(t, Payment.HandleWebhook(body, "valid"))

	var purchase model.Purchase
	require.NoError(t, database.DB.Where("order_no = ?", order.OrderNo).First(&purchase).Error)
	assert.Equal(t, model.PurchaseStatusFailed, purchase.Status)

	// 订单保持pending，允许重新支付
	var updated model.PaymentOrder
	require.NoError(t, database.DB.Where("order_no = ?", order.OrderNo).First(&updated).Error)
	assert.Equal(t, model.OrderStatusPending, updated.Status)
}

func TestHandleWebhookBadSignature(t *testing.T) {
	setupPaymentTest(t)
	assert.Error(t, Payment.HandleWebhook([]byte(`{"event":"payment.captured"}`), "forged"))
}

func TestCancel(t *testing.T) {
	setupPaymentTest(t)
	course := seedCourse(t, 499, 365)

	order, _, err := Payment.CreateOrder(1, courseDetails(course))
	require.NoError(t, err)

	require.NoError(t, Payment.Cancel(1, order.OrderNo))

	var updated model.PaymentOrder
	require.NoError(t, database.DB.Where("order_no = ?", order.OrderNo).First(&updated).Error)
	assert.Equal(t, model.OrderStatusCancelled, updated.Status)

	var purchase model.Purchase
	require.NoError(t, database.DB.Where("order_no = ?", order.OrderNo).First(&purchase).Error)
	assert.Equal(t, model.PurchaseStatusFailed, purchase.Status)

	// 重复取消为幂等空操作
	assert.NoError(t, Payment.Cancel(1, order.OrderNo))
}

func TestRefund(t *testing.T) {
	gw := setupPaymentTest(t)
	course := seedCourse(t, 499, 365)

	_, descriptor, err := Payment.CreateOrder(1, courseDetails(course))
	require.NoError(t, err)
	purchase, err := Payment.Verify(1, checkout.Confirmation{
		GatewayOrderID:   descriptor.GatewayOrderID,
		GatewayPaymentID: "pay_001",
		Signature:        "valid",
	})
	require.NoError(t, err)
	require.True(t, Entitlements.Get(1).HasPurchased(model.ItemTypeCourse, course.ID))

	result, err := Payment.Refund(99, purchase.OrderNo, "用户申请")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusRefunded, result["status"])
	assert.Equal(t, []string{"pay_001"}, gw.refunds)

	var refunded model.Purchase
	require.NoError(t, database.DB.Where("order_no = ?", purchase.OrderNo).First(&refunded).Error)
	assert.Equal(t, model.PurchaseStatusRefunded, refunded.Status)

	// 退款后权益缓存销毁，重新拉取后不再授权
	store := Entitlements.Get(1)
	require.NoError(t, store.Ensure())
	assert.False(t, store.HasPurchased(model.ItemTypeCourse, course.ID))
}

func TestRefundRejectsUnpaidOrder(t *testing.T) {
	setupPaymentTest(t)
	course := seedCourse(t, 499, 365)

	order, _, err := Payment.CreateOrder(1, courseDetails(course))
	require.NoError(t, err)

	_, err = Payment.Refund(99, order.OrderNo, "误触")
	assert.Error(t, err)
}
