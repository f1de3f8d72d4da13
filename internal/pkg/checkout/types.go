package checkout

import "encoding/json"

// OrderDescriptor 网关订单描述，交给收银台拉起支付
type OrderDescriptor struct {
	GatewayOrderID string            `json:"id"`
	OrderNo        string            `json:"receipt"`
	Amount         int64             `json:"amount"` // 最小货币单位（paise）
	Currency       string            `json:"currency"`
	KeyID          string            `json:"key_id"`
	Notes          map[string]string `json:"notes,omitempty"`
}

// Confirmation 支付确认凭证，收银台成功回调携带
type Confirmation struct {
	GatewayOrderID   string `json:"razorpay_order_id" binding:"required"`
	GatewayPaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature        string `json:"razorpay_signature" binding:"required"`
}

// WebhookEvent 网关异步通知
type WebhookEvent struct {
	Event   string `json:"event"` // payment.captured / payment.failed
	Payload struct {
		Payment struct {
			Entity struct {
				ID          string `json:"id"`
				OrderID     string `json:"order_id"`
				Status      string `json:"status"`
				Description string `json:"error_description"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// ParseWebhook 解析网关异步通知的请求体
func ParseWebhook(body []byte) (*WebhookEvent, error) {
	var event WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// 收银台回调，二选一，且整个会话只会触发一次
type (
	SuccessFunc func(Confirmation)
	FailureFunc func(error)
)

// Gateway 支付网关抽象
type Gateway interface {
	// Load 加载网关配置，进程生命周期内最多发起一次网络请求，已加载时为幂等空操作
	Load() error
	// CreateOrder 在网关侧创建订单
	CreateOrder(orderNo string, amount int64, notes map[string]string) (*OrderDescriptor, error)
	// Open 打开收银台会话，立即返回；结果通过成功/失败回调异步通知，且恰好触发其中一个一次
	Open(order *OrderDescriptor, onSuccess SuccessFunc, onFailure FailureFunc)
	// VerifySignature 校验支付确认凭证的签名
	VerifySignature(c Confirmation) bool
	// VerifyWebhook 校验异步通知的签名
	VerifyWebhook(body []byte, signature string) bool
	// Refund 对网关侧支付发起退款
	Refund(gatewayPaymentID string, amount int64) error
}
