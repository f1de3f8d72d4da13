package checkout

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"upsc-prep/internal/config"
)

// Client Razorpay风格的网关客户端，实现 Gateway 接口
type Client struct {
	cfg        config.RazorpayConfig
	httpClient *http.Client

	loadOnce  sync.Once
	loadErr   error
	loadCount int64 // 实际发起的配置拉取次数
}

// NewClient 创建网关客户端
func NewClient(cfg config.RazorpayConfig) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Load 拉取网关配置，进程内只拉取一次，之后直接返回首次结果
func (c *Client) Load() error {
	c.loadOnce.Do(func() {
		atomic.AddInt64(&c.loadCount, 1)

		url := fmt.Sprintf("%s/v1/preferences?key_id=%s", c.cfg.APIBase, c.cfg.KeyID)
		resp, err := c.httpClient.Get(url)
		if err != nil {
			c.loadErr = fmt.Errorf("加载支付网关失败: %v", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			c.loadErr = fmt.Errorf("加载支付网关失败: 状态码 %d", resp.StatusCode)
		}
	})
	return c.loadErr
}

// LoadCount 已发起的配置拉取次数
func (c *Client) LoadCount() int64 {
	return atomic.LoadInt64(&c.loadCount)
}

// CreateOrder 在网关侧创建订单
func (c *Client) CreateOrder(orderNo string, amount int64, notes map[string]string) (*OrderDescriptor, error) {
	reqBody := map[string]interface{}{
		"amount":   amount,
		"currency": c.cfg.Currency,
		"receipt":  orderNo,
	}
	if len(notes) > 0 {
		reqBody["notes"] = notes
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("生成请求失败: %v", err)
	}

	req, err := http.NewRequest("POST", c.cfg.APIBase+"/v1/orders", bytes.NewBuffer(data))
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.cfg.KeyID, c.cfg.KeySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("发送请求失败: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("网关下单失败: 状态码 %d, 响应 %s", resp.StatusCode, string(body))
	}

	var gatewayOrder struct {
		ID       string `json:"id"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Receipt  string `json:"receipt"`
	}
	if err := json.Unmarshal(body, &gatewayOrder); err != nil {
		return nil, fmt.Errorf("解析响应失败: %v", err)
	}

	return &OrderDescriptor{
		GatewayOrderID: gatewayOrder.ID,
		OrderNo:        orderNo,
		Amount:         gatewayOrder.Amount,
		Currency:       gatewayOrder.Currency,
		KeyID:          c.cfg.KeyID,
		Notes:          notes,
	}, nil
}

// Open 打开收银台会话并立即返回，支付结果由网关异步决定
// 回调恰好触发一次：要么成功带确认凭证，要么失败带错误
func (c *Client) Open(order *OrderDescriptor, onSuccess SuccessFunc, onFailure FailureFunc) {
	var once sync.Once
	succeed := func(conf Confirmation) {
		once.Do(func() { onSuccess(conf) })
	}
	fail := func(err error) {
		once.Do(func() { onFailure(err) })
	}

	go c.awaitPayment(order, succeed, fail)
}

// awaitPayment 轮询网关直到订单出现终态支付
// 没有超时和取消路径，页面侧放弃的订单由上层的过期清理处理
func (c *Client) awaitPayment(order *OrderDescriptor, succeed SuccessFunc, fail FailureFunc) {
	interval := time.Duration(c.cfg.PollInterval) * time.Second
	if interval <= 0 {
		interval = 3 * time.Second
	}

	for {
		payment, err := c.fetchPayment(order.GatewayOrderID)
		if err != nil {
			// 查询失败不终结会话，下一轮继续
			time.Sleep(interval)
			continue
		}

		if payment != nil {
			switch payment.Status {
			case "captured":
				succeed(Confirmation{
					GatewayOrderID:   order.GatewayOrderID,
					GatewayPaymentID: payment.ID,
					Signature:        c.Sign(order.GatewayOrderID, payment.ID),
				})
				return
			case "failed":
				reason := payment.ErrorDescription
				if reason == "" {
					reason = "支付失败或已取消"
				}
				fail(errors.New(reason))
				return
			}
		}

		time.Sleep(interval)
	}
}

type gatewayPayment struct {
	ID               string `json:"id"`
	Status           string `json:"status"` // created, authorized, captured, failed
	OrderID          string `json:"order_id"`
	ErrorDescription string `json:"error_description"`
}

// fetchPayment 查询订单下的支付，返回最新一笔，没有支付时返回nil
func (c *Client) fetchPayment(gatewayOrderID string) (*gatewayPayment, error) {
	url := fmt.Sprintf("%s/v1/orders/%s/payments", c.cfg.APIBase, gatewayOrderID)
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.cfg.KeyID, c.cfg.KeySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("查询支付失败: 状态码 %d", resp.StatusCode)
	}

	var list struct {
		Count int              `json:"count"`
		Items []gatewayPayment `json:"items"`
	}
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, err
	}

	if list.Count == 0 || len(list.Items) == 0 {
		return nil, nil
	}
	return &list.Items[0], nil
}

// Sign 计算确认凭证签名: HMAC-SHA256(order_id|payment_id, key_secret)
func (c *Client) Sign(gatewayOrderID, gatewayPaymentID string) string {
	mac := hmac.New(sha256.New, []byte(c.cfg.KeySecret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature 校验支付确认凭证的签名
func (c *Client) VerifySignature(conf Confirmation) bool {
	expected := c.Sign(conf.GatewayOrderID, conf.GatewayPaymentID)

	sigBytes, err := hex.DecodeString(conf.Signature)
	if err != nil {
		return false
	}
	expectedBytes, _ := hex.DecodeString(expected)
	return hmac.Equal(expectedBytes, sigBytes)
}

// VerifyWebhook 校验异步通知签名: HMAC-SHA256(body, webhook_secret)
func (c *Client) VerifyWebhook(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.cfg.WebhookSecret))
	mac.Write(body)
	expected := mac.Sum(nil)

	sigBytes, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	return hmac.Equal(expected, sigBytes)
}

// Refund 对网关侧支付发起退款
func (c *Client) Refund(gatewayPaymentID string, amount int64) error {
	reqBody := map[string]interface{}{
		"amount": amount,
	}
	data, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("生成请求失败: %v", err)
	}

	url := fmt.Sprintf("%s/v1/payments/%s/refund", c.cfg.APIBase, gatewayPaymentID)
	req, err := http.NewRequest("POST", url, bytes.NewBuffer(data))
	if err != nil {
		return fmt.Errorf("创建请求失败: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.cfg.KeyID, c.cfg.KeySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("发送请求失败: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("退款请求失败: 状态码 %d, 响应 %s", resp.StatusCode, string(body))
	}

	return nil
}
