package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"upsc-prep/internal/model"
	"upsc-prep/internal/pkg/checkout"
	"upsc-prep/internal/pkg/logger"
	"upsc-prep/internal/service"
)

// CreateOrderRequest 下单请求参数
type CreateOrderRequest struct {
	ItemType     string `json:"item_type" binding:"required"`
	CourseID     uint   `json:"course_id"`
	TestSeriesID uint   `json:"test_series_id"`
	Free         bool   `json:"free"`
	Notes        string `json:"notes"`
}

func (r *CreateOrderRequest) toDetails() service.PaymentDetails {
	return service.PaymentDetails{
		ItemType:     r.ItemType,
		CourseID:     r.CourseID,
		TestSeriesID: r.TestSeriesID,
		Notes:        r.Notes,
	}
}

// CreatePaymentOrder 创建支付订单
// 免费内容直接开通，付费内容返回收银台参数由客户端发起支付
func CreatePaymentOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code": 400,
			"msg":  "参数错误",
		})
		return
	}

	userID := c.GetUint("userId")

	if req.Free {
		purchase, err := service.Payment.CreateFreeOrder(userID, req.toDetails())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code": 400,
				"msg":  err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"code": 200,
			"data": gin.H{
				"order_no": purchase.OrderNo,
				"status":   "paid",
				"message":  "免费内容已开通",
			},
		})
		return
	}

	order, descriptor, err := service.Payment.CreateOrder(userID, req.toDetails())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code": 400,
			"msg":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": gin.H{
			"order_no": order.OrderNo,
			"params":   descriptor,
		},
	})
}

// VerifyPayment 校验客户端回传的支付确认凭证
func VerifyPayment(c *gin.Context) {
	var conf checkout.Confirmation
	if err := c.ShouldBindJSON(&conf); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code": 400,
			"msg":  "参数错误",
		})
		return
	}

	userID := c.GetUint("userId")

	purchase, err := service.Payment.Verify(userID, conf)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code": 400,
			"msg":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": gin.H{
			"purchase_id": purchase.ID,
			"order_no":    purchase.OrderNo,
			"status":      purchase.Status,
			"valid_till":  purchase.ValidTill,
		},
	})
}

// Checkout 发起完整支付流程，立即返回，结果通过站内通知送达
func Checkout(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code": 400,
			"msg":  "参数错误",
		})
		return
	}

	userID := c.GetUint("userId")

	err := service.Payment.InitiatePayment(userID, req.toDetails(), service.PaymentCallbacks{
		OnSuccess: func(purchase *model.Purchase) {
			logger.Infof("支付流程完成: user_id=%d, order_no=%s", userID, purchase.OrderNo)
		},
		OnError: func(flowErr error) {
			// 失败结果通过站内通知告知用户
			if _, notifyErr := service.Notification.Create(userID, model.NotificationKindPayment,
				"支付未完成", flowErr.Error(), nil); notifyErr != nil {
				logger.Warnf("创建支付失败通知失败: user_id=%d, err=%v", userID, notifyErr)
			}
		},
	})
	if err != nil {
		if errors.Is(err, service.ErrPaymentInProgress) {
			c.JSON(http.StatusConflict, gin.H{
				"code": 409,
				"msg":  err.Error(),
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"code": 400,
			"msg":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"code": 202,
		"msg":  "支付流程已发起，结果将通过通知送达",
	})
}

// PaymentWebhook 网关异步通知
func PaymentWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code": 400,
			"msg":  "读取请求数据失败",
		})
		return
	}

	signature := c.GetHeader("X-Razorpay-Signature")
	if err := service.Payment.HandleWebhook(body, signature); err != nil {
		logger.Warnf("处理网关通知失败: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"code": 400,
			"msg":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  "success",
	})
}

// QueryPayment 查询支付结果
func QueryPayment(c *gin.Context) {
	orderNo := c.Param("order_no")
	if orderNo == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code": 400,
			"msg":  "订单号不能为空",
		})
		return
	}

	userID := c.GetUint("userId")

	result, err := service.Payment.Query(userID, orderNo)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code": 500,
			"msg":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": result,
	})
}

// CancelPayment 取消支付
func CancelPayment(c *gin.Context) {
	orderNo := c.Param("order_no")
	if orderNo == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code": 400,
			"msg":  "订单号不能为空",
		})
		return
	}

	userID := c.GetUint("userId")

	if err := service.Payment.Cancel(userID, orderNo); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code": 500,
			"msg":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  "取消支付成功",
	})
}
