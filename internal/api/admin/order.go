package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"upsc-prep/internal/model"
	"upsc-prep/internal/pkg/database"
	"upsc-prep/internal/service"
)

// GetOrders 获取订单列表
func GetOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	status := c.Query("status")
	orderNo := c.Query("order_no")

	var orders []model.PaymentOrder
	var total int64
	query := database.DB.Model(&model.PaymentOrder{})

	if status != "" {
		query = query.Where("status = ?", status)
	}
	if orderNo != "" {
		query = query.Where("order_no = ?", orderNo)
	}

	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code": 500,
			"msg":  "获取订单总数失败",
		})
		return
	}

	err := query.Preload("User").Order("created_at DESC").
		Offset((page - 1) * size).Limit(size).Find(&orders).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code": 500,
			"msg":  "获取订单列表失败",
		})
		return
	}

	var orderList []gin.H
	for _, order := range orders {
		orderList = append(orderList, gin.H{
			"id":           order.ID,
			"order_no":     order.OrderNo,
			"user_id":      order.UserID,
			"username":     order.User.Username,
			"item_type":    order.ItemType,
			"item_id":      order.ItemID,
			"amount":       order.Amount,
			"status":       order.Status,
			"payment_type": order.PaymentType,
			"pay_time":     order.PayTime,
			"created_at":   order.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": gin.H{
			"total": total,
			"items": orderList,
		},
	})
}

// GetOrder 获取单个订单详情
func GetOrder(c *gin.Context) {
	orderNo := c.Param("order_no")
	if orderNo == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code": 400,
			"msg":  "订单号不能为空",
		})
		return
	}

	var order model.PaymentOrder
	if err := database.DB.Preload("User").Where("order_no = ?", orderNo).First(&order).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"code": 404,
			"msg":  "订单不存在",
		})
		return
	}

	var purchase model.Purchase
	database.DB.Where("order_no = ?", orderNo).First(&purchase)

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": gin.H{
			"order":    order,
			"purchase": purchase,
		},
	})
}

// RefundRequest 退款请求参数
type RefundRequest struct {
	OrderNo      string `json:"order_no" binding:"required"`
	RefundReason string `json:"refund_reason"`
}

// RefundOrder 订单退款
func RefundOrder(c *gin.Context) {
	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code": 400,
			"msg":  "参数错误",
		})
		return
	}

	adminID := c.GetUint("userId")

	result, err := service.Payment.Refund(adminID, req.OrderNo, req.RefundReason)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code": 400,
			"msg":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": result,
		"msg":  "退款申请成功",
	})
}
