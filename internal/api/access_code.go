package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"upsc-prep/internal/service"
)

// RedeemRequest 兑换码兑换请求参数
type RedeemRequest struct {
	Code     string `json:"code" binding:"required"`
	ItemType string `json:"item_type" binding:"required"`
	ItemID   uint   `json:"item_id" binding:"required"`
}

// RedeemAccessCode 使用兑换码开通内容
func RedeemAccessCode(c *gin.Context) {
	var req RedeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code": 400,
			"msg":  "参数错误",
		})
		return
	}

	userID := c.GetUint("userId")

	purchase, err := service.AccessCode.Redeem(userID, req.Code, req.ItemType, req.ItemID)
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
			"valid_till":  purchase.ValidTill,
		},
		"msg": "兑换成功",
	})
}
