package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"upsc-prep/internal/service"
)

// GetMyPurchases 获取当前用户的购买记录
func GetMyPurchases(c *gin.Context) {
	userID := c.GetUint("userId")

	purchases, err := service.Purchase.GetList(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code": 500,
			"msg":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": purchases,
	})
}
