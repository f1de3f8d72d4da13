package admin

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"upsc-prep/internal/service"
)

// CreateAccessCodeRequest 生成兑换码请求参数
type CreateAccessCodeRequest struct {
	ItemType     string `json:"item_type" binding:"required"`
	ItemID       *uint  `json:"item_id"`
	ValidityDays int    `json:"validity_days"`
	Total        int    `json:"total" binding:"required"`
	ExpireDays   int    `json:"expire_days"`
	Count        int    `json:"count" binding:"required"`
}

// CreateAccessCodes 批量生成兑换码
func CreateAccessCodes(c *gin.Context) {
	var req CreateAccessCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code": 400,
			"msg":  "参数错误",
		})
		return
	}

	codes, err := service.AccessCode.Create(req.ItemType, req.ItemID,
		req.ValidityDays, req.Total, req.ExpireDays, req.Count)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code": 400,
			"msg":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": codes,
	})
}

// GetAccessCodes 兑换码列表
func GetAccessCodes(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	itemType := c.Query("item_type")

	codes, total, err := service.AccessCode.GetList(page, size, itemType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code": 500,
			"msg":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": gin.H{
			"total": total,
			"items": codes,
		},
	})
}

// DeleteAccessCode 删除兑换码
func DeleteAccessCode(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code": 400,
			"msg":  "参数错误",
		})
		return
	}

	if err := service.AccessCode.Delete(uint(id)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code": 500,
			"msg":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  "删除成功",
	})
}

// GetAccessCodeRecords 兑换记录列表
func GetAccessCodeRecords(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	code := c.Query("code")

	records, total, err := service.AccessCode.GetRecords(page, size, code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code": 500,
			"msg":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": gin.H{
			"total": total,
			"items": records,
		},
	})
}
