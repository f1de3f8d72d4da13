package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"upsc-prep/internal/service"
)

// SubmitTestResultRequest 提交测试成绩请求参数
type SubmitTestResultRequest struct {
	ItemType string  `json:"item_type" binding:"required"`
	ItemID   uint    `json:"item_id" binding:"required"`
	Score    float64 `json:"score"`
}

// SubmitTestResult 提交一次测试成绩
func SubmitTestResult(c *gin.Context) {
	var req SubmitTestResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code": 400,
			"msg":  "参数错误",
		})
		return
	}

	userID := c.GetUint("userId")

	record, err := service.Progress.SubmitTestResult(userID, req.ItemType, req.ItemID, req.Score)
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
			"tests_taken": record.TestsTaken,
			"best_score":  record.BestScore,
			"last_score":  record.LastScore,
		},
	})
}

// GetProgress 获取用户对某内容的进度
func GetProgress(c *gin.Context) {
	itemType := c.Query("item_type")
	itemID, err := strconv.ParseUint(c.Query("item_id"), 10, 32)
	if err != nil || itemType == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code": 400,
			"msg":  "参数错误",
		})
		return
	}

	userID := c.GetUint("userId")

	record, err := service.Progress.GetProgress(userID, itemType, uint(itemID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code": 500,
			"msg":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": record,
	})
}

// GetStreak 获取连续学习统计
func GetStreak(c *gin.Context) {
	userID := c.GetUint("userId")

	stats, err := service.Progress.GetStreak(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code": 500,
			"msg":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"data": stats,
	})
}
