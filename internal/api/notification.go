package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"upsc-prep/internal/service"
)

// GetNotificationList 获取通知列表
func GetNotificationList(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	userID := c.GetUint("userId")

	list, total, err := service.Notification.GetList(userID, page, size)
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
			"list":  list,
		},
	})
}

// GetUnreadCount 未读通知数
func GetUnreadCount(c *gin.Context) {
	userID := c.GetUint("userId")

	count, err := service.Notification.UnreadCount(userID)
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
			"count": count,
		},
	})
}

// MarkNotificationRead 标记单条通知已读
func MarkNotificationRead(c *gin.Context) {
	notificationID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code": 400,
			"msg":  "参数错误",
		})
		return
	}

	userID := c.GetUint("userId")

	if err := service.Notification.MarkRead(userID, uint(notificationID)); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code": 400,
			"msg":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  "已标记为已读",
	})
}

// MarkAllNotificationsRead 标记全部通知已读
func MarkAllNotificationsRead(c *gin.Context) {
	userID := c.GetUint("userId")

	if err := service.Notification.MarkAllRead(userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code": 500,
			"msg":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code": 200,
		"msg":  "全部已读",
	})
}
