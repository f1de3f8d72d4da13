package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"upsc-prep/internal/entitlement"
)

// EntitlementGate 权益门禁中间件，守住付费内容路由
// 三种结果:
//   - 缓存正在首次加载: 202，客户端稍后重试
//   - 持有有效购买: 放行
//   - 未持有: 402，返回购买引导
//
// paramName 为路由中内容ID参数名，itemType 为该路由守护的内容类型。
func EntitlementGate(provider *entitlement.Provider, itemType, paramName string) gin.HandlerFunc {
	return gateWithFallback(provider, itemType, paramName, nil)
}

// EntitlementGateWithFallback 同 EntitlementGate，未持有权益时改为执行
// fallback 而不是返回402，用于有免费降级内容的路由
func EntitlementGateWithFallback(provider *entitlement.Provider, itemType, paramName string, fallback gin.HandlerFunc) gin.HandlerFunc {
	return gateWithFallback(provider, itemType, paramName, fallback)
}

func gateWithFallback(provider *entitlement.Provider, itemType, paramName string, fallback gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		userId, exists := c.Get("userId")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code": 401,
				"msg":  "未登录",
			})
			c.Abort()
			return
		}

		itemID, err := strconv.ParseUint(c.Param(paramName), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"code": 400,
				"msg":  "无效的内容ID",
			})
			c.Abort()
			return
		}

		store := provider.Get(userId.(uint))

		// 另一个请求正在做首次加载，不重复发起也不放行
		if !store.Loaded() && store.Loading() {
			c.JSON(http.StatusAccepted, gin.H{
				"code": 202,
				"msg":  "权益信息加载中，请稍后重试",
			})
			c.Abort()
			return
		}

		if err := store.Ensure(); err != nil && !store.Loaded() {
			// 首次加载失败且没有任何缓存可用
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"code": 503,
				"msg":  "权益信息暂时不可用，请稍后重试",
			})
			c.Abort()
			return
		}

		if store.HasPurchased(itemType, uint(itemID)) {
			c.Next()
			return
		}

		if fallback != nil {
			fallback(c)
			c.Abort()
			return
		}

		c.JSON(http.StatusPaymentRequired, gin.H{
			"code": 402,
			"msg":  "购买后即可访问该内容",
			"data": gin.H{
				"item_type":    itemType,
				"item_id":      itemID,
				"purchase_url": "/api/payments/order",
			},
		})
		c.Abort()
	}
}
