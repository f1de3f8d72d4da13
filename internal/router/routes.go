package router

import (
	"github.com/gin-gonic/gin"

	"upsc-prep/internal/api"
	"upsc-prep/internal/api/admin"
	"upsc-prep/internal/middleware"
	"upsc-prep/internal/model"
	"upsc-prep/internal/service"
)

// SetupRoutes 配置所有路由
func SetupRoutes(r *gin.Engine) {
	// 健康检查接口（不需要任何中间件）
	r.GET("/api/v1/health", api.SimpleHealthCheck)

	// 用户API路由
	setupAPIRoutes(r)

	// 管理员API路由
	setupAdminAPIRoutes(r)
}

// setupAPIRoutes 设置用户API路由
func setupAPIRoutes(r *gin.Engine) {
	apiGroup := r.Group("/api/v1")
	apiGroup.Use(middleware.Logger())
	apiGroup.Use(middleware.Recovery())
	apiGroup.Use(middleware.Cors())

	// 认证相关
	auth := apiGroup.Group("/auth")
	{
		auth.POST("/login", api.Login)
		auth.POST("/register", api.Register)
	}

	// 支付网关异步通知（不需要认证，验签在处理器内完成）
	apiGroup.POST("/payments/webhook", api.PaymentWebhook)

	// 需要认证的路由
	authorized := apiGroup.Group("/")
	authorized.Use(middleware.JWT())
	{
		authorized.POST("/auth/logout", api.Logout)

		// 支付相关
		payments := authorized.Group("/payments")
		{
			payments.POST("/order", api.CreatePaymentOrder)
			payments.POST("/verify", api.VerifyPayment)
			payments.POST("/checkout", api.Checkout)
			payments.GET("/query/:order_no", api.QueryPayment)
			payments.POST("/cancel/:order_no", api.CancelPayment)
		}

		// 兑换码开通
		authorized.POST("/access-codes/redeem", api.RedeemAccessCode)

		// 购买记录
		authorized.GET("/purchases/my", api.GetMyPurchases)

		// 用户相关
		user := authorized.Group("/user")
		{
			user.GET("/profile", api.GetProfile)
			user.PUT("/profile/update", api.UpdateProfile)
		}

		// 课程相关，正文路由经过权益门禁
		course := authorized.Group("/courses")
		{
			course.GET("", api.GetCourseList)
			course.GET("/:id", api.GetCourseDetail)
			course.GET("/:id/content",
				middleware.EntitlementGate(service.Entitlements, model.ItemTypeCourse, "id"),
				api.GetCourseContent)
		}

		// 测试系列相关
		series := authorized.Group("/test-series")
		{
			series.GET("", api.GetTestSeriesList)
			series.GET("/:id", api.GetTestSeriesDetail)
			series.GET("/:id/content",
				middleware.EntitlementGate(service.Entitlements, model.ItemTypeTestSeries, "id"),
				api.GetTestSeriesContent)
		}

		// 学习进度相关
		progress := authorized.Group("/progress")
		{
			progress.POST("/submit", api.SubmitTestResult)
			progress.GET("", api.GetProgress)
			progress.GET("/streak", api.GetStreak)
		}

		// 站内通知
		notifications := authorized.Group("/notifications")
		{
			notifications.GET("", api.GetNotificationList)
			notifications.GET("/unread-count", api.GetUnreadCount)
			notifications.POST("/:id/read", api.MarkNotificationRead)
			notifications.POST("/read-all", api.MarkAllNotificationsRead)
		}
	}
}

// setupAdminAPIRoutes 设置管理员API路由
func setupAdminAPIRoutes(r *gin.Engine) {
	adminGroup := r.Group("/api/v1/admin")
	adminGroup.Use(middleware.Logger())
	adminGroup.Use(middleware.Recovery())
	adminGroup.Use(middleware.Cors())

	// 管理员登录
	adminGroup.POST("/login", admin.Login)

	// 需要管理员权限的路由
	authorized := adminGroup.Group("/")
	authorized.Use(middleware.JWT())
	authorized.Use(middleware.AdminAuth())
	{
		// 系统管理
		system := authorized.Group("/system")
		{
			system.GET("/sales-statistics", admin.GetSalesStatistics) // 获取销售统计数据
			system.GET("/system-info", admin.GetSystemInfo)           // 获取系统信息统计数据
		}

		// 用户管理
		users := authorized.Group("/users")
		{
			users.GET("", admin.GetUsers)                       // 获取用户列表
			users.GET("/:id/purchases", admin.GetUserPurchases) // 获取用户购买记录
			users.DELETE("/:id", admin.DeleteUser)              // 删除用户
		}

		// 订单管理
		orders := authorized.Group("/orders")
		{
			orders.GET("", admin.GetOrders)           // 获取订单列表
			orders.GET("/:order_no", admin.GetOrder)  // 获取单个订单
			orders.POST("/refund", admin.RefundOrder) // 申请退款
		}

		// 课程管理
		courses := authorized.Group("/courses")
		{
			courses.GET("", admin.GetCourses)          // 获取课程列表
			courses.GET("/:id", admin.GetCourse)       // 获取单个课程
			courses.POST("", admin.CreateCourse)       // 创建课程
			courses.PUT("/:id", admin.UpdateCourse)    // 更新课程
			courses.DELETE("/:id", admin.DeleteCourse) // 删除课程
		}

		// 测试系列管理
		series := authorized.Group("/test-series")
		{
			series.GET("", admin.GetTestSeriesList)
			series.GET("/:id", admin.GetTestSeries)
			series.POST("", admin.CreateTestSeries)
			series.PUT("/:id", admin.UpdateTestSeries)
			series.DELETE("/:id", admin.DeleteTestSeries)
		}

		// 兑换码管理
		codes := authorized.Group("/access-codes")
		{
			codes.GET("", admin.GetAccessCodes)               // 获取兑换码列表
			codes.GET("/records", admin.GetAccessCodeRecords) // 获取兑换记录
			codes.POST("", admin.CreateAccessCodes)           // 批量生成兑换码
			codes.DELETE("/:id", admin.DeleteAccessCode)      // 删除兑换码
		}
	}
}
