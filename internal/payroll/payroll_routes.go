package payroll

import (
	"go-payroll/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(rg *gin.RouterGroup, handler *Handler, rdb *redis.Client) {
	payrolls := rg.Group("/payrolls")
	payrolls.Use(middleware.AuthMiddleware())
	payrolls.Use(middleware.RateLimitByUser(20, 40))
	{
		payrolls.POST("",
			middleware.RoleMiddleware("ADMIN", "HR"),
			middleware.Idempotency(rdb),
			handler.Generate,
		)
		payrolls.POST("/bulk",
			middleware.RoleMiddleware("ADMIN"),
			middleware.Idempotency(rdb),
			handler.RunBulk,
		)

		payrolls.GET("", handler.GetAll)
		payrolls.GET("/:id", handler.GetByID)
		payrolls.GET("/status/:status", handler.GetByStatus)
		payrolls.GET("/employee/:employeeId", handler.GetByEmployeeID)
		payrolls.GET("/by-code/:employeeCode", handler.GetByEmployeeCode)
		payrolls.GET("/by-code/:employeeCode/status/:status", handler.GetByEmployeeCodeAndStatus)

		payrolls.PUT("/:id/status/:status",
			middleware.RoleMiddleware("ADMIN", "HR"),
			handler.UpdateStatus,
		)

		payrolls.DELETE("/:id",
			middleware.RoleMiddleware("ADMIN"),
			handler.Delete,
		)
		payrolls.DELETE("/by-employee/:employeeCode",
			middleware.RoleMiddleware("ADMIN"),
			handler.DeleteByEmployeeCode,
		)
	}
}
