package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jun-ii/fundraiser/internal/handler"
	"github.com/jun-ii/fundraiser/internal/logic"
)

func Setup(db *gorm.DB, campaignLogic *logic.CampaignLogic) *gin.Engine {
	r := gin.Default()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "fundraiser",
		})
	})

	// API版本组
	v1 := r.Group("/api/v1")
	{
		campaignHandler := handler.NewCampaignHandler(campaignLogic)
		recordHandler := handler.NewRecordHandler(db)

		campaigns := v1.Group("/campaign")
		{
			campaigns.GET("", campaignHandler.GetCampaign)
			campaigns.POST("/contributions", campaignHandler.Contribute)
			campaigns.GET("/contributions", recordHandler.GetContributions)
			campaigns.GET("/contributions/stats", recordHandler.GetContributionStats)
			campaigns.PUT("/price", campaignHandler.UpdatePrice)
			campaigns.PUT("/owner", campaignHandler.TransferOwner)
			campaigns.POST("/withdrawal", campaignHandler.Withdraw)
			campaigns.POST("/refunds", campaignHandler.Refund)
			campaigns.GET("/refunds", recordHandler.GetRefunds)
			campaigns.GET("/refunds/stats", recordHandler.GetRefundStats)
			campaigns.GET("/balances/:address", campaignHandler.GetBalance)
			campaigns.GET("/events", recordHandler.GetEvents)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
