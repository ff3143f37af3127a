package api

import (
	"Commonfeed/internal/api/middleware"
	"Commonfeed/internal/pkg/consts"
	"Commonfeed/internal/pkg/logger"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRouter(group *HandlersGroup) *gin.Engine {
	r := gin.New()
	_ = r.SetTrustedProxies([]string{"localhost"})

	// TraceId & Logger & CORS
	r.Use(middleware.TraceMiddleware())
	r.Use(middleware.CORSMiddleware())
	logger.SetupGin(r)

	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"Code":    200,
				"Message": "pong",
				"Data":    nil,
			})
		})

		// 无需登录即可访问的接口
		apiGroup.GET("/feed", group.OpsHandler.GetFeed)
		apiGroup.GET("/stats", group.OpsHandler.GetStats)
		apiGroup.GET("/epochs/current", group.GovernanceHandler.GetCurrentEpoch)
		apiGroup.POST("/subscribers", group.GovernanceHandler.RegisterSubscriber)

		authGroup := apiGroup.Group("")
		authGroup.Use(middleware.AuthMiddleware())
		{
			authGroup.POST("/votes", group.GovernanceHandler.SubmitVote)

			adminGroup := authGroup.Group("")
			adminGroup.Use(middleware.CheckRoles(consts.RoleModerator))
			{
				adminGroup.POST("/epochs/voting", group.GovernanceHandler.OpenVoting)
				adminGroup.POST("/epochs/transition", group.GovernanceHandler.Transition)
				adminGroup.PUT("/epochs/current/rules", group.GovernanceHandler.OverrideRules)
				adminGroup.PUT("/epochs/current/weights", group.GovernanceHandler.OverrideWeights)
				adminGroup.POST("/rescore", group.OpsHandler.Rescore)
			}
		}
	}

	return r
}
