package api

import (
	"github.com/SlpAus/reddit-higher-lower-backend/internal/game"
	"github.com/SlpAus/reddit-higher-lower-backend/internal/leaderboard"
	"github.com/SlpAus/reddit-higher-lower-backend/internal/platform/config"
	"github.com/SlpAus/reddit-higher-lower-backend/internal/user"
	"github.com/gin-gonic/gin"
)

// SetupRoutes 注册项目的所有API路由
func SetupRoutes(router *gin.Engine, cfg config.ServerConfig) {
	api := router.Group("/api")
	api.Use(user.LoadUserMiddleware())
	// 访客身份只在调试模式下分发，生产环境身份始终来自宿主平台
	if cfg.Mode == "debug" {
		api.Use(user.EnsureGuestMiddleware())
	}
	{
		// 游戏会话相关的路由组
		gameRoutes := api.Group("/game")
		{
			gameRoutes.GET("/status", game.GetGameStatus)
			gameRoutes.POST("/start", game.StartGame)
			gameRoutes.POST("/resume", game.ResumeGame)
			gameRoutes.GET("/round", game.GetCurrentRound)
			gameRoutes.POST("/guess", game.SubmitGuess)
			gameRoutes.POST("/abandon", game.AbandonGame)
			gameRoutes.GET("/stats", game.GetGameStats)
			gameRoutes.GET("/rules", game.GetGameRules)
		}

		// 天梯相关的路由
		api.GET("/leaderboard", leaderboard.GetLeaderboard)
		api.GET("/leaderboard/me", leaderboard.GetMyStat)
	}
}
