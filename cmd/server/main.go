package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/SlpAus/reddit-higher-lower-backend/api"
	"github.com/SlpAus/reddit-higher-lower-backend/internal/content"
	"github.com/SlpAus/reddit-higher-lower-backend/internal/game"
	"github.com/SlpAus/reddit-higher-lower-backend/internal/platform/backup"
	"github.com/SlpAus/reddit-higher-lower-backend/internal/platform/config"
	"github.com/SlpAus/reddit-higher-lower-backend/internal/platform/database"
	"github.com/SlpAus/reddit-higher-lower-backend/internal/platform/health"
	"github.com/SlpAus/reddit-higher-lower-backend/internal/platform/shutdown"
	"github.com/SlpAus/reddit-higher-lower-backend/internal/platform/startup"
	"github.com/SlpAus/reddit-higher-lower-backend/pkg/lifecycle"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("加载配置失败: %v", err))
	}

	database.InitDB(cfg.Database.Sqlite)
	database.InitRedis(cfg.Database.Redis)

	// 1. 阻塞式获取初始Run ID
	health.InitializeRunID()

	// 2. 执行应用首次启动初始化流程
	if err := startup.InitializeApplication(); err != nil {
		panic(fmt.Sprintf("应用初始化失败，无法启动: %v", err))
	}

	// 3. 组装game模块
	game.ConfigureModule(content.NewClient(cfg.Content))

	// 4. 阻塞式执行一次启动后健康检查，再异步启动持续检查器
	fmt.Println("正在执行启动后健康检查...")
	health.PerformCheck()
	go health.StartRedisHealthCheck()

	// 5. 启动后台备份调度器
	gracefulMgr := lifecycle.NewManager()
	forcefulMgr := lifecycle.NewManager()
	backupHandle, err := gracefulMgr.NewServiceHandle("backup-scheduler")
	if err != nil {
		panic(fmt.Sprintf("无法注册备份调度器: %v", err))
	}
	go backup.StartBackupScheduler(backupHandle)

	gin.SetMode(cfg.Server.Mode)
	r := gin.Default()

	allowedOrigins := cfg.Server.Cors.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Platform-User"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api.SetupRoutes(r, cfg.Server)

	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	go func() {
		fmt.Printf("服务器已准备就绪，开始监听 %s\n", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic("Failed to start server: " + err.Error())
		}
	}()

	// 阻塞等待停机信号，并编排两阶段优雅停机
	coordinator := shutdown.NewCoordinator(gracefulMgr, forcefulMgr)
	coordinator.ListenForSignalsAndShutdown(server)
}
