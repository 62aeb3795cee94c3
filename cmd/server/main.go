package main

import (
	"github.com/gin-gonic/gin"

	"github.com/jun-ii/fundraiser/internal/chain"
	"github.com/jun-ii/fundraiser/internal/config"
	"github.com/jun-ii/fundraiser/internal/event"
	"github.com/jun-ii/fundraiser/internal/logger"
	"github.com/jun-ii/fundraiser/internal/logic"
	"github.com/jun-ii/fundraiser/internal/monitor"
	"github.com/jun-ii/fundraiser/internal/repository"
	"github.com/jun-ii/fundraiser/internal/router"
	"github.com/jun-ii/fundraiser/internal/task"
	"github.com/jun-ii/fundraiser/internal/treasury"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	logger.Init(cfg.Log)
	defer logger.Sync()

	// 初始化数据库
	db, err := repository.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 初始化出账器：未启用链时使用内存出账器（开发模式）
	var payer treasury.Payer
	var chainManager *chain.Manager
	if cfg.Chain.Enabled {
		chainManager, err = chain.NewManager(cfg.Chain)
		if err != nil {
			logger.Fatal("Failed to initialize chain manager: %v", err)
		}
		defer chainManager.Close()

		ethPayer, err := treasury.NewEthPayer(chainManager.GetClient(), cfg.Chain.PrivateKey, cfg.Chain.ChainId)
		if err != nil {
			logger.Fatal("Failed to initialize payer: %v", err)
		}
		payer = ethPayer
	} else {
		logger.Warn("Chain integration disabled, using in-memory payer")
		payer = treasury.NewMemPayer()
	}

	// 构建募资活动业务逻辑（新建或从快照恢复引擎）
	campaignLogic, err := logic.Bootstrap(db, cfg, payer, event.NewRecorder(db))
	if err != nil {
		logger.Fatal("Failed to bootstrap campaign: %v", err)
	}

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(db, campaignLogic)

	// 启动定时任务
	taskManager := task.Start(db, campaignLogic, cfg)
	defer taskManager.Stop()

	// 启动代币余额监控（仅在配置了代币合约时）
	if chainManager != nil && chainManager.GetToken() != nil {
		balanceMonitor := monitor.NewBalanceMonitor(chainManager, campaignLogic, db, cfg)
		if err := balanceMonitor.Start(); err != nil {
			logger.Fatal("Failed to start balance monitor: %v", err)
		}
		defer balanceMonitor.Stop()
	}

	// 启动服务器
	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
