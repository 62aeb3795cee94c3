package task

import (
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"

	"github.com/jun-ii/fundraiser/internal/config"
	"github.com/jun-ii/fundraiser/internal/logger"
	"github.com/jun-ii/fundraiser/internal/logic"
)

// TaskManager 任务管理器
type TaskManager struct {
	scheduler     gocron.Scheduler
	db            *gorm.DB
	campaignLogic *logic.CampaignLogic
	config        *config.Config
}

// NewTaskManager 创建新的任务管理器
func NewTaskManager(db *gorm.DB, campaignLogic *logic.CampaignLogic, cfg *config.Config) *TaskManager {
	s, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("Failed to create scheduler: %v", err)
	}

	return &TaskManager{
		scheduler:     s,
		db:            db,
		campaignLogic: campaignLogic,
		config:        cfg,
	}
}

// Start 启动任务管理器
func Start(db *gorm.DB, campaignLogic *logic.CampaignLogic, cfg *config.Config) *TaskManager {
	manager := NewTaskManager(db, campaignLogic, cfg)

	// 注册所有任务
	manager.RegisterJobs()

	// 启动调度器
	manager.scheduler.Start()

	logger.Info("Task manager started successfully")
	return manager
}

// RegisterJobs 注册所有任务
func (m *TaskManager) RegisterJobs() {
	// 注册活动状态任务
	m.RegisterCampaignStatusJob()
}

// RegisterCampaignStatusJob 注册活动状态任务
func (m *TaskManager) RegisterCampaignStatusJob() {
	job := NewCampaignStatusJob(m.db, m.config, m.campaignLogic)

	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("Failed to register job %s: %v", job.GetName(), err)
	}
}

// Stop 停止任务管理器
func (m *TaskManager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
