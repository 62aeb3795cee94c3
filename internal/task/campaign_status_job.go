package task

import (
	"encoding/json"
	"time"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"

	"github.com/jun-ii/fundraiser/internal/campaign"
	"github.com/jun-ii/fundraiser/internal/config"
	"github.com/jun-ii/fundraiser/internal/logger"
	"github.com/jun-ii/fundraiser/internal/logic"
	"github.com/jun-ii/fundraiser/internal/model"
)

// CampaignStatusJob 活动状态任务：周期性重算阶段与结果，
// 推进快照行状态。募资结束后所有者仍可改汇率，结果可能在
// succeeded/failed 之间翻转，任务同样把这种翻转同步到快照行。
type CampaignStatusJob struct {
	db            *gorm.DB
	config        *config.Config
	campaignLogic *logic.CampaignLogic
}

// NewCampaignStatusJob 创建活动状态任务
func NewCampaignStatusJob(db *gorm.DB, cfg *config.Config, campaignLogic *logic.CampaignLogic) *CampaignStatusJob {
	return &CampaignStatusJob{
		db:            db,
		config:        cfg,
		campaignLogic: campaignLogic,
	}
}

// GetName 获取任务名称
func (j *CampaignStatusJob) GetName() string {
	return "campaign_status_updater"
}

// GetSchedule 获取调度配置
func (j *CampaignStatusJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Task.Interval) * time.Second)
}

// Execute 执行任务
func (j *CampaignStatusJob) Execute() {
	snap := j.campaignLogic.Snapshot()
	newStatus := logic.StatusOf(snap)

	var row model.CampaignModel
	if err := j.db.First(&row).Error; err != nil {
		logger.Error("Failed to load campaign snapshot row: %v", err)
		return
	}

	if row.Status == newStatus {
		return
	}

	logger.Info("Campaign status transition: %s -> %s (held=%s rate=%s)",
		row.Status, newStatus, snap.Held.Dec(), snap.Rate.Dec())

	if err := j.campaignLogic.PersistSnapshot(); err != nil {
		logger.Error("Failed to persist campaign status %s: %v", newStatus, err)
		return
	}

	// 仅在离开 active 的那一次记录结束事件
	if row.Status == model.CampaignStatusActive {
		j.recordEndedEvent(snap)
	}
}

// recordEndedEvent 记录活动结束事件
func (j *CampaignStatusJob) recordEndedEvent(snap campaign.Snapshot) {
	data, err := json.Marshal(map[string]interface{}{
		"resolution": string(snap.Resolution),
		"held":       snap.Held.Dec(),
		"rate":       snap.Rate.Dec(),
		"endedAt":    snap.DeployedAt.Add(snap.Duration),
	})
	if err != nil {
		logger.Error("Failed to marshal campaign ended event: %v", err)
		return
	}

	ev := &model.EventModel{
		Name: "CampaignEnded",
		Data: string(data),
	}
	if err := j.db.Create(ev).Error; err != nil {
		logger.Error("Failed to record campaign ended event: %v", err)
		return
	}

	logger.Info("Campaign ended with resolution %s", snap.Resolution)
}
