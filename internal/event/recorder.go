package event

import (
	"encoding/json"

	"gorm.io/gorm"

	"github.com/jun-ii/fundraiser/internal/campaign"
	"github.com/jun-ii/fundraiser/internal/logger"
	"github.com/jun-ii/fundraiser/internal/model"
)

// Recorder 引擎通知接收器：落库并输出日志。
// 通知在引擎操作提交后同步发布，落库失败只记日志，
// 不反向影响已提交的引擎状态。
type Recorder struct {
	db *gorm.DB
}

// NewRecorder 创建通知接收器
func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// Notify 实现 campaign.Notifier
func (r *Recorder) Notify(n campaign.Notification) {
	data, err := json.Marshal(n.Data)
	if err != nil {
		logger.Error("Failed to marshal event data to JSON: %v", err)
		data = []byte("{}")
	}

	ev := &model.EventModel{
		Name: n.Name,
		Data: string(data),
	}

	if err := r.db.Create(ev).Error; err != nil {
		logger.Error("Failed to persist event %s: %v", n.Name, err)
		return
	}

	logger.Info("Recorded campaign event %s: %s", n.Name, ev.Data)
}
