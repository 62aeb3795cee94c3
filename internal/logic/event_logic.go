package logic

import (
	"gorm.io/gorm"

	"github.com/jun-ii/fundraiser/internal/model"
)

// EventLogic 通知记录查询逻辑
type EventLogic struct {
	db *gorm.DB
}

// NewEventLogic 创建通知记录查询逻辑
func NewEventLogic(db *gorm.DB) *EventLogic {
	return &EventLogic{db: db}
}

// GetEvents 分页获取通知记录，name 非空时按名称过滤
func (e *EventLogic) GetEvents(name string, page, pageSize int) ([]model.EventModel, int64, error) {
	var events []model.EventModel
	var total int64

	query := e.db.Model(&model.EventModel{})
	if name != "" {
		query = query.Where("name = ?", name)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := query.Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&events).Error; err != nil {
		return nil, 0, err
	}

	return events, total, nil
}
