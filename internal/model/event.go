package model

import (
	"time"
)

// EventModel 引擎通知记录
type EventModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name string `json:"name" gorm:"not null;index"`
	Data string `json:"data" gorm:"type:text"`
}

// TableName 自定义表名
func (EventModel) TableName() string {
	return "event"
}
