package model

import (
	"time"
)

// RefundModel 退款记录
type RefundModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Address string       `json:"address" gorm:"not null;index"`
	Amount  string       `json:"amount" gorm:"type:numeric(78,0);not null"`
	Status  RefundStatus `json:"status" gorm:"default:'success'"`
}

// RefundStatus 退款状态
type RefundStatus string

const (
	RefundStatusSuccess RefundStatus = "success" // 成功
	RefundStatusFailed  RefundStatus = "failed"  // 失败
)

// TableName 自定义表名
func (RefundModel) TableName() string {
	return "refund"
}
