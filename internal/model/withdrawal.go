package model

import (
	"time"
)

// WithdrawalModel 提取记录，整个活动生命周期内至多一行
type WithdrawalModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	OwnerAddress string `json:"owner_address" gorm:"not null"`
	Amount       string `json:"amount" gorm:"type:numeric(78,0);not null"`
	Status       string `json:"status" gorm:"default:'success'"`
}

// TableName 自定义表名
func (WithdrawalModel) TableName() string {
	return "withdrawal"
}
