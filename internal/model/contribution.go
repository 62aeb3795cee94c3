package model

import (
	"time"
)

// ContributionModel 出资记录
type ContributionModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Address  string `json:"address" gorm:"not null;index"`
	Amount   string `json:"amount" gorm:"type:numeric(78,0);not null"`
	UsdValue string `json:"usd_value" gorm:"type:numeric(78,0);not null"`
}

// TableName 自定义表名
func (ContributionModel) TableName() string {
	return "contribution"
}
