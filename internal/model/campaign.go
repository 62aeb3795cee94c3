package model

import (
	"time"
)

// CampaignModel 募资活动快照，单行记录，服务重启时用于恢复引擎状态
type CampaignModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 活动信息
	OwnerAddress    string    `json:"owner_address" gorm:"not null"`
	DeployedAt      time.Time `json:"deployed_at" gorm:"not null"`
	DurationSeconds int64     `json:"duration_seconds" gorm:"not null"`

	// 金额信息（wei/USD，10^18 定点，numeric 字符串）
	ExchangeRate string `json:"exchange_rate" gorm:"type:numeric(78,0);not null"`
	HeldAmount   string `json:"held_amount" gorm:"type:numeric(78,0);not null;default:0"`

	// 状态
	FundsWithdrawn bool           `json:"funds_withdrawn" gorm:"default:false"`
	UpdaterAddress string         `json:"updater_address"` // 空串表示未绑定
	Status         CampaignStatus `json:"status" gorm:"default:'active'"`
}

// CampaignStatus 活动状态
type CampaignStatus string

const (
	CampaignStatusActive    CampaignStatus = "active"    // 募资中
	CampaignStatusSucceeded CampaignStatus = "succeeded" // 已结束且达标
	CampaignStatusFailed    CampaignStatus = "failed"    // 已结束且未达标
)

// TableName 自定义表名
func (CampaignModel) TableName() string {
	return "campaign"
}
