package model

import (
	"time"
)

// BalanceModel 账本余额镜像，每个参与者一行
type BalanceModel struct {
	Address   string    `json:"address" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Amount   string `json:"amount" gorm:"type:numeric(78,0);not null;default:0"`
	BlockNum int64  `json:"block_num"` // 最近一次代币余额更新的区块号
}

// TableName 自定义表名
func (BalanceModel) TableName() string {
	return "balance"
}
