package logic

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/jun-ii/fundraiser/internal/model"
)

// RefundRecordLogic 退款记录查询逻辑
type RefundRecordLogic struct {
	db *gorm.DB
}

// NewRefundRecordLogic 创建退款记录查询逻辑
func NewRefundRecordLogic(db *gorm.DB) *RefundRecordLogic {
	return &RefundRecordLogic{db: db}
}

// GetRefunds 分页获取退款记录
func (r *RefundRecordLogic) GetRefunds(page, pageSize int) ([]model.RefundModel, int64, error) {
	var records []model.RefundModel
	var total int64

	// 获取总数
	if err := r.db.Model(&model.RefundModel{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 获取数据
	offset := (page - 1) * pageSize
	if err := r.db.Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// GetRefundStats 获取退款统计信息
func (r *RefundRecordLogic) GetRefundStats() (map[string]interface{}, error) {
	var totalRefunds int64
	if err := r.db.Model(&model.RefundModel{}).Count(&totalRefunds).Error; err != nil {
		return nil, fmt.Errorf("获取退款笔数失败: %w", err)
	}

	var totalAmount string
	if err := r.db.Model(&model.RefundModel{}).
		Select("COALESCE(SUM(amount), 0)::text").
		Scan(&totalAmount).Error; err != nil {
		return nil, fmt.Errorf("获取退款总额失败: %w", err)
	}

	return map[string]interface{}{
		"total_refunds": totalRefunds,
		"total_amount":  totalAmount,
	}, nil
}
