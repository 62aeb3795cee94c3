package logic

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/jun-ii/fundraiser/internal/model"
)

// ContributionRecordLogic 出资记录查询逻辑
type ContributionRecordLogic struct {
	db *gorm.DB
}

// NewContributionRecordLogic 创建出资记录查询逻辑
func NewContributionRecordLogic(db *gorm.DB) *ContributionRecordLogic {
	return &ContributionRecordLogic{db: db}
}

// GetContributions 分页获取出资记录
func (c *ContributionRecordLogic) GetContributions(page, pageSize int) ([]model.ContributionModel, int64, error) {
	var records []model.ContributionModel
	var total int64

	// 获取总数
	if err := c.db.Model(&model.ContributionModel{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 获取数据
	offset := (page - 1) * pageSize
	if err := c.db.Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

// GetContributionStats 获取出资统计信息
func (c *ContributionRecordLogic) GetContributionStats() (map[string]interface{}, error) {
	var stats struct {
		TotalContributions int64  `json:"total_contributions"`
		TotalAmount        string `json:"total_amount"`
		TotalUsdValue      string `json:"total_usd_value"`
		UniqueContributors int64  `json:"unique_contributors"`
		AverageAmount      string `json:"average_amount"`
	}

	// 总出资笔数
	if err := c.db.Model(&model.ContributionModel{}).Count(&stats.TotalContributions).Error; err != nil {
		return nil, fmt.Errorf("获取总出资笔数失败: %w", err)
	}

	// 总出资金额（wei 与 USD，numeric 求和后转文本避免精度损失）
	if err := c.db.Model(&model.ContributionModel{}).
		Select("COALESCE(SUM(amount), 0)::text").
		Scan(&stats.TotalAmount).Error; err != nil {
		return nil, fmt.Errorf("获取总出资金额失败: %w", err)
	}
	if err := c.db.Model(&model.ContributionModel{}).
		Select("COALESCE(SUM(usd_value), 0)::text").
		Scan(&stats.TotalUsdValue).Error; err != nil {
		return nil, fmt.Errorf("获取总出资价值失败: %w", err)
	}

	// 唯一出资者数量
	if err := c.db.Model(&model.ContributionModel{}).
		Select("COUNT(DISTINCT address)").
		Scan(&stats.UniqueContributors).Error; err != nil {
		return nil, fmt.Errorf("获取唯一出资者数量失败: %w", err)
	}

	// 平均出资金额（整数除法，向下取整）
	if err := c.db.Model(&model.ContributionModel{}).
		Select("div(COALESCE(SUM(amount), 0), GREATEST(COUNT(*), 1))::text").
		Scan(&stats.AverageAmount).Error; err != nil {
		return nil, fmt.Errorf("获取平均出资金额失败: %w", err)
	}

	return map[string]interface{}{
		"total_contributions": stats.TotalContributions,
		"total_amount":        stats.TotalAmount,
		"total_usd_value":     stats.TotalUsdValue,
		"unique_contributors": stats.UniqueContributors,
		"average_amount":      stats.AverageAmount,
	}, nil
}
