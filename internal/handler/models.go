package handler

import (
	"time"

	"github.com/jun-ii/fundraiser/internal/campaign"
	"github.com/jun-ii/fundraiser/internal/logic"
	"github.com/jun-ii/fundraiser/internal/model"
	"github.com/jun-ii/fundraiser/internal/pricing"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 分页信息结构
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"pageSize"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"totalPage"`
}

// 请求模型

// ContributeRequest 出资请求
type ContributeRequest struct {
	Address string `json:"address" binding:"required"`
	Amount  string `json:"amount" binding:"required"` // wei，十进制字符串
}

// UpdatePriceRequest 更新汇率请求
type UpdatePriceRequest struct {
	Caller string `json:"caller" binding:"required"`
	Rate   string `json:"rate" binding:"required"` // USD/ETH，10^18 定点
}

// TransferOwnerRequest 转移所有权请求
type TransferOwnerRequest struct {
	Caller   string `json:"caller" binding:"required"`
	NewOwner string `json:"newOwner" binding:"required"`
}

// WithdrawRequest 提取募资款请求
type WithdrawRequest struct {
	Caller string `json:"caller" binding:"required"`
}

// RefundRequest 退款请求
type RefundRequest struct {
	Address string `json:"address" binding:"required"`
}

// 响应模型

// CampaignResponse 活动快照响应
type CampaignResponse struct {
	Owner           string    `json:"owner"`
	DeployedAt      time.Time `json:"deployedAt"`
	EndsAt          time.Time `json:"endsAt"`
	DurationSeconds int64     `json:"durationSeconds"`
	ExchangeRate    string    `json:"exchangeRate"`
	HeldAmount      string    `json:"heldAmount"`
	HeldUsdValue    string    `json:"heldUsdValue"`
	FundsWithdrawn  bool      `json:"fundsWithdrawn"`
	Updater         string    `json:"updater,omitempty"`
	Phase           string    `json:"phase"`
	Resolution      string    `json:"resolution"`
	Status          string    `json:"status"`
	MinContribution string    `json:"minContribution"`
	FundingGoal     string    `json:"fundingGoal"`
}

// BalanceResponse 余额响应
type BalanceResponse struct {
	Address  string `json:"address"`
	Amount   string `json:"amount"`
	UsdValue string `json:"usdValue,omitempty"`
}

// ContributionResponse 出资记录响应模型
type ContributionResponse struct {
	ID        int64     `json:"id"`
	Address   string    `json:"address"`
	Amount    string    `json:"amount"`
	UsdValue  string    `json:"usdValue"`
	CreatedAt time.Time `json:"createdAt"`
}

// RefundResponse 退款记录响应模型
type RefundResponse struct {
	ID        int64     `json:"id"`
	Address   string    `json:"address"`
	Amount    string    `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// WithdrawalResponse 提取记录响应模型
type WithdrawalResponse struct {
	ID        int64     `json:"id"`
	Owner     string    `json:"owner"`
	Amount    string    `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// EventResponse 通知记录响应模型
type EventResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Data      string    `json:"data"`
	CreatedAt time.Time `json:"createdAt"`
}

// 转换函数

// ToCampaignResponse 将引擎快照转换为响应模型
func ToCampaignResponse(snap campaign.Snapshot) CampaignResponse {
	heldUsd := ""
	if usd, overflow := pricing.Convert(snap.Held, snap.Rate); !overflow {
		heldUsd = usd.Dec()
	}

	updater := ""
	if snap.Updater != nil {
		updater = snap.Updater.Hex()
	}

	return CampaignResponse{
		Owner:           snap.Owner.Hex(),
		DeployedAt:      snap.DeployedAt,
		EndsAt:          snap.DeployedAt.Add(snap.Duration),
		DurationSeconds: int64(snap.Duration / time.Second),
		ExchangeRate:    snap.Rate.Dec(),
		HeldAmount:      snap.Held.Dec(),
		HeldUsdValue:    heldUsd,
		FundsWithdrawn:  snap.FundsWithdrawn,
		Updater:         updater,
		Phase:           string(snap.Phase),
		Resolution:      string(snap.Resolution),
		Status:          string(logic.StatusOf(snap)),
		MinContribution: pricing.MinContribution.Dec(),
		FundingGoal:     pricing.FundingGoal.Dec(),
	}
}

// ToContributionResponse 将出资记录数据库模型转换为响应模型
func ToContributionResponse(record *model.ContributionModel) ContributionResponse {
	return ContributionResponse{
		ID:        record.Id,
		Address:   record.Address,
		Amount:    record.Amount,
		UsdValue:  record.UsdValue,
		CreatedAt: record.CreatedAt,
	}
}

// ToContributionResponseList 将出资记录列表转换为响应模型列表
func ToContributionResponseList(records []model.ContributionModel) []ContributionResponse {
	result := make([]ContributionResponse, len(records))
	for i, record := range records {
		result[i] = ToContributionResponse(&record)
	}
	return result
}

// ToRefundResponse 将退款记录数据库模型转换为响应模型
func ToRefundResponse(record *model.RefundModel) RefundResponse {
	return RefundResponse{
		ID:        record.Id,
		Address:   record.Address,
		Amount:    record.Amount,
		Status:    string(record.Status),
		CreatedAt: record.CreatedAt,
	}
}

// ToRefundResponseList 将退款记录列表转换为响应模型列表
func ToRefundResponseList(records []model.RefundModel) []RefundResponse {
	result := make([]RefundResponse, len(records))
	for i, record := range records {
		result[i] = ToRefundResponse(&record)
	}
	return result
}

// ToWithdrawalResponse 将提取记录数据库模型转换为响应模型
func ToWithdrawalResponse(record *model.WithdrawalModel) WithdrawalResponse {
	return WithdrawalResponse{
		ID:        record.Id,
		Owner:     record.OwnerAddress,
		Amount:    record.Amount,
		Status:    record.Status,
		CreatedAt: record.CreatedAt,
	}
}

// ToEventResponseList 将通知记录列表转换为响应模型列表
func ToEventResponseList(events []model.EventModel) []EventResponse {
	result := make([]EventResponse, len(events))
	for i, ev := range events {
		result[i] = EventResponse{
			ID:        ev.Id,
			Name:      ev.Name,
			Data:      ev.Data,
			CreatedAt: ev.CreatedAt,
		}
	}
	return result
}

// newPagination 构造分页信息
func newPagination(page, pageSize int, total int64) Pagination {
	totalPage := total / int64(pageSize)
	if total%int64(pageSize) > 0 {
		totalPage++
	}
	return Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: totalPage,
	}
}
