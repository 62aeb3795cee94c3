package handler

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/holiman/uint256"

	"github.com/jun-ii/fundraiser/internal/logic"
)

// CampaignHandler 募资活动接口
type CampaignHandler struct {
	campaignLogic *logic.CampaignLogic
}

// NewCampaignHandler 创建募资活动接口
func NewCampaignHandler(campaignLogic *logic.CampaignLogic) *CampaignHandler {
	return &CampaignHandler{
		campaignLogic: campaignLogic,
	}
}

// GetCampaign 获取活动快照
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	snap := h.campaignLogic.Snapshot()
	SuccessResponse(c, http.StatusOK, "ok", ToCampaignResponse(snap))
}

// Contribute 出资
func (h *CampaignHandler) Contribute(c *gin.Context) {
	var req ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	participant, ok := parseAddress(c, req.Address)
	if !ok {
		return
	}
	amount, ok := parseAmount(c, req.Amount)
	if !ok {
		return
	}

	record, err := h.campaignLogic.Contribute(participant, amount)
	if err != nil {
		DomainErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "出资成功", ToContributionResponse(record))
}

// UpdatePrice 更新汇率
func (h *CampaignHandler) UpdatePrice(c *gin.Context) {
	var req UpdatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	caller, ok := parseAddress(c, req.Caller)
	if !ok {
		return
	}
	rate, ok := parseAmount(c, req.Rate)
	if !ok {
		return
	}

	if err := h.campaignLogic.UpdatePrice(caller, rate); err != nil {
		DomainErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "汇率更新成功", gin.H{"rate": rate.Dec()})
}

// TransferOwner 转移所有权
func (h *CampaignHandler) TransferOwner(c *gin.Context) {
	var req TransferOwnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	caller, ok := parseAddress(c, req.Caller)
	if !ok {
		return
	}
	newOwner, ok := parseAddress(c, req.NewOwner)
	if !ok {
		return
	}

	if err := h.campaignLogic.TransferOwner(caller, newOwner); err != nil {
		DomainErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "所有权转移成功", gin.H{"owner": newOwner.Hex()})
}

// Withdraw 提取募资款
func (h *CampaignHandler) Withdraw(c *gin.Context) {
	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	caller, ok := parseAddress(c, req.Caller)
	if !ok {
		return
	}

	record, err := h.campaignLogic.Withdraw(c.Request.Context(), caller)
	if err != nil {
		DomainErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "提取成功", ToWithdrawalResponse(record))
}

// Refund 领取退款
func (h *CampaignHandler) Refund(c *gin.Context) {
	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	participant, ok := parseAddress(c, req.Address)
	if !ok {
		return
	}

	record, err := h.campaignLogic.Refund(c.Request.Context(), participant)
	if err != nil {
		DomainErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "退款成功", ToRefundResponse(record))
}

// GetBalance 查询参与者余额
func (h *CampaignHandler) GetBalance(c *gin.Context) {
	participant, ok := parseAddress(c, c.Param("address"))
	if !ok {
		return
	}

	wei, usd := h.campaignLogic.GetBalance(participant)

	resp := BalanceResponse{
		Address: participant.Hex(),
		Amount:  wei.Dec(),
	}
	if usd != nil {
		resp.UsdValue = usd.Dec()
	}

	SuccessResponse(c, http.StatusOK, "ok", resp)
}

// parseAddress 解析十六进制地址，非法时写入 400 响应
func parseAddress(c *gin.Context, raw string) (common.Address, bool) {
	if !common.IsHexAddress(raw) {
		ErrorResponse(c, http.StatusBadRequest, "地址无效: "+raw)
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}

// parseAmount 解析十进制金额字符串，非法时写入 400 响应
func parseAmount(c *gin.Context, raw string) (*uint256.Int, bool) {
	amount, err := uint256.FromDecimal(raw)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "金额格式无效: "+raw)
		return nil, false
	}
	return amount, true
}
