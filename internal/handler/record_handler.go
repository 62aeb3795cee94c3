package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/jun-ii/fundraiser/internal/logic"
)

// RecordHandler 流水记录查询接口
type RecordHandler struct {
	contributionLogic *logic.ContributionRecordLogic
	refundLogic       *logic.RefundRecordLogic
	eventLogic        *logic.EventLogic
}

// NewRecordHandler 创建流水记录查询接口
func NewRecordHandler(db *gorm.DB) *RecordHandler {
	return &RecordHandler{
		contributionLogic: logic.NewContributionRecordLogic(db),
		refundLogic:       logic.NewRefundRecordLogic(db),
		eventLogic:        logic.NewEventLogic(db),
	}
}

// GetContributions 分页获取出资记录
func (h *RecordHandler) GetContributions(c *gin.Context) {
	page, pageSize := pageParams(c)

	records, total, err := h.contributionLogic.GetContributions(page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "ok", gin.H{
		"records":    ToContributionResponseList(records),
		"pagination": newPagination(page, pageSize, total),
	})
}

// GetContributionStats 获取出资统计信息
func (h *RecordHandler) GetContributionStats(c *gin.Context) {
	stats, err := h.contributionLogic.GetContributionStats()
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "ok", stats)
}

// GetRefunds 分页获取退款记录
func (h *RecordHandler) GetRefunds(c *gin.Context) {
	page, pageSize := pageParams(c)

	records, total, err := h.refundLogic.GetRefunds(page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "ok", gin.H{
		"records":    ToRefundResponseList(records),
		"pagination": newPagination(page, pageSize, total),
	})
}

// GetRefundStats 获取退款统计信息
func (h *RecordHandler) GetRefundStats(c *gin.Context) {
	stats, err := h.refundLogic.GetRefundStats()
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "ok", stats)
}

// GetEvents 分页获取通知记录
func (h *RecordHandler) GetEvents(c *gin.Context) {
	page, pageSize := pageParams(c)
	name := c.Query("name")

	events, total, err := h.eventLogic.GetEvents(name, page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "ok", gin.H{
		"events":     ToEventResponseList(events),
		"pagination": newPagination(page, pageSize, total),
	})
}

// pageParams 解析分页参数
func pageParams(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
