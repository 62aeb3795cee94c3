package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jun-ii/fundraiser/internal/campaign"
)

// SuccessResponse 成功响应
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponse 错误响应
func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Success: false,
		Message: message,
		Data:    nil,
	})
}

// DomainErrorResponse 按领域错误映射 HTTP 状态码
func DomainErrorResponse(c *gin.Context, err error) {
	ErrorResponse(c, statusOf(err), err.Error())
}

// statusOf 领域错误到 HTTP 状态码的映射
func statusOf(err error) int {
	switch {
	case errors.Is(err, campaign.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, campaign.ErrBelowMinimum),
		errors.Is(err, campaign.ErrInvalidRate),
		errors.Is(err, campaign.ErrInvalidAddress),
		errors.Is(err, campaign.ErrInvalidDuration):
		return http.StatusBadRequest
	case errors.Is(err, campaign.ErrPhaseClosed),
		errors.Is(err, campaign.ErrCampaignStillOpen),
		errors.Is(err, campaign.ErrGoalNotReached),
		errors.Is(err, campaign.ErrGoalWasReached),
		errors.Is(err, campaign.ErrNoContribution),
		errors.Is(err, campaign.ErrAlreadyWithdrawn):
		return http.StatusConflict
	case errors.Is(err, campaign.ErrTransferFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
