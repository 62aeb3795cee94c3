package campaign

import "errors"

// 领域错误。所有操作失败时保证状态零变更，
// 调用方修正前置条件后重新提交，系统内部不做重试。
var (
	ErrUnauthorized       = errors.New("无权执行此操作")
	ErrPhaseClosed        = errors.New("募资已结束，不再接受出资")
	ErrCampaignStillOpen  = errors.New("募资尚未结束")
	ErrBelowMinimum       = errors.New("出资金额低于最低限额")
	ErrInvalidRate        = errors.New("汇率必须大于0")
	ErrInvalidAddress     = errors.New("地址无效")
	ErrInvalidDuration    = errors.New("募资时长必须大于0")
	ErrGoalNotReached     = errors.New("未达到募资目标")
	ErrGoalWasReached     = errors.New("已达到募资目标，不可退款")
	ErrNoContribution     = errors.New("没有可退款的出资")
	ErrAlreadyWithdrawn   = errors.New("募资款已提取")
	ErrTransferFailed     = errors.New("转账失败")
	ErrArithmeticOverflow = errors.New("金额计算溢出")
)
