package campaign

import (
	"time"

	"github.com/holiman/uint256"

	"github.com/jun-ii/fundraiser/internal/pricing"
)

// Phase 募资阶段，由部署时间与时长推导，不落库。
// 单向流转：open -> ended，到期瞬间（now == deployedAt+duration）即视为 ended。
type Phase string

const (
	PhaseOpen  Phase = "open"  // 募资中
	PhaseEnded Phase = "ended" // 已结束
)

// Resolution 募资结果，仅在 ended 后有意义。
// 每次评估时基于当前在手余额与当前汇率实时计算，不缓存。
type Resolution string

const (
	ResolutionPending    Resolution = "pending"     // 募资中，尚无结果
	ResolutionGoalMet    Resolution = "goal_met"    // 达标
	ResolutionGoalMissed Resolution = "goal_missed" // 未达标
)

// phaseAt 计算给定时刻的募资阶段
func phaseAt(now, deployedAt time.Time, duration time.Duration) Phase {
	if now.Before(deployedAt.Add(duration)) {
		return PhaseOpen
	}
	return PhaseEnded
}

// resolutionAt 计算给定阶段下的募资结果。
// 换算溢出时视为达标：余额大到溢出必然超过目标。
func resolutionAt(phase Phase, held, rate *uint256.Int) Resolution {
	if phase != PhaseEnded {
		return ResolutionPending
	}

	usd, overflow := pricing.Convert(held, rate)
	if overflow {
		return ResolutionGoalMet
	}
	if usd.Lt(pricing.FundingGoal) {
		return ResolutionGoalMissed
	}
	return ResolutionGoalMet
}
