package pricing

import (
	"github.com/holiman/uint256"
)

// 金额常量，均以 10^18 定点表示
var (
	// Scale 定点比例因子，等于 1 ETH 的 wei 数
	Scale = uint256.MustFromDecimal("1000000000000000000")

	// MinContribution 单笔最低出资额（USD）
	MinContribution = uint256.MustFromDecimal("50000000000000000000")

	// FundingGoal 募资目标（USD）
	FundingGoal = uint256.MustFromDecimal("50000000000000000000000")
)

// Convert 将 wei 金额按汇率换算为 USD（10^18 定点）。
// 计算顺序为先乘后除，中间结果使用 512 位，避免精度损失与溢出；
// 除法向下取整，这一截断语义决定了临界出资额的取舍，不可更改。
// 结果超出 256 位时返回 overflow=true，此时换算结果不可用。
func Convert(weiAmount, rate *uint256.Int) (*uint256.Int, bool) {
	usd, overflow := new(uint256.Int).MulDivOverflow(weiAmount, rate, Scale)
	if overflow {
		return nil, true
	}
	return usd, false
}
