package treasury

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Payer 对外出账原语。实现方负责把 amount（wei）转给 to，
// 失败时返回非 nil 错误且不得有部分生效，由状态机据此回滚。
type Payer interface {
	Payout(ctx context.Context, to common.Address, amount *big.Int) error
}
