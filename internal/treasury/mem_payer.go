package treasury

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/jun-ii/fundraiser/internal/logger"
)

// Payout 一笔出账记录
type Payout struct {
	To     common.Address
	Amount *big.Int
}

// MemPayer 内存出账器，用于未配置链的开发模式与测试。
// 只记录出账，不做真实转账；可注入失败以验证回滚路径。
type MemPayer struct {
	mu      sync.Mutex
	payouts []Payout
	failErr error
}

// NewMemPayer 创建内存出账器
func NewMemPayer() *MemPayer {
	return &MemPayer{}
}

// Payout 记录一笔出账
func (p *MemPayer) Payout(ctx context.Context, to common.Address, amount *big.Int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failErr != nil {
		return p.failErr
	}

	p.payouts = append(p.payouts, Payout{
		To:     to,
		Amount: new(big.Int).Set(amount),
	})

	logger.Info("Recorded payout: %s wei to %s", amount.String(), to.Hex())
	return nil
}

// FailWith 使后续出账全部返回 err，传 nil 恢复正常
func (p *MemPayer) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failErr = err
}

// Payouts 返回已记录出账的副本
func (p *MemPayer) Payouts() []Payout {
	p.mu.Lock()
	defer p.mu.Unlock()

	payouts := make([]Payout, len(p.payouts))
	copy(payouts, p.payouts)
	return payouts
}
