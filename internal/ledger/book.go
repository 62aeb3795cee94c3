package ledger

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Book 参与者出资账本，地址到 wei 余额的映射。
// 自身不加锁，由上层（campaign.Engine）串行化所有访问。
type Book struct {
	balances map[common.Address]*uint256.Int
}

// NewBook 创建空账本
func NewBook() *Book {
	return &Book{
		balances: make(map[common.Address]*uint256.Int),
	}
}

// Credit 累加参与者余额。加法溢出时不做任何修改并返回 false。
func (b *Book) Credit(participant common.Address, amount *uint256.Int) bool {
	current := b.balances[participant]
	if current == nil {
		current = new(uint256.Int)
	}

	next, overflow := new(uint256.Int).AddOverflow(current, amount)
	if overflow {
		return false
	}

	b.balances[participant] = next
	return true
}

// Zero 清零参与者余额，返回清零前的金额
func (b *Book) Zero(participant common.Address) *uint256.Int {
	current := b.balances[participant]
	if current == nil {
		return new(uint256.Int)
	}

	delete(b.balances, participant)
	return current
}

// Set 无条件覆盖参与者余额。
// 仅供授权更新者钩子使用：覆盖而非累加，绕过正常的记账流程。
func (b *Book) Set(participant common.Address, newBalance *uint256.Int) {
	if newBalance == nil || newBalance.IsZero() {
		delete(b.balances, participant)
		return
	}
	b.balances[participant] = newBalance.Clone()
}

// BalanceOf 查询参与者余额，返回副本
func (b *Book) BalanceOf(participant common.Address) *uint256.Int {
	current := b.balances[participant]
	if current == nil {
		return new(uint256.Int)
	}
	return current.Clone()
}

// Total 计算账本余额总和。溢出时返回 overflow=true。
func (b *Book) Total() (*uint256.Int, bool) {
	total := new(uint256.Int)
	for _, balance := range b.balances {
		next, overflow := new(uint256.Int).AddOverflow(total, balance)
		if overflow {
			return nil, true
		}
		total = next
	}
	return total, false
}

// Entries 返回账本的完整副本
func (b *Book) Entries() map[common.Address]*uint256.Int {
	entries := make(map[common.Address]*uint256.Int, len(b.balances))
	for addr, balance := range b.balances {
		entries[addr] = balance.Clone()
	}
	return entries
}

// Len 返回有余额的参与者数量
func (b *Book) Len() int {
	return len(b.balances)
}
