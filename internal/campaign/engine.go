package campaign

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/jun-ii/fundraiser/internal/ledger"
	"github.com/jun-ii/fundraiser/internal/pricing"
	"github.com/jun-ii/fundraiser/internal/treasury"
)

// Engine 单活动募资状态机。
// 所有公开操作由同一把互斥锁串行化，操作要么完整生效，
// 要么失败且状态零变更。内部遵循"检查-生效-交互"顺序：
// 先校验前置条件，再提交状态变更，最后才调用外部转账，
// 转账失败时在释放锁之前回滚已提交的变更。
type Engine struct {
	mu sync.Mutex

	owner          common.Address
	deployedAt     time.Time
	duration       time.Duration
	rate           *uint256.Int // USD/ETH 汇率，10^18 定点，恒大于0
	held           *uint256.Int // 当前在手 wei 余额
	fundsWithdrawn bool         // 单调 false -> true，仅置位一次
	updater        *common.Address

	book     *ledger.Book
	payer    treasury.Payer
	notifier Notifier

	now func() time.Time
}

// NewEngine 创建募资状态机，部署时间取当前时刻
func NewEngine(owner common.Address, duration time.Duration, initialRate *uint256.Int, payer treasury.Payer, notifier Notifier) (*Engine, error) {
	if owner == (common.Address{}) {
		return nil, ErrInvalidAddress
	}
	if duration <= 0 {
		return nil, ErrInvalidDuration
	}
	if initialRate == nil || initialRate.IsZero() {
		return nil, ErrInvalidRate
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}

	return &Engine{
		owner:      owner,
		deployedAt: time.Now(),
		duration:   duration,
		rate:       initialRate.Clone(),
		held:       new(uint256.Int),
		book:       ledger.NewBook(),
		payer:      payer,
		notifier:   notifier,
		now:        time.Now,
	}, nil
}

// Contribute 接受出资。要求募资仍在进行中，且按当前汇率换算的
// USD 价值不低于最低限额。成功时记入账本并增加在手余额，
// 返回换算后的 USD 价值；失败时无任何状态变更。
func (e *Engine) Contribute(participant common.Address, weiAmount *uint256.Int) (*uint256.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase() != PhaseOpen {
		return nil, ErrPhaseClosed
	}
	if weiAmount == nil {
		return nil, ErrBelowMinimum
	}

	usd, overflow := pricing.Convert(weiAmount, e.rate)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	if usd.Lt(pricing.MinContribution) {
		return nil, ErrBelowMinimum
	}

	// 在手余额先做溢出检查；账本余额不超过在手余额，
	// 在手余额加得下则账本也加得下
	newHeld, overflow := new(uint256.Int).AddOverflow(e.held, weiAmount)
	if overflow {
		return nil, ErrArithmeticOverflow
	}
	if !e.book.Credit(participant, weiAmount) {
		return nil, ErrArithmeticOverflow
	}
	e.held = newHeld

	e.notifier.Notify(Notification{
		Name: EventContributionAccepted,
		Data: map[string]interface{}{
			"participant": participant.Hex(),
			"amount":      weiAmount.Dec(),
			"usdValue":    usd.Dec(),
		},
	})

	return usd, nil
}

// UpdateExchangeRate 更新汇率，仅所有者可调用。
// 任何阶段均可调用：募资结束后更新汇率可能翻转募资结果，
// 这是沿袭自原合约的行为，保持原样。
func (e *Engine) UpdateExchangeRate(caller common.Address, newRate *uint256.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.owner {
		return ErrUnauthorized
	}
	if newRate == nil || newRate.IsZero() {
		return ErrInvalidRate
	}

	e.rate = newRate.Clone()

	e.notifier.Notify(Notification{
		Name: EventPriceUpdated,
		Data: map[string]interface{}{
			"newRate": newRate.Dec(),
		},
	})

	return nil
}

// TransferOwnership 转移所有权，仅所有者可调用
func (e *Engine) TransferOwnership(caller, newOwner common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.owner {
		return ErrUnauthorized
	}
	if newOwner == (common.Address{}) {
		return ErrInvalidAddress
	}

	previous := e.owner
	e.owner = newOwner

	e.notifier.Notify(Notification{
		Name: EventOwnershipTransferred,
		Data: map[string]interface{}{
			"previousOwner": previous.Hex(),
			"newOwner":      newOwner.Hex(),
		},
	})

	return nil
}

// BindAuthorizedUpdater 绑定授权更新者，仅所有者可调用。
// 绑定前所有 ApplyAuthorizedUpdate 调用一律失败。
func (e *Engine) BindAuthorizedUpdater(caller, updater common.Address) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.owner {
		return ErrUnauthorized
	}
	if updater == (common.Address{}) {
		return ErrInvalidAddress
	}

	bound := updater
	e.updater = &bound

	e.notifier.Notify(Notification{
		Name: EventUpdaterBound,
		Data: map[string]interface{}{
			"updater": updater.Hex(),
		},
	})

	return nil
}

// Withdraw 所有者提取全部募资款。要求募资已结束、按当前汇率达标
// 且此前未提取过。状态变更先于外部转账提交，转账失败则回滚，
// 对外表现为零状态变更。返回实际提取的 wei 金额。
func (e *Engine) Withdraw(ctx context.Context, caller common.Address) (*uint256.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if caller != e.owner {
		return nil, ErrUnauthorized
	}
	if e.phase() != PhaseEnded {
		return nil, ErrCampaignStillOpen
	}
	if e.fundsWithdrawn {
		return nil, ErrAlreadyWithdrawn
	}
	if resolutionAt(PhaseEnded, e.held, e.rate) != ResolutionGoalMet {
		return nil, ErrGoalNotReached
	}

	// 生效先于交互：清空在手余额并置位提取标志，再发起转账
	amount := e.held
	e.held = new(uint256.Int)
	e.fundsWithdrawn = true

	if err := e.payer.Payout(ctx, e.owner, amount.ToBig()); err != nil {
		e.held = amount
		e.fundsWithdrawn = false
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	e.notifier.Notify(Notification{
		Name: EventWithdrawal,
		Data: map[string]interface{}{
			"owner":  e.owner.Hex(),
			"amount": amount.Dec(),
		},
	})

	return amount.Clone(), nil
}

// ClaimRefund 参与者领取退款。要求募资已结束且未达标，
// 调用者账本余额大于0。一次性清零其全部余额并原路退回，
// 转账失败则恢复余额。返回实际退回的 wei 金额。
func (e *Engine) ClaimRefund(ctx context.Context, caller common.Address) (*uint256.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phase() != PhaseEnded {
		return nil, ErrCampaignStillOpen
	}
	// 款项已被提取即视为达标：提取本身就以达标为前提
	if e.fundsWithdrawn || resolutionAt(PhaseEnded, e.held, e.rate) != ResolutionGoalMissed {
		return nil, ErrGoalWasReached
	}
	if e.book.BalanceOf(caller).IsZero() {
		return nil, ErrNoContribution
	}

	// 生效先于交互：清零账本余额、扣减在手余额，再发起转账
	amount := e.book.Zero(caller)
	newHeld := new(uint256.Int)
	if amount.Gt(e.held) {
		// 授权更新者钩子可能把账本余额改写到在手余额之上，
		// 在手资金不足以覆盖时拒绝退款
		e.book.Set(caller, amount)
		return nil, ErrArithmeticOverflow
	}
	newHeld.Sub(e.held, amount)
	previousHeld := e.held
	e.held = newHeld

	if err := e.payer.Payout(ctx, caller, amount.ToBig()); err != nil {
		e.book.Set(caller, amount)
		e.held = previousHeld
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	e.notifier.Notify(Notification{
		Name: EventRefund,
		Data: map[string]interface{}{
			"participant": caller.Hex(),
			"amount":      amount.Dec(),
		},
	})

	return amount.Clone(), nil
}

// ApplyAuthorizedUpdate 授权更新者钩子：无条件覆盖参与者账本余额。
// 覆盖而非累加，不移动在手资金，仅供外部记账系统对账使用。
func (e *Engine) ApplyAuthorizedUpdate(caller, participant common.Address, newBalance *uint256.Int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.updater == nil || caller != *e.updater {
		return ErrUnauthorized
	}
	if newBalance == nil {
		newBalance = new(uint256.Int)
	}

	e.book.Set(participant, newBalance)

	e.notifier.Notify(Notification{
		Name: EventBalanceUpdated,
		Data: map[string]interface{}{
			"participant": participant.Hex(),
			"newBalance":  newBalance.Dec(),
		},
	})

	return nil
}

// BalanceOf 查询参与者的账本余额
func (e *Engine) BalanceOf(participant common.Address) *uint256.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.BalanceOf(participant)
}

// Balances 返回账本的完整副本
func (e *Engine) Balances() map[common.Address]*uint256.Int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.Entries()
}

// phase 计算当前阶段，调用方需持锁
func (e *Engine) phase() Phase {
	return phaseAt(e.now(), e.deployedAt, e.duration)
}
