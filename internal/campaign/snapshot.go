package campaign

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/jun-ii/fundraiser/internal/ledger"
	"github.com/jun-ii/fundraiser/internal/treasury"
)

// Snapshot 引擎状态的一致性只读视图
type Snapshot struct {
	Owner          common.Address
	DeployedAt     time.Time
	Duration       time.Duration
	Rate           *uint256.Int
	Held           *uint256.Int
	FundsWithdrawn bool
	Updater        *common.Address
	Phase          Phase
	Resolution     Resolution
}

// Snapshot 返回当前状态快照，阶段与结果按当前时刻实时计算
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	phase := e.phase()

	// 款项已提取即视为达标：提取把在手余额清零，
	// 实时换算会误判为未达标
	resolution := resolutionAt(phase, e.held, e.rate)
	if phase == PhaseEnded && e.fundsWithdrawn {
		resolution = ResolutionGoalMet
	}

	var updater *common.Address
	if e.updater != nil {
		bound := *e.updater
		updater = &bound
	}

	return Snapshot{
		Owner:          e.owner,
		DeployedAt:     e.deployedAt,
		Duration:       e.duration,
		Rate:           e.rate.Clone(),
		Held:           e.held.Clone(),
		FundsWithdrawn: e.fundsWithdrawn,
		Updater:        updater,
		Phase:          phase,
		Resolution:     resolution,
	}
}

// Restore 从持久化快照与账本余额重建引擎，服务重启时使用。
// 授权更新者钩子可以把账本总和改写到在手余额之上，
// 因此这里不校验两者的大小关系，退款路径自身有兜底检查。
func Restore(snap Snapshot, balances map[common.Address]*uint256.Int, payer treasury.Payer, notifier Notifier) (*Engine, error) {
	if snap.Owner == (common.Address{}) {
		return nil, ErrInvalidAddress
	}
	if snap.Duration <= 0 {
		return nil, ErrInvalidDuration
	}
	if snap.Rate == nil || snap.Rate.IsZero() {
		return nil, ErrInvalidRate
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}

	held := new(uint256.Int)
	if snap.Held != nil {
		held = snap.Held.Clone()
	}

	book := ledger.NewBook()
	for addr, balance := range balances {
		book.Set(addr, balance)
	}
	if _, overflow := book.Total(); overflow {
		return nil, ErrArithmeticOverflow
	}

	var updater *common.Address
	if snap.Updater != nil && *snap.Updater != (common.Address{}) {
		bound := *snap.Updater
		updater = &bound
	}

	return &Engine{
		owner:          snap.Owner,
		deployedAt:     snap.DeployedAt,
		duration:       snap.Duration,
		rate:           snap.Rate.Clone(),
		held:           held,
		fundsWithdrawn: snap.FundsWithdrawn,
		updater:        updater,
		book:           book,
		payer:          payer,
		notifier:       notifier,
		now:            time.Now,
	}, nil
}
