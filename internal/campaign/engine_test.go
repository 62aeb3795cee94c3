package campaign

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/jun-ii/fundraiser/internal/treasury"
)

var (
	owner    = common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	alice    = common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob      = common.HexToAddress("0x2222222222222222222222222222222222222222")
	carol    = common.HexToAddress("0x3333333333333333333333333333333333333333")
	updater  = common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	stranger = common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")
)

const testDuration = 604800 * time.Second

// rate2000 初始汇率 2000 USD/ETH（10^18 定点）
func rate2000() *uint256.Int {
	return uint256.MustFromDecimal("2000000000000000000000")
}

// usdWorth 按 2000 USD/ETH 折算价值 u 美元的 wei 金额
func usdWorth(u uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(u), uint256.NewInt(500_000_000_000_000))
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.t = c.t.Add(d)
}

type captureNotifier struct {
	events []Notification
}

func (c *captureNotifier) Notify(n Notification) {
	c.events = append(c.events, n)
}

func (c *captureNotifier) names() []string {
	names := make([]string, len(c.events))
	for i, ev := range c.events {
		names[i] = ev.Name
	}
	return names
}

type fixture struct {
	engine   *Engine
	payer    *treasury.MemPayer
	notifier *captureNotifier
	clock    *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	payer := treasury.NewMemPayer()
	notifier := &captureNotifier{}

	engine, err := NewEngine(owner, testDuration, rate2000(), payer, notifier)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	engine.deployedAt = clock.t
	engine.now = clock.now

	return &fixture{
		engine:   engine,
		payer:    payer,
		notifier: notifier,
		clock:    clock,
	}
}

func (f *fixture) contribute(t *testing.T, participant common.Address, amount *uint256.Int) {
	t.Helper()
	if _, err := f.engine.Contribute(participant, amount); err != nil {
		t.Fatalf("Contribute(%s, %s): %v", participant.Hex(), amount.Dec(), err)
	}
}

func (f *fixture) end() {
	f.clock.advance(testDuration)
}

func TestNewEngineValidation(t *testing.T) {
	payer := treasury.NewMemPayer()

	tests := []struct {
		name     string
		owner    common.Address
		duration time.Duration
		rate     *uint256.Int
		wantErr  error
	}{
		{"zero owner", common.Address{}, testDuration, rate2000(), ErrInvalidAddress},
		{"zero duration", owner, 0, rate2000(), ErrInvalidDuration},
		{"negative duration", owner, -time.Second, rate2000(), ErrInvalidDuration},
		{"nil rate", owner, testDuration, nil, ErrInvalidRate},
		{"zero rate", owner, testDuration, new(uint256.Int), ErrInvalidRate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(tt.owner, tt.duration, tt.rate, payer, nil)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewEngine error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestContributeMinimumBoundary(t *testing.T) {
	f := newFixture(t)

	// 恰好 50 USD：接受
	exact := usdWorth(50)
	if _, err := f.engine.Contribute(alice, exact); err != nil {
		t.Fatalf("exact-minimum contribution rejected: %v", err)
	}

	// 低一个 wei：拒绝，且状态零变更
	below := new(uint256.Int).SubUint64(usdWorth(50), 1)
	heldBefore := f.engine.Snapshot().Held
	if _, err := f.engine.Contribute(bob, below); !errors.Is(err, ErrBelowMinimum) {
		t.Fatalf("below-minimum error = %v, want %v", err, ErrBelowMinimum)
	}
	if got := f.engine.Snapshot().Held; !got.Eq(heldBefore) {
		t.Fatalf("held changed on rejected contribution: %s -> %s", heldBefore.Dec(), got.Dec())
	}
	if !f.engine.BalanceOf(bob).IsZero() {
		t.Fatal("ledger changed on rejected contribution")
	}
}

func TestContributeConservation(t *testing.T) {
	f := newFixture(t)

	f.contribute(t, alice, usdWorth(60))
	f.contribute(t, bob, usdWorth(120))
	f.contribute(t, alice, usdWorth(75))
	f.contribute(t, carol, usdWorth(5000))

	total := new(uint256.Int)
	for _, balance := range f.engine.Balances() {
		total.Add(total, balance)
	}

	if held := f.engine.Snapshot().Held; !total.Eq(held) {
		t.Fatalf("ledger sum %s != held balance %s", total.Dec(), held.Dec())
	}
}

func TestContributeAfterEnd(t *testing.T) {
	f := newFixture(t)
	f.end()

	// 到期瞬间即为 ended，任何金额都不再接受
	if _, err := f.engine.Contribute(alice, usdWorth(1000000)); !errors.Is(err, ErrPhaseClosed) {
		t.Fatalf("error = %v, want %v", err, ErrPhaseClosed)
	}
}

func TestContributeAtExactEndInstant(t *testing.T) {
	f := newFixture(t)

	f.clock.advance(testDuration - time.Second)
	f.contribute(t, alice, usdWorth(60))

	f.clock.advance(time.Second)
	if _, err := f.engine.Contribute(alice, usdWorth(60)); !errors.Is(err, ErrPhaseClosed) {
		t.Fatalf("error at exact end instant = %v, want %v", err, ErrPhaseClosed)
	}
}

func TestContributeHeldOverflow(t *testing.T) {
	f := newFixture(t)

	// 汇率 1:1（= 比例因子）时换算恒等，大额出资不会在换算阶段溢出
	if err := f.engine.UpdateExchangeRate(owner, uint256.MustFromDecimal("1000000000000000000")); err != nil {
		t.Fatalf("UpdateExchangeRate: %v", err)
	}

	huge := new(uint256.Int).Lsh(uint256.NewInt(1), 255)
	f.contribute(t, alice, huge)

	heldBefore := f.engine.Snapshot().Held
	if _, err := f.engine.Contribute(bob, huge); !errors.Is(err, ErrArithmeticOverflow) {
		t.Fatalf("error = %v, want %v", err, ErrArithmeticOverflow)
	}
	if got := f.engine.Snapshot().Held; !got.Eq(heldBefore) {
		t.Fatal("held changed on overflowing contribution")
	}
	if !f.engine.BalanceOf(bob).IsZero() {
		t.Fatal("ledger changed on overflowing contribution")
	}
}

func TestUpdateExchangeRate(t *testing.T) {
	f := newFixture(t)

	if err := f.engine.UpdateExchangeRate(stranger, rate2000()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("error = %v, want %v", err, ErrUnauthorized)
	}
	if err := f.engine.UpdateExchangeRate(owner, new(uint256.Int)); !errors.Is(err, ErrInvalidRate) {
		t.Fatalf("error = %v, want %v", err, ErrInvalidRate)
	}

	newRate := uint256.MustFromDecimal("3000000000000000000000")
	if err := f.engine.UpdateExchangeRate(owner, newRate); err != nil {
		t.Fatalf("UpdateExchangeRate: %v", err)
	}
	if got := f.engine.Snapshot().Rate; !got.Eq(newRate) {
		t.Fatalf("rate = %s, want %s", got.Dec(), newRate.Dec())
	}
}

func TestTransferOwnership(t *testing.T) {
	f := newFixture(t)

	if err := f.engine.TransferOwnership(stranger, stranger); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("error = %v, want %v", err, ErrUnauthorized)
	}
	if err := f.engine.TransferOwnership(owner, common.Address{}); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("error = %v, want %v", err, ErrInvalidAddress)
	}

	if err := f.engine.TransferOwnership(owner, bob); err != nil {
		t.Fatalf("TransferOwnership: %v", err)
	}

	// 新所有者生效，旧所有者失权
	if err := f.engine.UpdateExchangeRate(bob, rate2000()); err != nil {
		t.Fatalf("new owner rejected: %v", err)
	}
	if err := f.engine.UpdateExchangeRate(owner, rate2000()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("old owner still authorized: %v", err)
	}
}

func TestWithdrawLifecycle(t *testing.T) {
	f := newFixture(t)

	f.contribute(t, alice, usdWorth(25000))
	f.contribute(t, bob, usdWorth(35000)) // 合计 60000 USD，超过目标
	total := f.engine.Snapshot().Held

	// 募资未结束不可提取
	if _, err := f.engine.Withdraw(context.Background(), owner); !errors.Is(err, ErrCampaignStillOpen) {
		t.Fatalf("error = %v, want %v", err, ErrCampaignStillOpen)
	}

	f.end()

	if _, err := f.engine.Withdraw(context.Background(), stranger); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("error = %v, want %v", err, ErrUnauthorized)
	}

	amount, err := f.engine.Withdraw(context.Background(), owner)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if !amount.Eq(total) {
		t.Fatalf("withdrew %s, want entire held balance %s", amount.Dec(), total.Dec())
	}

	payouts := f.payer.Payouts()
	if len(payouts) != 1 || payouts[0].To != owner {
		t.Fatalf("unexpected payouts: %+v", payouts)
	}
	if payouts[0].Amount.String() != total.Dec() {
		t.Fatalf("payout amount = %s, want %s", payouts[0].Amount, total.Dec())
	}

	snap := f.engine.Snapshot()
	if !snap.FundsWithdrawn || !snap.Held.IsZero() {
		t.Fatalf("post-withdraw snapshot: withdrawn=%v held=%s", snap.FundsWithdrawn, snap.Held.Dec())
	}
	if snap.Resolution != ResolutionGoalMet {
		t.Fatalf("post-withdraw resolution = %s, want %s", snap.Resolution, ResolutionGoalMet)
	}

	// 再次提取失败，且与目标无关
	if _, err := f.engine.Withdraw(context.Background(), owner); !errors.Is(err, ErrAlreadyWithdrawn) {
		t.Fatalf("second withdraw error = %v, want %v", err, ErrAlreadyWithdrawn)
	}

	// 提取后任何退款一律按已达标拒绝
	if _, err := f.engine.ClaimRefund(context.Background(), alice); !errors.Is(err, ErrGoalWasReached) {
		t.Fatalf("refund after withdraw error = %v, want %v", err, ErrGoalWasReached)
	}
}

func TestWithdrawGoalNotReached(t *testing.T) {
	f := newFixture(t)

	f.contribute(t, alice, usdWorth(40000))
	f.end()

	if _, err := f.engine.Withdraw(context.Background(), owner); !errors.Is(err, ErrGoalNotReached) {
		t.Fatalf("error = %v, want %v", err, ErrGoalNotReached)
	}
	if len(f.payer.Payouts()) != 0 {
		t.Fatal("payout issued despite failed withdraw")
	}
}

func TestWithdrawTransferFailureRollsBack(t *testing.T) {
	f := newFixture(t)

	f.contribute(t, alice, usdWorth(60000))
	total := f.engine.Snapshot().Held
	f.end()

	f.payer.FailWith(errors.New("rpc unavailable"))

	_, err := f.engine.Withdraw(context.Background(), owner)
	if !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("error = %v, want %v", err, ErrTransferFailed)
	}

	// 转账失败对外表现为零状态变更
	snap := f.engine.Snapshot()
	if snap.FundsWithdrawn {
		t.Fatal("fundsWithdrawn set despite failed transfer")
	}
	if !snap.Held.Eq(total) {
		t.Fatalf("held = %s after failed transfer, want %s", snap.Held.Dec(), total.Dec())
	}

	// 故障排除后重试成功
	f.payer.FailWith(nil)
	if _, err := f.engine.Withdraw(context.Background(), owner); err != nil {
		t.Fatalf("retry after transfer failure: %v", err)
	}
}

func TestRefundLifecycle(t *testing.T) {
	f := newFixture(t)

	aliceAmount := usdWorth(15000)
	bobAmount := usdWorth(25000) // 合计 40000 USD，未达标
	f.contribute(t, alice, aliceAmount)
	f.contribute(t, bob, bobAmount)

	// 募资未结束不可退款
	if _, err := f.engine.ClaimRefund(context.Background(), alice); !errors.Is(err, ErrCampaignStillOpen) {
		t.Fatalf("error = %v, want %v", err, ErrCampaignStillOpen)
	}

	f.end()

	got, err := f.engine.ClaimRefund(context.Background(), alice)
	if err != nil {
		t.Fatalf("ClaimRefund(alice): %v", err)
	}
	if !got.Eq(aliceAmount) {
		t.Fatalf("refund = %s, want %s", got.Dec(), aliceAmount.Dec())
	}
	if !f.engine.BalanceOf(alice).IsZero() {
		t.Fatal("ledger balance not zeroed after refund")
	}

	// 每个参与者恰好退款一次
	if _, err := f.engine.ClaimRefund(context.Background(), alice); !errors.Is(err, ErrNoContribution) {
		t.Fatalf("second refund error = %v, want %v", err, ErrNoContribution)
	}

	// 未出资者无款可退
	if _, err := f.engine.ClaimRefund(context.Background(), stranger); !errors.Is(err, ErrNoContribution) {
		t.Fatalf("error = %v, want %v", err, ErrNoContribution)
	}

	if _, err := f.engine.ClaimRefund(context.Background(), bob); err != nil {
		t.Fatalf("ClaimRefund(bob): %v", err)
	}
	if held := f.engine.Snapshot().Held; !held.IsZero() {
		t.Fatalf("held = %s after all refunds, want 0", held.Dec())
	}

	payouts := f.payer.Payouts()
	if len(payouts) != 2 {
		t.Fatalf("payout count = %d, want 2", len(payouts))
	}
}

func TestRefundRejectedWhenGoalMet(t *testing.T) {
	f := newFixture(t)

	f.contribute(t, alice, usdWorth(30000))
	f.contribute(t, bob, usdWorth(30000)) // 合计 60000 USD，达标
	f.end()

	// 达标后每个参与者的退款请求都被拒绝
	for _, participant := range []common.Address{alice, bob, stranger} {
		if _, err := f.engine.ClaimRefund(context.Background(), participant); !errors.Is(err, ErrGoalWasReached) {
			t.Fatalf("ClaimRefund(%s) error = %v, want %v", participant.Hex(), err, ErrGoalWasReached)
		}
	}
}

func TestRefundTransferFailureRollsBack(t *testing.T) {
	f := newFixture(t)

	amount := usdWorth(300)
	f.contribute(t, alice, amount)
	heldBefore := f.engine.Snapshot().Held
	f.end()

	f.payer.FailWith(errors.New("recipient rejected transfer"))

	_, err := f.engine.ClaimRefund(context.Background(), alice)
	if !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("error = %v, want %v", err, ErrTransferFailed)
	}

	// 余额与在手资金均恢复
	if got := f.engine.BalanceOf(alice); !got.Eq(amount) {
		t.Fatalf("balance = %s after failed refund, want %s", got.Dec(), amount.Dec())
	}
	if got := f.engine.Snapshot().Held; !got.Eq(heldBefore) {
		t.Fatalf("held = %s after failed refund, want %s", got.Dec(), heldBefore.Dec())
	}

	f.payer.FailWith(nil)
	if _, err := f.engine.ClaimRefund(context.Background(), alice); err != nil {
		t.Fatalf("retry after transfer failure: %v", err)
	}
}

func TestRateUpdateAfterEndFlipsResolution(t *testing.T) {
	t.Run("missed to met", func(t *testing.T) {
		f := newFixture(t)
		f.contribute(t, alice, usdWorth(40000))
		f.end()

		if _, err := f.engine.Withdraw(context.Background(), owner); !errors.Is(err, ErrGoalNotReached) {
			t.Fatalf("error = %v, want %v", err, ErrGoalNotReached)
		}

		// 汇率上调 2 倍，40000 变 80000，结果翻转为达标
		if err := f.engine.UpdateExchangeRate(owner, uint256.MustFromDecimal("4000000000000000000000")); err != nil {
			t.Fatalf("UpdateExchangeRate: %v", err)
		}
		if _, err := f.engine.Withdraw(context.Background(), owner); err != nil {
			t.Fatalf("withdraw after rate raise: %v", err)
		}
	})

	t.Run("met to missed", func(t *testing.T) {
		f := newFixture(t)
		f.contribute(t, alice, usdWorth(60000))
		f.end()

		if _, err := f.engine.ClaimRefund(context.Background(), alice); !errors.Is(err, ErrGoalWasReached) {
			t.Fatalf("error = %v, want %v", err, ErrGoalWasReached)
		}

		// 汇率腰斩，60000 变 30000，结果翻转为未达标
		if err := f.engine.UpdateExchangeRate(owner, uint256.MustFromDecimal("1000000000000000000000")); err != nil {
			t.Fatalf("UpdateExchangeRate: %v", err)
		}
		if _, err := f.engine.ClaimRefund(context.Background(), alice); err != nil {
			t.Fatalf("refund after rate drop: %v", err)
		}
	})
}

func TestAuthorizedUpdaterHook(t *testing.T) {
	f := newFixture(t)
	f.contribute(t, alice, usdWorth(100))

	// 未绑定时一律拒绝，所有者也不例外
	if err := f.engine.ApplyAuthorizedUpdate(owner, alice, uint256.NewInt(1)); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("unbound hook error = %v, want %v", err, ErrUnauthorized)
	}

	// 仅所有者可绑定
	if err := f.engine.BindAuthorizedUpdater(stranger, updater); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("error = %v, want %v", err, ErrUnauthorized)
	}
	if err := f.engine.BindAuthorizedUpdater(owner, common.Address{}); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("error = %v, want %v", err, ErrInvalidAddress)
	}
	if err := f.engine.BindAuthorizedUpdater(owner, updater); err != nil {
		t.Fatalf("BindAuthorizedUpdater: %v", err)
	}

	// 绑定后仍只认更新者身份
	if err := f.engine.ApplyAuthorizedUpdate(owner, alice, uint256.NewInt(1)); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("owner calling hook error = %v, want %v", err, ErrUnauthorized)
	}

	heldBefore := f.engine.Snapshot().Held

	// 覆盖而非累加
	if err := f.engine.ApplyAuthorizedUpdate(updater, alice, uint256.NewInt(777)); err != nil {
		t.Fatalf("ApplyAuthorizedUpdate: %v", err)
	}
	if err := f.engine.ApplyAuthorizedUpdate(updater, alice, uint256.NewInt(42)); err != nil {
		t.Fatalf("ApplyAuthorizedUpdate: %v", err)
	}
	if got := f.engine.BalanceOf(alice); got.Uint64() != 42 {
		t.Fatalf("balance = %d, want 42 (force-set must overwrite)", got.Uint64())
	}

	// 钩子不移动在手资金
	if got := f.engine.Snapshot().Held; !got.Eq(heldBefore) {
		t.Fatalf("held changed by hook: %s -> %s", heldBefore.Dec(), got.Dec())
	}
}

func TestNotifications(t *testing.T) {
	f := newFixture(t)

	f.contribute(t, alice, usdWorth(60000))
	if err := f.engine.UpdateExchangeRate(owner, rate2000()); err != nil {
		t.Fatalf("UpdateExchangeRate: %v", err)
	}
	f.end()

	// 失败操作不产生通知
	before := len(f.notifier.events)
	f.payer.FailWith(errors.New("down"))
	if _, err := f.engine.Withdraw(context.Background(), owner); !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("error = %v, want %v", err, ErrTransferFailed)
	}
	if len(f.notifier.events) != before {
		t.Fatal("failed operation emitted a notification")
	}

	f.payer.FailWith(nil)
	if _, err := f.engine.Withdraw(context.Background(), owner); err != nil {
		t.Fatalf("Withdraw: %v", err)
	}

	want := []string{EventContributionAccepted, EventPriceUpdated, EventWithdrawal}
	got := f.notifier.names()
	if len(got) != len(want) {
		t.Fatalf("notifications = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("notification[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	f := newFixture(t)
	f.contribute(t, alice, usdWorth(60))
	f.contribute(t, bob, usdWorth(120))

	snap := f.engine.Snapshot()
	balances := f.engine.Balances()

	restored, err := Restore(snap, balances, f.payer, nil)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}

	if got := restored.BalanceOf(alice); !got.Eq(f.engine.BalanceOf(alice)) {
		t.Fatalf("restored balance = %s, want %s", got.Dec(), f.engine.BalanceOf(alice).Dec())
	}

	restoredSnap := restored.Snapshot()
	if !restoredSnap.Held.Eq(snap.Held) || !restoredSnap.Rate.Eq(snap.Rate) {
		t.Fatalf("restored snapshot mismatch: held %s/%s rate %s/%s",
			restoredSnap.Held.Dec(), snap.Held.Dec(), restoredSnap.Rate.Dec(), snap.Rate.Dec())
	}
	if restoredSnap.Owner != snap.Owner {
		t.Fatalf("restored owner = %s, want %s", restoredSnap.Owner.Hex(), snap.Owner.Hex())
	}
}

func TestRestoreValidation(t *testing.T) {
	payer := treasury.NewMemPayer()

	base := Snapshot{
		Owner:      owner,
		DeployedAt: time.Unix(1700000000, 0),
		Duration:   testDuration,
		Rate:       rate2000(),
		Held:       new(uint256.Int),
	}

	t.Run("zero rate", func(t *testing.T) {
		snap := base
		snap.Rate = new(uint256.Int)
		if _, err := Restore(snap, nil, payer, nil); !errors.Is(err, ErrInvalidRate) {
			t.Fatalf("error = %v, want %v", err, ErrInvalidRate)
		}
	})

	t.Run("zero owner", func(t *testing.T) {
		snap := base
		snap.Owner = common.Address{}
		if _, err := Restore(snap, nil, payer, nil); !errors.Is(err, ErrInvalidAddress) {
			t.Fatalf("error = %v, want %v", err, ErrInvalidAddress)
		}
	})

	t.Run("zero duration", func(t *testing.T) {
		snap := base
		snap.Duration = 0
		if _, err := Restore(snap, nil, payer, nil); !errors.Is(err, ErrInvalidDuration) {
			t.Fatalf("error = %v, want %v", err, ErrInvalidDuration)
		}
	})
}

// TestScenarioGoalMissed 对应完整未达标场景：
// 时长 604800 秒，汇率 2000 USD/ETH；A 先出资 30 USD 被拒，再出资 60
// USD 被接受；活动结束时合计 40000 USD，提取失败，A 全额退款。
func TestScenarioGoalMissed(t *testing.T) {
	f := newFixture(t)

	if _, err := f.engine.Contribute(alice, usdWorth(30)); !errors.Is(err, ErrBelowMinimum) {
		t.Fatalf("30-USD contribution error = %v, want %v", err, ErrBelowMinimum)
	}

	aliceAmount := usdWorth(60)
	f.contribute(t, alice, aliceAmount)
	if got := f.engine.BalanceOf(alice); !got.Eq(aliceAmount) {
		t.Fatalf("ledger[alice] = %s, want %s", got.Dec(), aliceAmount.Dec())
	}

	f.contribute(t, bob, usdWorth(39940)) // 合计 40000 USD

	f.end()

	if _, err := f.engine.Withdraw(context.Background(), owner); !errors.Is(err, ErrGoalNotReached) {
		t.Fatalf("withdraw error = %v, want %v", err, ErrGoalNotReached)
	}

	got, err := f.engine.ClaimRefund(context.Background(), alice)
	if err != nil {
		t.Fatalf("ClaimRefund(alice): %v", err)
	}
	if !got.Eq(aliceAmount) {
		t.Fatalf("refund = %s, want full contribution %s", got.Dec(), aliceAmount.Dec())
	}
	if !f.engine.BalanceOf(alice).IsZero() {
		t.Fatal("ledger[alice] not zeroed")
	}
}

// TestScenarioGoalMet 对应完整达标场景：合计 60000 USD，
// 提取成功并转出全部余额，此后退款一律被拒。
func TestScenarioGoalMet(t *testing.T) {
	f := newFixture(t)

	f.contribute(t, alice, usdWorth(60))
	f.contribute(t, bob, usdWorth(59940)) // 合计 60000 USD
	total := f.engine.Snapshot().Held

	f.end()

	amount, err := f.engine.Withdraw(context.Background(), owner)
	if err != nil {
		t.Fatalf("Withdraw: %v", err)
	}
	if !amount.Eq(total) {
		t.Fatalf("withdrew %s, want %s", amount.Dec(), total.Dec())
	}

	snap := f.engine.Snapshot()
	if !snap.FundsWithdrawn {
		t.Fatal("fundsWithdrawn not set")
	}

	for _, participant := range []common.Address{alice, bob} {
		if _, err := f.engine.ClaimRefund(context.Background(), participant); !errors.Is(err, ErrGoalWasReached) {
			t.Fatalf("ClaimRefund(%s) error = %v, want %v", participant.Hex(), err, ErrGoalWasReached)
		}
	}
}
