package logic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"gorm.io/gorm"

	"github.com/jun-ii/fundraiser/internal/campaign"
	"github.com/jun-ii/fundraiser/internal/config"
	"github.com/jun-ii/fundraiser/internal/logger"
	"github.com/jun-ii/fundraiser/internal/model"
	"github.com/jun-ii/fundraiser/internal/pricing"
	"github.com/jun-ii/fundraiser/internal/treasury"
)

// CampaignLogic 募资活动业务逻辑：驱动状态机并把每次成功操作
// 的结果落库（快照行、余额镜像、流水记录）。引擎内存状态是
// 唯一事实来源，数据库仅用于查询与重启恢复。
type CampaignLogic struct {
	db     *gorm.DB
	engine *campaign.Engine
}

// Bootstrap 启动时构建业务逻辑：数据库中已有快照则恢复引擎，
// 否则按配置新建活动并持久化首个快照。
func Bootstrap(db *gorm.DB, cfg *config.Config, payer treasury.Payer, notifier campaign.Notifier) (*CampaignLogic, error) {
	var row model.CampaignModel
	err := db.First(&row).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		engine, err := newEngineFromConfig(cfg, payer, notifier)
		if err != nil {
			return nil, err
		}
		l := &CampaignLogic{db: db, engine: engine}
		if err := l.bindUpdaterFromConfig(cfg); err != nil {
			return nil, err
		}
		snap := engine.Snapshot()
		if err := db.Create(snapshotToModel(snap)).Error; err != nil {
			return nil, fmt.Errorf("failed to persist initial campaign snapshot: %w", err)
		}
		logger.Info("Created campaign: owner=%s duration=%s rate=%s",
			snap.Owner.Hex(), snap.Duration, snap.Rate.Dec())
		return l, nil

	case err != nil:
		return nil, fmt.Errorf("failed to load campaign snapshot: %w", err)

	default:
		engine, err := restoreEngine(db, &row, payer, notifier)
		if err != nil {
			return nil, err
		}
		l := &CampaignLogic{db: db, engine: engine}
		if row.UpdaterAddress == "" {
			if err := l.bindUpdaterFromConfig(cfg); err != nil {
				return nil, err
			}
			if err := l.persistSnapshot(); err != nil {
				return nil, err
			}
		}
		logger.Info("Restored campaign from snapshot: owner=%s held=%s",
			row.OwnerAddress, row.HeldAmount)
		return l, nil
	}
}

// newEngineFromConfig 按配置创建新引擎
func newEngineFromConfig(cfg *config.Config, payer treasury.Payer, notifier campaign.Notifier) (*campaign.Engine, error) {
	if !common.IsHexAddress(cfg.Campaign.Owner) {
		return nil, fmt.Errorf("invalid campaign owner address %q: %w",
			cfg.Campaign.Owner, campaign.ErrInvalidAddress)
	}

	rate, err := uint256.FromDecimal(cfg.Campaign.InitialRate)
	if err != nil {
		return nil, fmt.Errorf("invalid campaign initial rate %q: %w",
			cfg.Campaign.InitialRate, campaign.ErrInvalidRate)
	}

	return campaign.NewEngine(
		common.HexToAddress(cfg.Campaign.Owner),
		time.Duration(cfg.Campaign.DurationSeconds)*time.Second,
		rate,
		payer,
		notifier,
	)
}

// restoreEngine 从快照行与余额镜像重建引擎
func restoreEngine(db *gorm.DB, row *model.CampaignModel, payer treasury.Payer, notifier campaign.Notifier) (*campaign.Engine, error) {
	rate, err := uint256.FromDecimal(row.ExchangeRate)
	if err != nil {
		return nil, fmt.Errorf("corrupt exchange rate %q in snapshot: %w", row.ExchangeRate, err)
	}
	held, err := uint256.FromDecimal(row.HeldAmount)
	if err != nil {
		return nil, fmt.Errorf("corrupt held amount %q in snapshot: %w", row.HeldAmount, err)
	}

	var updater *common.Address
	if row.UpdaterAddress != "" {
		addr := common.HexToAddress(row.UpdaterAddress)
		updater = &addr
	}

	var balanceRows []model.BalanceModel
	if err := db.Find(&balanceRows).Error; err != nil {
		return nil, fmt.Errorf("failed to load balances: %w", err)
	}

	balances := make(map[common.Address]*uint256.Int, len(balanceRows))
	for _, b := range balanceRows {
		amount, err := uint256.FromDecimal(b.Amount)
		if err != nil {
			return nil, fmt.Errorf("corrupt balance %q for %s: %w", b.Amount, b.Address, err)
		}
		balances[common.HexToAddress(b.Address)] = amount
	}

	return campaign.Restore(campaign.Snapshot{
		Owner:          common.HexToAddress(row.OwnerAddress),
		DeployedAt:     row.DeployedAt,
		Duration:       time.Duration(row.DurationSeconds) * time.Second,
		Rate:           rate,
		Held:           held,
		FundsWithdrawn: row.FundsWithdrawn,
		Updater:        updater,
	}, balances, payer, notifier)
}

// bindUpdaterFromConfig 按配置绑定授权更新者，未配置时跳过
func (l *CampaignLogic) bindUpdaterFromConfig(cfg *config.Config) error {
	if cfg.Chain.Updater == "" {
		return nil
	}
	if !common.IsHexAddress(cfg.Chain.Updater) {
		return fmt.Errorf("invalid updater address %q: %w",
			cfg.Chain.Updater, campaign.ErrInvalidAddress)
	}

	snap := l.engine.Snapshot()
	return l.engine.BindAuthorizedUpdater(snap.Owner, common.HexToAddress(cfg.Chain.Updater))
}

// Contribute 接受出资并落库
func (l *CampaignLogic) Contribute(participant common.Address, amount *uint256.Int) (*model.ContributionModel, error) {
	usd, err := l.engine.Contribute(participant, amount)
	if err != nil {
		return nil, err
	}

	record := &model.ContributionModel{
		Address:  participant.Hex(),
		Amount:   amount.Dec(),
		UsdValue: usd.Dec(),
	}

	balance := l.engine.BalanceOf(participant)

	if err := l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		if err := saveBalance(tx, participant, balance, 0); err != nil {
			return err
		}
		return saveSnapshot(tx, l.engine.Snapshot())
	}); err != nil {
		logger.Error("Failed to persist contribution by %s: %v", participant.Hex(), err)
		return nil, fmt.Errorf("failed to persist contribution: %w", err)
	}

	logger.Info("Accepted contribution: %s wei (%s USD) from %s",
		amount.Dec(), usd.Dec(), participant.Hex())
	return record, nil
}

// UpdatePrice 更新汇率并落库
func (l *CampaignLogic) UpdatePrice(caller common.Address, newRate *uint256.Int) error {
	if err := l.engine.UpdateExchangeRate(caller, newRate); err != nil {
		return err
	}
	logger.Info("Updated exchange rate to %s", newRate.Dec())
	return l.persistSnapshot()
}

// TransferOwner 转移所有权并落库
func (l *CampaignLogic) TransferOwner(caller, newOwner common.Address) error {
	if err := l.engine.TransferOwnership(caller, newOwner); err != nil {
		return err
	}
	logger.Info("Transferred campaign ownership to %s", newOwner.Hex())
	return l.persistSnapshot()
}

// Withdraw 提取募资款并落库
func (l *CampaignLogic) Withdraw(ctx context.Context, caller common.Address) (*model.WithdrawalModel, error) {
	amount, err := l.engine.Withdraw(ctx, caller)
	if err != nil {
		return nil, err
	}

	record := &model.WithdrawalModel{
		OwnerAddress: caller.Hex(),
		Amount:       amount.Dec(),
		Status:       "success",
	}

	if err := l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		return saveSnapshot(tx, l.engine.Snapshot())
	}); err != nil {
		logger.Error("Failed to persist withdrawal: %v", err)
		return nil, fmt.Errorf("failed to persist withdrawal: %w", err)
	}

	logger.Info("Withdrew %s wei to owner %s", amount.Dec(), caller.Hex())
	return record, nil
}

// Refund 领取退款并落库
func (l *CampaignLogic) Refund(ctx context.Context, participant common.Address) (*model.RefundModel, error) {
	amount, err := l.engine.ClaimRefund(ctx, participant)
	if err != nil {
		return nil, err
	}

	record := &model.RefundModel{
		Address: participant.Hex(),
		Amount:  amount.Dec(),
		Status:  model.RefundStatusSuccess,
	}

	if err := l.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(record).Error; err != nil {
			return err
		}
		if err := saveBalance(tx, participant, new(uint256.Int), 0); err != nil {
			return err
		}
		return saveSnapshot(tx, l.engine.Snapshot())
	}); err != nil {
		logger.Error("Failed to persist refund for %s: %v", participant.Hex(), err)
		return nil, fmt.Errorf("failed to persist refund: %w", err)
	}

	logger.Info("Refunded %s wei to %s", amount.Dec(), participant.Hex())
	return record, nil
}

// ApplyTokenUpdate 授权更新者钩子：覆盖参与者余额并落库，
// blockNum 记录本次更新来源的区块号，供监控器断点续传
func (l *CampaignLogic) ApplyTokenUpdate(caller, participant common.Address, newBalance *uint256.Int, blockNum int64) error {
	if err := l.engine.ApplyAuthorizedUpdate(caller, participant, newBalance); err != nil {
		return err
	}

	if err := saveBalance(l.db, participant, newBalance, blockNum); err != nil {
		logger.Error("Failed to persist balance update for %s: %v", participant.Hex(), err)
		return fmt.Errorf("failed to persist balance update: %w", err)
	}

	logger.Info("Applied authorized balance update: %s -> %s wei (block %d)",
		participant.Hex(), newBalance.Dec(), blockNum)
	return nil
}

// Snapshot 返回引擎状态快照
func (l *CampaignLogic) Snapshot() campaign.Snapshot {
	return l.engine.Snapshot()
}

// GetBalance 查询参与者余额及其按当前汇率的 USD 价值
func (l *CampaignLogic) GetBalance(participant common.Address) (wei, usd *uint256.Int) {
	wei = l.engine.BalanceOf(participant)
	snap := l.engine.Snapshot()

	usd, overflow := pricing.Convert(wei, snap.Rate)
	if overflow {
		usd = nil
	}
	return wei, usd
}

// persistSnapshot 持久化当前引擎快照
func (l *CampaignLogic) persistSnapshot() error {
	if err := saveSnapshot(l.db, l.engine.Snapshot()); err != nil {
		logger.Error("Failed to persist campaign snapshot: %v", err)
		return fmt.Errorf("failed to persist campaign snapshot: %w", err)
	}
	return nil
}

// PersistSnapshot 供定时任务刷新快照行（阶段/结果推进）
func (l *CampaignLogic) PersistSnapshot() error {
	return l.persistSnapshot()
}

// saveSnapshot 更新单行快照记录
func saveSnapshot(tx *gorm.DB, snap campaign.Snapshot) error {
	updates := map[string]interface{}{
		"owner_address":    snap.Owner.Hex(),
		"exchange_rate":    snap.Rate.Dec(),
		"held_amount":      snap.Held.Dec(),
		"funds_withdrawn":  snap.FundsWithdrawn,
		"updater_address":  updaterHex(snap.Updater),
		"status":           StatusOf(snap),
		"duration_seconds": int64(snap.Duration / time.Second),
	}
	return tx.Model(&model.CampaignModel{}).Where("1 = 1").Updates(updates).Error
}

// saveBalance 写入余额镜像行。blockNum 为 0 时保留原值。
func saveBalance(tx *gorm.DB, participant common.Address, balance *uint256.Int, blockNum int64) error {
	row := map[string]interface{}{
		"amount": balance.Dec(),
	}
	if blockNum > 0 {
		row["block_num"] = blockNum
	}

	result := tx.Model(&model.BalanceModel{}).Where("address = ?", participant.Hex()).Updates(row)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return tx.Create(&model.BalanceModel{
			Address:  participant.Hex(),
			Amount:   balance.Dec(),
			BlockNum: blockNum,
		}).Error
	}
	return nil
}

// snapshotToModel 构造首个快照行
func snapshotToModel(snap campaign.Snapshot) *model.CampaignModel {
	return &model.CampaignModel{
		OwnerAddress:    snap.Owner.Hex(),
		DeployedAt:      snap.DeployedAt,
		DurationSeconds: int64(snap.Duration / time.Second),
		ExchangeRate:    snap.Rate.Dec(),
		HeldAmount:      snap.Held.Dec(),
		FundsWithdrawn:  snap.FundsWithdrawn,
		UpdaterAddress:  updaterHex(snap.Updater),
		Status:          StatusOf(snap),
	}
}

// StatusOf 由阶段与结果推导快照行状态
func StatusOf(snap campaign.Snapshot) model.CampaignStatus {
	switch snap.Resolution {
	case campaign.ResolutionGoalMet:
		return model.CampaignStatusSucceeded
	case campaign.ResolutionGoalMissed:
		return model.CampaignStatusFailed
	default:
		return model.CampaignStatusActive
	}
}

// updaterHex 更新者地址的持久化形式，未绑定为空串
func updaterHex(updater *common.Address) string {
	if updater == nil {
		return ""
	}
	return updater.Hex()
}
