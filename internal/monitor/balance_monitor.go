package monitor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"

	"github.com/jun-ii/fundraiser/internal/chain"
	"github.com/jun-ii/fundraiser/internal/config"
	"github.com/jun-ii/fundraiser/internal/logger"
	"github.com/jun-ii/fundraiser/internal/logic"
	"github.com/jun-ii/fundraiser/internal/model"
)

// BalanceMonitor 记账代币余额监控器：轮询代币合约的余额变更
// 事件，以授权更新者身份把最新余额写回账本。每个持有者的事件
// 按区块顺序串行应用，不同持有者之间并发处理。
type BalanceMonitor struct {
	chainManager  *chain.Manager
	campaignLogic *logic.CampaignLogic
	db            *gorm.DB
	updater       common.Address // 绑定的授权更新者身份

	startBlockNum   int64
	interval        time.Duration
	ctx             context.Context
	cancel          context.CancelFunc
	retryCount      int           // 重试次数
	backoffDuration time.Duration // 退避时间
	mu              sync.RWMutex  // 保护 startBlockNum 的并发访问
}

// NewBalanceMonitor 创建余额监控器
func NewBalanceMonitor(
	chainManager *chain.Manager,
	campaignLogic *logic.CampaignLogic,
	db *gorm.DB,
	cfg *config.Config,
) *BalanceMonitor {
	ctx, cancel := context.WithCancel(context.Background())

	return &BalanceMonitor{
		chainManager:    chainManager,
		campaignLogic:   campaignLogic,
		db:              db,
		updater:         common.HexToAddress(cfg.Chain.Updater),
		interval:        time.Duration(cfg.Task.Interval) * time.Second,
		ctx:             ctx,
		cancel:          cancel,
		backoffDuration: time.Second * 5, // 初始退避时间5秒
	}
}

// Start 启动监控
func (m *BalanceMonitor) Start() error {
	logger.Info("Starting token balance monitor")

	token := m.chainManager.GetToken()
	if token == nil {
		return fmt.Errorf("token contract not configured")
	}

	// 测试 RPC 连接
	currentBlock, err := m.chainManager.GetCurrentBlockNumber()
	if err != nil {
		return fmt.Errorf("failed to connect to blockchain: %w", err)
	}
	logger.Info("Connected to blockchain, current block: %d", currentBlock)

	// 设置起始区块号
	startBlock := m.resolveStartBlockNum(token)
	m.mu.Lock()
	m.startBlockNum = startBlock
	m.mu.Unlock()

	logger.Info("Starting monitor from block %d", startBlock)

	// 启动监控循环
	go m.loop()

	return nil
}

// Stop 停止监控
func (m *BalanceMonitor) Stop() {
	logger.Info("Stopping token balance monitor")
	m.cancel()
}

// loop 监控循环
func (m *BalanceMonitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			logger.Info("Monitor stopped")
			return
		case <-ticker.C:
			currentBlock, err := m.chainManager.GetCurrentBlockNumber()
			if err != nil {
				logger.Error("Failed to get current block number: %v", err)
				m.handleError(err)
				continue
			}

			m.mu.RLock()
			fromBlock := m.startBlockNum
			m.mu.RUnlock()

			if fromBlock > currentBlock {
				continue
			}

			if err := m.processBlocksInBatches(fromBlock, currentBlock); err != nil {
				logger.Error("Error processing blocks: %v", err)
				m.handleError(err)
				continue
			}

			m.retryCount = 0
		}
	}
}

// processBlocksInBatches 分批处理区块
func (m *BalanceMonitor) processBlocksInBatches(fromBlock, toBlock int64) error {
	logger.Debug("Processing blocks from %d to %d", fromBlock, toBlock)
	batchSize := int64(500) // 限制批量大小，避免API限制

	for currentFrom := fromBlock; currentFrom <= toBlock; currentFrom += batchSize {
		currentTo := currentFrom + batchSize - 1
		if currentTo > toBlock {
			currentTo = toBlock
		}

		if err := m.processBatchBlocks(currentFrom, currentTo); err != nil {
			if m.isAPIRateLimitError(err) {
				logger.Error("API rate limit hit while processing blocks %d-%d: %v",
					currentFrom, currentTo, err)
				return err
			}
			logger.Error("Error processing blocks %d-%d: %v", currentFrom, currentTo, err)
			return err
		}

		// 更新起始区块号
		m.updateStartBlockNum(currentTo + 1)

		// 添加延迟，避免API限制
		time.Sleep(time.Millisecond * 500)
	}

	return nil
}

// processBatchBlocks 批量处理区块
func (m *BalanceMonitor) processBatchBlocks(fromBlock, toBlock int64) error {
	logs, err := m.chainManager.GetTokenLogs(fromBlock, toBlock)
	if err != nil {
		return fmt.Errorf("error getting logs for blocks %d-%d: %w", fromBlock, toBlock, err)
	}

	if len(logs) == 0 {
		logger.Debug("No logs found for blocks %d-%d", fromBlock, toBlock)
		return nil
	}

	logger.Debug("Found %d logs for blocks %d-%d", len(logs), fromBlock, toBlock)

	// 按持有者分组，组内保持区块顺序
	logsByHolder := m.groupLogsByHolder(logs)
	groupCount := len(logsByHolder)
	if groupCount == 0 {
		return nil
	}

	// 创建临时协程池，大小等于分组数量
	tempPool, err := ants.NewPool(groupCount)
	if err != nil {
		return fmt.Errorf("failed to create temporary pool for %d groups: %w", groupCount, err)
	}
	defer tempPool.Release()

	var wg sync.WaitGroup
	for holder, holderLogs := range logsByHolder {
		holder, holderLogs := holder, holderLogs
		wg.Add(1)
		err := tempPool.Submit(func() {
			defer wg.Done()
			m.processHolderLogs(holder, holderLogs)
		})
		if err != nil {
			wg.Done()
			logger.Error("Failed to submit task to pool: %v", err)
		}
	}
	wg.Wait()

	return nil
}

// processHolderLogs 串行应用单个持有者的余额变更
func (m *BalanceMonitor) processHolderLogs(holder common.Address, logs []types.Log) {
	token := m.chainManager.GetToken()

	for _, log := range logs {
		change, err := token.ParseBalanceChanged(log)
		if err != nil {
			logger.Error("Error parsing BalanceChanged for %s: %v", holder.Hex(), err)
			continue
		}

		newBalance, overflow := uint256.FromBig(change.NewBalance)
		if overflow {
			logger.Error("BalanceChanged amount out of range for %s at block %d",
				holder.Hex(), change.BlockNum)
			continue
		}

		if err := m.campaignLogic.ApplyTokenUpdate(
			m.updater, change.Holder, newBalance, change.BlockNum); err != nil {
			logger.Error("Error applying balance update for %s: %v", holder.Hex(), err)
			continue
		}

		logger.Debug("Applied balance update for %s at block %d", holder.Hex(), change.BlockNum)
	}
}

// resolveStartBlockNum 确定起始区块号：
// 取配置的合约部署区块与数据库已处理的最大区块号中的较大者
func (m *BalanceMonitor) resolveStartBlockNum(token *chain.TokenContract) int64 {
	deployBlock := token.GetBlockNum()

	var maxProcessedBlock int64
	err := m.db.Model(&model.BalanceModel{}).
		Select("COALESCE(MAX(block_num), 0)").
		Scan(&maxProcessedBlock).Error
	if err != nil {
		logger.Error("Failed to get max processed block number from database: %v", err)
		return deployBlock
	}

	if maxProcessedBlock > deployBlock {
		return maxProcessedBlock + 1 // 从下一个区块开始处理
	}
	return deployBlock
}

// updateStartBlockNum 更新起始区块号
func (m *BalanceMonitor) updateStartBlockNum(blockNum int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startBlockNum = blockNum
}

// handleError 处理错误
func (m *BalanceMonitor) handleError(err error) {
	m.retryCount++

	// 指数退避
	if m.retryCount > 5 {
		m.backoffDuration = time.Minute * 5 // 最大退避时间5分钟
	} else {
		m.backoffDuration = time.Duration(m.retryCount) * time.Second * 10
	}

	logger.Error("Monitor encountered error (retry %d, backoff %s): %v",
		m.retryCount, m.backoffDuration, err)

	select {
	case <-m.ctx.Done():
	case <-time.After(m.backoffDuration):
	}
}

// isAPIRateLimitError 检查是否为API限制错误
func (m *BalanceMonitor) isAPIRateLimitError(err error) bool {
	return strings.Contains(err.Error(), "Too Many Requests")
}

// groupLogsByHolder 按持有者地址分组日志
func (m *BalanceMonitor) groupLogsByHolder(logs []types.Log) map[common.Address][]types.Log {
	logsByHolder := make(map[common.Address][]types.Log)

	for _, log := range logs {
		if len(log.Topics) < 2 {
			continue
		}
		holder := common.BytesToAddress(log.Topics[1].Bytes())
		logsByHolder[holder] = append(logsByHolder[holder], log)
	}

	return logsByHolder
}
