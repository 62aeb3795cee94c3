package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/jun-ii/fundraiser/internal/config"
	"github.com/jun-ii/fundraiser/internal/logger"
)

// Manager 链管理器：持有客户端连接与记账代币合约
type Manager struct {
	client *ethclient.Client
	token  *TokenContract
	config config.ChainConfig
}

// NewManager 创建链管理器
func NewManager(cfg config.ChainConfig) (*Manager, error) {
	if cfg.RpcUrl == "" {
		return nil, fmt.Errorf("no RPC URL configured")
	}

	logger.Info("Creating chain client connection (RPC: %s)", cfg.RpcUrl)
	client, err := ethclient.Dial(cfg.RpcUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to create chain client: %w", err)
	}

	// 测试连接
	if _, err := client.BlockNumber(context.TODO()); err != nil {
		client.Close()
		return nil, fmt.Errorf("client connection test failed: %w", err)
	}

	manager := &Manager{
		client: client,
		config: cfg,
	}

	// 初始化记账代币合约
	if cfg.Token.Enabled {
		token, err := NewTokenContract(cfg.Token)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to initialize token contract: %w", err)
		}
		manager.token = token
		logger.Info("Initialized token contract %s (deployed at block %d)",
			token.GetAddress().Hex(), token.GetBlockNum())
	}

	logger.Info("Successfully created chain client (chain id: %d)", cfg.ChainId)
	return manager, nil
}

// GetClient 获取客户端
func (m *Manager) GetClient() *ethclient.Client {
	return m.client
}

// GetToken 获取记账代币合约，未配置时为 nil
func (m *Manager) GetToken() *TokenContract {
	return m.token
}

// GetChainId 获取链ID
func (m *Manager) GetChainId() int64 {
	return m.config.ChainId
}

// GetCurrentBlockNumber 获取当前最新区块号
func (m *Manager) GetCurrentBlockNumber() (int64, error) {
	header, err := m.client.HeaderByNumber(context.Background(), nil)
	if err != nil {
		return 0, err
	}
	return header.Number.Int64(), nil
}

// GetTokenLogs 获取记账代币合约在指定区块范围内的日志
func (m *Manager) GetTokenLogs(fromBlock, toBlock int64) ([]types.Log, error) {
	if m.token == nil {
		return nil, fmt.Errorf("token contract not configured")
	}

	query := ethereum.FilterQuery{
		FromBlock: big.NewInt(fromBlock),
		ToBlock:   big.NewInt(toBlock),
		Addresses: []common.Address{m.token.GetAddress()},
	}

	return m.client.FilterLogs(context.Background(), query)
}

// Close 关闭管理器
func (m *Manager) Close() error {
	if m.client != nil {
		m.client.Close()
	}

	logger.Info("Chain manager closed")
	return nil
}
