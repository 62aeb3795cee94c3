package chain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/jun-ii/fundraiser/internal/config"
)

// 记账代币合约ABI定义（仅余额变更事件）
const tokenABI = `[
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "holder", "type": "address"},
			{"indexed": false, "name": "newBalance", "type": "uint256"}
		],
		"name": "BalanceChanged",
		"type": "event"
	}
]`

// TokenContract 外部记账代币合约包装
type TokenContract struct {
	address  common.Address
	abi      abi.ABI
	blockNum int64 // 合约部署的区块号
}

// BalanceChange 一次余额变更事件
type BalanceChange struct {
	Holder     common.Address
	NewBalance *big.Int
	BlockNum   int64
	TxHash     string
	LogIndex   int64
}

// NewTokenContract 创建记账代币合约包装
func NewTokenContract(cfg config.TokenConfig) (*TokenContract, error) {
	parsedABI, err := abi.JSON(strings.NewReader(tokenABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token ABI: %w", err)
	}

	if !common.IsHexAddress(cfg.Address) {
		return nil, fmt.Errorf("invalid token contract address: %s", cfg.Address)
	}

	return &TokenContract{
		address:  common.HexToAddress(cfg.Address),
		abi:      parsedABI,
		blockNum: cfg.BlockNum,
	}, nil
}

// GetAddress 获取合约地址
func (t *TokenContract) GetAddress() common.Address {
	return t.address
}

// GetBlockNum 获取合约部署区块号
func (t *TokenContract) GetBlockNum() int64 {
	return t.blockNum
}

// ParseBalanceChanged 解析余额变更事件日志
func (t *TokenContract) ParseBalanceChanged(log types.Log) (*BalanceChange, error) {
	if len(log.Topics) == 0 {
		return nil, fmt.Errorf("log without topics")
	}

	event := t.abi.Events["BalanceChanged"]
	if log.Topics[0] != event.ID {
		return nil, fmt.Errorf("unknown event signature: %s", log.Topics[0].Hex())
	}
	if len(log.Topics) < 2 {
		return nil, fmt.Errorf("invalid BalanceChanged event: insufficient topics")
	}

	holder := common.BytesToAddress(log.Topics[1].Bytes())

	values, err := event.Inputs.NonIndexed().Unpack(log.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack BalanceChanged data: %w", err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("unexpected BalanceChanged data layout")
	}
	newBalance, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected BalanceChanged amount type %T", values[0])
	}

	return &BalanceChange{
		Holder:     holder,
		NewBalance: newBalance,
		BlockNum:   int64(log.BlockNumber),
		TxHash:     log.TxHash.Hex(),
		LogIndex:   int64(log.Index),
	}, nil
}
