package treasury

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/jun-ii/fundraiser/internal/logger"
)

const transferGasLimit = 21000 // 原生转账固定 gas 上限

// EthPayer 基于以太坊客户端的出账实现
type EthPayer struct {
	client     *ethclient.Client
	privateKey *ecdsa.PrivateKey
	from       common.Address
	chainId    *big.Int
}

// NewEthPayer 创建以太坊出账器
func NewEthPayer(client *ethclient.Client, privateKeyHex string, chainId int64) (*EthPayer, error) {
	// 解析私钥
	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return &EthPayer{
		client:     client,
		privateKey: privateKey,
		from:       crypto.PubkeyToAddress(privateKey.PublicKey),
		chainId:    big.NewInt(chainId),
	}, nil
}

// From 获取出账地址
func (p *EthPayer) From() common.Address {
	return p.from
}

// Payout 发送原生转账并等待上链。任何一步失败均返回错误，
// 调用方（状态机）负责回滚自身状态。
func (p *EthPayer) Payout(ctx context.Context, to common.Address, amount *big.Int) error {
	nonce, err := p.client.PendingNonceAt(ctx, p.from)
	if err != nil {
		return fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := p.client.SuggestGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("failed to get gas price: %w", err)
	}

	tx := types.NewTransaction(nonce, to, amount, transferGasLimit, gasPrice, nil)

	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(p.chainId), p.privateKey)
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := p.client.SendTransaction(ctx, signedTx); err != nil {
		return fmt.Errorf("failed to send transaction: %w", err)
	}

	logger.Info("Sent payout transaction %s: %s wei to %s",
		signedTx.Hash().Hex(), amount.String(), to.Hex())

	// 等待回执，确认交易生效
	receipt, err := p.waitReceipt(ctx, signedTx.Hash())
	if err != nil {
		return fmt.Errorf("failed to confirm transaction %s: %w", signedTx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("transaction %s reverted", signedTx.Hash().Hex())
	}

	return nil
}

// waitReceipt 轮询等待交易回执
func (p *EthPayer) waitReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	for {
		receipt, err := p.client.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
		}
	}
}
