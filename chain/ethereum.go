package chain

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum"
	gethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ziflex/lecho/v3"
)

// ETHClientWrapper is the go-ethereum backed Chain Reader. It only ever reads
// chain state, it never signs or submits transactions.
type ETHClientWrapper struct {
	client *ethclient.Client
	signer types.Signer
	logger *lecho.Logger

	receiptWaitTimeout  time.Duration
	receiptPollInterval time.Duration
}

func InitETHClient(ctx context.Context, cfg *Config, logger *lecho.Logger) (*ETHClientWrapper, error) {
	client, err := ethclient.DialContext(ctx, cfg.RPCUrl)
	if err != nil {
		return nil, err
	}
	chainId, err := client.ChainID(ctx)
	if err != nil {
		return nil, err
	}
	logger.Infof("Connected to chain rpc (chain id %s)", chainId.String())
	return &ETHClientWrapper{
		client:              client,
		signer:              types.LatestSignerForChainID(chainId),
		logger:              logger,
		receiptWaitTimeout:  time.Duration(cfg.ReceiptWaitTimeout) * time.Second,
		receiptPollInterval: time.Duration(cfg.ReceiptPollInterval) * time.Second,
	}, nil
}

func (wrapper *ETHClientWrapper) GetTransaction(ctx context.Context, txHash string) (*Transaction, error) {
	tx, pending, err := wrapper.client.TransactionByHash(ctx, gethcommon.HexToHash(txHash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	from, err := types.Sender(wrapper.signer, tx)
	if err != nil {
		return nil, err
	}
	result := &Transaction{
		Hash:    tx.Hash().Hex(),
		From:    from.Hex(),
		Pending: pending,
	}
	// contract creations have no recipient
	if tx.To() != nil {
		result.To = tx.To().Hex()
	}
	return result, nil
}

// GetTransactionReceipt polls the node until the receipt is available or the
// wait budget is exhausted. A transaction still in the mempool has no receipt
// yet, so a bounded wait covers the claim-right-after-send flow without
// holding the caller forever.
func (wrapper *ETHClientWrapper) GetTransactionReceipt(ctx context.Context, txHash string) (*types.Receipt, error) {
	hash := gethcommon.HexToHash(txHash)

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = wrapper.receiptPollInterval
	policy.MaxElapsedTime = wrapper.receiptWaitTimeout

	var receipt *types.Receipt
	err := backoff.Retry(func() error {
		result, err := wrapper.client.TransactionReceipt(ctx, hash)
		if err != nil {
			if errors.Is(err, ethereum.NotFound) {
				wrapper.logger.Debugf("Receipt not available yet for tx %s, retrying", txHash)
				return err
			}
			return backoff.Permanent(err)
		}
		receipt = result
		return nil
	}, backoff.WithContext(policy, ctx))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return receipt, nil
}
