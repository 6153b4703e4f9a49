package chain

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/core/types"
)

// ErrNotFound is returned when the node has no record of the requested hash.
// Distinct from transient RPC failures, which come back as-is and are safe to
// retry.
var ErrNotFound = errors.New("not found on-chain")

// Transaction is the subset of transaction metadata verification needs.
type Transaction struct {
	Hash    string
	From    string
	To      string
	Pending bool
}

// TransferEvent is a decoded ERC-20 Transfer log.
type TransferEvent struct {
	From  string
	To    string
	Value *big.Int
}

type ChainClientWrapper interface {
	GetTransaction(ctx context.Context, txHash string) (*Transaction, error)
	GetTransactionReceipt(ctx context.Context, txHash string) (*types.Receipt, error)
}
