package integration_tests

import (
	"context"
	"math/big"
	"strings"
	"sync"

	"github.com/chainvoice/chainvoice/chain"
	gethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	mockPayerAddress  = "0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"
	mockVendorAddress = "0x70997970c51812dc3a010c7d01b50e0d17dc79c8"
)

var mockTransferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// MockChainClient serves canned transactions and receipts the way a node
// would, including not-found responses for hashes it never saw.
type MockChainClient struct {
	mu       sync.Mutex
	txs      map[string]*chain.Transaction
	receipts map[string]*types.Receipt
}

func NewMockChainClient() *MockChainClient {
	return &MockChainClient{
		txs:      make(map[string]*chain.Transaction),
		receipts: make(map[string]*types.Receipt),
	}
}

func (m *MockChainClient) GetTransaction(ctx context.Context, txHash string) (*chain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, found := m.txs[strings.ToLower(txHash)]
	if !found {
		return nil, chain.ErrNotFound
	}
	return tx, nil
}

func (m *MockChainClient) GetTransactionReceipt(ctx context.Context, txHash string) (*types.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	receipt, found := m.receipts[strings.ToLower(txHash)]
	if !found {
		return nil, chain.ErrNotFound
	}
	return receipt, nil
}

// AddTokenTransfer registers a mined transaction whose receipt carries a
// single Transfer log emitted by the given token contract.
func (m *MockChainClient) AddTokenTransfer(txHash, token, from, to string, amount *big.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	txHash = strings.ToLower(txHash)
	m.txs[txHash] = &chain.Transaction{
		Hash: txHash,
		From: from,
		To:   token,
	}
	m.receipts[txHash] = &types.Receipt{
		Status: types.ReceiptStatusSuccessful,
		TxHash: gethcommon.HexToHash(txHash),
		Logs: []*types.Log{
			{
				Address: gethcommon.HexToAddress(token),
				Topics: []gethcommon.Hash{
					mockTransferTopic,
					gethcommon.BytesToHash(gethcommon.HexToAddress(from).Bytes()),
					gethcommon.BytesToHash(gethcommon.HexToAddress(to).Bytes()),
				},
				Data: gethcommon.LeftPadBytes(amount.Bytes(), 32),
			},
		},
	}
}

// AddTransfer registers a mined transfer of the settlement token.
func (m *MockChainClient) AddTransfer(txHash, from, to string, amount *big.Int) {
	m.AddTokenTransfer(txHash, testTokenAddress, from, to, amount)
}

// AddReverted registers a transaction whose receipt reports failure.
func (m *MockChainClient) AddReverted(txHash, from, to string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	txHash = strings.ToLower(txHash)
	m.txs[txHash] = &chain.Transaction{
		Hash: txHash,
		From: from,
		To:   to,
	}
	m.receipts[txHash] = &types.Receipt{
		Status: types.ReceiptStatusFailed,
		TxHash: gethcommon.HexToHash(txHash),
		Logs:   []*types.Log{},
	}
}

// AddPending registers a transaction the node knows about but has not mined,
// so receipt lookups keep failing.
func (m *MockChainClient) AddPending(txHash, from, to string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	txHash = strings.ToLower(txHash)
	m.txs[txHash] = &chain.Transaction{
		Hash:    txHash,
		From:    from,
		To:      to,
		Pending: true,
	}
}

// AddPlainCall registers a mined transaction that emitted no logs at all.
func (m *MockChainClient) AddPlainCall(txHash, from, to string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	txHash = strings.ToLower(txHash)
	m.txs[txHash] = &chain.Transaction{
		Hash: txHash,
		From: from,
		To:   to,
	}
	m.receipts[txHash] = &types.Receipt{
		Status: types.ReceiptStatusSuccessful,
		TxHash: gethcommon.HexToHash(txHash),
		Logs:   []*types.Log{},
	}
}

// Forget drops all node state for a hash, as if the transaction never existed.
func (m *MockChainClient) Forget(txHash string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	txHash = strings.ToLower(txHash)
	delete(m.txs, txHash)
	delete(m.receipts, txHash)
}
