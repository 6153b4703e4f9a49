package chain

import (
	"math/big"

	gethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// topic0 of the canonical Transfer(address indexed,address indexed,uint256) event
var transferEventTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// DecodeTransferEvent scans receipt logs for the first Transfer event emitted
// by the given token contract. A nil result means the transaction moved no
// units of this token, which is not an error: logs from other contracts are
// simply ignored.
func DecodeTransferEvent(logs []*types.Log, tokenAddress string) *TransferEvent {
	token := gethcommon.HexToAddress(tokenAddress)
	for _, entry := range logs {
		if entry.Address != token {
			continue
		}
		if len(entry.Topics) != 3 || entry.Topics[0] != transferEventTopic {
			continue
		}
		return &TransferEvent{
			From:  gethcommon.BytesToAddress(entry.Topics[1].Bytes()).Hex(),
			To:    gethcommon.BytesToAddress(entry.Topics[2].Bytes()).Hex(),
			Value: new(big.Int).SetBytes(entry.Data),
		}
	}
	return nil
}
