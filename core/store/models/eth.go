package models

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	null "gopkg.in/guregu/null.v3"
)

// ServerAction tags why the relay broadcast a transaction.
type ServerAction string

const (
	RelayCall       = ServerAction("RelayCall")
	SetHashApproval = ServerAction("SetHashApproval")
	DepositWithdraw = ServerAction("DepositWithdraw")
	ValueTransfer   = ServerAction("ValueTransfer")
)

// Tx is one in-flight chain transaction owned by the relay. A row exists
// from the moment the signed payload is persisted until its nonce is
// confirmed deeply enough to be pruned.
type Tx struct {
	ID                  string         `json:"id" storm:"id"`
	Hash                common.Hash    `json:"hash" storm:"unique"`
	From                common.Address `json:"from" storm:"index"`
	To                  common.Address `json:"to"`
	Nonce               uint64         `json:"nonce"`
	GasLimit            uint64         `json:"gasLimit"`
	GasPrice            *big.Int       `json:"gasPrice"`
	Value               *big.Int       `json:"value"`
	Data                []byte         `json:"data"`
	Hex                 string         `json:"rawTx"`
	ServerAction        ServerAction   `json:"serverAction"`
	CreationBlockNumber uint64         `json:"creationBlockNumber"`
	BoostBlockNumber    null.Int       `json:"boostBlockNumber"`
	MinedBlockNumber    null.Int       `json:"minedBlockNumber"`
	Attempts            uint32         `json:"attempts"`
}

// TxKey is the row id for a (signer, nonce) pair. Lowercase hex plus a
// zero padded nonce make lexical order of ids equal (from, nonce) order.
func TxKey(from common.Address, nonce uint64) string {
	return fmt.Sprintf("%s-%020d", strings.ToLower(from.Hex()), nonce)
}

// EthTx rebuilds the canonical unsigned transaction for this row at the
// given gas price.
func (self *Tx) EthTx(gasPrice *big.Int) *types.Transaction {
	return types.NewTransaction(
		self.Nonce,
		self.To,
		self.Value,
		self.GasLimit,
		gasPrice,
		self.Data,
	)
}

// ReferenceBlockNumber is the block the pending-timeout clock runs from:
// the last boost if there was one, the first broadcast otherwise.
func (self *Tx) ReferenceBlockNumber() uint64 {
	if self.BoostBlockNumber.Valid {
		return uint64(self.BoostBlockNumber.Int64)
	}
	return self.CreationBlockNumber
}

func (self *Tx) ForLogger(kvs ...interface{}) []interface{} {
	output := []interface{}{
		"txID", self.Hash.Hex(),
		"from", self.From.Hex(),
		"to", self.To.Hex(),
		"value", self.Value,
		"nonce", self.Nonce,
		"gasPrice", self.GasPrice,
		"gasLimit", self.GasLimit,
		"dataLen", len(self.Data),
	}
	return append(output, kvs...)
}
