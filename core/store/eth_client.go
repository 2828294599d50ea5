package store

import (
	"encoding/json"
	"math/big"

	"github.com/franciscotobar/rif-relay-server/core/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	null "gopkg.in/guregu/null.v3"
)

// Caller is the JSON-RPC surface the relay needs from a node. rpc.Client
// satisfies it in production; tests register canned responses.
type Caller interface {
	Call(result interface{}, method string, args ...interface{}) error
}

// EthClient talks to the RSK node. It is the only component that crosses
// the process boundary; everything it returns is plain data.
type EthClient struct {
	Caller
}

// Tag selects which transaction count the node reports.
const (
	TagLatest  = "latest"
	TagPending = "pending"
)

func (self *EthClient) GetNonce(address common.Address, tag string) (uint64, error) {
	var result string
	err := self.Call(&result, "eth_getTransactionCount", address.Hex(), tag)
	if err != nil {
		return 0, errors.Wrap(err, "eth_getTransactionCount failed")
	}
	return utils.HexToUint64(result)
}

func (self *EthClient) GetGasPrice() (*big.Int, error) {
	var result hexutil.Big
	if err := self.Call(&result, "eth_gasPrice"); err != nil {
		return nil, errors.Wrap(err, "eth_gasPrice failed")
	}
	return result.ToInt(), nil
}

func (self *EthClient) SendRawTx(hex string) (common.Hash, error) {
	result := common.Hash{}
	err := self.Call(&result, "eth_sendRawTransaction", hex)
	return result, err
}

func (self *EthClient) GetTransaction(hash common.Hash) (*TxInfo, error) {
	info := TxInfo{}
	if err := self.Call(&info, "eth_getTransactionByHash", hash); err != nil {
		return nil, err
	}
	if (info.Hash == common.Hash{}) {
		return nil, nil
	}
	return &info, nil
}

func (self *EthClient) BlockNumber() (uint64, error) {
	result := ""
	if err := self.Call(&result, "eth_blockNumber"); err != nil {
		return 0, errors.Wrap(err, "eth_blockNumber failed")
	}
	return utils.HexToUint64(result)
}

// CallArgs is the request payload for eth_estimateGas.
type CallArgs struct {
	From  common.Address `json:"from"`
	To    common.Address `json:"to"`
	Value *hexutil.Big   `json:"value,omitempty"`
	Data  hexutil.Bytes  `json:"data,omitempty"`
}

func (self *EthClient) EstimateGas(call CallArgs) (uint64, error) {
	var result string
	if err := self.Call(&result, "eth_estimateGas", call); err != nil {
		return 0, err
	}
	return utils.HexToUint64(result)
}

// TxInfo is the slice of eth_getTransactionByHash the relay cares about.
// BlockNumber is null while the transaction sits in the mempool.
type TxInfo struct {
	Hash        common.Hash
	From        common.Address
	Nonce       uint64
	BlockNumber null.Int
}

func (self *TxInfo) Mined() bool {
	return self.BlockNumber.Valid
}

func (self TxInfo) MarshalJSON() ([]byte, error) {
	var blockNumber interface{}
	if self.BlockNumber.Valid {
		blockNumber = utils.Uint64ToHex(uint64(self.BlockNumber.Int64))
	}
	return json.Marshal(struct {
		Hash        string      `json:"hash"`
		From        string      `json:"from"`
		Nonce       string      `json:"nonce"`
		BlockNumber interface{} `json:"blockNumber"`
	}{self.Hash.Hex(), self.From.Hex(), utils.Uint64ToHex(self.Nonce), blockNumber})
}

func (self *TxInfo) UnmarshalJSON(b []byte) error {
	var fields struct {
		Hash        string  `json:"hash"`
		From        string  `json:"from"`
		Nonce       string  `json:"nonce"`
		BlockNumber *string `json:"blockNumber"`
	}
	if string(b) == "null" {
		return nil
	}
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	if fields.Hash == "" {
		return nil
	}
	hash, err := utils.StringToHash(fields.Hash)
	if err != nil {
		return err
	}
	self.Hash = hash
	self.From = common.HexToAddress(fields.From)
	if self.Nonce, err = utils.HexToUint64(fields.Nonce); err != nil {
		return err
	}
	if fields.BlockNumber == nil {
		self.BlockNumber = null.Int{}
		return nil
	}
	blockNumber, err := utils.HexToUint64(*fields.BlockNumber)
	if err != nil {
		return err
	}
	self.BlockNumber = null.IntFrom(int64(blockNumber))
	return nil
}
