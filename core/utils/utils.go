package utils

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"golang.org/x/crypto/sha3"
)

func Uint64ToHex(i uint64) string {
	return fmt.Sprintf("0x%x", i)
}

func HexToUint64(s string) (uint64, error) {
	return strconv.ParseUint(RemoveHexPrefix(s), 16, 64)
}

func HasHexPrefix(str string) bool {
	return len(str) >= 2 && str[0] == '0' && (str[1] == 'x' || str[1] == 'X')
}

func RemoveHexPrefix(str string) string {
	if HasHexPrefix(str) {
		return str[2:]
	}
	return str
}

// EncodeTxToHex returns the raw wire form of a signed transaction,
// 0x-prefixed, ready for eth_sendRawTransaction.
func EncodeTxToHex(tx *types.Transaction) (string, error) {
	rlp, err := EncodeTxToRLP(tx)
	if err != nil {
		return "", err
	}
	return "0x" + common.Bytes2Hex(rlp), nil
}

func EncodeTxToRLP(tx *types.Transaction) ([]byte, error) {
	return rlp.EncodeToBytes(tx)
}

// Keccak256Hash hashes the signed wire bytes; the result is the
// transaction id the node will report back from a broadcast.
func Keccak256Hash(data []byte) common.Hash {
	d := sha3.NewLegacyKeccak256()
	d.Write(data)
	return common.BytesToHash(d.Sum(nil))
}

func StringToHash(s string) (common.Hash, error) {
	if !HasHexPrefix(s) || len(s) != 66 {
		return common.Hash{}, fmt.Errorf("invalid hash: %s", s)
	}
	return common.HexToHash(s), nil
}

// HashesEqual compares two 0x-hex hashes ignoring case.
func HashesEqual(a, b string) bool {
	return strings.EqualFold(a, b)
}
