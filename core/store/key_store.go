package store

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
)

// KeyStore holds one signing identity group (the relay manager, or the
// workers) over encrypted key files rooted at a directory. Private keys
// never leave the underlying geth keystore.
type KeyStore struct {
	*keystore.KeyStore
}

func NewKeyStore(keyDir string) *KeyStore {
	ks := keystore.NewKeyStore(keyDir, keystore.StandardScryptN, keystore.StandardScryptP)
	return &KeyStore{ks}
}

func (self *KeyStore) HasAccounts() bool {
	return len(self.Accounts()) > 0
}

// IsSigner reports whether this store holds the key for the address.
func (self *KeyStore) IsSigner(address common.Address) bool {
	return self.HasAddress(address)
}

func (self *KeyStore) Unlock(phrase string) error {
	for _, account := range self.Accounts() {
		if err := self.KeyStore.Unlock(account, phrase); err != nil {
			return errors.Wrapf(err, "unable to unlock account %s", account.Address.Hex())
		}
	}
	return nil
}

func (self *KeyStore) NewAccount(passphrase string) (accounts.Account, error) {
	return self.KeyStore.NewAccount(passphrase)
}

func (self *KeyStore) GetAccount() accounts.Account {
	return self.Accounts()[0]
}

// SignTx signs with the key owning from, applying EIP-155 replay
// protection for the given chain.
func (self *KeyStore) SignTx(from common.Address, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return self.KeyStore.SignTx(accounts.Account{Address: from}, tx, chainID)
}
