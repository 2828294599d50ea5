// Package testutil carries the helpers shared by package tests: mock
// node client, throwaway stores under a tmp dir, fixture builders.
package testutil

import (
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"os"
	"path"
	"time"

	"github.com/franciscotobar/rif-relay-server/core/services"
	"github.com/franciscotobar/rif-relay-server/core/store"
	"github.com/franciscotobar/rif-relay-server/core/store/models"

	"github.com/araddon/dateparse"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/onsi/gomega"
)

const RootDir = "./tmp/test"
const Username = "testusername"
const Password = "testpassword"
const KeyPassword = "password"

func init() {
	if err := os.RemoveAll(RootDir); err != nil {
		log.Println(err)
	}
	gomega.SetDefaultEventuallyTimeout(3 * time.Second)
}

func NewConfig() store.Config {
	config := store.Config{
		RootDir:                path.Join(RootDir, fmt.Sprintf("%d", time.Now().UnixNano())),
		BasicAuthUsername:      Username,
		BasicAuthPassword:      Password,
		Port:                   "8090",
		EthereumURL:            "https://example.com/api",
		ChainID:                33,
		KeyStorePassword:       KeyPassword,
		MinConfirmations:       12,
		PendingTxTimeoutBlocks: 10,
		GasPriceRetryFactor:    1.2,
		MaxGasPrice:            big.NewInt(100000000000),
		EstimateGasFactor:      1.2,
		DefaultGasLimit:        500000,
		PollingSchedule:        "* * * * * *",
	}
	if err := os.MkdirAll(config.RootDir, os.FileMode(0700)); err != nil {
		log.Fatal(err)
	}
	return config
}

type TestApplication struct {
	*services.Application
}

func NewApplication() *TestApplication {
	return NewApplicationWithConfig(NewConfig())
}

func NewApplicationWithConfig(config store.Config) *TestApplication {
	return &TestApplication{Application: services.NewApplication(config)}
}

// NewApplicationWithKeyStore adds one manager and one worker key, both
// unlocked. Light scrypt params keep the tests fast.
func NewApplicationWithKeyStore() *TestApplication {
	app := NewApplication()
	str := app.Store
	str.ManagerKeys = LightKeyStore(str.Config.ManagerKeysDir())
	str.WorkerKeys = LightKeyStore(str.Config.WorkerKeysDir())
	for _, ks := range []*store.KeyStore{str.ManagerKeys, str.WorkerKeys} {
		if _, err := ks.NewAccount(KeyPassword); err != nil {
			log.Fatal(err)
		}
		if err := ks.Unlock(KeyPassword); err != nil {
			log.Fatal(err)
		}
	}
	return app
}

func LightKeyStore(dir string) *store.KeyStore {
	return &store.KeyStore{KeyStore: keystore.NewKeyStore(dir, keystore.LightScryptN, keystore.LightScryptP)}
}

// MockEthClient swaps the node client for a canned-response mock and
// returns it.
func (self *TestApplication) MockEthClient() *MockEthClient {
	mock := &MockEthClient{}
	self.Store.Eth.Caller = mock
	return mock
}

func (self *TestApplication) Stop() {
	self.Application.Stop()
	if err := os.RemoveAll(self.Store.Config.RootDir); err != nil {
		log.Println(err)
	}
}

func NewStore() *store.Store {
	return store.NewStore(NewConfig())
}

func CleanUpStore(str *store.Store) {
	str.Close()
	if err := os.RemoveAll(str.Config.RootDir); err != nil {
		log.Println(err)
	}
}

func NewTxHash() common.Hash {
	b := make([]byte, 32)
	rand.Read(b)
	return common.BytesToHash(b)
}

func NewAddress() common.Address {
	b := make([]byte, 20)
	rand.Read(b)
	return common.BytesToAddress(b)
}

// NewTx builds a stored row the way send would, without touching the
// chain.
func NewTx(from common.Address, nonce uint64, gasPrice int64, creationBlock uint64) *models.Tx {
	return &models.Tx{
		Hash:                NewTxHash(),
		From:                from,
		To:                  NewAddress(),
		Nonce:               nonce,
		GasLimit:            21000,
		GasPrice:            big.NewInt(gasPrice),
		Value:               big.NewInt(0),
		Data:                []byte{},
		Hex:                 "0xdeadbeef",
		ServerAction:        models.ValueTransfer,
		CreationBlockNumber: creationBlock,
		Attempts:            1,
	}
}

func TimeParse(s string) time.Time {
	t, err := dateparse.ParseAny(s)
	if err != nil {
		log.Fatal(err)
	}
	return t
}
