package store

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/franciscotobar/rif-relay-server/core/logger"
	"github.com/franciscotobar/rif-relay-server/core/store/models"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
)

// Store ties together the durable tx collection, the signing identities
// and the node client. Everything above it holds a shared handle.
type Store struct {
	*models.ORM
	Config      Config
	ManagerKeys *KeyStore
	WorkerKeys  *KeyStore
	Eth         *EthClient
	sigs        chan os.Signal
	Exiter      func(int)
}

func NewStore(config Config) *Store {
	if err := os.MkdirAll(config.RootDir, os.FileMode(0700)); err != nil {
		logger.Fatal(err)
	}
	if config.DevMode {
		if err := models.TruncateDB(config.RootDir); err != nil {
			logger.Fatal(err)
		}
	}
	orm, err := models.NewORM(config.RootDir)
	if err != nil {
		logger.Fatal(err)
	}
	ethrpc, err := rpc.Dial(config.EthereumURL)
	if err != nil {
		logger.Fatal(err)
	}
	return &Store{
		ORM:         orm,
		Config:      config,
		ManagerKeys: NewKeyStore(config.ManagerKeysDir()),
		WorkerKeys:  NewKeyStore(config.WorkerKeysDir()),
		Eth:         &EthClient{ethrpc},
		Exiter:      os.Exit,
	}
}

func (self *Store) Start() {
	self.sigs = make(chan os.Signal, 1)
	signal.Notify(self.sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-self.sigs
		self.Close()
		self.Exiter(1)
	}()
}

// Signers returns every address the relay can sign for, manager first.
func (self *Store) Signers() []common.Address {
	var addresses []common.Address
	for _, account := range self.ManagerKeys.Accounts() {
		addresses = append(addresses, account.Address)
	}
	for _, account := range self.WorkerKeys.Accounts() {
		addresses = append(addresses, account.Address)
	}
	return addresses
}
