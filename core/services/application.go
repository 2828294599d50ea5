package services

import (
	"github.com/franciscotobar/rif-relay-server/core/logger"
	"github.com/franciscotobar/rif-relay-server/core/store"
)

// Application owns the process-wide singletons: the store, the tx
// manager and the confirmation loop.
type Application struct {
	Store     *store.Store
	TxManager *TxManager
	Watcher   *ConfirmationWatcher
}

func NewApplication(config store.Config) *Application {
	logger.SetLoggerDir(config.RootDir)
	str := store.NewStore(config)
	txManager := NewTxManager(str)
	return &Application{
		Store:     str,
		TxManager: txManager,
		Watcher:   NewConfirmationWatcher(str, txManager),
	}
}

func (self *Application) Start() error {
	self.Store.Start()
	if err := self.Store.ManagerKeys.Unlock(self.Store.Config.KeyStorePassword); err != nil {
		return err
	}
	if err := self.Store.WorkerKeys.Unlock(self.Store.Config.KeyStorePassword); err != nil {
		return err
	}
	return self.Watcher.Start()
}

func (self *Application) Stop() error {
	self.Watcher.Stop()
	logger.Sync()
	return self.Store.Close()
}
