package services

import (
	"github.com/franciscotobar/rif-relay-server/core/logger"
	"github.com/franciscotobar/rif-relay-server/core/store"

	"github.com/mrwonko/cron"
)

// ConfirmationWatcher drives the periodic sweep: reap confirmed rows,
// then boost whatever is still stuck, one signer at a time. Reaping and
// boosting both mutate the store, so a single loop runs them
// sequentially per tick and ticks never overlap.
type ConfirmationWatcher struct {
	store     *store.Store
	txManager *TxManager
	cron      *cron.Cron
	running   chan struct{}
}

func NewConfirmationWatcher(str *store.Store, txManager *TxManager) *ConfirmationWatcher {
	return &ConfirmationWatcher{
		store:     str,
		txManager: txManager,
	}
}

func (self *ConfirmationWatcher) Start() error {
	self.cron = cron.New()
	self.running = make(chan struct{}, 1)
	err := self.cron.AddFunc(self.store.Config.PollingSchedule, self.tick)
	if err != nil {
		return err
	}
	self.cron.Start()
	return nil
}

func (self *ConfirmationWatcher) Stop() {
	if self.cron != nil {
		self.cron.Stop()
	}
}

func (self *ConfirmationWatcher) tick() {
	select {
	case self.running <- struct{}{}:
		defer func() { <-self.running }()
	default:
		// previous sweep still going
		return
	}
	self.Sweep()
}

// Sweep runs one full reap+boost pass at the current chain head.
func (self *ConfirmationWatcher) Sweep() {
	blockNumber, err := self.store.Eth.BlockNumber()
	if err != nil {
		logger.Errorw("Unable to fetch block number, skipping sweep", "error", err)
		return
	}
	if err := self.txManager.ReapConfirmed(blockNumber); err != nil {
		logger.Errorw("Confirmation reap failed", "block", blockNumber, "error", err)
	}
	for _, signer := range self.store.Signers() {
		boosted, err := self.txManager.BoostPending(signer, blockNumber)
		if err != nil {
			logger.Errorw("Boost sweep failed", "signer", signer.Hex(), "error", err)
			continue
		}
		if len(boosted) > 0 {
			logger.Infow("Boosted stuck transactions", "signer", signer.Hex(), "count", len(boosted))
		}
	}
}
