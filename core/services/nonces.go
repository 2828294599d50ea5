package services

import (
	"sync"

	"github.com/franciscotobar/rif-relay-server/core/logger"
	"github.com/franciscotobar/rif-relay-server/core/store"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// NonceTracker hands out strictly increasing per-signer nonces. Counters
// live in memory only; the durable record of outstanding nonces is the tx
// store, so a restart begins at zero and the first Poll fast-forwards
// from the chain's pending count.
//
// Callers must wrap Poll→sign→persist→Commit for one signer inside
// Lock/Unlock of that signer.
type NonceTracker struct {
	eth      *store.EthClient
	counters map[common.Address]uint64
	locks    map[common.Address]*sync.Mutex
	mu       sync.Mutex
}

func NewNonceTracker(eth *store.EthClient, signers []common.Address) *NonceTracker {
	counters := make(map[common.Address]uint64, len(signers))
	locks := make(map[common.Address]*sync.Mutex, len(signers))
	for _, signer := range signers {
		counters[signer] = 0
		locks[signer] = &sync.Mutex{}
	}
	return &NonceTracker{
		eth:      eth,
		counters: counters,
		locks:    locks,
	}
}

func (self *NonceTracker) signerLock(signer common.Address) *sync.Mutex {
	self.mu.Lock()
	defer self.mu.Unlock()
	lock, ok := self.locks[signer]
	if !ok {
		lock = &sync.Mutex{}
		self.locks[signer] = lock
	}
	return lock
}

func (self *NonceTracker) Lock(signer common.Address) {
	self.signerLock(signer).Lock()
}

func (self *NonceTracker) Unlock(signer common.Address) {
	self.signerLock(signer).Unlock()
}

// Poll returns the next nonce for the signer, fast-forwarding the local
// counter when the chain knows of transactions the relay does not.
func (self *NonceTracker) Poll(signer common.Address) (uint64, error) {
	chainNonce, err := self.eth.GetNonce(signer, store.TagPending)
	if err != nil {
		return 0, errors.Wrap(err, "unable to poll pending nonce")
	}
	self.mu.Lock()
	defer self.mu.Unlock()
	if chainNonce > self.counters[signer] {
		logger.Warnw("Nonce fix: chain pending count is ahead of the local counter. "+
			"The account was used outside this relay or the process restarted with transactions in flight.",
			"signer", signer.Hex(),
			"localNonce", self.counters[signer],
			"chainNonce", chainNonce,
		)
		self.counters[signer] = chainNonce
	}
	return self.counters[signer], nil
}

// Commit consumes the nonce most recently returned by Poll. Call it only
// after the transaction using that nonce is durably persisted.
func (self *NonceTracker) Commit(signer common.Address) {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.counters[signer]++
}
