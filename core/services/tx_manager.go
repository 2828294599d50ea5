package services

import (
	"math"
	"math/big"

	"github.com/franciscotobar/rif-relay-server/core/logger"
	"github.com/franciscotobar/rif-relay-server/core/store"
	"github.com/franciscotobar/rif-relay-server/core/store/models"
	"github.com/franciscotobar/rif-relay-server/core/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	null "gopkg.in/guregu/null.v3"
)

// SendRequest describes one relay transaction to put on chain. Data is
// opaque here; callers encode contract calls before handing it over.
type SendRequest struct {
	From                common.Address
	To                  common.Address
	Value               *big.Int
	GasLimit            uint64
	GasPrice            *big.Int
	Data                []byte
	ServerAction        models.ServerAction
	CreationBlockNumber uint64
}

// TxManager turns send requests into signed, persisted and broadcast
// chain transactions, and keeps them alive until confirmed: stale ones
// are repriced, mined ones reconciled and pruned.
type TxManager struct {
	store  *store.Store
	nonces *NonceTracker
}

func NewTxManager(str *store.Store) *TxManager {
	return &TxManager{
		store:  str,
		nonces: NewNonceTracker(str.Eth, str.Signers()),
	}
}

// keysFor selects the keystore owning the signer.
func (self *TxManager) keysFor(signer common.Address) (*store.KeyStore, error) {
	if self.store.ManagerKeys.IsSigner(signer) {
		return self.store.ManagerKeys, nil
	}
	if self.store.WorkerKeys.IsSigner(signer) {
		return self.store.WorkerKeys, nil
	}
	return nil, errors.Wrapf(ErrUnknownSigner, "signer %s", signer.Hex())
}

// SendTransaction assigns the next nonce for the signer, signs, persists
// and broadcasts the transaction. The nonce critical section covers
// poll, build, sign, persist and commit; broadcasting happens outside it
// so network latency never serializes senders.
func (self *TxManager) SendTransaction(request SendRequest) (*models.Tx, error) {
	gasPrice := request.GasPrice
	if gasPrice == nil {
		var err error
		gasPrice, err = self.store.Eth.GetGasPrice()
		if err != nil {
			return nil, errors.Wrap(err, "unable to resolve gas price")
		}
	}
	value := request.Value
	if value == nil {
		value = big.NewInt(0)
	}
	keys, err := self.keysFor(request.From)
	if err != nil {
		return nil, err
	}

	tx, err := self.signAndStore(keys, request, gasPrice, value)
	if err != nil {
		return nil, err
	}

	return tx, self.broadcast(tx)
}

func (self *TxManager) signAndStore(
	keys *store.KeyStore,
	request SendRequest,
	gasPrice *big.Int,
	value *big.Int,
) (*models.Tx, error) {
	self.nonces.Lock(request.From)
	defer self.nonces.Unlock(request.From)

	nonce, err := self.nonces.Poll(request.From)
	if err != nil {
		return nil, err
	}
	ethTx := types.NewTransaction(nonce, request.To, value, request.GasLimit, gasPrice, request.Data)
	signed, raw, hash, err := self.sign(keys, request.From, ethTx)
	if err != nil {
		return nil, err
	}
	tx := &models.Tx{
		Hash:                hash,
		From:                request.From,
		To:                  request.To,
		Nonce:               signed.Nonce(),
		GasLimit:            signed.Gas(),
		GasPrice:            signed.GasPrice(),
		Value:               signed.Value(),
		Data:                request.Data,
		Hex:                 raw,
		ServerAction:        request.ServerAction,
		CreationBlockNumber: request.CreationBlockNumber,
		Attempts:            1,
	}
	if err := self.store.PutTx(tx, false); err != nil {
		return nil, err
	}
	self.nonces.Commit(request.From)
	return tx, nil
}

// Resend replaces a stored transaction with a repriced copy under the
// same nonce. No nonce lock is taken: the nonce is already owned by the
// row being replaced. Value is not carried over; boosted transactions go
// out with value 0.
func (self *TxManager) Resend(tx models.Tx, currentBlock uint64, gasPrice *big.Int, capped bool) (*models.Tx, error) {
	keys, err := self.keysFor(tx.From)
	if err != nil {
		return nil, err
	}
	ethTx := types.NewTransaction(tx.Nonce, tx.To, big.NewInt(0), tx.GasLimit, gasPrice, tx.Data)
	signed, raw, hash, err := self.sign(keys, tx.From, ethTx)
	if err != nil {
		return nil, err
	}
	boosted := &models.Tx{
		Hash:                hash,
		From:                tx.From,
		To:                  tx.To,
		Nonce:               tx.Nonce,
		GasLimit:            tx.GasLimit,
		GasPrice:            signed.GasPrice(),
		Value:               signed.Value(),
		Data:                tx.Data,
		Hex:                 raw,
		ServerAction:        tx.ServerAction,
		CreationBlockNumber: tx.CreationBlockNumber,
		BoostBlockNumber:    null.IntFrom(int64(currentBlock)),
		MinedBlockNumber:    tx.MinedBlockNumber,
		Attempts:            tx.Attempts + 1,
	}
	if err := self.store.PutTx(boosted, true); err != nil {
		return nil, err
	}
	logger.Infow("Boosting stuck transaction", boosted.ForLogger(
		"oldTxID", tx.Hash.Hex(),
		"oldGasPrice", tx.GasPrice,
		"gasPriceCapped", capped,
	)...)
	return boosted, self.broadcast(boosted)
}

func (self *TxManager) sign(
	keys *store.KeyStore,
	from common.Address,
	ethTx *types.Transaction,
) (*types.Transaction, string, common.Hash, error) {
	signed, err := keys.SignTx(from, ethTx, big.NewInt(self.store.Config.ChainID))
	if err != nil {
		return nil, "", common.Hash{}, errors.Wrap(err, "unable to sign tx")
	}
	raw, err := utils.EncodeTxToHex(signed)
	if err != nil {
		return nil, "", common.Hash{}, errors.Wrap(err, "unable to encode tx")
	}
	rlp, err := utils.EncodeTxToRLP(signed)
	if err != nil {
		return nil, "", common.Hash{}, errors.Wrap(err, "unable to encode tx")
	}
	return signed, raw, utils.Keccak256Hash(rlp), nil
}

func (self *TxManager) broadcast(tx *models.Tx) error {
	logger.Infow("Broadcasting transaction", tx.ForLogger("attempt", tx.Attempts)...)
	returned, err := self.store.Eth.SendRawTx(tx.Hex)
	if err != nil {
		return errors.Wrap(err, "broadcast failed")
	}
	if !utils.HashesEqual(returned.Hex(), tx.Hash.Hex()) {
		return errors.Wrapf(ErrHashMismatch, "expected %s got %s", tx.Hash.Hex(), returned.Hex())
	}
	return nil
}

// ReapConfirmed walks the store in (from, nonce) order and reconciles
// each row against the chain. Rows mined at least MinConfirmations
// blocks ago are pruned together with every earlier nonce of the same
// signer. Observation failures skip the row and keep sweeping.
func (self *TxManager) ReapConfirmed(blockNumber uint64) error {
	txs, err := self.store.AllTxs()
	if err != nil {
		return err
	}
	minConfirmations := self.store.Config.MinConfirmations
	for i := range txs {
		tx := txs[i]
		if tx.MinedBlockNumber.Valid && blockNumber < uint64(tx.MinedBlockNumber.Int64)+minConfirmations {
			continue
		}
		info, err := self.store.Eth.GetTransaction(tx.Hash)
		if err != nil {
			logger.Warnw("Unable to look up transaction, skipping", "txID", tx.Hash.Hex(), "error", err)
			continue
		}
		if info == nil || !info.Mined() {
			logger.Infow("Transaction not mined yet", "txID", tx.Hash.Hex(), "nonce", tx.Nonce)
			continue
		}
		minedBlock := uint64(info.BlockNumber.Int64)
		if !tx.MinedBlockNumber.Valid || uint64(tx.MinedBlockNumber.Int64) != minedBlock {
			if tx.MinedBlockNumber.Valid {
				logger.Warnw("Transaction moved to a different block, possible reorg",
					"txID", tx.Hash.Hex(),
					"previousBlock", tx.MinedBlockNumber.Int64,
					"block", minedBlock,
				)
			}
			if blockNumber < minedBlock+minConfirmations {
				tx.MinedBlockNumber = null.IntFrom(int64(minedBlock))
				if err := self.store.PutTx(&tx, true); err != nil {
					return err
				}
				continue
			}
		}
		logger.Infow("Transaction confirmed, pruning up to nonce",
			"txID", tx.Hash.Hex(),
			"from", info.From.Hex(),
			"nonce", info.Nonce,
			"confirmations", blockNumber-minedBlock,
		)
		if err := self.store.RemoveTxsUntilNonce(info.From, info.Nonce); err != nil {
			return err
		}
	}
	return nil
}

// BoostPending reprices the signer's stuck transactions. The oldest
// pending row drives the decision: once it has waited past the timeout,
// every row priced below the bumped price is resent at it. Returns the
// replacements keyed by the hash they replaced.
func (self *TxManager) BoostPending(signer common.Address, currentBlock uint64) (map[common.Hash]*models.Tx, error) {
	boosted := map[common.Hash]*models.Tx{}
	txs, err := self.store.TxsBySigner(signer)
	if err != nil {
		return boosted, err
	}
	if len(txs) == 0 {
		return boosted, nil
	}
	chainNonce, err := self.store.Eth.GetNonce(signer, store.TagLatest)
	if err != nil {
		return boosted, errors.Wrap(err, "unable to fetch latest nonce")
	}
	oldest := txs[0]
	if oldest.Nonce < chainNonce {
		// Already mined, just not reaped yet.
		return boosted, nil
	}
	config := self.store.Config
	if currentBlock < oldest.ReferenceBlockNumber()+config.PendingTxTimeoutBlocks {
		return boosted, nil
	}
	gasPrice, capped := bumpGasPrice(oldest.GasPrice, config.GasPriceRetryFactor, config.MaxGasPrice)
	if capped {
		logger.Warnw("Gas price boost hit the configured maximum",
			"signer", signer.Hex(),
			"nonce", oldest.Nonce,
			"maxGasPrice", config.MaxGasPrice,
		)
	}
	for _, tx := range txs {
		if tx.GasPrice.Cmp(gasPrice) >= 0 {
			continue
		}
		replacement, err := self.Resend(tx, currentBlock, gasPrice, capped)
		if err != nil {
			return boosted, err
		}
		boosted[tx.Hash] = replacement
	}
	return boosted, nil
}

// EstimateGas asks the node for a gas estimate and pads it with the
// configured safety factor. Estimation failures never propagate; the
// default limit is used instead.
func (self *TxManager) EstimateGas(method string, call store.CallArgs) uint64 {
	config := self.store.Config
	estimate, err := self.store.Eth.EstimateGas(call)
	if err != nil {
		logger.Warnw("Gas estimation failed, falling back to default limit",
			"method", method,
			"defaultGasLimit", config.DefaultGasLimit,
			"error", err,
		)
		return config.DefaultGasLimit
	}
	return uint64(math.Round(float64(estimate) * config.EstimateGasFactor))
}
