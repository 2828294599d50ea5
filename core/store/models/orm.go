package models

import (
	"os"
	"path"
	"sort"

	"github.com/asdine/storm"
	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// ErrDuplicateNonce is returned when a put without replacement collides
// with an existing (from, nonce) row. It indicates corrupted state or a
// caller outside the nonce critical section.
var ErrDuplicateNonce = errors.New("transaction with this nonce already stored")

// ORM wraps the storm database holding the relay's in-flight transactions.
// The bolt file lives under the configured workdir and is the only
// crash-recovery source for outstanding nonces.
type ORM struct {
	*storm.DB
}

const dbName = "relaytxs.bolt"

func NewORM(dir string) (*ORM, error) {
	db, err := storm.Open(DBPath(dir))
	if err != nil {
		return nil, errors.Wrap(err, "unable to open tx store")
	}
	return &ORM{db}, nil
}

func DBPath(dir string) string {
	return path.Join(dir, dbName)
}

// TruncateDB removes the store file entirely. Only dev mode does this.
func TruncateDB(dir string) error {
	err := os.Remove(DBPath(dir))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// PutTx persists a row keyed by (from, nonce). With replace false an
// existing row under the same key fails the call; with replace true the
// old row is atomically overwritten.
func (orm *ORM) PutTx(tx *Tx, replace bool) error {
	tx.ID = TxKey(tx.From, tx.Nonce)
	if !replace {
		var existing Tx
		err := orm.One("ID", tx.ID, &existing)
		if err == nil {
			return errors.Wrapf(ErrDuplicateNonce, "from %s nonce %v", tx.From.Hex(), tx.Nonce)
		}
		if err != storm.ErrNotFound {
			return errors.Wrap(err, "unable to check tx store for duplicates")
		}
	}
	return errors.Wrap(orm.Save(tx), "unable to persist tx")
}

// AllTxs returns every stored row ascending by (from, nonce).
func (orm *ORM) AllTxs() ([]Tx, error) {
	var txs []Tx
	if err := orm.All(&txs); err != nil {
		return nil, errors.Wrap(err, "unable to load txs")
	}
	sort.Slice(txs, func(i, j int) bool { return txs[i].ID < txs[j].ID })
	return txs, nil
}

// TxsBySigner returns the signer's rows ascending by nonce.
func (orm *ORM) TxsBySigner(from common.Address) ([]Tx, error) {
	var txs []Tx
	err := orm.Find("From", from, &txs)
	if err == storm.ErrNotFound {
		return []Tx{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "unable to load txs for %s", from.Hex())
	}
	sort.Slice(txs, func(i, j int) bool { return txs[i].Nonce < txs[j].Nonce })
	return txs, nil
}

// FindTx loads a single row by transaction hash.
func (orm *ORM) FindTx(hash common.Hash) (*Tx, error) {
	tx := &Tx{}
	if err := orm.One("Hash", hash, tx); err != nil {
		return nil, errors.Wrapf(err, "unable to find tx %s", hash.Hex())
	}
	return tx, nil
}

// RemoveTxsUntilNonce deletes every row for the signer with nonce less
// than or equal to the given one. Confirming nonce K implies every
// earlier nonce is confirmed too, so callers prune the whole prefix in
// one call.
func (orm *ORM) RemoveTxsUntilNonce(from common.Address, nonce uint64) error {
	txs, err := orm.TxsBySigner(from)
	if err != nil {
		return err
	}
	for i := range txs {
		if txs[i].Nonce > nonce {
			break
		}
		if err := orm.DeleteStruct(&txs[i]); err != nil {
			return errors.Wrapf(err, "unable to prune tx nonce %v for %s", txs[i].Nonce, from.Hex())
		}
	}
	return nil
}
