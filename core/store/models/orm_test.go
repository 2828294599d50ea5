package models_test

import (
	"testing"

	"github.com/franciscotobar/rif-relay-server/core/store/models"
	"github.com/franciscotobar/rif-relay-server/testutil"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newORM(t *testing.T) *models.ORM {
	orm, err := models.NewORM(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { orm.Close() })
	return orm
}

func TestPutTxRejectsDuplicateNonce(t *testing.T) {
	t.Parallel()
	orm := newORM(t)

	from := testutil.NewAddress()
	first := testutil.NewTx(from, 5, 10, 100)
	require.NoError(t, orm.PutTx(first, false))

	second := testutil.NewTx(from, 5, 20, 101)
	err := orm.PutTx(second, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrDuplicateNonce))

	stored, err := orm.TxsBySigner(from)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, first.Hash, stored[0].Hash)
}

func TestPutTxReplacesExistingRow(t *testing.T) {
	t.Parallel()
	orm := newORM(t)

	from := testutil.NewAddress()
	first := testutil.NewTx(from, 5, 10, 100)
	require.NoError(t, orm.PutTx(first, false))

	replacement := testutil.NewTx(from, 5, 12, 100)
	replacement.Attempts = 2
	require.NoError(t, orm.PutTx(replacement, true))

	stored, err := orm.TxsBySigner(from)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, replacement.Hash, stored[0].Hash)
	assert.Equal(t, uint32(2), stored[0].Attempts)

	// the replaced hash is gone
	_, err = orm.FindTx(first.Hash)
	assert.Error(t, err)
}

func TestAllTxsOrdersBySignerThenNonce(t *testing.T) {
	t.Parallel()
	orm := newORM(t)

	a := testutil.NewAddress()
	b := testutil.NewAddress()
	require.NoError(t, orm.PutTx(testutil.NewTx(b, 2, 10, 100), false))
	require.NoError(t, orm.PutTx(testutil.NewTx(a, 7, 10, 100), false))
	require.NoError(t, orm.PutTx(testutil.NewTx(a, 5, 10, 100), false))
	require.NoError(t, orm.PutTx(testutil.NewTx(b, 1, 10, 100), false))

	txs, err := orm.AllTxs()
	require.NoError(t, err)
	require.Len(t, txs, 4)
	for i := 1; i < len(txs); i++ {
		assert.True(t, txs[i-1].ID < txs[i].ID)
	}

	bySigner, err := orm.TxsBySigner(a)
	require.NoError(t, err)
	require.Len(t, bySigner, 2)
	assert.Equal(t, uint64(5), bySigner[0].Nonce)
	assert.Equal(t, uint64(7), bySigner[1].Nonce)
}

func TestRemoveTxsUntilNonce(t *testing.T) {
	t.Parallel()
	orm := newORM(t)

	from := testutil.NewAddress()
	other := testutil.NewAddress()
	for _, nonce := range []uint64{5, 6, 7} {
		require.NoError(t, orm.PutTx(testutil.NewTx(from, nonce, 10, 100), false))
	}
	require.NoError(t, orm.PutTx(testutil.NewTx(other, 5, 10, 100), false))

	require.NoError(t, orm.RemoveTxsUntilNonce(from, 6))

	remaining, err := orm.TxsBySigner(from)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, uint64(7), remaining[0].Nonce)

	untouched, err := orm.TxsBySigner(other)
	require.NoError(t, err)
	assert.Len(t, untouched, 1)
}

func TestTxsSurviveReopen(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	orm, err := models.NewORM(dir)
	require.NoError(t, err)
	from := testutil.NewAddress()
	tx := testutil.NewTx(from, 5, 1000000000, 100)
	require.NoError(t, orm.PutTx(tx, false))
	require.NoError(t, orm.Close())

	reopened, err := models.NewORM(dir)
	require.NoError(t, err)
	defer reopened.Close()

	stored, err := reopened.TxsBySigner(from)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, tx.ID, stored[0].ID)
	assert.Equal(t, tx.Hash, stored[0].Hash)
	assert.Equal(t, tx.From, stored[0].From)
	assert.Equal(t, tx.To, stored[0].To)
	assert.Equal(t, tx.Nonce, stored[0].Nonce)
	assert.Equal(t, tx.GasLimit, stored[0].GasLimit)
	assert.Equal(t, 0, tx.GasPrice.Cmp(stored[0].GasPrice))
	assert.Equal(t, 0, tx.Value.Cmp(stored[0].Value))
	assert.Equal(t, tx.Hex, stored[0].Hex)
	assert.Equal(t, tx.ServerAction, stored[0].ServerAction)
	assert.Equal(t, tx.CreationBlockNumber, stored[0].CreationBlockNumber)
	assert.False(t, stored[0].BoostBlockNumber.Valid)
	assert.False(t, stored[0].MinedBlockNumber.Valid)
	assert.Equal(t, tx.Attempts, stored[0].Attempts)
}

func TestTruncateDB(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	orm, err := models.NewORM(dir)
	require.NoError(t, err)
	require.NoError(t, orm.PutTx(testutil.NewTx(testutil.NewAddress(), 1, 10, 100), false))
	require.NoError(t, orm.Close())

	require.NoError(t, models.TruncateDB(dir))

	reopened, err := models.NewORM(dir)
	require.NoError(t, err)
	defer reopened.Close()
	txs, err := reopened.AllTxs()
	require.NoError(t, err)
	assert.Empty(t, txs)

	// removing an absent store file is not an error
	require.NoError(t, models.TruncateDB(t.TempDir()))
}
