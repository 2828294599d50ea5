package store_test

import (
	"math/big"
	"testing"

	"github.com/franciscotobar/rif-relay-server/testutil"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyStoreSignTxRecoversSigner(t *testing.T) {
	t.Parallel()
	ks := testutil.LightKeyStore(t.TempDir())

	account, err := ks.NewAccount(testutil.KeyPassword)
	require.NoError(t, err)
	require.NoError(t, ks.Unlock(testutil.KeyPassword))
	assert.True(t, ks.IsSigner(account.Address))
	assert.False(t, ks.IsSigner(testutil.NewAddress()))

	chainID := big.NewInt(33)
	tx := types.NewTransaction(5, testutil.NewAddress(), big.NewInt(0), 21000, big.NewInt(1000000000), nil)
	signed, err := ks.SignTx(account.Address, tx, chainID)
	require.NoError(t, err)

	sender, err := types.Sender(types.NewEIP155Signer(chainID), signed)
	require.NoError(t, err)
	assert.Equal(t, account.Address, sender)
}

func TestKeyStoreRejectsForeignSigner(t *testing.T) {
	t.Parallel()
	ks := testutil.LightKeyStore(t.TempDir())
	_, err := ks.NewAccount(testutil.KeyPassword)
	require.NoError(t, err)
	require.NoError(t, ks.Unlock(testutil.KeyPassword))

	tx := types.NewTransaction(0, testutil.NewAddress(), big.NewInt(0), 21000, big.NewInt(1), nil)
	_, err = ks.SignTx(testutil.NewAddress(), tx, big.NewInt(33))
	assert.Error(t, err)
}
