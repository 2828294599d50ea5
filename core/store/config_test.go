package store_test

import (
	"path"
	"testing"

	"github.com/franciscotobar/rif-relay-server/core/store"

	"github.com/stretchr/testify/assert"
)

func TestNewConfigDefaults(t *testing.T) {
	t.Setenv("ROOT", t.TempDir())

	config := store.NewConfig()
	assert.Equal(t, int64(33), config.ChainID)
	assert.Equal(t, uint64(12), config.MinConfirmations)
	assert.Equal(t, uint64(30), config.PendingTxTimeoutBlocks)
	assert.Equal(t, 1.25, config.GasPriceRetryFactor)
	assert.Equal(t, "100000000000", config.MaxGasPrice.String())
	assert.Equal(t, uint64(500000), config.DefaultGasLimit)
	assert.False(t, config.DevMode)
}

func TestNewConfigFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ROOT", dir)
	t.Setenv("ETHEREUM_CHAIN_ID", "30")
	t.Setenv("MAX_GAS_PRICE", "250000000000")
	t.Setenv("GAS_PRICE_RETRY_FACTOR", "1.5")
	t.Setenv("PENDING_TX_TIMEOUT_BLOCKS", "40")
	t.Setenv("DEV_MODE", "true")

	config := store.NewConfig()
	assert.Equal(t, dir, config.RootDir)
	assert.Equal(t, int64(30), config.ChainID)
	assert.Equal(t, "250000000000", config.MaxGasPrice.String())
	assert.Equal(t, 1.5, config.GasPriceRetryFactor)
	assert.Equal(t, uint64(40), config.PendingTxTimeoutBlocks)
	assert.True(t, config.DevMode)
	assert.Equal(t, path.Join(dir, "keys", "manager"), config.ManagerKeysDir())
	assert.Equal(t, path.Join(dir, "keys", "workers"), config.WorkerKeysDir())
}
