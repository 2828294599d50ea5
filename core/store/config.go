package store

import (
	"fmt"
	"log"
	"math/big"
	"os"
	"path"
	"reflect"

	"github.com/caarlos0/env"
	homedir "github.com/mitchellh/go-homedir"
)

var bigIntType = reflect.TypeOf(&big.Int{})

func bigIntParser(str string) (interface{}, error) {
	i, ok := new(big.Int).SetString(str, 10)
	if !ok {
		return nil, fmt.Errorf("unable to parse %s as wei amount", str)
	}
	return i, nil
}

type Config struct {
	RootDir           string `env:"ROOT" envDefault:"~/.relay"`
	DevMode           bool   `env:"DEV_MODE" envDefault:"false"`
	BasicAuthUsername string `env:"USERNAME" envDefault:"relay"`
	BasicAuthPassword string `env:"PASSWORD" envDefault:"p@ssword"`
	Port              string `env:"PORT" envDefault:"8090"`
	EthereumURL       string `env:"ETHEREUM_URL" envDefault:"http://localhost:4444"`
	ChainID           int64  `env:"ETHEREUM_CHAIN_ID" envDefault:"33"`
	KeyStorePassword  string `env:"KEYSTORE_PASSWORD" envDefault:""`

	MinConfirmations       uint64   `env:"MIN_CONFIRMATIONS" envDefault:"12"`
	PendingTxTimeoutBlocks uint64   `env:"PENDING_TX_TIMEOUT_BLOCKS" envDefault:"30"`
	GasPriceRetryFactor    float64  `env:"GAS_PRICE_RETRY_FACTOR" envDefault:"1.25"`
	MaxGasPrice            *big.Int `env:"MAX_GAS_PRICE" envDefault:"100000000000"`
	EstimateGasFactor      float64  `env:"ESTIMATE_GAS_FACTOR" envDefault:"1.2"`
	DefaultGasLimit        uint64   `env:"DEFAULT_GAS_LIMIT" envDefault:"500000"`
	PollingSchedule        string   `env:"POLLING_SCHEDULE" envDefault:"*/15 * * * * *"`
}

func NewConfig() Config {
	config := Config{}
	env.ParseWithFuncs(&config, env.CustomParsers{
		bigIntType: bigIntParser,
	})
	dir, err := homedir.Expand(config.RootDir)
	if err != nil {
		log.Fatal(err)
	}
	if err = os.MkdirAll(dir, os.FileMode(0700)); err != nil {
		log.Fatal(err)
	}
	config.RootDir = dir
	return config
}

func (self Config) KeysDir() string {
	return path.Join(self.RootDir, "keys")
}

func (self Config) ManagerKeysDir() string {
	return path.Join(self.KeysDir(), "manager")
}

func (self Config) WorkerKeysDir() string {
	return path.Join(self.KeysDir(), "workers")
}
