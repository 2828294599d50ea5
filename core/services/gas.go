package services

import (
	"math/big"
)

// bumpGasPrice reprices a stuck transaction: floor(old × factor), clamped
// to the configured maximum. The returned flag reports whether the clamp
// was hit, in which case no further boost can help. The factor is taken at
// its shortest decimal form and multiplied exactly, so 10 × 1.2 gives 12.
func bumpGasPrice(old *big.Int, factor float64, max *big.Int) (*big.Int, bool) {
	ratio, _ := new(big.Rat).SetString(big.NewFloat(factor).Text('g', -1))
	product := new(big.Rat).Mul(new(big.Rat).SetInt(old), ratio)
	bumped := new(big.Int).Quo(product.Num(), product.Denom())
	if bumped.Cmp(max) > 0 {
		return new(big.Int).Set(max), true
	}
	return bumped, false
}
