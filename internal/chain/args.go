package chain

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Decoded event arguments keyed by name. Getters return zero values for
// missing or mistyped args; handlers validate presence where it matters.
type Args map[string]any

func (a Args) BigInt(name string) *big.Int {
	if v, ok := a[name].(*big.Int); ok && v != nil {
		return v
	}
	return new(big.Int)
}

// Address returns the lowercased 0x-hex form; all addresses are stored lowercased
func (a Args) Address(name string) string {
	if v, ok := a[name].(common.Address); ok {
		return strings.ToLower(v.Hex())
	}
	return ""
}

func (a Args) String(name string) string {
	if v, ok := a[name].(string); ok {
		return v
	}
	return ""
}

func (a Args) Has(name string) bool {
	_, ok := a[name]
	return ok
}
