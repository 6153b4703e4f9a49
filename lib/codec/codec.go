// Package codec canonicalizes token amounts and account addresses so that
// values observed on-chain can be compared against invoice terms exactly.
package codec

import (
	"fmt"
	"math/big"
	"strings"
)

// NormalizeAddress lower-cases a hex account address. Two addresses are equal
// iff their normalized forms are byte-equal. No checksum validation happens
// here: malformed input is passed through and fails later equality checks.
func NormalizeAddress(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func SameAddress(a, b string) bool {
	return NormalizeAddress(a) == NormalizeAddress(b)
}

// ParseAmount parses a base-unit token amount from its decimal string form.
// Amounts are unsigned arbitrary-precision integers; base units of a 6-decimal
// token exceed safe float precision for large invoices, so floats never enter
// the comparison path.
func ParseAmount(raw string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(raw), 10)
	if !ok {
		return nil, fmt.Errorf("invalid base-unit amount %q", raw)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("negative base-unit amount %q", raw)
	}
	return amount, nil
}

// IsSufficient reports whether an observed transfer covers the required
// amount. Overpayment counts as sufficient.
func IsSufficient(observed, required *big.Int) bool {
	return observed.Cmp(required) >= 0
}
