package common

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	SOLDecimals  = 9 // lamports
	USDCDecimals = 6 // micro units
)

// LamportsToSOL converts lamports to a SOL decimal string without float precision loss
func LamportsToSOL(lamports uint64) string {
	return formatUnits(lamports, SOLDecimals)
}

// SOLToLamports converts a SOL decimal string to lamports.
// Extra fractional digits are truncated (floor), so no fractional
// sub-unit value ever reaches an instruction.
func SOLToLamports(sol string) (uint64, error) {
	return parseUnits(sol, SOLDecimals)
}

// MicroToUSDC converts micro units to a USDC decimal string without float precision loss
func MicroToUSDC(micro uint64) string {
	return formatUnits(micro, USDCDecimals)
}

// USDCToMicro converts a USDC decimal string to micro units, truncating
// extra fractional digits.
func USDCToMicro(usdc string) (uint64, error) {
	return parseUnits(usdc, USDCDecimals)
}

// formatUnits inserts a decimal point: formatUnits(24981836, 9) = "0.024981836"
func formatUnits(value uint64, decimals int) string {
	s := strconv.FormatUint(value, 10)
	for len(s) <= decimals {
		s = "0" + s
	}
	pos := len(s) - decimals
	return s[:pos] + "." + s[pos:]
}

// parseUnits removes the decimal point: parseUnits("0.024981836", 9) = 24981836
func parseUnits(s string, decimals int) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("negative amount")
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if strings.Contains(frac, ".") {
		return 0, fmt.Errorf("invalid decimal format")
	}
	if whole == "" {
		whole = "0"
	}
	if !hasFrac {
		frac = ""
	}

	// Pad or truncate the fractional part to exactly `decimals` digits
	if len(frac) < decimals {
		frac += strings.Repeat("0", decimals-len(frac))
	} else if len(frac) > decimals {
		frac = frac[:decimals]
	}

	return strconv.ParseUint(whole+frac, 10, 64)
}

// IsPositiveAmount reports whether s parses as a valid decimal amount
// strictly greater than zero at the given token's precision.
func IsPositiveAmount(s string, decimals int) bool {
	n, err := parseUnits(s, decimals)
	return err == nil && n > 0
}
