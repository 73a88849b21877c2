package utils

import (
	"fmt"
	"math"
	"strings"
)

// ToMinorUnits converts a major-unit amount from the source ledger (a
// float, e.g. 45.005) into integer minor units. Values with more than two
// decimals are rounded half away from zero, never truncated, so repeated
// conversions cannot systematically undercount the pool.
func ToMinorUnits(major float64) int64 {
	return int64(math.Round(major * 100))
}

// FormatMinor renders minor units for display: "4500" -> "45",
// "4550" -> "45.5", "4555" -> "45.55", "-50" -> "-0.5".
func FormatMinor(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	s := fmt.Sprintf("%d.%02d", amount/100, amount%100)

	euros, cents, _ := strings.Cut(s, ".")
	switch {
	case cents == "00":
		s = euros
	case cents[1] == '0':
		s = euros + "." + cents[:1]
	}
	if neg {
		return "-" + s
	}
	return s
}
