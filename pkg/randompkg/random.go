// Package randompkg provides functionality for generating random application items.
package randompkg

import (
	"crypto/rand"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	alphabet = "abcdefghijklmnopqrstuvwxyz"
	digits   = "0123456789"
)

// Intn is a shortcut for generating a random integer between 0 and max using crypto/rand.
func Intn(max int) int64 {
	nBig, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		panic(err)
	}

	return nBig.Int64()
}

// Float64 is a shortcut for generating a random float between 0 and 1 using crypto/rand.
func Float64() float64 {
	return float64(Intn(1<<32)) / (1 << 32)
}

// IntBetween generates a random integer in [min, max].
func IntBetween(min, max int) int32 {
	return int32(Intn(max-min+1)) + int32(min)
}

// FloatBetween generates a random decimal number between min and max rounded to 3 decimals.
func FloatBetween(min, max float64) float64 {
	numInRange := min + Float64()*(max-min)
	return math.Floor(numInRange*1_000) / 1_000
}

func fromSet(set string, n int) string {
	var sb strings.Builder

	k := len(set)

	for i := 0; i < n; i++ {
		_ = sb.WriteByte(set[Intn(k)]) // The returned err is always nil.
	}

	return sb.String()
}

// String generates a random string of length n.
func String(n int) string {
	return fromSet(alphabet, n)
}

// ClientID generates a random positive client id.
func ClientID() int32 {
	return IntBetween(1, math.MaxInt32-1)
}

// Account generates a random IBAN-like account identifier.
func Account() string {
	return strings.ToUpper(String(2)) + fromSet(digits, 20)
}

// MoneyAmountBetween generates a random amount of money between min and max rounded to 3 decimals.
func MoneyAmountBetween(min, max float64) string {
	return decimal.NewFromFloat(FloatBetween(min, max)).String()
}

// Currency generates a random currency code.
func Currency() string {
	currencies := []string{"USD", "EUR", "GBP", "CHF", "JPY"}
	return currencies[Intn(len(currencies))]
}
