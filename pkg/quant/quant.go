// Package quant defines the fixed-point numeric types used across the
// client. Monetary values never travel as float64 internally; floats are
// converted at the API boundary only.
package quant

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// PriceMicros represents a price multiplied by 1,000,000 (10^6).
// E.g., 71,500 KRW = 71,500,000,000 PriceMicros.
type PriceMicros int64

// QtyShares represents a quantity of whole shares.
type QtyShares int64

// TimeStamp represents Unix milliseconds, matching the feed's tick
// timestamps.
type TimeStamp int64

const (
	PriceScale = 1_000_000
)

// ToPriceMicros converts a float64 (from an external API) to PriceMicros.
// Only used at the boundary; internal logic stays on PriceMicros.
func ToPriceMicros(f float64) PriceMicros {
	return PriceMicros(math.Round(f * PriceScale))
}

// ToPriceMicrosStr converts a numeric string to PriceMicros without going
// through float64, so long decimal strings keep their precision.
func ToPriceMicrosStr(s string) PriceMicros {
	return PriceMicros(parseFixedPoint(s, 6))
}

func (p PriceMicros) String() string {
	return fmt.Sprintf("%.6f", float64(p)/PriceScale)
}

// Won returns the price rounded to whole KRW, the unit quoted on the
// domestic exchange.
func (p PriceMicros) Won() int64 {
	return int64(math.Round(float64(p) / PriceScale))
}

// Now returns the current time as a feed TimeStamp.
func Now() TimeStamp {
	return TimeStamp(time.Now().UnixMilli())
}

// Time converts the TimeStamp back into a time.Time.
func (t TimeStamp) Time() time.Time {
	return time.UnixMilli(int64(t))
}

// ParseTimeStamp converts a millisecond string to a TimeStamp.
func ParseTimeStamp(s string) (TimeStamp, error) {
	ms, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return TimeStamp(ms), nil
}

// parseFixedPoint parses a numeric string into an int64 with the given
// precision. E.g., parseFixedPoint("1.23", 6) -> 1,230,000.
func parseFixedPoint(s string, precision int) int64 {
	if s == "" || s == "null" {
		return 0
	}

	intStr, fracStr := s, ""
	if dot := strings.IndexByte(s, '.'); dot != -1 {
		intStr, fracStr = s[:dot], s[dot+1:]
	}

	intPart, _ := strconv.ParseInt(intStr, 10, 64)
	for i := 0; i < precision; i++ {
		intPart *= 10
	}

	if fracStr == "" {
		return intPart
	}

	if len(fracStr) > precision {
		fracStr = fracStr[:precision]
	}
	fracPart, _ := strconv.ParseInt(fracStr, 10, 64)
	for i := len(fracStr); i < precision; i++ {
		fracPart *= 10
	}

	if strings.HasPrefix(intStr, "-") {
		return intPart - fracPart
	}
	return intPart + fracPart
}
