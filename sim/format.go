package sim

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// sprintf formats with English digit grouping.
func sprintf(format string, args ...any) string {
	return message.NewPrinter(language.English).Sprintf(format, args...)
}

// FormatMarketCap renders a market cap as whole dollars with thousands
// separators, e.g. "$200,000".
func FormatMarketCap(v float64) string {
	if !finite(v) {
		v = 0
	}
	return sprintf("$%d", int64(math.Round(v)))
}
