// Package format renders money, durations and clock times for display.
package format

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// CurrencySymbol prefixes every rendered amount.
const CurrencySymbol = "₹"

// Currency renders an amount with the rupee prefix and two decimals.
func Currency(amount decimal.Decimal) string {
	if amount.IsNegative() {
		return "-" + CurrencySymbol + amount.Neg().StringFixed(2)
	}
	return CurrencySymbol + amount.StringFixed(2)
}

// HMS renders seconds as zero-padded HH:MM:SS.
func HMS(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// Readable renders seconds as "1h 5m", "3m 2s" or "9s".
func Readable(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// Clock renders t as 12-hour "hh:mm a" with lowercase am/pm.
func Clock(t time.Time) string {
	return t.Format("03:04 pm")
}

// ClockSeconds renders t as "hh:mm:ss a".
func ClockSeconds(t time.Time) string {
	return t.Format("03:04:05 pm")
}

// Date renders t as yyyy-MM-dd.
func Date(t time.Time) string {
	return t.Format(time.DateOnly)
}

// LongDate renders t as "dd MMM yyyy".
func LongDate(t time.Time) string {
	return t.Format("02 Jan 2006")
}
