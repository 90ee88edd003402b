// Package format turns raw values into the strings shown in view slots.
// Numbers follow the es-CO convention the bot operators read: "." groups
// thousands and "," separates decimals.
package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Placeholder is shown for any value that is absent or not displayable
const Placeholder = "--"

const currencyPrefix = "US$ "

// Currency renders a USD amount with two decimals
func Currency(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return money(*v)
}

// SignedCurrency renders a delta with an explicit "+" for positive values
func SignedCurrency(v float64) string {
	if v > 0 {
		return "+" + money(v)
	}
	return money(v)
}

// Decimal2 renders a number with exactly two decimals
func Decimal2(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return fixed(decimal.NewFromFloat(*v), 2)
}

// Integer renders a whole number with thousands grouping
func Integer(v *float64) string {
	if v == nil {
		return Placeholder
	}
	return fixed(decimal.NewFromFloat(*v), 0)
}

// Duration renders seconds as "{h}h {m}m {s}s"; nil or negative is a placeholder
func Duration(seconds *int64) string {
	if seconds == nil || *seconds < 0 {
		return Placeholder
	}
	s := *seconds
	return fmt.Sprintf("%dh %dm %ds", s/3600, (s%3600)/60, s%60)
}

// Clock renders the time of day
func Clock(t time.Time) string {
	return t.Format("15:04:05")
}

// ShortDate renders a compact date and time for footers
func ShortDate(t time.Time) string {
	return fmt.Sprintf("%02d %s %d, %s", t.Day(), shortMonths[t.Month()-1], t.Year(), t.Format("15:04"))
}

// Instant renders a full local date and time
func Instant(t time.Time) string {
	return t.Local().Format("02/01/2006, 15:04:05")
}

var shortMonths = [12]string{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sept", "oct", "nov", "dic"}

func money(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	if d.IsNegative() {
		return "-" + currencyPrefix + fixed(d.Abs(), 2)
	}
	return currencyPrefix + fixed(d, 2)
}

func fixed(d decimal.Decimal, places int32) string {
	neg := d.IsNegative()
	raw := d.Abs().StringFixed(places)

	intPart, fracPart := raw, ""
	if i := strings.IndexByte(raw, '.'); i >= 0 {
		intPart, fracPart = raw[:i], raw[i+1:]
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if fracPart != "" {
		b.WriteByte(',')
		b.WriteString(fracPart)
	}
	return b.String()
}
