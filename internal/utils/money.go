package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatSEK renders whole kronor with a space thousands separator: "12 345 kr".
func FormatSEK(amount decimal.Decimal) string {
	n := amount.Round(0).IntPart()
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	return sign + formatThousand(n) + " kr"
}

// ParseSEK accepts "12 345 kr", "12345,50" or "12345.50".
func ParseSEK(s string) (decimal.Decimal, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, "kr")
	s = strings.NewReplacer(" ", "", "\u00a0", "", ",", ".").Replace(s)
	return decimal.NewFromString(s)
}

func formatThousand(n int64) string {
	str := decimal.NewFromInt(n).String()
	var out strings.Builder
	for i, c := range str {
		if i != 0 && (len(str)-i)%3 == 0 {
			out.WriteByte(' ')
		}
		out.WriteRune(c)
	}
	return out.String()
}
