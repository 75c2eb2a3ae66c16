package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatAmount renders an integer amount with thousand separators, e.g. "USD 1,250".
func FormatAmount(amount int64, currency string) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	cur := strings.ToUpper(strings.TrimSpace(currency))
	if cur == "" {
		return sign + formatThousand(amount)
	}
	return fmt.Sprintf("%s %s%s", cur, sign, formatThousand(amount))
}

// NormalizeCurrency upper-cases an ISO 4217 code and reports whether it looks valid.
func NormalizeCurrency(s string) (string, bool) {
	c := strings.ToUpper(strings.TrimSpace(s))
	if len(c) != 3 {
		return c, false
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return c, false
		}
	}
	return c, true
}

// MulAmount multiplies a per-seat price by a seat count, refusing overflow.
func MulAmount(price int64, seats int) (int64, error) {
	if price < 0 || seats < 0 {
		return 0, fmt.Errorf("negative operand")
	}
	if seats == 0 || price == 0 {
		return 0, nil
	}
	total := price * int64(seats)
	if total/int64(seats) != price {
		return 0, fmt.Errorf("amount overflow")
	}
	return total, nil
}

func formatThousand(n int64) string {
	if n == 0 {
		return "0"
	}
	str := strconv.FormatInt(n, 10)
	var out strings.Builder
	for i, c := range str {
		if i != 0 && (len(str)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(c)
	}
	return out.String()
}
