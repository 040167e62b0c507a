// Package formatting renders and parses human-readable byte sizes, as used
// by upload limits in configuration and dataset sizes in logs.
package formatting

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

const base = 1024

var units = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}

// FormatBytes renders n with the largest base-1024 unit that keeps the value
// at or above 1, e.g. FormatBytes(1536, 1) == "1.5 KB".
func FormatBytes(n int64, precision int) string {
	precision = max(precision, 0)

	neg := n < 0
	v := float64(n)
	if neg {
		v = -v
	}

	i := 0
	for v >= base && i < len(units)-1 {
		v /= base
		i++
	}
	if i == 0 {
		precision = 0
	}

	s := strconv.FormatFloat(v, 'f', precision, 64) + " " + units[i]
	if neg {
		return "-" + s
	}
	return s
}

// ParseBytes reads sizes such as "25MB", "1.5 GiB" or "512". Units are
// case-insensitive and base-1024; "KiB" and "K" are accepted for "KB".
// A bare number is bytes.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size string")
	}

	split := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.'
	})
	num, unit := s, ""
	if split >= 0 {
		num, unit = s[:split], strings.TrimSpace(s[split:])
	}

	value, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size %q: %w", s, err)
	}

	exp, err := unitExponent(unit)
	if err != nil {
		return 0, err
	}

	for range exp {
		value *= base
	}
	return int64(value), nil
}

func unitExponent(unit string) (int, error) {
	u := strings.ToUpper(unit)
	u = strings.Replace(u, "IB", "B", 1)
	if u == "" {
		return 0, nil
	}
	if !strings.HasSuffix(u, "B") {
		u += "B"
	}

	for i, name := range units {
		if name == u {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown byte size unit: %q", unit)
}
