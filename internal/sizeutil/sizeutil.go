// Package sizeutil converts between the size strings printed by the
// ScoutFS tooling and raw byte counts.
package sizeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var sizeRe = regexp.MustCompile(`^\s*([\d.]+)\s*([a-zA-Z]+)\s*$`)

var unitMultipliers = map[string]uint64{
	"B":  1,
	"K":  1 << 10,
	"KB": 1 << 10,
	"M":  1 << 20,
	"MB": 1 << 20,
	"G":  1 << 30,
	"GB": 1 << 30,
	"T":  1 << 40,
	"TB": 1 << 40,
	"P":  1 << 50,
	"PB": 1 << 50,
}

// ParseBytes converts a size string like "64K" or "1.5 GB" to bytes.
func ParseBytes(s string) (uint64, error) {
	m := sizeRe.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid size format: %q", s)
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid numeric value in %q", s)
	}
	mult, ok := unitMultipliers[strings.ToUpper(m[2])]
	if !ok {
		return 0, fmt.Errorf("unknown size unit in %q", s)
	}
	return uint64(value * float64(mult)), nil
}

// FormatBytes renders a byte count in binary units, two decimals.
func FormatBytes(b float64) string {
	units := []string{"B", "KiB", "MiB", "GiB", "TiB", "PiB"}
	i := 0
	for b >= 1024 && i < len(units)-1 {
		b /= 1024
		i++
	}
	return fmt.Sprintf("%.2f %s", b, units[i])
}
