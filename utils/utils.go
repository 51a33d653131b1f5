package utils

import (
	"fmt"
)

var sizeUnits = []string{"B", "KB", "MB", "GB", "TB", "PB"}

// Return a substring of limited lenth.
func StrLim(s string, lim int) string {
	if lim < len(s) {
		return s[:lim]
	} else {
		return s
	}
}

// Return s1 if it is not empty, or else s2.
func StringElse(s1 string, s2 string) string {
	if s1 != "" {
		return s1
	} else {
		return s2
	}
}

// SizePretty formats a byte count with a 1024 based unit, e.g. "1.50KB".
func SizePretty(n uint64) string {
	value := float64(n)
	for i, unit := range sizeUnits {
		if value < 1024 || i == len(sizeUnits)-1 {
			return fmt.Sprintf("%.2f%s", value, unit)
		}
		value /= 1024
	}
	return ""
}
