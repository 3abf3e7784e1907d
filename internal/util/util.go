// Package util holds small formatting helpers shared by the usecases.
package util

import "strconv"

var byteUnits = [...]string{"KB", "MB", "GB", "TB", "PB", "EB"}

// FormatBytes renders a size for user-facing messages, e.g. "5.0 MB".
func FormatBytes(bytes int64) string {
	if bytes < 1024 {
		return strconv.FormatInt(bytes, 10) + " B"
	}

	value := float64(bytes) / 1024
	unit := 0
	for value >= 1024 && unit < len(byteUnits)-1 {
		value /= 1024
		unit++
	}

	return strconv.FormatFloat(value, 'f', 1, 64) + " " + byteUnits[unit]
}
