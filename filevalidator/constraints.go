package filevalidator

import (
	"fmt"
	"math"
)

// Size constants for easier file size configuration
const (
	KB = int64(1024)
	MB = KB * 1024
	GB = MB * 1024
)

// FormatSizeReadable converts a size in bytes to a human-readable string
func FormatSizeReadable(size int64) string {
	switch {
	case size < KB:
		return fmt.Sprintf("%d B", size)
	case size < MB:
		return formatUnit(float64(size)/float64(KB), "KB")
	case size < GB:
		return formatUnit(float64(size)/float64(MB), "MB")
	default:
		return formatUnit(float64(size)/float64(GB), "GB")
	}
}

// formatUnit rounds to one decimal place and drops a trailing ".0".
func formatUnit(value float64, unit string) string {
	rounded := math.Round(value*10) / 10
	if rounded == math.Trunc(rounded) {
		return fmt.Sprintf("%.0f %s", rounded, unit)
	}
	return fmt.Sprintf("%.1f %s", rounded, unit)
}
