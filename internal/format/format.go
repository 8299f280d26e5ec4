// Package format turns raw engine magnitudes into display strings.
package format

import (
	"fmt"
	"math"
)

var byteUnits = []string{"B", "KB", "MB", "GB", "TB"}

// Bytes renders a byte count using binary multiples. Values of ten units or
// more, and plain bytes, drop the decimal place.
func Bytes(value float64) string {
	if math.IsNaN(value) || value <= 0 {
		return "0 B"
	}
	count := value
	unit := 0
	for count >= 1024 && unit < len(byteUnits)-1 {
		count /= 1024
		unit++
	}
	precision := 1
	if count >= 10 || unit == 0 {
		precision = 0
	}
	return fmt.Sprintf("%.*f %s", precision, count, byteUnits[unit])
}

// Rate renders a bytes-per-second transfer rate.
func Rate(value float64) string {
	if math.IsNaN(value) || value <= 0 {
		return "0 B/s"
	}
	return Bytes(value) + "/s"
}

// Progress renders a fraction as a percentage, clamped to [0, 1].
func Progress(value float64) string {
	return fmt.Sprintf("%.1f%%", Fraction(value)*100)
}

// Fraction clamps value into [0, 1]; NaN becomes zero.
func Fraction(value float64) float64 {
	if math.IsNaN(value) {
		return 0
	}
	return math.Max(0, math.Min(1, value))
}

// Size renders a job size, using fallback when the engine does not know it.
func Size(bytes int64, fallback string) string {
	if bytes <= 0 {
		return fallback
	}
	return Bytes(float64(bytes))
}
