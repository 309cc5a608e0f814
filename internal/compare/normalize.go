package compare

import (
	"regexp"
	"strconv"
	"strings"
)

// Normalizers convert user-entered component names and specs into comparable
// magnitudes. Every normalizer is total: malformed or absent input yields the
// documented zero/false default, never an error. Catalog data is hand-typed
// and frequently incomplete, so the scorer treats a zero result as "category
// not comparable" rather than aborting the ranking.

var (
	processorRe = regexp.MustCompile(`(?i)\b(?:i\s*-?\s*([3579])|ryzen\s*([3579]))\b`)
	memoryRe    = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(TB|GB)`)
	screenRe    = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(?:"|”|''|in\b|inch|pulgadas)`)
)

// ProcessorRank maps a processor name to a coarse performance tier:
// i9/Ryzen 9 -> 9, i7/Ryzen 7 -> 7, i5/Ryzen 5 -> 5, i3/Ryzen 3 -> 3.
// Unrecognized names rank 0. This is an ordinal marketing-tier scale, not a
// benchmark; it only has to order candidates within one catalog.
func ProcessorRank(name string) int {
	m := processorRe.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	digit := m[1]
	if digit == "" {
		digit = m[2]
	}
	rank, err := strconv.Atoi(digit)
	if err != nil {
		return 0
	}
	return rank
}

// MemorySizeGB extracts the first capacity token ("16GB", "1TB", "1.5 tb")
// from a component name and returns it in whole gigabytes. Used for both RAM
// and storage. Returns 0 when no capacity token is present.
func MemorySizeGB(name string) int {
	m := memoryRe.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return 0
	}
	if strings.EqualFold(m[2], "TB") {
		value *= 1024
	}
	return int(value + 0.5)
}

// IsSSD reports whether a storage component name describes solid-state
// storage. Anything else, including explicit "HDD" and unspecified types,
// is treated as non-SSD.
func IsSSD(name string) bool {
	return strings.Contains(strings.ToLower(name), "ssd")
}

// ScreenInches extracts a screen diagonal in inches from a component name
// such as `15.6" FHD` or "14 inch". Returns 0 when no size marker is found.
func ScreenInches(name string) float64 {
	m := screenRe.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	value, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
	if err != nil {
		return 0
	}
	return value
}

// IsDedicatedGraphics reports whether a graphics component's specs mark it
// as a dedicated GPU. The catalog carries both English and Spanish entries,
// so "dedicated" and "dedicada" are accepted.
func IsDedicatedGraphics(specs map[string]string) bool {
	t := strings.ToLower(specs["type"])
	return strings.Contains(t, "dedicated") || strings.Contains(t, "dedicada")
}
