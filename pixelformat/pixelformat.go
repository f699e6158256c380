// Package pixelformat defines SAIL's closed enumeration of pixel formats
// and the pure functions that convert them to and from their canonical
// string names.
package pixelformat

import "strings"

// Format is a tagged value from a closed set combining bit depth, channel
// layout, alpha presence, and color model. The zero value is Unknown.
type Format int

const (
	Unknown Format = iota

	Mono       // 1-bit monochrome
	Grayscale  // 8-bit grayscale
	Indexed    // 8-bit, requires a Palette

	RGB24
	BGR24

	RGBA32
	BGRA32
	ARGB32
	ABGR32

	RGB48  // 16 bits/channel, no alpha
	BGR48  // 16 bits/channel, no alpha, reversed channel order
	RGBA64 // 16 bits/channel, with alpha
	BGRA64 // 16 bits/channel, with alpha, reversed channel order
	ARGB64 // 16 bits/channel, with alpha, alpha-first
	ABGR64 // 16 bits/channel, with alpha, alpha-first, reversed channel order

	YUV8   // 8 bits/channel, no alpha
	YUVA8  // 8 bits/channel, with alpha
	YUV10  // 10 bits/channel, no alpha
	YUVA10 // 10 bits/channel, with alpha
	YUV12  // 12 bits/channel, no alpha
	YUVA12 // 12 bits/channel, with alpha

	sentinelEnd // marks the end of the closed set; never a valid value
)

// names is the total Format -> string map. Every Format below sentinelEnd
// except Unknown has exactly one entry.
var names = map[Format]string{
	Mono:      "MONO",
	Grayscale: "GRAYSCALE",
	Indexed:   "INDEXED",
	RGB24:     "RGB24",
	BGR24:     "BGR24",
	RGBA32:    "RGBA32",
	BGRA32:    "BGRA32",
	ARGB32:    "ARGB32",
	ABGR32:    "ABGR32",
	RGB48:     "RGB48",
	BGR48:     "BGR48",
	RGBA64:    "RGBA64",
	BGRA64:    "BGRA64",
	ARGB64:    "ARGB64",
	ABGR64:    "ABGR64",
	YUV8:      "YUV8",
	YUVA8:     "YUVA8",
	YUV10:     "YUV10",
	YUVA10:    "YUVA10",
	YUV12:     "YUV12",
	YUVA12:    "YUVA12",
}

// byName is the total string -> Format map, built once from names.
var byName map[string]Format

func init() {
	byName = make(map[string]Format, len(names))
	for f, n := range names {
		byName[n] = f
	}
}

// String returns the canonical name of f, or "UNKNOWN" for Unknown and any
// value outside the closed set. This function never fails.
func (f Format) String() string {
	if n, ok := names[f]; ok {
		return n
	}
	return "UNKNOWN"
}

// Parse returns the Format whose canonical name matches s exactly
// (case-sensitive, matching String's output). Any unrecognized string,
// including the empty string, yields Unknown.
func Parse(s string) Format {
	if f, ok := byName[s]; ok {
		return f
	}
	return Unknown
}

// ParseFold is like Parse but matches case-insensitively, which is how
// most callers (CLI flags, config files) actually supply format names.
func ParseFold(s string) Format {
	upper := strings.ToUpper(strings.TrimSpace(s))
	if f, ok := byName[upper]; ok {
		return f
	}
	return Unknown
}

// bitsPerPixel is the total bit-depth table backing BitsPerPixel.
var bitsPerPixel = map[Format]int{
	Mono:      1,
	Grayscale: 8,
	Indexed:   8,
	RGB24:     24,
	BGR24:     24,
	RGBA32:    32,
	BGRA32:    32,
	ARGB32:    32,
	ABGR32:    32,
	RGB48:     48,
	BGR48:     48,
	RGBA64:    64,
	BGRA64:    64,
	ARGB64:    64,
	ABGR64:    64,
	YUV8:      24,
	YUVA8:     32,
	YUV10:     30,
	YUVA10:    40,
	YUV12:     36,
	YUVA12:    48,
}

// BitsPerPixel is a total function: every Format, including Unknown,
// returns a defined (possibly zero) bit depth. This function never fails.
func (f Format) BitsPerPixel() int {
	return bitsPerPixel[f]
}

// BytesPerLine computes the minimum row stride in bytes for an image of
// width w in format f: ceil(w * bits_per_pixel(f) / 8).
func BytesPerLine(width int, f Format) int {
	if width <= 0 {
		return 0
	}
	bits := f.BitsPerPixel()
	return (width*bits + 7) / 8
}

// HasAlpha reports whether f carries an alpha channel.
func (f Format) HasAlpha() bool {
	switch f {
	case RGBA32, BGRA32, ARGB32, ABGR32, RGBA64, BGRA64, ARGB64, ABGR64, YUVA8, YUVA10, YUVA12:
		return true
	}
	return false
}

// RequiresPalette reports whether images in this format must carry a
// populated Palette (spec §3 invariant).
func (f Format) RequiresPalette() bool {
	return f == Indexed
}

// Valid reports whether f is a member of the closed set (Unknown is valid).
func (f Format) Valid() bool {
	return f == Unknown || (f > Unknown && f < sentinelEnd)
}

// All returns every non-Unknown Format in the closed set, in declaration
// order. Useful for property-based round-trip tests (spec §8, property 2).
func All() []Format {
	out := make([]Format, 0, len(names))
	for f := Mono; f < sentinelEnd; f++ {
		if _, ok := names[f]; ok {
			out = append(out, f)
		}
	}
	return out
}
