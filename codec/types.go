// Package codec defines SAIL's data model for decoded/to-be-encoded images
// (spec §3), the per-codec feature descriptors that negotiate session
// options (spec §4.5), and the plugin vtable every codec implements
// (spec §4.6). It is grounded on the teacher's core/types.go and
// core/interfaces.go, generalized from a fixed JPEG/PNG/WebP set to an
// open-ended, registry-discovered set of codecs.
package codec

import (
	apperrors "github.com/sail-img/sail/errors"
	"github.com/sail-img/sail/pixelformat"
)

// CompressionKind is a tagged enumeration of compression methods known to
// any codec. A given codec advertises the subset it supports.
type CompressionKind int

const (
	CompressionNone CompressionKind = iota
	CompressionRLE
	CompressionLZW
	CompressionDeflate
	CompressionJPEG
	CompressionPackBits
	CompressionCCITTFax3
	CompressionCCITTFax4
)

var compressionNames = map[CompressionKind]string{
	CompressionNone:       "NONE",
	CompressionRLE:        "RLE",
	CompressionLZW:        "LZW",
	CompressionDeflate:    "DEFLATE",
	CompressionJPEG:       "JPEG",
	CompressionPackBits:   "PACKBITS",
	CompressionCCITTFax3:  "CCITT-FAX3",
	CompressionCCITTFax4:  "CCITT-FAX4",
}

func (c CompressionKind) String() string {
	if n, ok := compressionNames[c]; ok {
		return n
	}
	return "UNKNOWN"
}

// FeatureFlag is an OR-mask of capabilities a codec's read or write side
// advertises.
type FeatureFlag uint32

const (
	FeatureStatic FeatureFlag = 1 << iota
	FeatureAnimated
	FeatureMultipaged
	FeatureMetaInfo
	FeatureInterlaced
	FeatureICCProfile
)

func (f FeatureFlag) Has(bit FeatureFlag) bool { return f&bit != 0 }

// PropertyFlag is an OR-mask of properties an encoder requires of the
// caller-supplied Image before it will accept it (e.g. pre-flipped rows).
type PropertyFlag uint32

const (
	PropertyFlippedVertically PropertyFlag = 1 << iota
	PropertyPremultipliedAlpha
)

func (p PropertyFlag) Has(bit PropertyFlag) bool { return p&bit != 0 }

// LevelRange describes a codec's tunable compression-level bounds. Per
// DESIGN.md's resolution of spec §9's open question, tuning is disabled
// only when Min and Max are both zero; a nonzero Min==Max means exactly
// one legal level.
type LevelRange struct {
	Min, Max, Default, Step int
}

// TuningDisabled reports whether this codec offers no compression-level
// tuning at all.
func (l LevelRange) TuningDisabled() bool { return l.Min == 0 && l.Max == 0 }

// InRange reports whether level is an acceptable compression level,
// honoring TuningDisabled (any level is accepted when tuning is off).
func (l LevelRange) InRange(level int) bool {
	if l.TuningDisabled() {
		return true
	}
	return level >= l.Min && level <= l.Max
}

// ReadFeatures describes what a codec's decode side can do (spec §4.5).
type ReadFeatures struct {
	InputPixelFormats        []pixelformat.Format // formats the codec can natively produce
	OutputPixelFormats       []pixelformat.Format // formats the caller may request after conversion
	Flags                    FeatureFlag
	DefaultOutputPixelFormat pixelformat.Format
}

func (r ReadFeatures) supportsOutput(f pixelformat.Format) bool {
	for _, c := range r.OutputPixelFormats {
		if c == f {
			return true
		}
	}
	return false
}

// DefaultReadOptions derives a mutable ReadOptions initialized from r's
// defaults (spec §4.5).
func (r ReadFeatures) DefaultReadOptions() ReadOptions {
	return ReadOptions{
		OutputPixelFormat: r.DefaultOutputPixelFormat,
		MetaInfoEnabled:   r.Flags.Has(FeatureMetaInfo),
		ICCProfileEnabled: r.Flags.Has(FeatureICCProfile),
	}
}

// WriteFeatures describes what a codec's encode side can do (spec §4.5).
type WriteFeatures struct {
	OutputPixelFormats []pixelformat.Format
	Flags              FeatureFlag
	RequiredProperties PropertyFlag
	Compressions       []CompressionKind
	DefaultCompression CompressionKind
	CompressionLevel   LevelRange
}

func (w WriteFeatures) supportsOutput(f pixelformat.Format) bool {
	for _, c := range w.OutputPixelFormats {
		if c == f {
			return true
		}
	}
	return false
}

func (w WriteFeatures) supportsCompression(c CompressionKind) bool {
	for _, k := range w.Compressions {
		if k == c {
			return true
		}
	}
	return false
}

// LevelsIgnored reports whether this codec's compression-level tuning is
// ignored because it advertises more than two compression kinds. A codec
// with a single compression (e.g. JPEG) or a lossy/lossless pair uses
// CompressionLevel to pick a point on that one method's quality curve; a
// codec offering three or more methods (e.g. TIFF's PACKBITS/JPEG/...) has
// no single curve for a level to mean anything on, so the level is
// ignored regardless of what the caller passes.
func (w WriteFeatures) LevelsIgnored() bool { return len(w.Compressions) > 2 }

// DefaultWriteOptions derives a mutable WriteOptions initialized from w's
// defaults (spec §4.5).
func (w WriteFeatures) DefaultWriteOptions() WriteOptions {
	return WriteOptions{
		OutputPixelFormat: firstOrUnknown(w.OutputPixelFormats),
		Compression:       w.DefaultCompression,
		CompressionLevel:  w.CompressionLevel.Default,
		MetaInfoEnabled:   w.Flags.Has(FeatureMetaInfo),
		ICCProfileEnabled: w.Flags.Has(FeatureICCProfile),
	}
}

func firstOrUnknown(fs []pixelformat.Format) pixelformat.Format {
	if len(fs) == 0 {
		return pixelformat.Unknown
	}
	return fs[0]
}

// ReadOptions carries the negotiated parameters for a read session.
type ReadOptions struct {
	OutputPixelFormat pixelformat.Format
	MetaInfoEnabled   bool
	ICCProfileEnabled bool
}

// Validate checks o against f, rejecting requests the codec cannot honor
// (spec §4.5).
func (o ReadOptions) Validate(f ReadFeatures) error {
	if o.OutputPixelFormat != pixelformat.Unknown && !f.supportsOutput(o.OutputPixelFormat) {
		return apperrors.New(apperrors.UnsupportedPixelFormat, "codec.readoptions.validate", nil)
	}
	return nil
}

// WriteOptions carries the negotiated parameters for a write session.
type WriteOptions struct {
	OutputPixelFormat pixelformat.Format
	Compression       CompressionKind
	CompressionLevel  int
	MetaInfoEnabled   bool
	ICCProfileEnabled bool
}

// Validate checks o against f, rejecting requests the codec cannot honor
// (spec §4.5): unsupported pixel format, unsupported compression, or a
// compression level outside the codec's tunable range. Per f.LevelsIgnored,
// a codec advertising more than two compression kinds ignores
// CompressionLevel entirely, so any value is accepted.
func (o WriteOptions) Validate(f WriteFeatures) error {
	if o.OutputPixelFormat != pixelformat.Unknown && !f.supportsOutput(o.OutputPixelFormat) {
		return apperrors.New(apperrors.UnsupportedPixelFormat, "codec.writeoptions.validate", nil)
	}
	if !f.supportsCompression(o.Compression) {
		return apperrors.New(apperrors.UnsupportedCompression, "codec.writeoptions.validate", nil)
	}
	if !f.LevelsIgnored() && !f.CompressionLevel.InRange(o.CompressionLevel) {
		return apperrors.New(apperrors.InvalidArgument, "codec.writeoptions.validate", nil)
	}
	return nil
}

// Metadata is an ordered string-to-string mapping (spec §3: "an ordered
// mapping of string keys to string values for textual metadata"). A plain
// map does not preserve insertion order, so SAIL carries an explicit slice
// of entries instead.
type Metadata struct {
	entries []metaEntry
}

type metaEntry struct {
	Key, Value string
}

// Set inserts or updates key, preserving its original position on update
// and appending on insert.
func (m *Metadata) Set(key, value string) {
	for i := range m.entries {
		if m.entries[i].Key == key {
			m.entries[i].Value = value
			return
		}
	}
	m.entries = append(m.entries, metaEntry{Key: key, Value: value})
}

// Get returns the value for key and whether it was present.
func (m *Metadata) Get(key string) (string, bool) {
	for _, e := range m.entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

// Keys returns the metadata keys in insertion order.
func (m *Metadata) Keys() []string {
	out := make([]string, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Key
	}
	return out
}

// Len returns the number of entries.
func (m *Metadata) Len() int { return len(m.entries) }

// Palette describes an indexed-format image's color table (spec §3).
type Palette struct {
	Format  pixelformat.Format // format of each palette entry
	Entries []byte
	Count   int
}

// ICCProfile is an opaque embedded color profile (spec §3).
type ICCProfile struct {
	Data []byte
	Len  int
}

// FrameHeader is what Probe and ReadSeekNextFrame return before pixel data
// is decoded: enough to describe the next frame without paying for it.
type FrameHeader struct {
	Width, Height int
	PixelFormat   pixelformat.Format
	Delay         int // milliseconds; 0 = still image (spec §4.7 edge cases)
	Interlaced    bool
	PagesTotal    int // 1 for non-multipaged formats
}

// Image is a decoded or to-be-encoded frame (spec §3).
type Image struct {
	Width, Height     int
	PixelFormat       pixelformat.Format
	BytesPerLine      int
	Pixels            []byte
	SourcePixelFormat pixelformat.Format
	Delay             int
	Interlaced        bool
	Meta              Metadata
	Palette           *Palette
	ICC               *ICCProfile
	PagesTotal        int
}

// Validate enforces the spec §3 invariant that indexed-family formats
// carry a populated palette, plus basic dimension sanity.
func (img *Image) Validate() error {
	if img.Width <= 0 || img.Height <= 0 {
		return apperrors.New(apperrors.IncorrectImageDimensions, "codec.image.validate", nil)
	}
	if img.PixelFormat.RequiresPalette() && (img.Palette == nil || img.Palette.Count == 0) {
		return apperrors.New(apperrors.InvalidArgument, "codec.image.validate", nil)
	}
	return nil
}

// EffectiveBytesPerLine returns BytesPerLine if the caller specified one,
// otherwise the value derived from Width and PixelFormat (spec §3).
func (img *Image) EffectiveBytesPerLine() int {
	if img.BytesPerLine > 0 {
		return img.BytesPerLine
	}
	return pixelformat.BytesPerLine(img.Width, img.PixelFormat)
}
