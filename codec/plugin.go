package codec

import (
	"context"

	"github.com/sail-img/sail/iostream"
)

// ReadState and WriteState are opaque, plugin-owned decode/encode
// contexts. Each built-in plugin defines its own concrete type; callers
// outside the plugin never inspect them.
type ReadState any
type WriteState any

// Plugin is the fixed vtable every codec implements (spec §4.6). Per
// spec §9's "keep the interface, make dynamic loading a deployment
// concern" guidance, this is an ordinary Go interface: the built-in
// plugins in codec/plugins/ satisfy it directly and are wired in-process
// by the registry's default PluginLoader; a real dlopen/plugin.Open-based
// loader can be substituted without changing this interface.
type Plugin interface {
	// ReadFeatures and WriteFeatures describe what this codec supports;
	// the registry calls these once per codec record to assemble
	// codec.Record without needing a parsed metadata file to carry them.
	ReadFeatures() ReadFeatures
	WriteFeatures() WriteFeatures

	// Read side.
	ReadInit(ctx context.Context, s iostream.Stream, opts ReadOptions) (ReadState, error)
	ReadSeekNextFrame(ctx context.Context, st ReadState) (FrameHeader, error)
	ReadFrame(ctx context.Context, st ReadState, img *Image) error
	ReadFinish(ctx context.Context, st ReadState) error

	// Write side.
	WriteInit(ctx context.Context, s iostream.Stream, opts WriteOptions) (WriteState, error)
	WriteSeekNextFrame(ctx context.Context, st WriteState, img *Image) error
	WriteFrame(ctx context.Context, st WriteState, img *Image) error
	WriteFinish(ctx context.Context, st WriteState) error

	// Probe non-destructively sniffs s, returning the header of the first
	// frame and whether this plugin claims the stream. Implementations
	// must restore the stream position before returning (enforced by
	// iostream.DrainPrefix at the call sites that use it).
	Probe(ctx context.Context, s iostream.Stream) (FrameHeader, bool, error)
}

// Record is a codec's fully assembled description: the parsed metadata
// file fields (spec §4.3) plus the ReadFeatures/WriteFeatures obtained
// from its bound Plugin (spec §3's Codec metadata record).
type Record struct {
	Layout      int
	Version     string
	Description string
	Extensions  []string // lowercase, no leading dot, source order
	MimeTypes   []string // lowercase, source order
	PluginPath  string

	Read  ReadFeatures
	Write WriteFeatures

	Plugin Plugin
}

// HasExtension reports whether ext (with or without a leading dot) is
// claimed by this record, case-insensitively.
func (r *Record) HasExtension(ext string) bool {
	norm := normalizeExtension(ext)
	for _, e := range r.Extensions {
		if e == norm {
			return true
		}
	}
	return false
}

// HasMime reports whether mime is claimed by this record, case-insensitively.
func (r *Record) HasMime(mime string) bool {
	norm := normalizeMime(mime)
	for _, m := range r.MimeTypes {
		if m == norm {
			return true
		}
	}
	return false
}
