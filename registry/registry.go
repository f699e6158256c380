// Package registry is SAIL's process-wide codec catalog and discovery
// layer (spec §4.4). It is grounded on the teacher's core.Registry
// interface and image-processor_test.go's construction style, but where
// the teacher's registry is a caller-populated in-memory map
// (RegisterDecoder/RegisterEncoder), SAIL's registry builds itself once
// from a filesystem search over metadata files, exactly as spec §4.4
// describes.
package registry

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sail-img/sail/codec"
	"github.com/sail-img/sail/codec/plugins"
	apperrors "github.com/sail-img/sail/errors"
	"github.com/sail-img/sail/iostream"
	"github.com/sail-img/sail/metadata"
	"github.com/sail-img/sail/obslog"
)

// PluginLoader resolves a metadata record's plugin path to a live
// codec.Plugin. Per SPEC_FULL.md §4.9, the default loader is an
// in-process lookup table of the built-in plugins; a real
// plugin.Open-based loader can be substituted without changing Registry.
type PluginLoader func(pluginPath string) (codec.Plugin, error)

// builtins maps a metadata file's plugin-path *basename* (without
// extension) to its statically-linked codec.Plugin. Codec metadata files
// shipped for the built-in codecs name their plugin sibling accordingly
// (e.g. "jpeg.codec" next to a nominal "jpeg.so" plugin path).
var builtins = map[string]codec.Plugin{
	"jpeg": plugins.JPEG{},
	"png":  plugins.PNG{},
	"gif":  plugins.GIF{},
	"tiff": plugins.TIFF{},
	"webp": plugins.WebP{},
	"avif": plugins.AVIF{},
}

// DefaultPluginLoader resolves pluginPath by matching its basename
// (extension stripped) against the built-in table.
func DefaultPluginLoader(pluginPath string) (codec.Plugin, error) {
	base := filepath.Base(pluginPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ToLower(base)
	if p, ok := builtins[base]; ok {
		return p, nil
	}
	return nil, apperrors.New(apperrors.PluginNotFound, "registry.defaultpluginloader", nil)
}

// Registry is SAIL's built-once, read-many codec catalog. Build assembles
// it completely before returning it; List and the lookups take a read
// lock, so they are safe to call from concurrent sessions.
type Registry struct {
	mu      sync.RWMutex
	records []*codec.Record
	loader  PluginLoader
	logger  obslog.Logger
	magicN  int
}

// Option configures Build.
type Option func(*Registry)

// WithPluginLoader overrides the default in-process plugin lookup.
func WithPluginLoader(l PluginLoader) Option {
	return func(r *Registry) { r.loader = l }
}

// WithLogger injects a Logger for duplicate-extension warnings and parse
// failures (spec §4.4: "Parse failures are logged and skipped").
func WithLogger(l obslog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithMagicPrefixBytes stores n (config.Config.MagicPrefixBytes) as the
// registry's magic-prefix byte count. ByMagic does not read this value;
// each plugin's Probe decides how many bytes it reads.
func WithMagicPrefixBytes(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.magicN = n
		}
	}
}

// Build searches searchDirs for files named "*"+metadataSuffix, parses
// each as a codec metadata record, resolves its plugin, and assembles the
// ordered catalog (spec §4.4, steps 1-5). Parse and plugin-resolution
// failures are logged and skipped; they do not abort the build.
func Build(searchDirs []string, metadataSuffix string, opts ...Option) (*Registry, error) {
	r := &Registry{loader: DefaultPluginLoader, logger: obslog.NoopLogger{}, magicN: 64}
	for _, o := range opts {
		o(r)
	}

	claimedExt := make(map[string]bool)
	for _, dir := range searchDirs {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue // a missing/unreadable search directory is not fatal
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), metadataSuffix) {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names) // deterministic discovery order within a directory

		for _, name := range names {
			path := filepath.Join(dir, name)
			parsed, err := metadata.ParseFile(path)
			if err != nil {
				r.logger.Warn("registry.build.parse_failed", "path", path, "error", err.Error())
				continue
			}

			pluginPath := strings.TrimSuffix(path, metadataSuffix)
			plugin, err := r.loader(pluginPath)
			if err != nil {
				r.logger.Warn("registry.build.plugin_load_failed", "path", pluginPath, "error", err.Error())
				continue
			}

			rec := &codec.Record{
				Layout:      parsed.Layout,
				Version:     parsed.Version,
				Description: parsed.Description,
				Extensions:  parsed.Extensions,
				MimeTypes:   parsed.MimeTypes,
				PluginPath:  pluginPath,
				Read:        plugin.ReadFeatures(),
				Write:       plugin.WriteFeatures(),
				Plugin:      plugin,
			}

			kept := make([]string, 0, len(rec.Extensions))
			for _, ext := range rec.Extensions {
				if claimedExt[ext] {
					r.logger.Warn("registry.build.duplicate_extension", "extension", ext, "path", path)
					continue // first-discovered codec wins (spec §4.4 step 5); still reachable by MIME
				}
				claimedExt[ext] = true
				kept = append(kept, ext)
			}
			rec.Extensions = kept

			r.records = append(r.records, rec)
		}
	}
	return r, nil
}

// List returns every registered record, in discovery order.
func (r *Registry) List() []*codec.Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*codec.Record, len(r.records))
	copy(out, r.records)
	return out
}

// ByExtension performs a case-insensitive exact match against each
// codec's extension list (spec §4.4).
func (r *Registry) ByExtension(ext string) (*codec.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.records {
		if rec.HasExtension(ext) {
			return rec, nil
		}
	}
	return nil, apperrors.New(apperrors.NotFound, "registry.byextension", nil)
}

// ByMime performs a case-insensitive exact match against each codec's
// MIME list (spec §4.4).
func (r *Registry) ByMime(mime string) (*codec.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.records {
		if rec.HasMime(mime) {
			return rec, nil
		}
	}
	return nil, apperrors.New(apperrors.NotFound, "registry.bymime", nil)
}

// ByPath is equivalent to ByExtension on the path's final suffix (spec §4.4).
func (r *Registry) ByPath(path string) (*codec.Record, error) {
	return r.ByExtension(filepath.Ext(path))
}

// ByMagic asks each codec plugin's Probe to vote on s in registration
// order; the first positive vote wins (spec §4.4). ByMagic reads nothing
// from s itself and does not use the registry's magic-prefix byte count:
// each Probe reads its own prefix of s and rewinds it. A Probe error ends
// the search and is returned.
func (r *Registry) ByMagic(ctx context.Context, s iostream.Stream) (*codec.Record, codec.FrameHeader, error) {
	r.mu.RLock()
	records := make([]*codec.Record, len(r.records))
	copy(records, r.records)
	r.mu.RUnlock()

	for _, rec := range records {
		header, claimed, err := rec.Plugin.Probe(ctx, s)
		if err != nil {
			return nil, codec.FrameHeader{}, err
		}
		if claimed {
			return rec, header, nil
		}
	}
	return nil, codec.FrameHeader{}, apperrors.New(apperrors.NotFound, "registry.bymagic", nil)
}

// UnloadPlugins discards loaded plugin handles without invalidating
// metadata (spec §4.4). The built-in plugins are plain values with no
// process-wide handle except AVIF's libvips runtime, so unloading means
// releasing that runtime; the next AVIF session transparently restarts it.
func (r *Registry) UnloadPlugins() {
	plugins.ShutdownVips()
}
