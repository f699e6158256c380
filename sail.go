// Package sail is the root facade over SAIL's codec registry and session
// layer: probe/read/write one-shot operations (spec §6's "Public API
// surface"), grounded on the teacher's imageprocessor.go top-level
// convenience functions wrapping core.Registry + pipeline.Pipeline.
package sail

import (
	"context"
	"os"

	"github.com/sail-img/sail/codec"
	"github.com/sail-img/sail/config"
	apperrors "github.com/sail-img/sail/errors"
	"github.com/sail-img/sail/obslog"
	"github.com/sail-img/sail/registry"
	"github.com/sail-img/sail/session"
)

// Instance bundles a built Registry with the config it was built from.
// Most programs construct exactly one per process (spec §4.4: "built once
// at initialization").
type Instance struct {
	Registry *registry.Registry
	Config   config.Config
	Logger   obslog.Logger
	Metrics  obslog.MetricsCollector
}

// Open builds the registry from cfg's search directories (plus
// SAIL_CODEC_PATH) and returns a ready Instance.
func Open(cfg config.Config) (*Instance, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, apperrors.Wrap(apperrors.InvalidArgument, "sail.open", err)
	}
	logger := obslog.Logger(obslog.NoopLogger{})
	dirs := cfg.ResolveSearchDirs(os.Getenv(config.CodecPathEnv))
	reg, err := registry.Build(dirs, cfg.MetadataFileSuffix,
		registry.WithLogger(logger),
		registry.WithMagicPrefixBytes(cfg.MagicPrefixBytes),
	)
	if err != nil {
		return nil, err
	}
	return &Instance{Registry: reg, Config: cfg, Logger: logger}, nil
}

func (inst *Instance) sessionOptions() []session.Option {
	opts := []session.Option{
		session.WithLogger(inst.Logger),
		session.WithRetry(inst.Config.MaxRetries, inst.Config.RetryDelay),
	}
	if inst.Metrics != nil {
		opts = append(opts, session.WithHook(obslog.NewMetricsHook(inst.Metrics)))
	}
	return opts
}

// Probe combines start + seek-next-frame + stop without decoding pixels
// (spec §4.7): it yields the image header and the resolved codec record.
func (inst *Instance) Probe(ctx context.Context, src session.Source) (codec.FrameHeader, *codec.Record, error) {
	s := session.NewInputSession(inst.Registry, inst.sessionOptions()...)
	if err := s.Start(ctx, src, session.StartOptions{}, codec.ReadOptions{}); err != nil {
		return codec.FrameHeader{}, nil, err
	}
	rec := s.Record()

	header, err := s.PeekFrame(ctx)
	stopErr := s.Stop(ctx)
	if err != nil {
		return codec.FrameHeader{}, rec, err
	}
	if stopErr != nil {
		return codec.FrameHeader{}, rec, stopErr
	}
	return header, rec, nil
}

// Read performs a one-shot decode of the first frame (spec §6).
func (inst *Instance) Read(ctx context.Context, src session.Source, hint string) (*codec.Image, error) {
	s := session.NewInputSession(inst.Registry, inst.sessionOptions()...)
	if err := s.Start(ctx, src, session.StartOptions{CodecHint: hint}, codec.ReadOptions{}); err != nil {
		return nil, err
	}
	img, err := s.NextFrame(ctx)
	if stopErr := s.Stop(ctx); err == nil {
		err = stopErr
	}
	if err != nil {
		return nil, err
	}
	return img, nil
}

// Write performs a one-shot encode of img, returning the number of bytes
// written (spec §6).
func (inst *Instance) Write(ctx context.Context, dst session.Source, hint string, img *codec.Image, opts codec.WriteOptions) (int64, error) {
	s := session.NewOutputSession(inst.Registry, inst.sessionOptions()...)
	if err := s.Start(ctx, dst, session.StartOptions{CodecHint: hint}, opts); err != nil {
		return 0, err
	}
	writeErr := s.NextFrame(ctx, img)
	written, stopErr := s.Stop(ctx)
	if writeErr != nil {
		return written, writeErr
	}
	return written, stopErr
}

// UnloadPlugins discards loaded plugin handles without invalidating
// metadata (spec §4.4); the next session transparently reloads.
func (inst *Instance) UnloadPlugins() { inst.Registry.UnloadPlugins() }
