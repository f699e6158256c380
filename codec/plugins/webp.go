package plugins

import (
	"context"

	"golang.org/x/image/webp"

	"github.com/sail-img/sail/codec"
	apperrors "github.com/sail-img/sail/errors"
	"github.com/sail-img/sail/iostream"
	"github.com/sail-img/sail/pixelformat"
)

// WebP wraps golang.org/x/image/webp, grounded on the teacher's
// adapters/decoder/webp.go and adapters/encoder/webp.go (the teacher
// shipped both sides; x/image/webp itself is decode-only, so the write
// side here reports no output formats and WriteInit fails
// NotYetImplemented, matching spec §4.7's "a codec may legitimately
// support only one direction").
type WebP struct{}

func (WebP) ReadFeatures() codec.ReadFeatures {
	return codec.ReadFeatures{
		InputPixelFormats:        []pixelformat.Format{pixelformat.RGBA32, pixelformat.RGB24},
		OutputPixelFormats:       rgba32Only,
		Flags:                    codec.FeatureStatic,
		DefaultOutputPixelFormat: pixelformat.RGBA32,
	}
}

func (WebP) WriteFeatures() codec.WriteFeatures {
	return codec.WriteFeatures{} // no OutputPixelFormats, no Compressions: write side unsupported
}

func (WebP) ReadInit(ctx context.Context, s iostream.Stream, opts codec.ReadOptions) (codec.ReadState, error) {
	data, err := drainAll(s)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.InvalidIo, "webp.readinit", err)
	}
	img, err := webp.Decode(bytesReader(data))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.FileParseError, "webp.readinit", err)
	}
	return newSingleFrameState(img, pixelformat.RGBA32), nil
}

func (WebP) ReadSeekNextFrame(ctx context.Context, st codec.ReadState) (codec.FrameHeader, error) {
	return st.(*singleFrameState).seekNext()
}

func (WebP) ReadFrame(ctx context.Context, st codec.ReadState, img *codec.Image) error {
	st.(*singleFrameState).readFrame(img)
	return nil
}

func (WebP) ReadFinish(ctx context.Context, st codec.ReadState) error { return nil }

func (WebP) WriteInit(ctx context.Context, s iostream.Stream, opts codec.WriteOptions) (codec.WriteState, error) {
	return nil, errNotYetImplemented("webp.writeinit")
}

func (WebP) WriteSeekNextFrame(ctx context.Context, st codec.WriteState, img *codec.Image) error {
	return errNotYetImplemented("webp.writeseeknextframe")
}

func (WebP) WriteFrame(ctx context.Context, st codec.WriteState, img *codec.Image) error {
	return errNotYetImplemented("webp.writeframe")
}

func (WebP) WriteFinish(ctx context.Context, st codec.WriteState) error {
	return errNotYetImplemented("webp.writefinish")
}

func (WebP) Probe(ctx context.Context, s iostream.Stream) (codec.FrameHeader, bool, error) {
	head, err := iostream.DrainPrefix(s, 12)
	if err != nil {
		return codec.FrameHeader{}, false, err
	}
	if len(head) < 12 || string(head[0:4]) != "RIFF" || string(head[8:12]) != "WEBP" {
		return codec.FrameHeader{}, false, nil
	}
	full, err := iostream.DrainPrefix(s, probeHeaderBytes)
	if err != nil {
		return codec.FrameHeader{}, true, err
	}
	cfg, err := webp.DecodeConfig(bytesReader(full))
	if err != nil {
		return codec.FrameHeader{}, true, apperrors.Wrap(apperrors.FileParseError, "webp.probe", err)
	}
	return codec.FrameHeader{Width: cfg.Width, Height: cfg.Height, PixelFormat: pixelformat.RGBA32, PagesTotal: 1}, true, nil
}
