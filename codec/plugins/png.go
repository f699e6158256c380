package plugins

import (
	"context"
	"image/png"

	"github.com/sail-img/sail/codec"
	apperrors "github.com/sail-img/sail/errors"
	"github.com/sail-img/sail/iostream"
	"github.com/sail-img/sail/pixelformat"
)

// PNG wraps the standard library's image/png, grounded on the teacher's
// adapters/decoder/png.go and adapters/encoder/png.go.
type PNG struct{}

func (PNG) ReadFeatures() codec.ReadFeatures {
	return codec.ReadFeatures{
		InputPixelFormats:        []pixelformat.Format{pixelformat.RGBA32, pixelformat.RGB24, pixelformat.Grayscale, pixelformat.Indexed},
		OutputPixelFormats:       rgba32Only,
		Flags:                    codec.FeatureStatic | codec.FeatureMetaInfo | codec.FeatureICCProfile,
		DefaultOutputPixelFormat: pixelformat.RGBA32,
	}
}

func (PNG) WriteFeatures() codec.WriteFeatures {
	return codec.WriteFeatures{
		OutputPixelFormats: rgba32Only,
		Flags:              codec.FeatureStatic,
		Compressions:       []codec.CompressionKind{codec.CompressionNone, codec.CompressionDeflate},
		DefaultCompression: codec.CompressionDeflate,
		CompressionLevel:   codec.LevelRange{}, // image/png's levels are named, not numeric; tuning disabled
	}
}

func (PNG) ReadInit(ctx context.Context, s iostream.Stream, opts codec.ReadOptions) (codec.ReadState, error) {
	data, err := drainAll(s)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.InvalidIo, "png.readinit", err)
	}
	img, err := png.Decode(bytesReader(data))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.FileParseError, "png.readinit", err)
	}
	return newSingleFrameState(img, pixelformat.RGBA32), nil
}

func (PNG) ReadSeekNextFrame(ctx context.Context, st codec.ReadState) (codec.FrameHeader, error) {
	return st.(*singleFrameState).seekNext()
}

func (PNG) ReadFrame(ctx context.Context, st codec.ReadState, img *codec.Image) error {
	st.(*singleFrameState).readFrame(img)
	return nil
}

func (PNG) ReadFinish(ctx context.Context, st codec.ReadState) error { return nil }

type pngWriteState struct {
	s       iostream.Stream
	written bool
}

func (PNG) WriteInit(ctx context.Context, s iostream.Stream, opts codec.WriteOptions) (codec.WriteState, error) {
	return &pngWriteState{s: s}, nil
}

func (PNG) WriteSeekNextFrame(ctx context.Context, st codec.WriteState, img *codec.Image) error {
	ws := st.(*pngWriteState)
	if ws.written {
		return apperrors.New(apperrors.UnsupportedFeature, "png.writeseeknextframe", nil)
	}
	return nil
}

func (PNG) WriteFrame(ctx context.Context, st codec.WriteState, img *codec.Image) error {
	ws := st.(*pngWriteState)
	if err := img.Validate(); err != nil {
		return err
	}
	enc := &png.Encoder{CompressionLevel: png.DefaultCompression}
	if err := enc.Encode(streamWriter{ws.s}, fromRGBA32(img)); err != nil {
		return apperrors.Wrap(apperrors.InvalidIo, "png.writeframe", err)
	}
	ws.written = true
	return nil
}

func (PNG) WriteFinish(ctx context.Context, st codec.WriteState) error {
	return st.(*pngWriteState).s.Flush()
}

func (PNG) Probe(ctx context.Context, s iostream.Stream) (codec.FrameHeader, bool, error) {
	sig := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}
	head, err := iostream.DrainPrefix(s, len(sig))
	if err != nil {
		return codec.FrameHeader{}, false, err
	}
	if len(head) < len(sig) || string(head) != string(sig) {
		return codec.FrameHeader{}, false, nil
	}
	full, err := iostream.DrainPrefix(s, probeHeaderBytes)
	if err != nil {
		return codec.FrameHeader{}, true, err
	}
	cfg, err := png.DecodeConfig(bytesReader(full))
	if err != nil {
		return codec.FrameHeader{}, true, apperrors.Wrap(apperrors.FileParseError, "png.probe", err)
	}
	return codec.FrameHeader{Width: cfg.Width, Height: cfg.Height, PixelFormat: pixelformat.RGBA32, PagesTotal: 1}, true, nil
}
