package plugins

import (
	"context"
	"image/jpeg"

	"github.com/sail-img/sail/codec"
	apperrors "github.com/sail-img/sail/errors"
	"github.com/sail-img/sail/iostream"
	"github.com/sail-img/sail/pixelformat"
)

// JPEG wraps the standard library's image/jpeg, grounded on the teacher's
// adapters/decoder/jpeg.go and adapters/encoder/jpeg.go.
type JPEG struct{}

func (JPEG) ReadFeatures() codec.ReadFeatures {
	return codec.ReadFeatures{
		InputPixelFormats:        []pixelformat.Format{pixelformat.RGB24, pixelformat.Grayscale},
		OutputPixelFormats:       rgba32Only,
		Flags:                    codec.FeatureStatic | codec.FeatureICCProfile,
		DefaultOutputPixelFormat: pixelformat.RGBA32,
	}
}

func (JPEG) WriteFeatures() codec.WriteFeatures {
	return codec.WriteFeatures{
		OutputPixelFormats: rgba32Only,
		Flags:              codec.FeatureStatic,
		Compressions:       []codec.CompressionKind{codec.CompressionJPEG},
		DefaultCompression: codec.CompressionJPEG,
		CompressionLevel:   codec.LevelRange{Min: 1, Max: 100, Default: 90, Step: 1},
	}
}

func (JPEG) ReadInit(ctx context.Context, s iostream.Stream, opts codec.ReadOptions) (codec.ReadState, error) {
	data, err := drainAll(s)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.InvalidIo, "jpeg.readinit", err)
	}
	img, err := jpeg.Decode(bytesReader(data))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.FileParseError, "jpeg.readinit", err)
	}
	return newSingleFrameState(img, pixelformat.RGB24), nil
}

func (JPEG) ReadSeekNextFrame(ctx context.Context, st codec.ReadState) (codec.FrameHeader, error) {
	return st.(*singleFrameState).seekNext()
}

func (JPEG) ReadFrame(ctx context.Context, st codec.ReadState, img *codec.Image) error {
	st.(*singleFrameState).readFrame(img)
	return nil
}

func (JPEG) ReadFinish(ctx context.Context, st codec.ReadState) error { return nil }

type jpegWriteState struct {
	s       iostream.Stream
	opts    codec.WriteOptions
	written bool
}

func (JPEG) WriteInit(ctx context.Context, s iostream.Stream, opts codec.WriteOptions) (codec.WriteState, error) {
	return &jpegWriteState{s: s, opts: opts}, nil
}

func (JPEG) WriteSeekNextFrame(ctx context.Context, st codec.WriteState, img *codec.Image) error {
	ws := st.(*jpegWriteState)
	if ws.written {
		return apperrors.New(apperrors.UnsupportedFeature, "jpeg.writeseeknextframe", nil)
	}
	return nil
}

func (JPEG) WriteFrame(ctx context.Context, st codec.WriteState, img *codec.Image) error {
	ws := st.(*jpegWriteState)
	if err := img.Validate(); err != nil {
		return err
	}
	quality := ws.opts.CompressionLevel
	if quality <= 0 {
		quality = 90
	}
	if err := jpeg.Encode(streamWriter{ws.s}, fromRGBA32(img), &jpeg.Options{Quality: quality}); err != nil {
		return apperrors.Wrap(apperrors.InvalidIo, "jpeg.writeframe", err)
	}
	ws.written = true
	return nil
}

func (JPEG) WriteFinish(ctx context.Context, st codec.WriteState) error {
	return st.(*jpegWriteState).s.Flush()
}

func (JPEG) Probe(ctx context.Context, s iostream.Stream) (codec.FrameHeader, bool, error) {
	prefix, err := iostream.DrainPrefix(s, 3)
	if err != nil {
		return codec.FrameHeader{}, false, err
	}
	if len(prefix) < 3 || prefix[0] != 0xFF || prefix[1] != 0xD8 || prefix[2] != 0xFF {
		return codec.FrameHeader{}, false, nil
	}
	head, err := iostream.DrainPrefix(s, probeHeaderBytes)
	if err != nil {
		return codec.FrameHeader{}, true, err
	}
	cfg, err := jpeg.DecodeConfig(bytesReader(head))
	if err != nil {
		return codec.FrameHeader{}, true, apperrors.Wrap(apperrors.FileParseError, "jpeg.probe", err)
	}
	return codec.FrameHeader{Width: cfg.Width, Height: cfg.Height, PixelFormat: pixelformat.RGB24, PagesTotal: 1}, true, nil
}
