package plugins

import (
	"context"

	"golang.org/x/image/tiff"

	"github.com/sail-img/sail/codec"
	apperrors "github.com/sail-img/sail/errors"
	"github.com/sail-img/sail/iostream"
	"github.com/sail-img/sail/pixelformat"
)

// TIFF wraps golang.org/x/image/tiff. Neither the teacher nor any other
// example repo touches TIFF directly; wudi-pdfkit's go.mod is the pack
// member that pulls in golang.org/x/image for its own page-rasterization
// needs, so this plugin is grounded on that dependency choice plus the
// teacher's general decoder/encoder split.
//
// x/image/tiff's decoder only materializes a single image per file; TIFF's
// own multi-IFD paging is therefore reported as PagesTotal: 1 here, same
// as the other still-image plugins.
type TIFF struct{}

func (TIFF) ReadFeatures() codec.ReadFeatures {
	return codec.ReadFeatures{
		InputPixelFormats:        []pixelformat.Format{pixelformat.RGBA32, pixelformat.RGB24, pixelformat.Grayscale},
		OutputPixelFormats:       rgba32Only,
		Flags:                    codec.FeatureStatic | codec.FeatureICCProfile,
		DefaultOutputPixelFormat: pixelformat.RGBA32,
	}
}

func (TIFF) WriteFeatures() codec.WriteFeatures {
	return codec.WriteFeatures{
		OutputPixelFormats: rgba32Only,
		Flags:              codec.FeatureStatic,
		Compressions:       []codec.CompressionKind{codec.CompressionNone, codec.CompressionDeflate},
		DefaultCompression: codec.CompressionDeflate,
	}
}

func (TIFF) ReadInit(ctx context.Context, s iostream.Stream, opts codec.ReadOptions) (codec.ReadState, error) {
	data, err := drainAll(s)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.InvalidIo, "tiff.readinit", err)
	}
	img, err := tiff.Decode(bytesReader(data))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.FileParseError, "tiff.readinit", err)
	}
	return newSingleFrameState(img, pixelformat.RGB24), nil
}

func (TIFF) ReadSeekNextFrame(ctx context.Context, st codec.ReadState) (codec.FrameHeader, error) {
	return st.(*singleFrameState).seekNext()
}

func (TIFF) ReadFrame(ctx context.Context, st codec.ReadState, img *codec.Image) error {
	st.(*singleFrameState).readFrame(img)
	return nil
}

func (TIFF) ReadFinish(ctx context.Context, st codec.ReadState) error { return nil }

type tiffWriteState struct {
	s       iostream.Stream
	opts    codec.WriteOptions
	written bool
}

func (TIFF) WriteInit(ctx context.Context, s iostream.Stream, opts codec.WriteOptions) (codec.WriteState, error) {
	return &tiffWriteState{s: s, opts: opts}, nil
}

func (TIFF) WriteSeekNextFrame(ctx context.Context, st codec.WriteState, img *codec.Image) error {
	ws := st.(*tiffWriteState)
	if ws.written {
		return apperrors.New(apperrors.UnsupportedFeature, "tiff.writeseeknextframe", nil)
	}
	return nil
}

func (TIFF) WriteFrame(ctx context.Context, st codec.WriteState, img *codec.Image) error {
	ws := st.(*tiffWriteState)
	if err := img.Validate(); err != nil {
		return err
	}
	compression := tiff.Deflate
	switch ws.opts.Compression {
	case codec.CompressionNone:
		compression = tiff.Uncompressed
	}
	err := tiff.Encode(streamWriter{ws.s}, fromRGBA32(img), &tiff.Options{Compression: compression, Predictor: true})
	if err != nil {
		return apperrors.Wrap(apperrors.InvalidIo, "tiff.writeframe", err)
	}
	ws.written = true
	return nil
}

func (TIFF) WriteFinish(ctx context.Context, st codec.WriteState) error {
	return st.(*tiffWriteState).s.Flush()
}

func (TIFF) Probe(ctx context.Context, s iostream.Stream) (codec.FrameHeader, bool, error) {
	head, err := iostream.DrainPrefix(s, 4)
	if err != nil {
		return codec.FrameHeader{}, false, err
	}
	if len(head) < 4 {
		return codec.FrameHeader{}, false, nil
	}
	leMagic := head[0] == 'I' && head[1] == 'I' && head[2] == 0x2A && head[3] == 0
	beMagic := head[0] == 'M' && head[1] == 'M' && head[2] == 0 && head[3] == 0x2A
	if !leMagic && !beMagic {
		return codec.FrameHeader{}, false, nil
	}
	full, err := iostream.DrainPrefix(s, probeHeaderBytes)
	if err != nil {
		return codec.FrameHeader{}, true, err
	}
	cfg, err := tiff.DecodeConfig(bytesReader(full))
	if err != nil {
		return codec.FrameHeader{}, true, apperrors.Wrap(apperrors.FileParseError, "tiff.probe", err)
	}
	return codec.FrameHeader{Width: cfg.Width, Height: cfg.Height, PixelFormat: pixelformat.RGB24, PagesTotal: 1}, true, nil
}
