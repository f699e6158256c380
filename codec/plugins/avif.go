package plugins

import (
	"context"
	"runtime"
	"sync"

	govips "github.com/davidbyttow/govips/v2/vips"

	"github.com/sail-img/sail/codec"
	apperrors "github.com/sail-img/sail/errors"
	"github.com/sail-img/sail/iostream"
	"github.com/sail-img/sail/pixelformat"
)

// AVIF wraps davidbyttow/govips/v2's libvips bindings, directly grounded
// on the teacher's adapters/vips/processor.go Backend — same
// Startup/NewImageFromBuffer/ExportParams shape, retargeted from
// jpeg/png/webp export to AVIF export since stdlib and x/image have no
// AVIF codec at all.
type AVIF struct{}

var vipsOnce sync.Once

func ensureVipsStarted() {
	vipsOnce.Do(func() {
		govips.Startup(&govips.Config{
			ConcurrencyLevel: runtime.NumCPU(),
			CollectStats:     false,
		})
	})
}

// ShutdownVips releases libvips process-wide resources. Call once at
// process exit if the AVIF plugin was ever exercised; the registry calls
// this from UnloadPlugins.
func ShutdownVips() {
	govips.Shutdown()
}

func (AVIF) ReadFeatures() codec.ReadFeatures {
	return codec.ReadFeatures{
		InputPixelFormats:        []pixelformat.Format{pixelformat.RGBA32, pixelformat.RGB24},
		OutputPixelFormats:       rgba32Only,
		Flags:                    codec.FeatureStatic | codec.FeatureICCProfile,
		DefaultOutputPixelFormat: pixelformat.RGBA32,
	}
}

func (AVIF) WriteFeatures() codec.WriteFeatures {
	return codec.WriteFeatures{
		OutputPixelFormats: rgba32Only,
		Flags:              codec.FeatureStatic,
		Compressions:       []codec.CompressionKind{codec.CompressionNone, codec.CompressionJPEG},
		DefaultCompression: codec.CompressionJPEG, // lossy AVIF; CompressionNone selects lossless
		CompressionLevel:   codec.LevelRange{Min: 1, Max: 100, Default: 80, Step: 1},
	}
}

type avifReadState struct {
	ref    *govips.ImageRef
	served bool
}

func (AVIF) ReadInit(ctx context.Context, s iostream.Stream, opts codec.ReadOptions) (codec.ReadState, error) {
	ensureVipsStarted()
	data, err := drainAll(s)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.InvalidIo, "avif.readinit", err)
	}
	ref, err := govips.NewImageFromBuffer(data)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.FileParseError, "avif.readinit", err)
	}
	return &avifReadState{ref: ref}, nil
}

func (AVIF) ReadSeekNextFrame(ctx context.Context, st codec.ReadState) (codec.FrameHeader, error) {
	rs := st.(*avifReadState)
	if rs.served {
		return codec.FrameHeader{}, errNoMoreFrames()
	}
	rs.served = true
	return codec.FrameHeader{
		Width:       rs.ref.Width(),
		Height:      rs.ref.Height(),
		PixelFormat: pixelformat.RGBA32,
		PagesTotal:  1,
	}, nil
}

func (AVIF) ReadFrame(ctx context.Context, st codec.ReadState, img *codec.Image) error {
	rs := st.(*avifReadState)
	png, _, err := rs.ref.ExportPng(govips.NewPngExportParams())
	if err != nil {
		return apperrors.Wrap(apperrors.FileParseError, "avif.readframe", err)
	}
	return decodePNGBytesInto(png, img, pixelformat.RGBA32)
}

func (AVIF) ReadFinish(ctx context.Context, st codec.ReadState) error {
	st.(*avifReadState).ref.Close()
	return nil
}

type avifWriteState struct {
	s       iostream.Stream
	opts    codec.WriteOptions
	written bool
}

func (AVIF) WriteInit(ctx context.Context, s iostream.Stream, opts codec.WriteOptions) (codec.WriteState, error) {
	ensureVipsStarted()
	return &avifWriteState{s: s, opts: opts}, nil
}

func (AVIF) WriteSeekNextFrame(ctx context.Context, st codec.WriteState, img *codec.Image) error {
	ws := st.(*avifWriteState)
	if ws.written {
		return apperrors.New(apperrors.UnsupportedFeature, "avif.writeseeknextframe", nil)
	}
	return nil
}

func (AVIF) WriteFrame(ctx context.Context, st codec.WriteState, img *codec.Image) error {
	ws := st.(*avifWriteState)
	if err := img.Validate(); err != nil {
		return err
	}
	pngBytes, err := encodeRGBA32ToPNGBytes(img)
	if err != nil {
		return err
	}
	ref, err := govips.NewImageFromBuffer(pngBytes)
	if err != nil {
		return apperrors.Wrap(apperrors.InvalidIo, "avif.writeframe", err)
	}
	defer ref.Close()

	ep := govips.NewAvifExportParams()
	quality := ws.opts.CompressionLevel
	if quality <= 0 {
		quality = 80
	}
	ep.Quality = quality
	ep.Lossless = ws.opts.Compression == codec.CompressionNone

	buf, _, err := ref.ExportAvif(ep)
	if err != nil {
		return apperrors.Wrap(apperrors.InvalidIo, "avif.writeframe", err)
	}
	if _, err := ws.s.Write(buf); err != nil {
		return apperrors.Wrap(apperrors.ShortWrite, "avif.writeframe", err)
	}
	ws.written = true
	return nil
}

func (AVIF) WriteFinish(ctx context.Context, st codec.WriteState) error {
	return st.(*avifWriteState).s.Flush()
}

func (AVIF) Probe(ctx context.Context, s iostream.Stream) (codec.FrameHeader, bool, error) {
	head, err := iostream.DrainPrefix(s, 12)
	if err != nil {
		return codec.FrameHeader{}, false, err
	}
	if len(head) < 12 || string(head[4:8]) != "ftyp" || string(head[8:12]) != "avif" {
		return codec.FrameHeader{}, false, nil
	}
	ensureVipsStarted()
	full, err := iostream.DrainPrefix(s, probeHeaderBytes)
	if err != nil {
		return codec.FrameHeader{}, true, err
	}
	ref, err := govips.NewImageFromBuffer(full)
	if err != nil {
		return codec.FrameHeader{}, true, apperrors.Wrap(apperrors.FileParseError, "avif.probe", err)
	}
	defer ref.Close()
	return codec.FrameHeader{Width: ref.Width(), Height: ref.Height(), PixelFormat: pixelformat.RGBA32, PagesTotal: 1}, true, nil
}
