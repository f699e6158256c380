package plugins

import (
	"context"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"

	"github.com/sail-img/sail/codec"
	apperrors "github.com/sail-img/sail/errors"
	"github.com/sail-img/sail/iostream"
	"github.com/sail-img/sail/pixelformat"
)

// GIF wraps the standard library's image/gif. The teacher never handled
// animated formats (its decoder/encoder set was jpeg/png/webp, all
// single-frame); this plugin is new, grounded on spec §4.7's multi-frame
// ReadSeekNextFrame contract and image/gif's own Delay/Disposal model.
type GIF struct{}

func (GIF) ReadFeatures() codec.ReadFeatures {
	return codec.ReadFeatures{
		InputPixelFormats:        []pixelformat.Format{pixelformat.Indexed},
		OutputPixelFormats:       rgba32Only,
		Flags:                    codec.FeatureAnimated | codec.FeatureMultipaged,
		DefaultOutputPixelFormat: pixelformat.RGBA32,
	}
}

func (GIF) WriteFeatures() codec.WriteFeatures {
	return codec.WriteFeatures{
		OutputPixelFormats: rgba32Only,
		Flags:              codec.FeatureAnimated | codec.FeatureMultipaged,
		Compressions:       []codec.CompressionKind{codec.CompressionLZW},
		DefaultCompression: codec.CompressionLZW,
	}
}

type gifReadState struct {
	g       *gif.GIF
	width   int
	height  int
	next    int
	current codec.FrameHeader
	pixels  []byte
	stride  int
}

func (GIF) ReadInit(ctx context.Context, s iostream.Stream, opts codec.ReadOptions) (codec.ReadState, error) {
	data, err := drainAll(s)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.InvalidIo, "gif.readinit", err)
	}
	g, err := gif.DecodeAll(bytesReader(data))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.FileParseError, "gif.readinit", err)
	}
	return &gifReadState{g: g, width: g.Config.Width, height: g.Config.Height}, nil
}

func (GIF) ReadSeekNextFrame(ctx context.Context, st codec.ReadState) (codec.FrameHeader, error) {
	rs := st.(*gifReadState)
	if rs.next >= len(rs.g.Image) {
		return codec.FrameHeader{}, errNoMoreFrames()
	}
	frame := rs.g.Image[rs.next]
	pixels, stride, _, _ := toRGBA32(compositeFrame(frame, rs.width, rs.height))
	rs.pixels = pixels
	rs.stride = stride
	rs.current = codec.FrameHeader{
		Width:       rs.width,
		Height:      rs.height,
		PixelFormat: pixelformat.RGBA32,
		Delay:       rs.g.Delay[rs.next] * 10, // image/gif.Delay is 100ths of a second
		PagesTotal:  len(rs.g.Image),
	}
	rs.next++
	return rs.current, nil
}

// compositeFrame paints a GIF frame (which may be smaller than, and
// offset within, the logical canvas) onto a canvas-sized image so every
// served frame is self-contained RGBA32 at the canvas dimensions.
func compositeFrame(frame *image.Paletted, width, height int) image.Image {
	b := frame.Bounds()
	if b.Min == image.Pt(0, 0) && b.Dx() == width && b.Dy() == height {
		return frame
	}
	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			canvas.Set(x, y, frame.At(x, y))
		}
	}
	return canvas
}

func (GIF) ReadFrame(ctx context.Context, st codec.ReadState, img *codec.Image) error {
	rs := st.(*gifReadState)
	img.Width = rs.current.Width
	img.Height = rs.current.Height
	img.PixelFormat = pixelformat.RGBA32
	img.SourcePixelFormat = pixelformat.Indexed
	img.BytesPerLine = rs.stride
	img.Pixels = rs.pixels
	img.Delay = rs.current.Delay
	img.PagesTotal = rs.current.PagesTotal
	return nil
}

func (GIF) ReadFinish(ctx context.Context, st codec.ReadState) error { return nil }

type gifWriteState struct {
	s      iostream.Stream
	frames []*image.Paletted
	delays []int
}

func (GIF) WriteInit(ctx context.Context, s iostream.Stream, opts codec.WriteOptions) (codec.WriteState, error) {
	return &gifWriteState{s: s}, nil
}

func (GIF) WriteSeekNextFrame(ctx context.Context, st codec.WriteState, img *codec.Image) error {
	return nil // each WriteFrame call appends a new frame; nothing to prepare
}

func (GIF) WriteFrame(ctx context.Context, st codec.WriteState, img *codec.Image) error {
	ws := st.(*gifWriteState)
	if err := img.Validate(); err != nil {
		return err
	}
	rgba := fromRGBA32(img)
	paletted := image.NewPaletted(rgba.Bounds(), palette.Plan9)
	draw.Draw(paletted, paletted.Bounds(), rgba, rgba.Bounds().Min, draw.Src)
	ws.frames = append(ws.frames, paletted)
	delay := img.Delay / 10
	if delay <= 0 {
		delay = 10
	}
	ws.delays = append(ws.delays, delay)
	return nil
}

func (GIF) WriteFinish(ctx context.Context, st codec.WriteState) error {
	ws := st.(*gifWriteState)
	if len(ws.frames) == 0 {
		return apperrors.New(apperrors.InvalidArgument, "gif.writefinish", nil)
	}
	g := &gif.GIF{Image: ws.frames, Delay: ws.delays}
	if err := gif.EncodeAll(streamWriter{ws.s}, g); err != nil {
		return apperrors.Wrap(apperrors.InvalidIo, "gif.writefinish", err)
	}
	return ws.s.Flush()
}

func (GIF) Probe(ctx context.Context, s iostream.Stream) (codec.FrameHeader, bool, error) {
	head, err := iostream.DrainPrefix(s, 6)
	if err != nil {
		return codec.FrameHeader{}, false, err
	}
	if len(head) < 6 || string(head[:3]) != "GIF" {
		return codec.FrameHeader{}, false, nil
	}
	full, err := iostream.DrainPrefix(s, probeHeaderBytes)
	if err != nil {
		return codec.FrameHeader{}, true, err
	}
	cfg, err := gif.DecodeConfig(bytesReader(full))
	if err != nil {
		return codec.FrameHeader{}, true, apperrors.Wrap(apperrors.FileParseError, "gif.probe", err)
	}
	return codec.FrameHeader{Width: cfg.Width, Height: cfg.Height, PixelFormat: pixelformat.RGBA32}, true, nil
}
