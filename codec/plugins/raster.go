// Package plugins holds SAIL's built-in, statically-linked codec.Plugin
// implementations: one file per format, wrapping the standard library
// (image/jpeg, image/png, image/gif), golang.org/x/image (webp, tiff), and
// davidbyttow/govips/v2 (avif) exactly as the teacher's adapters/decoder,
// adapters/encoder, and adapters/vips packages wrap their respective
// backends.
package plugins

import (
	"bytes"
	"image"
	"image/draw"
	"image/png"
	"io"

	"github.com/sail-img/sail/codec"
	apperrors "github.com/sail-img/sail/errors"
	"github.com/sail-img/sail/iostream"
	"github.com/sail-img/sail/pixelformat"
)

// errNoMoreFrames reports that a ReadSeekNextFrame call has exhausted the
// stream's frames (spec §4.7 end-of-input signaling).
func errNoMoreFrames() error {
	return apperrors.New(apperrors.NoMoreFrames, "plugins.readseeknextframe", nil)
}

// errNotYetImplemented reports a write path a backend cannot perform
// (e.g. x/image/webp has no encoder).
func errNotYetImplemented(op string) error {
	return apperrors.New(apperrors.NotYetImplemented, op, nil)
}

// streamReader adapts an iostream.Stream to io.Reader for handoff to
// stdlib/x/image decoders, which all expect io.Reader.
type streamReader struct{ s iostream.Stream }

func (r streamReader) Read(p []byte) (int, error) {
	n, err := r.s.Read(p)
	if err != nil {
		return n, err
	}
	if n == 0 && r.s.EOF() {
		return 0, io.EOF
	}
	return n, nil
}

// streamWriter adapts an iostream.Stream to io.Writer.
type streamWriter struct{ s iostream.Stream }

func (w streamWriter) Write(p []byte) (int, error) { return w.s.Write(p) }

// drainAll reads s to completion and returns the bytes, for codecs (all
// built-in ones) that need the whole encoded image before they can decode
// anything.
func drainAll(s iostream.Stream) ([]byte, error) {
	return io.ReadAll(streamReader{s})
}

// toRGBA32 normalizes any decoded image.Image into RGBA32 raw pixels:
// interleaved R,G,B,A bytes, row-major, stride == width*4. image.RGBA's
// own Pix/Stride layout is already exactly RGBA32, so decoding into an
// image.RGBA via image/draw is sufficient; no third-party resampling is
// involved since source and destination share the same bounds (this is a
// color-model conversion, not a resize — resize is an explicit Non-goal).
func toRGBA32(src image.Image) (pixels []byte, bytesPerLine int, w, h int) {
	b := src.Bounds()
	w, h = b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst.Pix, dst.Stride, w, h
}

// fromRGBA32 builds a stdlib image.Image view over img's pixel buffer
// without copying, for handoff to an encoder.
func fromRGBA32(img *codec.Image) *image.RGBA {
	return &image.RGBA{
		Pix:    img.Pixels,
		Stride: img.EffectiveBytesPerLine(),
		Rect:   image.Rect(0, 0, img.Width, img.Height),
	}
}

// probeHeaderBytes is how much of a stream's head Probe implementations
// drain to decode just the image.Config (dimensions), without pulling the
// whole encoded image into memory. Generous enough for any codec's header
// plus metadata chunks seen in practice (EXIF, ICC, text chunks).
const probeHeaderBytes = 64 * 1024

// rgba32Only is the ReadFeatures/WriteFeatures.OutputPixelFormats
// shared by every stdlib-backed plugin: they all normalize through
// image.RGBA, so RGBA32 is the only pixel format they can hand back to a
// caller (or accept from one) without further conversion support.
var rgba32Only = []pixelformat.Format{pixelformat.RGBA32}

// singleFrameState is the ReadState shared by the jpeg, png, tiff and webp
// codecs (avif keeps its own avifReadState): decode happens once, eagerly, in
// ReadInit, and ReadSeekNextFrame simply reports whether the single frame
// has already been served.
type singleFrameState struct {
	header   codec.FrameHeader
	pixels   []byte
	stride   int
	source   pixelformat.Format
	served   bool
}

func newSingleFrameState(src image.Image, source pixelformat.Format) *singleFrameState {
	pixels, stride, w, h := toRGBA32(src)
	return &singleFrameState{
		header: codec.FrameHeader{
			Width:       w,
			Height:      h,
			PixelFormat: pixelformat.RGBA32,
			PagesTotal:  1,
		},
		pixels: pixels,
		stride: stride,
		source: source,
	}
}

func (st *singleFrameState) seekNext() (codec.FrameHeader, error) {
	if st.served {
		return codec.FrameHeader{}, errNoMoreFrames()
	}
	st.served = true
	return st.header, nil
}

func (st *singleFrameState) readFrame(img *codec.Image) {
	img.Width = st.header.Width
	img.Height = st.header.Height
	img.PixelFormat = pixelformat.RGBA32
	img.SourcePixelFormat = st.source
	img.BytesPerLine = st.stride
	img.Pixels = st.pixels
	img.PagesTotal = 1
}

// bytesReader is a small convenience over bytes.NewReader to keep plugin
// files focused on codec logic rather than plumbing.
func bytesReader(b []byte) *bytes.Reader { return bytes.NewReader(b) }

// decodePNGBytesInto fills img from PNG-encoded data, used by the AVIF
// plugin to bridge libvips' ImageRef (no direct raw-buffer accessor in
// govips' public API) through a lossless intermediate format instead of
// hand-rolling libvips' internal memory layout.
func decodePNGBytesInto(data []byte, img *codec.Image, source pixelformat.Format) error {
	decoded, err := png.Decode(bytesReader(data))
	if err != nil {
		return apperrors.Wrap(apperrors.FileParseError, "plugins.decodepngbytesinto", err)
	}
	pixels, stride, w, h := toRGBA32(decoded)
	img.Width = w
	img.Height = h
	img.PixelFormat = pixelformat.RGBA32
	img.SourcePixelFormat = source
	img.BytesPerLine = stride
	img.Pixels = pixels
	img.PagesTotal = 1
	return nil
}

// encodeRGBA32ToPNGBytes is decodePNGBytesInto's inverse, used by the
// AVIF plugin to hand libvips a lossless source image it can re-encode.
func encodeRGBA32ToPNGBytes(img *codec.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, fromRGBA32(img)); err != nil {
		return nil, apperrors.Wrap(apperrors.InvalidIo, "plugins.encodergba32topngbytes", err)
	}
	return buf.Bytes(), nil
}
