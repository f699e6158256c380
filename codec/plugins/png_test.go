package plugins

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/sail-img/sail/codec"
	apperrors "github.com/sail-img/sail/errors"
	"github.com/sail-img/sail/iostream"
)

func encodeTestPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 1, G: 2, B: 3, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestPNGReadRoundTrip(t *testing.T) {
	data := encodeTestPNG(t, 5, 3)
	ctx := context.Background()
	var p PNG

	st, err := p.ReadInit(ctx, iostream.NewMemoryReader(data), codec.ReadOptions{})
	if err != nil {
		t.Fatalf("ReadInit: %v", err)
	}
	hdr, err := p.ReadSeekNextFrame(ctx, st)
	if err != nil {
		t.Fatalf("ReadSeekNextFrame: %v", err)
	}
	if hdr.Width != 5 || hdr.Height != 3 {
		t.Fatalf("header dims = %dx%d, want 5x3", hdr.Width, hdr.Height)
	}

	var img codec.Image
	if err := p.ReadFrame(ctx, st, &img); err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if img.Pixels[0] != 1 || img.Pixels[1] != 2 || img.Pixels[2] != 3 {
		t.Fatalf("first pixel = %v, want [1 2 3 255]", img.Pixels[:4])
	}
}

func TestPNGWriteThenDecodeWithStdlib(t *testing.T) {
	ctx := context.Background()
	var p PNG
	img := &codec.Image{Width: 3, Height: 3, PixelFormat: rgba32Only[0], Pixels: make([]byte, 3*3*4)}

	mem := iostream.NewMemoryWriter()
	ws, err := p.WriteInit(ctx, mem, codec.WriteOptions{})
	if err != nil {
		t.Fatalf("WriteInit: %v", err)
	}
	if err := p.WriteFrame(ctx, ws, img); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if err := p.WriteFinish(ctx, ws); err != nil {
		t.Fatalf("WriteFinish: %v", err)
	}

	decoded, err := png.Decode(bytes.NewReader(mem.Bytes()))
	if err != nil {
		t.Fatalf("produced bytes are not a valid PNG: %v", err)
	}
	if decoded.Bounds().Dx() != 3 || decoded.Bounds().Dy() != 3 {
		t.Fatalf("decoded dims = %v, want 3x3", decoded.Bounds())
	}
}

func TestPNGWriteRejectsInvalidImage(t *testing.T) {
	ctx := context.Background()
	var p PNG
	img := &codec.Image{Width: 0, Height: 0}

	mem := iostream.NewMemoryWriter()
	ws, _ := p.WriteInit(ctx, mem, codec.WriteOptions{})
	if err := p.WriteFrame(ctx, ws, img); !apperrors.IsKind(err, apperrors.IncorrectImageDimensions) {
		t.Fatalf("expected IncorrectImageDimensions, got %v", err)
	}
}

func TestPNGProbeRestoresStreamPosition(t *testing.T) {
	data := encodeTestPNG(t, 2, 2)
	ctx := context.Background()
	var p PNG

	s := iostream.NewMemoryReader(data)
	_, claimed, err := p.Probe(ctx, s)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if !claimed {
		t.Fatal("expected PNG.Probe to claim a real PNG stream")
	}
	pos, _ := s.Tell()
	if pos != 0 {
		t.Fatalf("stream position after Probe = %d, want 0", pos)
	}

	// the stream must still be fully readable after Probe
	st, err := p.ReadInit(ctx, s, codec.ReadOptions{})
	if err != nil {
		t.Fatalf("ReadInit after Probe: %v", err)
	}
	if _, err := p.ReadSeekNextFrame(ctx, st); err != nil {
		t.Fatalf("ReadSeekNextFrame after Probe: %v", err)
	}
}
