package plugins

import (
	"image"
	"image/color"
	"testing"

	"github.com/sail-img/sail/codec"
	apperrors "github.com/sail-img/sail/errors"
	"github.com/sail-img/sail/pixelformat"
)

func TestToRGBA32PreservesPixelValues(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 2))
	src.Set(0, 0, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	src.Set(1, 1, color.RGBA{R: 40, G: 50, B: 60, A: 128})

	pixels, stride, w, h := toRGBA32(src)
	if w != 2 || h != 2 {
		t.Fatalf("dims = %dx%d, want 2x2", w, h)
	}
	if stride != 8 {
		t.Fatalf("stride = %d, want 8", stride)
	}
	if pixels[0] != 10 || pixels[1] != 20 || pixels[2] != 30 || pixels[3] != 255 {
		t.Fatalf("pixel(0,0) = %v, want [10 20 30 255]", pixels[0:4])
	}
}

func TestFromRGBA32IsAZeroCopyView(t *testing.T) {
	img := &codec.Image{Width: 2, Height: 1, Pixels: []byte{1, 2, 3, 4, 5, 6, 7, 8}}
	view := fromRGBA32(img)
	view.Pix[0] = 99
	if img.Pixels[0] != 99 {
		t.Fatal("fromRGBA32 must alias the Image's pixel buffer, not copy it")
	}
}

func TestSingleFrameStateServesExactlyOneFrame(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 3))
	st := newSingleFrameState(src, pixelformat.RGB24)

	hdr, err := st.seekNext()
	if err != nil {
		t.Fatalf("seekNext: %v", err)
	}
	if hdr.Width != 3 || hdr.Height != 3 {
		t.Fatalf("header dims = %dx%d, want 3x3", hdr.Width, hdr.Height)
	}

	var img codec.Image
	st.readFrame(&img)
	if img.SourcePixelFormat != pixelformat.RGB24 {
		t.Fatalf("SourcePixelFormat = %v, want RGB24", img.SourcePixelFormat)
	}

	if _, err := st.seekNext(); !apperrors.IsKind(err, apperrors.NoMoreFrames) {
		t.Fatalf("expected NoMoreFrames on second seekNext, got %v", err)
	}
}

func TestEncodeDecodePNGBytesRoundTrip(t *testing.T) {
	img := &codec.Image{Width: 2, Height: 2, PixelFormat: pixelformat.RGBA32, Pixels: []byte{
		1, 2, 3, 255, 4, 5, 6, 255,
		7, 8, 9, 255, 10, 11, 12, 255,
	}}
	data, err := encodeRGBA32ToPNGBytes(img)
	if err != nil {
		t.Fatalf("encodeRGBA32ToPNGBytes: %v", err)
	}

	var decoded codec.Image
	if err := decodePNGBytesInto(data, &decoded, pixelformat.RGBA32); err != nil {
		t.Fatalf("decodePNGBytesInto: %v", err)
	}
	if decoded.Width != 2 || decoded.Height != 2 {
		t.Fatalf("decoded dims = %dx%d, want 2x2", decoded.Width, decoded.Height)
	}
	if decoded.Pixels[0] != 1 || decoded.Pixels[4] != 4 {
		t.Fatalf("decoded pixels = %v, want round-tripped values", decoded.Pixels)
	}
}
