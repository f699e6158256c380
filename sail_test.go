package sail

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/sail-img/sail/codec"
	"github.com/sail-img/sail/config"
	apperrors "github.com/sail-img/sail/errors"
	"github.com/sail-img/sail/iostream"
	"github.com/sail-img/sail/pixelformat"
	"github.com/sail-img/sail/session"
)

func writeMetadataFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644); err != nil {
		t.Fatalf("writeMetadataFile: %v", err)
	}
}

func openTestInstance(t *testing.T) *Instance {
	t.Helper()
	dir := t.TempDir()
	writeMetadataFile(t, dir, "jpeg.codec",
		"layout=1\nversion=1.0\ndescription=JPEG\nextensions=jpg;jpeg\nmime-types=image/jpeg\n")
	writeMetadataFile(t, dir, "png.codec",
		"layout=1\nversion=1.0\ndescription=PNG\nextensions=png\nmime-types=image/png\n")

	cfg := config.Default()
	cfg.SearchDirs = []string{dir}

	inst, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(inst.Registry.List()) != 2 {
		t.Fatalf("registry records = %d, want 2", len(inst.Registry.List()))
	}
	return inst
}

func solidRGBA(w, h int) *codec.Image {
	pixels := make([]byte, w*h*4)
	for i := 0; i < len(pixels); i += 4 {
		pixels[i], pixels[i+1], pixels[i+2], pixels[i+3] = 10, 20, 30, 255
	}
	return &codec.Image{Width: w, Height: h, PixelFormat: pixelformat.RGBA32, Pixels: pixels}
}

func TestWriteThenReadRoundTripsJPEG(t *testing.T) {
	inst := openTestInstance(t)
	ctx := context.Background()

	mem := iostream.NewMemoryWriter()
	written, err := inst.Write(ctx, session.Source{Stream: mem}, "jpg", solidRGBA(8, 8), codec.WriteOptions{})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if written <= 0 {
		t.Fatalf("written = %d, want > 0", written)
	}

	img, err := inst.Read(ctx, session.Source{Bytes: mem.Bytes()}, "jpg")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if img.Width != 8 || img.Height != 8 {
		t.Fatalf("dims = %dx%d, want 8x8", img.Width, img.Height)
	}
}

func TestProbeDoesNotConsumeFrame(t *testing.T) {
	inst := openTestInstance(t)
	ctx := context.Background()

	mem := iostream.NewMemoryWriter()
	if _, err := inst.Write(ctx, session.Source{Stream: mem}, "png", solidRGBA(4, 4), codec.WriteOptions{}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	header, rec, err := inst.Probe(ctx, session.Source{Bytes: mem.Bytes()})
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if header.Width != 4 || header.Height != 4 {
		t.Fatalf("header dims = %dx%d, want 4x4", header.Width, header.Height)
	}
	if rec.Description != "PNG" {
		t.Fatalf("record = %+v, want PNG", rec)
	}

	img, err := inst.Read(ctx, session.Source{Bytes: mem.Bytes()}, "png")
	if err != nil {
		t.Fatalf("Read after Probe: %v", err)
	}
	if img.Width != header.Width || img.Height != header.Height {
		t.Fatalf("probe/read mismatch: probe=%dx%d read=%dx%d", header.Width, header.Height, img.Width, img.Height)
	}
}

func TestReadUnknownExtensionFails(t *testing.T) {
	inst := openTestInstance(t)
	_, err := inst.Read(context.Background(), session.Source{Bytes: []byte{0, 1, 2}}, "bogus")
	if !apperrors.IsKind(err, apperrors.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}
