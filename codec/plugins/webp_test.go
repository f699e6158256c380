package plugins

import (
	"context"
	"testing"

	"github.com/sail-img/sail/codec"
	apperrors "github.com/sail-img/sail/errors"
	"github.com/sail-img/sail/iostream"
)

func TestWebPProbeRejectsNonRIFFBytes(t *testing.T) {
	ctx := context.Background()
	var p WebP
	s := iostream.NewMemoryReader([]byte("not a riff container at all"))
	_, claimed, err := p.Probe(ctx, s)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if claimed {
		t.Fatal("expected WebP.Probe to reject non-RIFF bytes")
	}
}

func TestWebPProbeRejectsRIFFWithWrongFourCC(t *testing.T) {
	ctx := context.Background()
	var p WebP
	// Valid RIFF header but not a WEBP payload.
	data := []byte("RIFF\x00\x00\x00\x00AVI ")
	s := iostream.NewMemoryReader(data)
	_, claimed, err := p.Probe(ctx, s)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if claimed {
		t.Fatal("expected WebP.Probe to reject a non-WEBP RIFF container")
	}
}

func TestWebPWriteSideReportsNotYetImplemented(t *testing.T) {
	ctx := context.Background()
	var p WebP

	if _, err := p.WriteInit(ctx, iostream.NewMemoryWriter(), codec.WriteOptions{}); !apperrors.IsKind(err, apperrors.NotYetImplemented) {
		t.Fatalf("WriteInit: expected NotYetImplemented, got %v", err)
	}
	if err := p.WriteSeekNextFrame(ctx, nil, nil); !apperrors.IsKind(err, apperrors.NotYetImplemented) {
		t.Fatalf("WriteSeekNextFrame: expected NotYetImplemented, got %v", err)
	}
	if err := p.WriteFrame(ctx, nil, nil); !apperrors.IsKind(err, apperrors.NotYetImplemented) {
		t.Fatalf("WriteFrame: expected NotYetImplemented, got %v", err)
	}
	if err := p.WriteFinish(ctx, nil); !apperrors.IsKind(err, apperrors.NotYetImplemented) {
		t.Fatalf("WriteFinish: expected NotYetImplemented, got %v", err)
	}
}

func TestWebPWriteFeaturesAdvertisesNoOutputFormats(t *testing.T) {
	var p WebP
	f := p.WriteFeatures()
	if len(f.OutputPixelFormats) != 0 || len(f.Compressions) != 0 {
		t.Fatalf("expected zero-value WriteFeatures, got %+v", f)
	}
}
