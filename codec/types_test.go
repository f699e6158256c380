package codec

import (
	"testing"

	apperrors "github.com/sail-img/sail/errors"
	"github.com/sail-img/sail/pixelformat"
)

func TestLevelRangeTuningDisabled(t *testing.T) {
	l := LevelRange{}
	if !l.TuningDisabled() {
		t.Fatal("zero LevelRange must disable tuning")
	}
	if !l.InRange(999) {
		t.Fatal("any level must be accepted when tuning is disabled")
	}
}

func TestLevelRangeDegenerateSingleValue(t *testing.T) {
	l := LevelRange{Min: 5, Max: 5, Default: 5}
	if l.TuningDisabled() {
		t.Fatal("nonzero Min==Max must not disable tuning")
	}
	if !l.InRange(5) {
		t.Fatal("5 must be in range")
	}
	if l.InRange(4) || l.InRange(6) {
		t.Fatal("only 5 should be accepted")
	}
}

func TestWriteOptionsValidateUnsupportedPixelFormat(t *testing.T) {
	f := WriteFeatures{
		OutputPixelFormats: []pixelformat.Format{pixelformat.RGB24},
		Compressions:        []CompressionKind{CompressionNone},
		DefaultCompression:  CompressionNone,
	}
	o := WriteOptions{OutputPixelFormat: pixelformat.RGBA32, Compression: CompressionNone}
	err := o.Validate(f)
	if !apperrors.IsKind(err, apperrors.UnsupportedPixelFormat) {
		t.Fatalf("expected UnsupportedPixelFormat, got %v", err)
	}
}

func TestWriteOptionsValidateUnsupportedCompression(t *testing.T) {
	f := WriteFeatures{
		OutputPixelFormats: []pixelformat.Format{pixelformat.RGB24},
		Compressions:        []CompressionKind{CompressionNone},
	}
	o := WriteOptions{OutputPixelFormat: pixelformat.RGB24, Compression: CompressionDeflate}
	err := o.Validate(f)
	if !apperrors.IsKind(err, apperrors.UnsupportedCompression) {
		t.Fatalf("expected UnsupportedCompression, got %v", err)
	}
}

func TestWriteOptionsValidateLevelOutOfRange(t *testing.T) {
	f := WriteFeatures{
		OutputPixelFormats: []pixelformat.Format{pixelformat.RGB24},
		Compressions:        []CompressionKind{CompressionDeflate},
		CompressionLevel:    LevelRange{Min: 1, Max: 9, Default: 6},
	}
	o := WriteOptions{OutputPixelFormat: pixelformat.RGB24, Compression: CompressionDeflate, CompressionLevel: 20}
	err := o.Validate(f)
	if !apperrors.IsKind(err, apperrors.InvalidArgument) {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestWriteOptionsValidateIgnoresLevelWithMoreThanTwoCompressions(t *testing.T) {
	f := WriteFeatures{
		OutputPixelFormats: []pixelformat.Format{pixelformat.RGB24},
		Compressions:       []CompressionKind{CompressionNone, CompressionDeflate, CompressionPackBits},
		CompressionLevel:   LevelRange{Min: 1, Max: 9, Default: 6},
	}
	if !f.LevelsIgnored() {
		t.Fatal("LevelsIgnored() = false, want true for 3 compressions")
	}
	o := WriteOptions{OutputPixelFormat: pixelformat.RGB24, Compression: CompressionDeflate, CompressionLevel: 999}
	if err := o.Validate(f); err != nil {
		t.Fatalf("out-of-range level must be accepted when >2 compressions are offered, got %v", err)
	}
}

func TestReadOptionsValidateUnsupportedOutput(t *testing.T) {
	f := ReadFeatures{OutputPixelFormats: []pixelformat.Format{pixelformat.RGB24}}
	o := ReadOptions{OutputPixelFormat: pixelformat.RGBA32}
	err := o.Validate(f)
	if !apperrors.IsKind(err, apperrors.UnsupportedPixelFormat) {
		t.Fatalf("expected UnsupportedPixelFormat, got %v", err)
	}
}

func TestDefaultOptionsDeriveFromFeatures(t *testing.T) {
	rf := ReadFeatures{
		DefaultOutputPixelFormat: pixelformat.RGBA32,
		Flags:                    FeatureMetaInfo | FeatureICCProfile,
	}
	ro := rf.DefaultReadOptions()
	if ro.OutputPixelFormat != pixelformat.RGBA32 || !ro.MetaInfoEnabled || !ro.ICCProfileEnabled {
		t.Fatalf("unexpected defaults: %+v", ro)
	}

	wf := WriteFeatures{
		OutputPixelFormats: []pixelformat.Format{pixelformat.RGB24},
		DefaultCompression:  CompressionDeflate,
		CompressionLevel:    LevelRange{Default: 6},
	}
	wo := wf.DefaultWriteOptions()
	if wo.OutputPixelFormat != pixelformat.RGB24 || wo.Compression != CompressionDeflate || wo.CompressionLevel != 6 {
		t.Fatalf("unexpected defaults: %+v", wo)
	}
}

func TestMetadataOrderedKeys(t *testing.T) {
	var m Metadata
	m.Set("Author", "Ada")
	m.Set("Comment", "hello")
	m.Set("Author", "Ada Lovelace")

	if got := m.Keys(); len(got) != 2 || got[0] != "Author" || got[1] != "Comment" {
		t.Fatalf("Keys() = %v", got)
	}
	if v, ok := m.Get("Author"); !ok || v != "Ada Lovelace" {
		t.Fatalf("Get(Author) = %q, %v", v, ok)
	}
	if m.Len() != 2 {
		t.Fatalf("Len() = %d", m.Len())
	}
}

func TestImageValidateDimensions(t *testing.T) {
	img := &Image{Width: 0, Height: 10, PixelFormat: pixelformat.RGB24}
	if err := img.Validate(); !apperrors.IsKind(err, apperrors.IncorrectImageDimensions) {
		t.Fatalf("expected IncorrectImageDimensions, got %v", err)
	}
}

func TestImageValidateRequiresPalette(t *testing.T) {
	img := &Image{Width: 4, Height: 4, PixelFormat: pixelformat.Indexed}
	if err := img.Validate(); !apperrors.IsKind(err, apperrors.InvalidArgument) {
		t.Fatalf("expected InvalidArgument for missing palette, got %v", err)
	}
	img.Palette = &Palette{Format: pixelformat.RGB24, Count: 2, Entries: []byte{0, 0, 0, 255, 255, 255}}
	if err := img.Validate(); err != nil {
		t.Fatalf("unexpected error with populated palette: %v", err)
	}
}

func TestRecordExtensionAndMimeLookupCaseInsensitive(t *testing.T) {
	r := &Record{Extensions: []string{"jpg", "jpeg"}, MimeTypes: []string{"image/jpeg"}}
	for _, ext := range []string{"JPG", "jpg", ".Jpg", ".JPEG"} {
		if !r.HasExtension(ext) {
			t.Errorf("HasExtension(%q) = false, want true", ext)
		}
	}
	if r.HasExtension("png") {
		t.Error("HasExtension(png) = true, want false")
	}
	if !r.HasMime("IMAGE/JPEG") {
		t.Error("HasMime should be case-insensitive")
	}
}
