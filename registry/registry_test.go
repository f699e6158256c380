package registry

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/sail-img/sail/errors"
	"github.com/sail-img/sail/iostream"
)

func writeFile(t *testing.T, dir, name, contents string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0o644); err != nil {
		t.Fatalf("writeFile: %v", err)
	}
}

func TestBuildDiscoversCodecsAndResolvesPlugins(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "jpeg.codec", "layout=1\nversion=1.0\ndescription=JPEG\nextensions=jpg;jpeg\nmime-types=image/jpeg\n")
	writeFile(t, dir, "png.codec", "layout=1\nversion=1.0\ndescription=PNG\nextensions=png\nmime-types=image/png\n")

	reg, err := Build([]string{dir}, ".codec")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(reg.List()) != 2 {
		t.Fatalf("records = %d, want 2", len(reg.List()))
	}

	rec, err := reg.ByExtension("JPG")
	if err != nil {
		t.Fatalf("ByExtension: %v", err)
	}
	if rec.Description != "JPEG" {
		t.Fatalf("rec.Description = %q, want JPEG", rec.Description)
	}

	if _, err := reg.ByMime("image/png"); err != nil {
		t.Fatalf("ByMime: %v", err)
	}

	if _, err := reg.ByExtension("bogus"); !apperrors.IsKind(err, apperrors.NotFound) {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestBuildSkipsUnparsableFilesWithoutFailing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.codec", "version=1.0\nlayout=1\n") // layout not first key
	writeFile(t, dir, "jpeg.codec", "layout=1\nversion=1.0\ndescription=JPEG\nextensions=jpg\nmime-types=image/jpeg\n")

	reg, err := Build([]string{dir}, ".codec")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(reg.List()) != 1 {
		t.Fatalf("records = %d, want 1 (broken.codec must be skipped)", len(reg.List()))
	}
}

func TestBuildFirstDuplicateExtensionWins(t *testing.T) {
	dir := t.TempDir()
	// "jpeg.codec" sorts before "png.codec"; jpeg's claim on "jpg" must
	// win, and png must still be reachable by MIME (spec §4.4 step 5).
	// Both basenames must match a built-in plugin for DefaultPluginLoader
	// to resolve them.
	writeFile(t, dir, "jpeg.codec", "layout=1\nversion=1.0\ndescription=Alpha\nextensions=jpg\nmime-types=image/alpha\n")
	writeFile(t, dir, "png.codec", "layout=1\nversion=1.0\ndescription=Bravo\nextensions=jpg\nmime-types=image/bravo\n")

	reg, err := Build([]string{dir}, ".codec")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	rec, err := reg.ByExtension("jpg")
	if err != nil {
		t.Fatalf("ByExtension: %v", err)
	}
	if rec.Description != "Alpha" {
		t.Fatalf("ByExtension(jpg) resolved to %q, want Alpha (first wins)", rec.Description)
	}

	byMime, err := reg.ByMime("image/bravo")
	if err != nil {
		t.Fatalf("ByMime(image/bravo): %v", err)
	}
	if byMime.Description != "Bravo" {
		t.Fatalf("ByMime(image/bravo) resolved to %q, want Bravo", byMime.Description)
	}
}

func TestBuildMissingSearchDirIsNotFatal(t *testing.T) {
	reg, err := Build([]string{"/does/not/exist"}, ".codec")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(reg.List()) != 0 {
		t.Fatalf("records = %d, want 0", len(reg.List()))
	}
}

func TestByMagicRestoresStreamPosition(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "png.codec", "layout=1\nversion=1.0\ndescription=PNG\nextensions=png\nmime-types=image/png\n")
	reg, err := Build([]string{dir}, ".codec")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	s := iostream.NewMemoryReader(buf.Bytes())
	_, _, err = reg.ByMagic(context.Background(), s)
	if err != nil {
		t.Fatalf("ByMagic: %v", err)
	}
	pos, _ := s.Tell()
	if pos != 0 {
		t.Fatalf("stream position after ByMagic = %d, want 0", pos)
	}
}
