package image

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func TestToGray(t *testing.T) {
	rgba := image.NewRGBA(image.Rect(10, 20, 14, 22))
	rgba.Set(10, 20, color.RGBA{255, 255, 255, 255})
	rgba.Set(13, 21, color.RGBA{0, 0, 0, 255})

	gray := ToGray(rgba)
	if gray.Bounds() != image.Rect(0, 0, 4, 2) {
		t.Fatalf("Bounds() = %v, want origin-anchored 4x2", gray.Bounds())
	}
	if got := gray.GrayAt(0, 0).Y; got != 255 {
		t.Errorf("GrayAt(0,0) = %d, want 255", got)
	}
	if got := gray.GrayAt(3, 1).Y; got != 0 {
		t.Errorf("GrayAt(3,1) = %d, want 0", got)
	}

	g := image.NewGray(image.Rect(0, 0, 2, 2))
	if ToGray(g) != g {
		t.Error("ToGray() copied an origin-anchored gray image")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	img := image.NewGray(image.Rect(0, 0, 3, 2))
	img.SetGray(1, 1, color.Gray{Y: 42})

	path := filepath.Join(dir, "page.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	gray, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if gray.Bounds() != img.Bounds() || gray.GrayAt(1, 1).Y != 42 {
		t.Errorf("Load() = %v with (1,1)=%d, want 3x2 with 42", gray.Bounds(), gray.GrayAt(1, 1).Y)
	}

	notes := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(notes, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(notes); err == nil {
		t.Error("Load() of a text file should fail")
	}
	if _, err := Load(filepath.Join(dir, "missing.png")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(missing) error = %v, want ErrNotExist", err)
	}
}

func TestIsSupportedFormat(t *testing.T) {
	for path, want := range map[string]bool{
		"page.PNG":  true,
		"page.tif":  true,
		"page.jpeg": true,
		"page.xml":  false,
		"page":      false,
	} {
		if got := IsSupportedFormat(path); got != want {
			t.Errorf("IsSupportedFormat(%q) = %v, want %v", path, got, want)
		}
	}
}
