package similarity

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func solidImage(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func stripedImage(w, h, period int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x/period)%2 == 0 {
				img.Set(x, y, color.White)
			} else {
				img.Set(x, y, color.Black)
			}
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestSSIMIdentical(t *testing.T) {
	img := stripedImage(64, 64, 8)
	if got := SSIM(img, img); got < 0.99 {
		t.Errorf("SSIM(img, img) = %f, want ~1", got)
	}
}

func TestSSIMDissimilar(t *testing.T) {
	a := solidImage(64, 64, color.White)
	b := solidImage(64, 64, color.Black)
	if got := SSIM(a, b); got >= Threshold {
		t.Errorf("SSIM(white, black) = %f, want below threshold %f", got, Threshold)
	}
}

func TestSSIMScaleInvariant(t *testing.T) {
	// The same pattern at two sizes still has to score as a near match.
	a := stripedImage(64, 64, 8)
	b := stripedImage(128, 128, 16)
	if got := SSIM(a, b); got < Threshold {
		t.Errorf("SSIM(same pattern, two sizes) = %f, want >= %f", got, Threshold)
	}
}

func TestBestAgainstFolder(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "match.png"), stripedImage(64, 64, 8))
	writePNG(t, filepath.Join(dir, "other.png"), solidImage(64, 64, color.White))
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o644)

	targetPath := filepath.Join(t.TempDir(), "target.png")
	writePNG(t, targetPath, stripedImage(64, 64, 8))

	score, ref, err := BestAgainstFolder(targetPath, dir)
	if err != nil {
		t.Fatalf("BestAgainstFolder: %v", err)
	}
	if filepath.Base(ref) != "match.png" {
		t.Errorf("best ref = %q, want match.png (score %f)", ref, score)
	}
	if score < Threshold {
		t.Errorf("score = %f, want >= %f", score, Threshold)
	}
}

func TestBestAgainstMissingFolder(t *testing.T) {
	targetPath := filepath.Join(t.TempDir(), "target.png")
	writePNG(t, targetPath, solidImage(8, 8, color.White))

	score, ref, err := BestAgainstFolder(targetPath, filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("missing folder must not error: %v", err)
	}
	if score != 0 || ref != "" {
		t.Errorf("got %f/%q, want 0/\"\"", score, ref)
	}
}

func TestEdgeDensity(t *testing.T) {
	flat := solidImage(256, 256, color.White)
	if d := EdgeDensity(flat); d != 0 {
		t.Errorf("EdgeDensity(solid) = %f, want 0", d)
	}
	busy := stripedImage(256, 256, 4)
	if d := EdgeDensity(busy); d <= edgeDensityThreshold {
		t.Errorf("EdgeDensity(stripes) = %f, want above %f", d, edgeDensityThreshold)
	}
	if !TextLikely(busy) || TextLikely(flat) {
		t.Error("TextLikely gate inverted")
	}
}
