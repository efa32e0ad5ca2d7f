package similarity

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Threshold is the score at or above which an attachment counts as a match
// for a blocklisted image.
const Threshold = 0.4

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".tiff": true, ".webp": true,
}

// BestAgainstFolder scores target against every image in folder and returns
// the best score with the matching reference path. A missing or empty
// folder yields (0, "").
func BestAgainstFolder(targetPath, folder string) (float64, string, error) {
	target, err := loadImage(targetPath)
	if err != nil {
		return 0, "", fmt.Errorf("loading target image: %w", err)
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, "", nil
		}
		return 0, "", fmt.Errorf("reading blocklist folder: %w", err)
	}

	best := 0.0
	bestPath := ""
	for _, e := range entries {
		if e.IsDir() || !imageExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		refPath := filepath.Join(folder, e.Name())
		ref, err := loadImage(refPath)
		if err != nil {
			slog.Debug("similarity: skipping unreadable reference", "path", refPath, "error", err)
			continue
		}
		if score := SSIM(target, ref); score > best {
			best = score
			bestPath = refPath
		}
	}
	return best, bestPath, nil
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return img, nil
}
