package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Fingerprint identifies a file by content and flags low-value captures.
type Fingerprint struct {
	Hash         string
	Size         int64
	IsScreenshot bool
}

// Filename terms that mark device captures regardless of content.
var screenshotTerms = []string{"screenshot", "screen shot", "snip", "capture"}

// Common device screen resolutions; a PNG at exactly one of these sizes is
// almost always a capture rather than a camera photo.
var screenResolutions = map[[2]int]struct{}{
	{1170, 2532}: {}, {1179, 2556}: {}, {1290, 2796}: {}, {1284, 2778}: {},
	{1080, 2400}: {}, {1440, 3120}: {}, {750, 1334}: {}, {828, 1792}: {},
	{1920, 1080}: {}, {2560, 1440}: {}, {3840, 2160}: {}, {1366, 768}: {},
	{2560, 1600}: {}, {2880, 1800}: {}, {3024, 1964}: {}, {3456, 2234}: {},
}

// Compute hashes the file's bytes and applies the screenshot heuristic.
// The hash is stable across renames and moves; any byte change alters it.
func Compute(path string) (Fingerprint, error) {
	file, err := os.Open(path)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	hasher := sha256.New()
	size, err := io.Copy(hasher, file)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("hash %s: %w", path, err)
	}

	return Fingerprint{
		Hash:         hex.EncodeToString(hasher.Sum(nil)),
		Size:         size,
		IsScreenshot: looksLikeScreenshot(path),
	}, nil
}

// looksLikeScreenshot is a best-effort predicate; false positives and
// negatives are acceptable and never block processing.
func looksLikeScreenshot(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, term := range screenshotTerms {
		if strings.Contains(name, term) {
			return true
		}
	}
	if strings.HasSuffix(name, ".png") {
		if w, h, ok := imageDimensions(path); ok {
			if _, match := screenResolutions[[2]int{w, h}]; match {
				return true
			}
			if _, match := screenResolutions[[2]int{h, w}]; match {
				return true
			}
		}
	}
	return false
}

func imageDimensions(path string) (int, int, bool) {
	file, err := os.Open(path)
	if err != nil {
		return 0, 0, false
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}
