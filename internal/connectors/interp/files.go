package interp

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/disintegration/imaging"
)

const (
	// ResultsDir receives screenshots, relative to the project root.
	ResultsDir = "test-results"
	// MaxScreenshotWidth bounds saved element screenshots.
	MaxScreenshotWidth = 1280
)

var nonWord = regexp.MustCompile(`\W+`)

// ScreenshotPath names a screenshot file under the project's ResultsDir. The
// browser target is part of the name so parallel runs of one case on several
// targets never share a file.
func ScreenshotPath(projectDir, suite, caseName, target, label, ext string) string {
	parts := []string{suite}
	if caseName != "" {
		parts = append(parts, caseName)
	}
	if target != "" {
		parts = append(parts, target)
	}
	parts = append(parts, label)
	for i, p := range parts {
		parts[i] = strings.Trim(nonWord.ReplaceAllString(strings.ToLower(p), "_"), "_")
	}
	return filepath.Join(projectDir, ResultsDir, strings.Join(parts, "-")+ext)
}

// SaveScreenshot writes an image to path, downscaling anything wider than
// MaxScreenshotWidth. It returns the saved width.
func SaveScreenshot(data []byte, path string) (int, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("decode screenshot: %w", err)
	}
	if img.Bounds().Dx() > MaxScreenshotWidth {
		img = imaging.Resize(img, MaxScreenshotWidth, 0, imaging.Lanczos)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, err
	}
	if err := imaging.Save(img, path); err != nil {
		return 0, fmt.Errorf("save screenshot: %w", err)
	}
	return img.Bounds().Dx(), nil
}

// WriteFile writes raw capture data to path, creating its directory.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ResolveURL resolves a goto target against the project base URL the way the
// Playwright baseURL option does.
func ResolveURL(base, raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", raw, err)
	}
	if base == "" || u.IsAbs() {
		return raw, nil
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url %q: %w", base, err)
	}
	return b.ResolveReference(u).String(), nil
}
