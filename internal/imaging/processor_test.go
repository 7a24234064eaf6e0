// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// createTestImage creates a simple test image with the given dimensions.
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func TestThumbnailFitsBounds(t *testing.T) {
	p := NewProcessor(100, 50)
	res, err := p.Thumbnail(encodePNG(t, createTestImage(400, 100)))
	if err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}
	if res.Width != 100 || res.Height != 25 {
		t.Errorf("size = %dx%d, want 100x25", res.Width, res.Height)
	}
	if res.MimeType != MimeTypePNG {
		t.Errorf("mime = %q, want %q", res.MimeType, MimeTypePNG)
	}
	if DetectMimeType(res.Data) != MimeTypePNG {
		t.Error("thumbnail data is not PNG")
	}
}

func TestThumbnailSmallImageUnscaled(t *testing.T) {
	p := NewProcessor(0, 0)
	res, err := p.Thumbnail(encodePNG(t, createTestImage(20, 10)))
	if err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}
	if res.Width != 20 || res.Height != 10 {
		t.Errorf("size = %dx%d, want 20x10", res.Width, res.Height)
	}
}

func TestThumbnailRejectsNonImage(t *testing.T) {
	p := NewProcessor(10, 10)
	_, err := p.Thumbnail([]byte("%PDF-1.4 not an image"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestIsImage(t *testing.T) {
	tests := []struct {
		mimeType string
		want     bool
	}{
		{MimeTypeJPEG, true},
		{MimeTypePNG, true},
		{MimeTypeGIF, true},
		{MimeTypeWebP, true},
		{"application/pdf", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.mimeType, func(t *testing.T) {
			if got := IsImage(tt.mimeType); got != tt.want {
				t.Errorf("IsImage(%q) = %v, want %v", tt.mimeType, got, tt.want)
			}
		})
	}
}

func TestApplyOrientation(t *testing.T) {
	tests := []struct {
		orientation   int
		width, height int
	}{
		{1, 10, 20},
		{3, 10, 20},
		{6, 20, 10},
		{8, 20, 10},
	}
	for _, tt := range tests {
		img := applyOrientation(createTestImage(10, 20), tt.orientation)
		b := img.Bounds()
		if b.Dx() != tt.width || b.Dy() != tt.height {
			t.Errorf("orientation %d: size = %dx%d, want %dx%d",
				tt.orientation, b.Dx(), b.Dy(), tt.width, tt.height)
		}
	}
}
