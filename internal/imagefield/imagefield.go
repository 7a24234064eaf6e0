// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imagefield holds the keep/file/url/clear state of one image-valued
// form field and turns it into a payload value.
package imagefield

import (
	"context"
	"strings"

	"github.com/olegiv/mediasite-go/internal/payload"
)

// Mode is the active selection of an image field.
type Mode string

// Image field modes.
const (
	ModeKeep  Mode = "keep"
	ModeFile  Mode = "file"
	ModeURL   Mode = "url"
	ModeClear Mode = "clear"
)

// DisplayThreshold is the URL length above which DisplayURL shows
// DisplayPlaceholder instead of the raw value.
const DisplayThreshold = 200

// DisplayPlaceholder is shown for URLs longer than DisplayThreshold.
const DisplayPlaceholder = "[embedded image data]"

// PreviewStore creates and releases local preview references for staged files.
type PreviewStore interface {
	Create(ctx context.Context, f *payload.File) (string, error)
	Release(ctx context.Context, ref string)
}

// Controller is the state of a single image field. It is not safe for
// concurrent use; callers serialize access per form.
type Controller struct {
	existing string
	mode     Mode
	file     *payload.File
	url      string
	preview  string
	previews PreviewStore
}

// New creates a controller seeded from an existing URL. previews may be nil.
func New(existingURL string, previews PreviewStore) *Controller {
	c := &Controller{previews: previews}
	c.seed(existingURL)
	return c
}

func (c *Controller) seed(existingURL string) {
	c.existing = existingURL
	c.file = nil
	c.url = ""
	if existingURL != "" {
		c.mode = ModeKeep
	} else {
		c.mode = ModeFile
	}
}

// Reset re-seeds the controller for a newly loaded record and releases any
// live preview.
func (c *Controller) Reset(ctx context.Context, existingURL string) {
	c.releasePreview(ctx)
	c.seed(existingURL)
}

// Mode returns the active mode.
func (c *Controller) Mode() Mode { return c.mode }

// Existing returns the URL the controller was seeded with.
func (c *Controller) Existing() string { return c.existing }

// File returns the staged file, if any.
func (c *Controller) File() *payload.File { return c.file }

// URL returns the in-progress URL value.
func (c *Controller) URL() string { return c.url }

// PreviewRef returns the live preview reference, or "".
func (c *Controller) PreviewRef() string { return c.preview }

// SetKeep selects the existing image.
func (c *Controller) SetKeep() { c.mode = ModeKeep }

// SetFile selects upload mode without changing the staged file.
func (c *Controller) SetFile() { c.mode = ModeFile }

// SetURL selects url mode with the given value.
func (c *Controller) SetURL(s string) {
	c.mode = ModeURL
	c.url = s
}

// SetClear selects clear mode and discards any staged file or URL.
func (c *Controller) SetClear(ctx context.Context) {
	c.releasePreview(ctx)
	c.mode = ModeClear
	c.file = nil
	c.url = ""
}

// OnFile stages f for upload in file mode. The previous preview is released
// and a new one is created for f; preview failures leave no preview.
func (c *Controller) OnFile(ctx context.Context, f *payload.File) {
	c.releasePreview(ctx)
	c.mode = ModeFile
	c.file = f
	if f == nil || c.previews == nil {
		return
	}
	if ref, err := c.previews.Create(ctx, f); err == nil {
		c.preview = ref
	}
}

// ToPayload returns the value to send for a top-level field: Omit in keep
// mode, the staged file (or Omit) in file mode, the trimmed URL or Null in
// url mode and Null in clear mode.
func (c *Controller) ToPayload() payload.Value {
	switch c.mode {
	case ModeKeep:
		return payload.Omit()
	case ModeFile:
		return payload.FileValue(c.file)
	case ModeURL:
		if u := strings.TrimSpace(c.url); u != "" {
			return payload.String(u)
		}
		return payload.Null()
	default:
		return payload.Null()
	}
}

// RowValue is ToPayload for repeated sub-records, which the backend replaces
// as a whole: keep mode sends the existing URL so the image survives.
func (c *Controller) RowValue() payload.Value {
	if c.mode == ModeKeep {
		if c.existing == "" {
			return payload.Omit()
		}
		return payload.String(c.existing)
	}
	return c.ToPayload()
}

// Empty reports whether the field contributes no image to a row.
func (c *Controller) Empty() bool {
	v := c.RowValue()
	return v.IsOmit() || v.IsNull()
}

// DisplayURL returns the URL to show in the form input.
func (c *Controller) DisplayURL() string {
	u := c.existing
	if c.mode == ModeURL {
		u = c.url
	}
	if len(u) > DisplayThreshold {
		return DisplayPlaceholder
	}
	return u
}

// Clone deep-copies the controller. A staged file gets its own preview.
func (c *Controller) Clone(ctx context.Context) *Controller {
	out := &Controller{
		existing: c.existing,
		mode:     c.mode,
		url:      c.url,
		previews: c.previews,
	}
	if c.file != nil {
		f := *c.file
		f.Data = append([]byte(nil), c.file.Data...)
		out.file = &f
		if c.preview != "" && c.previews != nil {
			if ref, err := c.previews.Create(ctx, out.file); err == nil {
				out.preview = ref
			}
		}
	}
	return out
}

// Close releases the live preview reference.
func (c *Controller) Close(ctx context.Context) {
	c.releasePreview(ctx)
}

func (c *Controller) releasePreview(ctx context.Context) {
	if c.preview != "" && c.previews != nil {
		c.previews.Release(ctx, c.preview)
	}
	c.preview = ""
}
