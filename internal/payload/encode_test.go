// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package payload

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"testing"
)

func TestEncodeJSON(t *testing.T) {
	items := Array(
		ObjectValue(NewObject().Set("title", String("One")).Set("order", Number(1))),
		Omit(),
	)
	o := NewObject().
		Set("name", String("Acme")).
		Set("logo", Null()).
		Set("heroBgImage", Omit()).
		Set("order", Number(2.5)).
		Set("active", Bool(true)).
		Set("featuredItems", items)

	body, ct, err := Encode(o)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if ct != ContentTypeJSON {
		t.Errorf("content type = %q, want %q", ct, ContentTypeJSON)
	}

	want := `{"name":"Acme","logo":null,"order":2.5,"active":true,"featuredItems":[{"title":"One","order":1}]}`
	if string(body) != want {
		t.Errorf("body = %s\nwant  %s", body, want)
	}
}

func TestObjectSetOmitRemovesField(t *testing.T) {
	o := NewObject().Set("a", String("x")).Set("b", String("y"))
	o.Set("a", Omit())

	if o.Has("a") {
		t.Error("expected a to be removed")
	}
	if keys := o.Keys(); len(keys) != 1 || keys[0] != "b" {
		t.Errorf("Keys() = %v, want [b]", keys)
	}
}

func TestHasFileRecursive(t *testing.T) {
	f := &File{Name: "a.png", ContentType: "image/png", Data: []byte{1}}
	tests := []struct {
		name string
		obj  *Object
		want bool
	}{
		{"empty", NewObject(), false},
		{"top level", NewObject().Set("img", FileValue(f)), true},
		{"nil file", NewObject().Set("img", FileValue(nil)), false},
		{"nested array", NewObject().Set("items", Array(
			ObjectValue(NewObject().Set("image", FileValue(f))),
		)), true},
		{"strings only", NewObject().Set("items", Array(String("x"))), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.obj.HasFile(); got != tt.want {
				t.Errorf("HasFile() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEncodeMultipartBracketNames(t *testing.T) {
	f := &File{Name: "item.png", ContentType: "image/png", Data: []byte("PNGDATA")}
	o := NewObject().
		Set("name", String("Acme")).
		Set("logo", Null()).
		Set("order", Number(3)).
		Set("featuredItems", Array(
			ObjectValue(NewObject().Set("title", String("First")).Set("image", FileValue(f))),
			ObjectValue(NewObject().Set("title", String("Second")).Set("image", String("https://x/y.png"))),
		))

	body, ct, err := Encode(o)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	mediaType, params, err := mime.ParseMediaType(ct)
	if err != nil {
		t.Fatalf("ParseMediaType: %v", err)
	}
	if mediaType != "multipart/form-data" {
		t.Fatalf("media type = %q", mediaType)
	}

	form, err := multipart.NewReader(bytes.NewReader(body), params["boundary"]).ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("ReadForm: %v", err)
	}

	wantValues := map[string]string{
		"name":                   "Acme",
		"logo":                   "",
		"order":                  "3",
		"featuredItems[0][title]": "First",
		"featuredItems[1][title]": "Second",
		"featuredItems[1][image]": "https://x/y.png",
	}
	for k, want := range wantValues {
		got := form.Value[k]
		if len(got) != 1 || got[0] != want {
			t.Errorf("field %s = %v, want %q", k, got, want)
		}
	}

	files := form.File["featuredItems[0][image]"]
	if len(files) != 1 {
		t.Fatalf("expected one file part, got %d", len(files))
	}
	if files[0].Filename != "item.png" {
		t.Errorf("filename = %q", files[0].Filename)
	}
	if files[0].Header.Get("Content-Type") != "image/png" {
		t.Errorf("part content type = %q", files[0].Header.Get("Content-Type"))
	}
	fh, err := files[0].Open()
	if err != nil {
		t.Fatalf("open part: %v", err)
	}
	defer func() { _ = fh.Close() }()
	data, _ := io.ReadAll(fh)
	if string(data) != "PNGDATA" {
		t.Errorf("file data = %q", data)
	}
}

func TestEncodeJSONRejectsFile(t *testing.T) {
	o := NewObject().Set("img", FileValue(&File{Name: "a"}))
	if _, err := EncodeJSON(o); err == nil {
		t.Error("expected error encoding a file as JSON")
	}
}
