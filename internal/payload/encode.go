// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"mime"
	"mime/multipart"
	"net/textproto"
	"strconv"
)

// Content types produced by Encode.
const (
	ContentTypeJSON = "application/json"
)

// Encode serializes an object as JSON when it holds no files, or as
// multipart/form-data otherwise. It returns the body and its content type.
func Encode(o *Object) ([]byte, string, error) {
	if o.HasFile() {
		return EncodeMultipart(o)
	}
	body, err := EncodeJSON(o)
	if err != nil {
		return nil, "", err
	}
	return body, ContentTypeJSON, nil
}

// EncodeJSON renders the object with fields in insertion order.
func EncodeJSON(o *Object) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSONObject(&buf, o); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalJSON implements json.Marshaler.
func (o *Object) MarshalJSON() ([]byte, error) {
	return EncodeJSON(o)
}

func writeJSONObject(buf *bytes.Buffer, o *Object) error {
	buf.WriteByte('{')
	if o != nil {
		for i, k := range o.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, _ := json.Marshal(k)
			buf.Write(kb)
			buf.WriteByte(':')
			if err := writeJSONValue(buf, o.vals[k]); err != nil {
				return fmt.Errorf("field %q: %w", k, err)
			}
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeJSONValue(buf *bytes.Buffer, v Value) error {
	switch v.kind {
	case KindNull, KindOmit:
		buf.WriteString("null")
	case KindString:
		sb, _ := json.Marshal(v.str)
		buf.Write(sb)
	case KindNumber:
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			buf.WriteString("null")
			return nil
		}
		buf.WriteString(strconv.FormatFloat(v.num, 'f', -1, 64))
	case KindBool:
		buf.WriteString(strconv.FormatBool(v.b))
	case KindObject:
		return writeJSONObject(buf, v.obj)
	case KindArray:
		buf.WriteByte('[')
		for i, it := range v.arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONValue(buf, it); err != nil {
				return fmt.Errorf("index %d: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case KindFile:
		return fmt.Errorf("file %q cannot be encoded as JSON", v.file.Name)
	}
	return nil
}

// EncodeMultipart renders the object as multipart/form-data.
// Nested names use bracket indexing, e.g. featuredItems[0][image].
func EncodeMultipart(o *Object) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, k := range o.keys {
		if err := writePart(mw, k, o.vals[k]); err != nil {
			_ = mw.Close()
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart writer: %w", err)
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

func writePart(mw *multipart.Writer, name string, v Value) error {
	switch v.kind {
	case KindOmit:
		return nil
	case KindObject:
		for _, k := range v.obj.keys {
			if err := writePart(mw, name+"["+k+"]", v.obj.vals[k]); err != nil {
				return err
			}
		}
		return nil
	case KindArray:
		if len(v.arr) == 0 {
			return mw.WriteField(name, "")
		}
		for i, it := range v.arr {
			if err := writePart(mw, name+"["+strconv.Itoa(i)+"]", it); err != nil {
				return err
			}
		}
		return nil
	case KindFile:
		return writeFilePart(mw, name, v.file)
	default:
		if err := mw.WriteField(name, v.formString()); err != nil {
			return fmt.Errorf("writing field %s: %w", name, err)
		}
		return nil
	}
}

func writeFilePart(mw *multipart.Writer, name string, f *File) error {
	filename := f.Name
	if filename == "" {
		filename = "upload"
	}
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     name,
		"filename": filename,
	}))
	h.Set("Content-Type", contentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("creating part %s: %w", name, err)
	}
	if _, err := part.Write(f.Data); err != nil {
		return fmt.Errorf("writing part %s: %w", name, err)
	}
	return nil
}
