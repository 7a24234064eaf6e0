// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/mediasite-go/internal/form"
	"github.com/olegiv/mediasite-go/internal/i18n"
	"github.com/olegiv/mediasite-go/internal/imagefield"
	"github.com/olegiv/mediasite-go/internal/manager"
	"github.com/olegiv/mediasite-go/internal/payload"
	"github.com/olegiv/mediasite-go/internal/render"
	"github.com/olegiv/mediasite-go/internal/schema"
	"github.com/olegiv/mediasite-go/internal/util"
)

// MaxUploadSize bounds one form submission, files included.
const MaxUploadSize = 32 << 20

// Form actions. Row actions carry the field and row index after a colon.
const (
	actionSave      = "save"
	actionCancel    = "cancel"
	actionApply     = "apply"
	actionAdd       = "add"
	actionDuplicate = "dup"
	actionRemove    = "remove"
)

// New handles GET /admin/{entity}/new.
func (h *AdminHandler) New(w http.ResponseWriter, r *http.Request) {
	m, ok := h.acquire(w, r)
	if !ok {
		return
	}
	defer m.Unlock()

	m.OpenCreate(r.Context())
	http.Redirect(w, r, entityURL(m.Schema(), RouteForm), http.StatusSeeOther)
}

// Edit handles GET /admin/{entity}/{id}/edit. The record is re-fetched; on
// failure the list shows the error alert.
func (h *AdminHandler) Edit(w http.ResponseWriter, r *http.Request) {
	m, ok := h.acquire(w, r)
	if !ok {
		return
	}
	defer m.Unlock()

	id := chi.URLParam(r, "id")
	if _, err := m.OpenEdit(r.Context(), id); err != nil {
		h.logger.Warn("backend fetch failed", "collection", m.Schema().Collection, "id", id, "error", err)
		http.Redirect(w, r, entityURL(m.Schema(), ""), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, entityURL(m.Schema(), RouteForm), http.StatusSeeOther)
}

// FieldView is one rendered form input.
type FieldView struct {
	Field    schema.Field
	Name     string
	LabelKey string
	Value    string
	Error    string
	Image    *ImageView
	Rows     []RowFormView
	AddName  string
	HintKey  string
	Required bool
}

// ImageView is the state of one image input.
type ImageView struct {
	Prefix         string
	Mode           string
	Existing       string
	DisplayURL     string
	URL            string
	PreviewURL     string
	FileName       string
	UploadOnSelect bool
}

// RowFormView is one repeater row.
type RowFormView struct {
	Index         int
	Fields        []FieldView
	DuplicateName string
	RemoveName    string
}

// FormData holds data for the form template.
type FormData struct {
	Schema    *schema.Schema
	Action    string
	ListURL   string
	IsEdit    bool
	Heading   string
	Fields    []FieldView
	Errors    map[string]string
	CanSubmit bool
	Alert     *manager.Alert
}

// Form handles GET /admin/{entity}/form.
func (h *AdminHandler) Form(w http.ResponseWriter, r *http.Request) {
	m, ok := h.acquire(w, r)
	if !ok {
		return
	}
	defer m.Unlock()

	modal := m.Modal()
	if modal == nil || modal.Closed() {
		http.Redirect(w, r, entityURL(m.Schema(), ""), http.StatusSeeOther)
		return
	}
	h.renderForm(w, r, m, modal, http.StatusOK)
}

func (h *AdminHandler) renderForm(w http.ResponseWriter, r *http.Request, m *manager.Manager, modal *form.Modal, status int) {
	l := localizer(r, h.provider)
	data := h.formData(l, m, modal)
	if err := h.renderer.RenderStatus(w, r, status, "admin/form", render.TemplateData{
		Title: data.Heading,
		Data:  data,
	}); err != nil {
		logAndInternalError(w, h.logger, "failed to render form", "entity", m.Schema().Name, "error", err)
	}
}

func (h *AdminHandler) formData(l i18n.Localizer, m *manager.Manager, modal *form.Modal) FormData {
	s := m.Schema()
	errs := modal.Errors()
	data := FormData{
		Schema:    s,
		Action:    entityURL(s, RouteForm),
		ListURL:   entityURL(s, ""),
		IsEdit:    modal.IsEdit(),
		Errors:    make(map[string]string, len(errs)),
		CanSubmit: modal.CanSubmit(),
	}
	if modal.IsEdit() {
		data.Heading = l.T("form.edit_title", s.Singular)
	} else {
		data.Heading = l.T("form.create_title", s.Singular)
	}
	for k, code := range errs {
		data.Errors[k] = l.T(code)
	}
	if a, ok := m.Alert(); ok {
		data.Alert = &a
	}

	group := modal.ActiveGroup()
	for _, f := range s.Fields {
		if !f.Active(group) {
			continue
		}
		fv := FieldView{
			Field:    f,
			Name:     "f." + f.Name,
			LabelKey: f.LabelKey(),
			Error:    data.Errors[f.Name],
			Required: f.Required,
		}
		if f.SlugFrom != "" {
			fv.HintKey = "form.slug_hint"
		}
		switch f.Kind {
		case schema.KindImage:
			fv.Image = imageView("img."+f.Name, modal.Image(f.Name), f.UploadOnSelect)
			if f.UploadOnSelect {
				fv.HintKey = "form.upload_on_select"
			}
		case schema.KindRepeater:
			fv.AddName = actionAdd + ":" + f.Name
			for i, row := range modal.Rows(f.Name) {
				fv.Rows = append(fv.Rows, rowView(data.Errors, f, i, row))
			}
		default:
			fv.Value = modal.Value(f.Name)
		}
		data.Fields = append(data.Fields, fv)
	}
	return data
}

func rowView(errs map[string]string, f schema.Field, i int, row form.Row) RowFormView {
	rv := RowFormView{
		Index:         i,
		DuplicateName: fmt.Sprintf("%s:%s:%d", actionDuplicate, f.Name, i),
		RemoveName:    fmt.Sprintf("%s:%s:%d", actionRemove, f.Name, i),
	}
	for _, sub := range f.Fields {
		sv := FieldView{
			Field:    sub,
			Name:     rowInputName(f.Name, i, sub.Name),
			LabelKey: sub.LabelKey(),
			Error:    errs[fmt.Sprintf("%s[%d].%s", f.Name, i, sub.Name)],
		}
		if sub.Kind == schema.KindImage {
			sv.Image = imageView(rowImagePrefix(f.Name, i, sub.Name), row.Images[sub.Name], sub.UploadOnSelect)
		} else {
			sv.Value = row.Values[sub.Name]
		}
		rv.Fields = append(rv.Fields, sv)
	}
	return rv
}

func rowInputName(field string, i int, sub string) string {
	return "r." + field + "." + strconv.Itoa(i) + "." + sub
}

func rowImagePrefix(field string, i int, sub string) string {
	return "ri." + field + "." + strconv.Itoa(i) + "." + sub
}

func imageView(prefix string, c *imagefield.Controller, uploadOnSelect bool) *ImageView {
	if c == nil {
		return nil
	}
	v := &ImageView{
		Prefix:         prefix,
		Mode:           string(c.Mode()),
		Existing:       c.Existing(),
		DisplayURL:     c.DisplayURL(),
		URL:            c.URL(),
		UploadOnSelect: uploadOnSelect,
	}
	if ref := c.PreviewRef(); ref != "" {
		v.PreviewURL = RouteAdmin + "/previews/" + ref
	}
	if f := c.File(); f != nil {
		v.FileName = f.Name
	}
	return v
}

// SubmitForm handles POST /admin/{entity}/form. Posted inputs are applied to
// the modal, then the action button decides what happens: save, cancel, a
// repeater row action, or a plain re-render.
func (h *AdminHandler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	m, ok := h.acquire(w, r)
	if !ok {
		return
	}
	defer m.Unlock()

	s := m.Schema()
	modal := m.Modal()
	if modal == nil || modal.Closed() {
		http.Redirect(w, r, entityURL(s, ""), http.StatusSeeOther)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	action := r.PostForm.Get("action")
	if action == actionCancel {
		m.CloseModal(r.Context())
		redirect(w, r, entityURL(s, ""))
		return
	}

	// A failed upload stops the action so nothing is saved without its file.
	if err := applyForm(r.Context(), r, modal); err != nil {
		h.logger.Warn("upload failed", "collection", s.Collection, "error", err)
		l := localizer(r, h.provider)
		h.renderer.SetFlash(r, l.T("error.upload"), flashError)
		h.renderForm(w, r, m, modal, http.StatusUnprocessableEntity)
		return
	}

	switch {
	case action == actionSave:
		// backend failures are logged and alerted by the manager
		closed, _ := m.Save(r.Context())
		if closed {
			redirect(w, r, entityURL(s, ""))
			return
		}
		h.renderForm(w, r, m, modal, http.StatusUnprocessableEntity)
		return
	case strings.Contains(action, ":"):
		if err := rowAction(modal, action); err != nil {
			http.Error(w, "Invalid action", http.StatusBadRequest)
			return
		}
	}
	redirect(w, r, entityURL(s, RouteForm))
}

// rowAction runs add:<field>, dup:<field>:<i> or remove:<field>:<i>.
func rowAction(modal *form.Modal, action string) error {
	parts := strings.Split(action, ":")
	if len(parts) < 2 {
		return fmt.Errorf("malformed action %q", action)
	}
	verb, field := parts[0], parts[1]
	if verb == actionAdd {
		modal.Touch(field)
		return modal.AddRow(field)
	}
	if len(parts) != 3 {
		return fmt.Errorf("malformed action %q", action)
	}
	i, err := strconv.Atoi(parts[2])
	if err != nil {
		return fmt.Errorf("malformed row index in %q: %w", action, err)
	}
	modal.Touch(field)
	switch verb {
	case actionDuplicate:
		return modal.DuplicateRow(field, i)
	case actionRemove:
		return modal.RemoveRow(field, i)
	default:
		return fmt.Errorf("unknown action %q", verb)
	}
}

// applyForm copies the posted inputs into modal. Inputs that were not
// rendered, such as fields of an inactive variant group, are left untouched.
// Changed fields are touched so their errors show.
func applyForm(ctx context.Context, r *http.Request, modal *form.Modal) error {
	var uploadErr error
	s := modal.Schema()
	for _, f := range s.Fields {
		switch f.Kind {
		case schema.KindImage:
			prefix := "img." + f.Name
			err := applyImage(ctx, r, prefix, modal.Image(f.Name), func(file *payload.File) error {
				return modal.SelectFile(ctx, f.Name, file)
			})
			if err != nil {
				uploadErr = errors.Join(uploadErr, err)
			}
			if r.PostForm.Has(prefix + ".mode") {
				modal.Touch(f.Name)
			}
		case schema.KindRepeater:
			for i, row := range modal.Rows(f.Name) {
				for _, sub := range f.Fields {
					if sub.Kind == schema.KindImage {
						err := applyImage(ctx, r, rowImagePrefix(f.Name, i, sub.Name), row.Images[sub.Name], func(file *payload.File) error {
							return modal.SelectRowFile(ctx, f.Name, i, sub.Name, file)
						})
						if err != nil {
							uploadErr = errors.Join(uploadErr, err)
						}
						continue
					}
					name := rowInputName(f.Name, i, sub.Name)
					if !r.PostForm.Has(name) {
						continue
					}
					if v := r.PostForm.Get(name); v != row.Values[sub.Name] {
						_ = modal.SetRowValue(f.Name, i, sub.Name, v)
						modal.Touch(f.Name)
					}
				}
			}
		default:
			name := "f." + f.Name
			if !r.PostForm.Has(name) {
				continue
			}
			if v := r.PostForm.Get(name); v != modal.Value(f.Name) {
				_ = modal.SetValue(f.Name, v)
				modal.Touch(f.Name)
			}
		}
	}
	return uploadErr
}

// applyImage applies the mode radio, the URL input and the file input of one
// image field. A chosen file always selects file mode.
func applyImage(ctx context.Context, r *http.Request, prefix string, c *imagefield.Controller, selectFile func(*payload.File) error) error {
	if c == nil {
		return nil
	}
	file, err := formFile(r, prefix+".file")
	if err != nil {
		return err
	}
	if file != nil {
		return selectFile(file)
	}
	if !r.PostForm.Has(prefix + ".mode") {
		return nil
	}
	switch imagefield.Mode(r.PostForm.Get(prefix + ".mode")) {
	case imagefield.ModeKeep:
		c.SetKeep()
	case imagefield.ModeFile:
		c.SetFile()
	case imagefield.ModeURL:
		c.SetURL(r.PostForm.Get(prefix + ".url"))
	case imagefield.ModeClear:
		c.SetClear(ctx)
	}
	return nil
}

// formFile reads an uploaded file part; no part, or an empty one, is nil.
func formFile(r *http.Request, name string) (*payload.File, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File[name]
	if len(headers) == 0 || headers[0].Size == 0 {
		return nil, nil
	}
	return readFile(headers[0])
}

func readFile(fh *multipart.FileHeader) (*payload.File, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("opening upload %s: %w", fh.Filename, err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading upload %s: %w", fh.Filename, err)
	}
	name, err := util.SanitizeFilename(fh.Filename)
	if err != nil {
		return nil, err
	}
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return &payload.File{
		Name:        name,
		ContentType: contentType,
		Data:        data,
	}, nil
}
