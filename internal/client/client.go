// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package client talks to the content REST backend.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/olegiv/mediasite-go/internal/entity"
	"github.com/olegiv/mediasite-go/internal/payload"
)

// UserAgent is sent with every backend request.
const UserAgent = "mediasite/1.0"

const maxResponseSize = 10 << 20

// APIError is a non-2xx backend response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status code %d", e.StatusCode)
}

// IsConflict reports whether err is a 409 response.
func IsConflict(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// MessageOf returns the backend message of err, then its transport message,
// then fallback.
func MessageOf(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}

type tokenKey struct{}

// WithToken returns a context carrying the bearer token for backend calls.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom returns the bearer token stored in ctx.
func TokenFrom(ctx context.Context) string {
	s, _ := ctx.Value(tokenKey{}).(string)
	return s
}

// Client is a backend client. It is safe for concurrent use.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing backend URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend URL must use http or https: %q", baseURL)
	}
	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// envelope is the backend response wrapper.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Total   int             `json:"total"`
	Page    int             `json:"page"`
	Pages   int             `json:"pages"`
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.RawPath = strings.TrimRight(c.baseURL.EscapedPath(), "/") + path
	if p, err := url.PathUnescape(u.RawPath); err == nil {
		u.Path = p
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends a request. body may be nil; its content type is chosen by
// payload.Encode.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body *payload.Object) (*envelope, error) {
	var (
		reader      io.Reader
		contentType string
	)
	if body != nil {
		data, ct, err := payload.Encode(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reader, contentType = bytes.NewReader(data), ct
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	if token := TokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	c.logger.Debug("backend request", "method", method, "path", path,
		"status", resp.StatusCode, "duration", time.Since(start))

	var env envelope
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return nil, fmt.Errorf("decoding response: %w", err)
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	return &env, nil
}

// ListParams are the query parameters of a list request.
type ListParams struct {
	Page    int
	Limit   int
	Query   string
	Status  string
	Sort    string
	Filters url.Values
}

func (p ListParams) values() url.Values {
	v := url.Values{}
	for k, vals := range p.Filters {
		v[k] = append([]string(nil), vals...)
	}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Query != "" {
		v.Set("q", p.Query)
	}
	if p.Status != "" {
		v.Set("status", p.Status)
	}
	if p.Sort != "" {
		v.Set("sort", p.Sort)
	}
	return v
}

// ListResult is one page of records.
type ListResult struct {
	Data  []entity.Record
	Total int
	Page  int
	Pages int
}

// Resource is one backend collection.
type Resource struct {
	c          *Client
	collection string
}

// Resource returns the collection at /{collection}.
func (c *Client) Resource(collection string) *Resource {
	return &Resource{c: c, collection: strings.Trim(collection, "/")}
}

// Collection returns the collection name.
func (r *Resource) Collection() string { return r.collection }

func (r *Resource) path(id string) string {
	if id == "" {
		return "/" + r.collection
	}
	return "/" + r.collection + "/" + url.PathEscape(id)
}

// List fetches records.
func (r *Resource) List(ctx context.Context, p ListParams) (*ListResult, error) {
	env, err := r.c.do(ctx, http.MethodGet, r.path(""), p.values(), nil)
	if err != nil {
		return nil, err
	}
	res := &ListResult{Total: env.Total, Page: env.Page, Pages: env.Pages}
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, &res.Data); err != nil {
			return nil, fmt.Errorf("decoding %s list: %w", r.collection, err)
		}
	}
	return res, nil
}

// Get fetches the full record by id.
func (r *Resource) Get(ctx context.Context, id string) (entity.Record, error) {
	env, err := r.c.do(ctx, http.MethodGet, r.path(id), nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeRecord(env)
}

// Create posts a new record.
func (r *Resource) Create(ctx context.Context, body *payload.Object) (entity.Record, error) {
	env, err := r.c.do(ctx, http.MethodPost, r.path(""), nil, body)
	if err != nil {
		return nil, err
	}
	return decodeRecord(env)
}

// Update patches a record. Omitted fields are left untouched.
func (r *Resource) Update(ctx context.Context, id string, body *payload.Object) (entity.Record, error) {
	env, err := r.c.do(ctx, http.MethodPatch, r.path(id), nil, body)
	if err != nil {
		return nil, err
	}
	return decodeRecord(env)
}

// Delete removes a record.
func (r *Resource) Delete(ctx context.Context, id string) error {
	_, err := r.c.do(ctx, http.MethodDelete, r.path(id), nil, nil)
	return err
}

// Upload stores a file through POST /uploads and returns its URL.
func (c *Client) Upload(ctx context.Context, f *payload.File) (string, error) {
	env, err := c.do(ctx, http.MethodPost, "/uploads", nil,
		payload.NewObject().Set("file", payload.FileValue(f)))
	if err != nil {
		return "", err
	}
	rec, err := decodeRecord(env)
	if err != nil {
		return "", err
	}
	u := rec.String("url")
	if u == "" {
		return "", errors.New("upload response has no url")
	}
	return u, nil
}

func decodeRecord(env *envelope) (entity.Record, error) {
	rec := entity.Record{}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return rec, nil
	}
	if err := json.Unmarshal(env.Data, &rec); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	return rec, nil
}
