// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package client is a small HTTP client for the content endpoints of the
// builder API, used by the command line tools.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dndbuilder/internal/builder"
	"dndbuilder/internal/respond"
)

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

// Client talks to one API base URL with one bearer token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New creates a client for the API at baseURL.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Content fetches the stored content tree.
func (c *Client) Content(ctx context.Context) (*builder.Content, error) {
	resp, err := c.do(ctx, http.MethodGet, "/content", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var doc struct {
		Content *builder.Content `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	if doc.Content == nil {
		return builder.NewContent(), nil
	}
	return doc.Content, nil
}

// Export streams the exported content JSON into w.
func (c *Client) Export(ctx context.Context, w io.Writer) error {
	resp, err := c.do(ctx, http.MethodGet, "/content/export", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("read export: %w", err)
	}
	return nil
}

// SaveContent replaces the stored content with content. It makes the
// client usable as a builder.Saver.
func (c *Client) SaveContent(ctx context.Context, content *builder.Content) error {
	payload, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("encode content: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPut, "/content", payload)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// Clear deletes the stored content.
func (c *Client) Clear(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodDelete, "/content", nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// do sends a request and turns non-2xx answers into *APIError. The caller
// closes the body of a successful response.
func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	var eb respond.ErrorBody
	if json.Unmarshal(raw, &eb) == nil && eb.Message != "" {
		apiErr.Message = eb.Message
	}
	return nil, apiErr
}

var _ builder.Saver = (*Client)(nil)
