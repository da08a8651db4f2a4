// Package remote talks to the /expenses/ REST resource and maps its records
// into ledger transactions.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"kakeibo/internal/core"
	applog "kakeibo/internal/log"
)

// maxErrorBody caps how much of a failed response is kept for diagnostics.
const maxErrorBody = 512

// StatusError reports a non-2xx answer from the resource.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.Code, e.Body)
}

// IsNotFound reports whether err is a 404 from the resource.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

// Client implements ledger.Remote over HTTP.
type Client struct {
	base       *url.URL
	httpClient *http.Client
	logger     *applog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithLogger(l *applog.Logger) Option {
	return func(c *Client) { c.logger = l.WithComponent(applog.ComponentRemote) }
}

// NewClient builds a client for the collection URL, e.g.
// http://localhost:8000/expenses/. A missing trailing slash is added.
func NewClient(collectionURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(collectionURL)
	if err != nil {
		return nil, fmt.Errorf("parse expenses url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid expenses url scheme %q", u.Scheme)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	c := &Client{
		base:       u,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     applog.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Create posts the draft and returns the record as the resource stored it.
func (c *Client) Create(ctx context.Context, d core.Draft) (core.Transaction, error) {
	body, err := json.Marshal(newCreateRequest(d))
	if err != nil {
		return core.Transaction{}, c.fail(ctx, applog.OpCreate, "", fmt.Errorf("encode create request: %w", err))
	}

	var rec expenseRecord
	if err := c.do(ctx, http.MethodPost, c.base.String(), body, &rec); err != nil {
		return core.Transaction{}, c.fail(ctx, applog.OpCreate, "", err)
	}
	t, err := rec.transaction()
	if err != nil {
		return core.Transaction{}, c.fail(ctx, applog.OpCreate, "", fmt.Errorf("decode created expense: %w", err))
	}

	c.logger.DebugContext(ctx, "Expense created remotely", applog.FieldTransactionID, t.ID)
	return t, nil
}

// Remove deletes the record. A 404 means it is already gone and counts as success.
func (c *Client) Remove(ctx context.Context, id string) error {
	target := c.base.JoinPath(id).String()
	if err := c.do(ctx, http.MethodDelete, target, nil, nil); err != nil {
		if IsNotFound(err) {
			c.logger.DebugContext(ctx, "Expense already absent remotely", applog.FieldTransactionID, id)
			return nil
		}
		return c.fail(ctx, applog.OpDelete, id, err)
	}
	return nil
}

// FetchAll lists every record; dates are normalized to the reference zone.
func (c *Client) FetchAll(ctx context.Context) ([]core.Transaction, error) {
	var recs []expenseRecord
	if err := c.do(ctx, http.MethodGet, c.base.String(), nil, &recs); err != nil {
		return nil, c.fail(ctx, applog.OpList, "", err)
	}

	out := make([]core.Transaction, 0, len(recs))
	for i, rec := range recs {
		t, err := rec.transaction()
		if err != nil {
			return nil, c.fail(ctx, applog.OpList, string(rec.ExpenseID), fmt.Errorf("decode expense %d: %w", i, err))
		}
		out = append(out, t)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, target string, body []byte, into any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, URL: target, Code: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
	if into == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, target, err)
	}
	return nil
}

// fail logs at the adapter boundary and hands the error back for status bookkeeping.
func (c *Client) fail(ctx context.Context, op, id string, err error) error {
	fields := applog.NewFields()
	if id != "" {
		fields[applog.FieldTransactionID] = id
	}
	fields[applog.FieldURL] = c.base.String()
	c.logger.LogError(ctx, "Expenses resource call failed", err, op, fields)
	return err
}
