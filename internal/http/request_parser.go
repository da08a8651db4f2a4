// Package http serves the ledger to a browser or script as JSON.
//
// This file parses the transaction form. The same fields arrive either as
// JSON or as form-encoded data, and both are validated the same way before a
// draft reaches the controller.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"kakeibo/internal/core"
)

const maxBodyBytes = 64 << 10

// RequestBodyParser handles different content types for request body parsing.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser reads the body once and keeps it for parsing.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	body := bytes.TrimSpace(p.body)
	if len(body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if body[0] == '{' {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		p.jsonData = make(map[string]any)
		if err := dec.Decode(&p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(body))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// FieldErrors maps a form field to what is wrong with it.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for field, msg := range fe {
		parts = append(parts, field+": "+msg)
	}
	return strings.Join(parts, "; ")
}

// ParseDraft validates the transaction form: a positive amount, a type, a
// category belonging to that type and a date. Every field is checked so the
// caller can report all problems at once.
func ParseDraft(p *RequestBodyParser) (core.Draft, error) {
	var (
		d    core.Draft
		errs = FieldErrors{}
	)

	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		errs["amount"] = "金額は正の数で入力してください"
	}
	d.Amount = amount

	kind, err := core.ParseKind(p.Get("type"))
	if err != nil {
		errs["type"] = "種類は income か expense を指定してください"
	}
	d.Kind = kind

	d.Category = p.Get("category")
	switch {
	case d.Category == "":
		errs["category"] = "カテゴリを選択してください"
	case kind != "" && !core.Categories.Allows(kind, d.Category):
		errs["category"] = "この種類では選択できないカテゴリです"
	}

	date, err := core.ParseDate(p.Get("date"))
	switch {
	case errors.Is(err, core.ErrEmptyDate):
		errs["date"] = "日付を入力してください"
	case err != nil:
		errs["date"] = "日付は YYYY-MM-DD 形式で入力してください"
	}
	d.Date = date

	if len(errs) > 0 {
		return core.Draft{}, errs
	}
	return d, nil
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
