// Package airtable is a minimal read-only Airtable REST client tuned for
// bulk exports: string cell rendering, fixed page size, and polite paging.
package airtable

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"homeguides/server/config"
)

const defaultBaseURL = "https://api.airtable.com/v0"

// Record is one Airtable row. With cellFormat=string every field value
// arrives as a string, but Fields stays loosely typed to survive schema
// drift.
type Record struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

type listResponse struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset"`
}

// Client fetches records from the Airtable REST API.
type Client struct {
	http      *resty.Client
	baseURL   string
	token     string
	pageDelay time.Duration
	logger    *logrus.Logger
}

// NewClient builds a client from the Airtable section of the
// configuration. The bearer token is attached to every request and
// transient failures retry with backoff.
func NewClient(cfg config.AirtableConfig, logger *logrus.Logger) *Client {
	if logger == nil {
		logger = logrus.New()
	}
	http := resty.New().
		SetAuthToken(cfg.Token).
		SetTimeout(cfg.FetchTimeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(cfg.RetryDelay).
		SetRetryMaxWaitTime(cfg.RetryDelay * 8).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == 429 || r.StatusCode() >= 500
		})
	return &Client{
		http:      http,
		baseURL:   defaultBaseURL,
		token:     cfg.Token,
		pageDelay: cfg.PageDelay,
		logger:    logger,
	}
}

// SetBaseURL overrides the API endpoint. Tests point this at a local
// httptest server.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = strings.TrimRight(u, "/")
}

// TableRef names one table to read.
type TableRef struct {
	Base  string
	Table string
	View  string
}

func (t TableRef) validate() error {
	if t.Base == "" {
		return fmt.Errorf("airtable base id is required")
	}
	if t.Table == "" {
		return fmt.Errorf("airtable table name is required")
	}
	return nil
}

// FetchAll reads every record of a table, following offset pagination
// until exhaustion.
func (c *Client) FetchAll(ctx context.Context, ref TableRef) ([]Record, error) {
	var all []Record
	err := c.ForEachRecord(ctx, ref, func(r Record) error {
		all = append(all, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return all, nil
}

// ForEachRecord streams every record of a table through fn, page by
// page, sleeping between pages to stay inside Airtable's rate limit. A
// non-nil error from fn aborts the walk.
func (c *Client) ForEachRecord(ctx context.Context, ref TableRef, fn func(Record) error) error {
	if c.token == "" {
		return fmt.Errorf("airtable token is required")
	}
	if err := ref.validate(); err != nil {
		return err
	}

	offset := ""
	page := 0
	for {
		params := map[string]string{
			"pageSize":   "100",
			"cellFormat": "string",
			"timeZone":   "Europe/Madrid",
			"userLocale": "es",
		}
		if ref.View != "" {
			params["view"] = ref.View
		}
		if offset != "" {
			params["offset"] = offset
		}

		var body listResponse
		resp, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(params).
			SetResult(&body).
			// Attachment endpoints answer with a bare text content type; force
			// JSON decoding so a mislabeled page never reads as empty.
			ForceContentType("application/json").
			Get(fmt.Sprintf("%s/%s/%s", c.baseURL, ref.Base, ref.Table))
		if err != nil {
			return fmt.Errorf("airtable request failed: %w", err)
		}
		if resp.IsError() {
			return fmt.Errorf("airtable returned %d: %s", resp.StatusCode(), resp.String())
		}

		page++
		c.logger.WithFields(logrus.Fields{
			"table":   ref.Table,
			"page":    page,
			"records": len(body.Records),
		}).Debug("Fetched Airtable page")

		for _, r := range body.Records {
			if err := fn(r); err != nil {
				return err
			}
		}

		if body.Offset == "" {
			return nil
		}
		offset = body.Offset

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pageDelay):
		}
	}
}

// String returns a trimmed string field, empty when absent or not a
// string.
func (r Record) String(field string) string {
	v, ok := r.Fields[field]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// FirstString returns the first non-empty value among candidate field
// names. Exports rename columns now and then; callers list the variants.
func (r Record) FirstString(fields ...string) string {
	for _, f := range fields {
		if s := r.String(f); s != "" {
			return s
		}
	}
	return ""
}

// Int parses a field as an integer, tolerating string-rendered numbers
// like "3" or "3.0". Returns def when the field is absent or unparseable.
func (r Record) Int(field string, def int) int {
	s := r.String(field)
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	return def
}

// Float parses a field as a number, stripping currency symbols and
// normalizing the decimal comma of Spanish-locale exports.
func (r Record) Float(field string) (float64, bool) {
	s := r.String(field)
	if s == "" {
		return 0, false
	}
	s = strings.NewReplacer("€", "", "$", "", " ", "").Replace(s)
	// A comma after the last dot marks the Spanish decimal comma, with
	// dots as thousands separators.
	if i, j := strings.LastIndex(s, ","), strings.LastIndex(s, "."); i > j {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

var urlPattern = regexp.MustCompile(`https?://[^\s)]+`)

// URLs extracts up to max http(s) URLs from a string-rendered attachment
// field.
func (r Record) URLs(field string, max int) []string {
	s := r.String(field)
	if s == "" {
		return nil
	}
	matches := urlPattern.FindAllString(s, -1)
	if max > 0 && len(matches) > max {
		matches = matches[:max]
	}
	for i, m := range matches {
		matches[i] = strings.TrimRight(m, ",")
	}
	return matches
}
