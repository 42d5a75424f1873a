// Package airtable talks to the hosted tabular store over its REST API.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"inflections/internal/metrics"
	"inflections/internal/store"
)

const (
	DefaultBaseURL = "https://api.airtable.com/v0"

	// The hosted API allows five requests per second per base.
	DefaultRequestsPerSecond = 5

	maxPages = 100
)

type Options struct {
	BaseURL           string
	BaseID            string
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

type Client struct {
	baseURL string
	baseID  string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

var _ store.Store = (*Client)(nil)

func New(opt Options) (*Client, error) {
	if strings.TrimSpace(opt.BaseID) == "" {
		return nil, errors.New("airtable: missing base id")
	}
	if strings.TrimSpace(opt.APIKey) == "" {
		return nil, errors.New("airtable: missing api key")
	}
	if opt.BaseURL == "" {
		opt.BaseURL = DefaultBaseURL
	}
	if opt.Timeout <= 0 {
		opt.Timeout = 10 * time.Second
	}
	if opt.RequestsPerSecond <= 0 {
		opt.RequestsPerSecond = DefaultRequestsPerSecond
	}
	hc := opt.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opt.Timeout}
	}
	return &Client{
		baseURL: strings.TrimSuffix(opt.BaseURL, "/"),
		baseID:  opt.BaseID,
		apiKey:  opt.APIKey,
		http:    hc,
		limiter: rate.NewLimiter(rate.Limit(opt.RequestsPerSecond), 1),
	}, nil
}

// APIError is a non-2xx answer from the store.
type APIError struct {
	StatusCode int
	Type       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("airtable: status %d %s", e.StatusCode, e.Type)
	}
	return fmt.Sprintf("airtable: status %d %s: %s", e.StatusCode, e.Type, e.Message)
}

type listResponse struct {
	Records []store.Record `json:"records"`
	Offset  string         `json:"offset"`
}

type writeRequest struct {
	Fields store.Fields `json:"fields"`
}

// Select pages through every matching record.
func (c *Client) Select(ctx context.Context, table string, q store.Query) ([]store.Record, error) {
	var out []store.Record
	offset := ""
	for page := 0; page < maxPages; page++ {
		params := selectParams(q)
		if offset != "" {
			params.Set("offset", offset)
		}
		var resp listResponse
		if err := c.do(ctx, http.MethodGet, c.tableURL(table, "")+"?"+params.Encode(), nil, &resp); err != nil {
			return nil, fmt.Errorf("select %s: %w", table, err)
		}
		out = append(out, resp.Records...)
		if resp.Offset == "" {
			return out, nil
		}
		if q.MaxRecords > 0 && len(out) >= q.MaxRecords {
			return out[:q.MaxRecords], nil
		}
		offset = resp.Offset
	}
	return out, fmt.Errorf("select %s: more than %d pages", table, maxPages)
}

func (c *Client) Find(ctx context.Context, table, id string) (store.Record, error) {
	var rec store.Record
	err := c.do(ctx, http.MethodGet, c.tableURL(table, id), nil, &rec)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return store.Record{}, store.ErrNotFound
	}
	if err != nil {
		return store.Record{}, fmt.Errorf("find %s/%s: %w", table, id, err)
	}
	return rec, nil
}

// Update patches the named fields only; other fields are left untouched.
func (c *Client) Update(ctx context.Context, table, id string, fields store.Fields) (store.Record, error) {
	var rec store.Record
	if err := c.do(ctx, http.MethodPatch, c.tableURL(table, id), writeRequest{Fields: fields}, &rec); err != nil {
		return store.Record{}, fmt.Errorf("update %s/%s: %w", table, id, err)
	}
	return rec, nil
}

func (c *Client) Create(ctx context.Context, table string, fields store.Fields) (store.Record, error) {
	var rec store.Record
	if err := c.do(ctx, http.MethodPost, c.tableURL(table, ""), writeRequest{Fields: fields}, &rec); err != nil {
		return store.Record{}, fmt.Errorf("create %s: %w", table, err)
	}
	return rec, nil
}

func selectParams(q store.Query) url.Values {
	v := url.Values{}
	if q.Filter != nil {
		v.Set("filterByFormula", q.Filter.Formula())
	}
	for i, s := range q.Sort {
		dir := "asc"
		if s.Desc {
			dir = "desc"
		}
		v.Set(fmt.Sprintf("sort[%d][field]", i), s.Field)
		v.Set(fmt.Sprintf("sort[%d][direction]", i), dir)
	}
	if q.MaxRecords > 0 {
		v.Set("maxRecords", strconv.Itoa(q.MaxRecords))
	}
	return v
}

func (c *Client) tableURL(table, id string) string {
	u := c.baseURL + "/" + url.PathEscape(c.baseID) + "/" + url.PathEscape(table)
	if id != "" {
		u += "/" + url.PathEscape(id)
	}
	return u
}

func (c *Client) do(ctx context.Context, method, u string, body any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordStoreRequest(method, "error", time.Since(start).Seconds())
		return err
	}
	defer resp.Body.Close()
	metrics.RecordStoreRequest(method, strconv.Itoa(resp.StatusCode), time.Since(start).Seconds())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	// The error member is either an object or a bare string.
	var env struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(raw, &env) == nil && len(env.Error) > 0 {
		var obj struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		}
		if json.Unmarshal(env.Error, &obj) == nil {
			apiErr.Type, apiErr.Message = obj.Type, obj.Message
		} else {
			var s string
			if json.Unmarshal(env.Error, &s) == nil {
				apiErr.Type = s
			}
		}
	}
	if apiErr.Type == "" {
		apiErr.Type = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
