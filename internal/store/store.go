// Package store defines the boundary to the external tabular content store.
// Records are loosely typed; only the schema package knows field names.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	domainerr "inflections/internal/domain/errors"
)

var ErrNotFound = domainerr.ErrNotFound

// Fields maps store field names to loosely-typed values as decoded from JSON
// (string, float64, bool, []any, map[string]any) or YAML (int, []string, ...).
type Fields map[string]any

type Record struct {
	ID          string    `json:"id"`
	CreatedTime time.Time `json:"createdTime"`
	Fields      Fields    `json:"fields"`
}

type SortField struct {
	Field string
	Desc  bool
}

type Query struct {
	Filter     Filter
	Sort       []SortField
	MaxRecords int
}

// Store is implemented by every content store backend.
type Store interface {
	Select(ctx context.Context, table string, q Query) ([]Record, error)
	Find(ctx context.Context, table, id string) (Record, error)
	Update(ctx context.Context, table, id string, fields Fields) (Record, error)
	Create(ctx context.Context, table string, fields Fields) (Record, error)
}

func (f Fields) Has(name string) bool {
	v, ok := f[name]
	return ok && v != nil
}

// String returns the field as a trimmed string. Numbers are formatted; lists
// yield their first element.
func (f Fields) String(name string) string {
	return toString(f[name])
}

// Int returns the field as an int and whether it held a usable number.
func (f Fields) Int(name string) (int, bool) {
	switch v := f[name].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if math.Trunc(v) != v {
			return 0, false
		}
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	}
	return 0, false
}

// Strings returns a list field. A scalar string is treated as a one-item list.
func (f Fields) Strings(name string) []string {
	switch v := f[name].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s := toString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return []string{s}
		}
	}
	return nil
}

var dateLayouts = []string{
	time.RFC3339,
	time.DateOnly,
	"2006-01-02 15:04",
	time.DateTime,
}

// Time parses a date field. Unparsable or absent values give the zero time.
func (f Fields) Time(name string) time.Time {
	switch v := f[name].(type) {
	case time.Time:
		return v
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return time.Time{}
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	case []string:
		if len(t) > 0 {
			return strings.TrimSpace(t[0])
		}
		return ""
	case []any:
		if len(t) > 0 {
			return toString(t[0])
		}
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// Clone returns a shallow copy of f.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
