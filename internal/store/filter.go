package store

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Filter is a predicate over named fields. Match evaluates it locally;
// Formula renders it for the hosted store.
type Filter interface {
	Match(f Fields) bool
	Formula() string
}

type eqFilter struct {
	field string
	value any
}

// Eq matches records whose field equals value. Numbers compare numerically,
// strings exactly.
func Eq(field string, value any) Filter {
	return eqFilter{field: field, value: value}
}

func (e eqFilter) Match(f Fields) bool {
	switch want := e.value.(type) {
	case int:
		got, ok := f.Int(e.field)
		return ok && got == want
	case string:
		return f.String(e.field) == want
	default:
		return f.String(e.field) == toString(want)
	}
}

func (e eqFilter) Formula() string {
	switch v := e.value.(type) {
	case int:
		return fmt.Sprintf("{%s} = %d", e.field, v)
	default:
		return fmt.Sprintf("{%s} = %s", e.field, quote(toString(v)))
	}
}

type linkFilter struct {
	field string
	id    string
}

// LinkContains matches records whose link field lists id.
func LinkContains(field, id string) Filter {
	return linkFilter{field: field, id: id}
}

func (l linkFilter) Match(f Fields) bool {
	for _, v := range f.Strings(l.field) {
		if v == l.id {
			return true
		}
	}
	return false
}

// The hosted formula is a substring search over the joined ids, so it can
// over-match; callers re-check links after mapping.
func (l linkFilter) Formula() string {
	return fmt.Sprintf("FIND(%s, ARRAYJOIN({%s}))", quote(l.id), l.field)
}

type andFilter []Filter

// And matches when every non-nil filter matches.
func And(filters ...Filter) Filter {
	var out andFilter
	for _, f := range filters {
		if f != nil {
			out = append(out, f)
		}
	}
	return out
}

func (a andFilter) Match(f Fields) bool {
	for _, x := range a {
		if !x.Match(f) {
			return false
		}
	}
	return true
}

func (a andFilter) Formula() string {
	if len(a) == 1 {
		return a[0].Formula()
	}
	parts := make([]string, len(a))
	for i, x := range a {
		parts[i] = x.Formula()
	}
	return "AND(" + strings.Join(parts, ", ") + ")"
}

func quote(s string) string {
	return strconv.Quote(s)
}

// Apply filters, sorts and truncates records in memory according to q.
// Backends without server-side querying use it directly.
func Apply(records []Record, q Query) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if q.Filter != nil && !q.Filter.Match(r.Fields) {
			continue
		}
		out = append(out, r)
	}
	if len(q.Sort) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			for _, s := range q.Sort {
				ah, bh := out[i].Fields.Has(s.Field), out[j].Fields.Has(s.Field)
				if ah != bh {
					return ah
				}
				c := compareField(out[i].Fields, out[j].Fields, s.Field)
				if c == 0 {
					continue
				}
				if s.Desc {
					return c > 0
				}
				return c < 0
			}
			return false
		})
	}
	if q.MaxRecords > 0 && len(out) > q.MaxRecords {
		out = out[:q.MaxRecords]
	}
	return out
}

// compareField orders numbers numerically and everything else byte-wise.
// Missing values are handled by the caller and always sort last.
func compareField(a, b Fields, name string) int {
	if an, ok := a.Int(name); ok {
		if bn, ok := b.Int(name); ok {
			switch {
			case an < bn:
				return -1
			case an > bn:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(a.String(name), b.String(name))
}
