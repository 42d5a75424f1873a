package seed

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"inflections/internal/store"
)

var errNoTable = errors.New("seed file has no table")

// File is one seed document: a table name and its records.
type File struct {
	Table   string       `yaml:"table"`
	Records []RecordSpec `yaml:"records"`
}

type RecordSpec struct {
	ID      string         `yaml:"id"`
	Created string         `yaml:"created"`
	Fields  map[string]any `yaml:"fields"`
}

// ParseFile decodes a seed document. A file may hold several YAML documents
// separated by "---"; each one names its own table.
func ParseFile(raw []byte) ([]File, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	var out []File
	for {
		var f File
		err := dec.Decode(&f)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		f.Table = strings.TrimSpace(f.Table)
		if f.Table == "" {
			return nil, errNoTable
		}
		out = append(out, f)
	}
	return out, nil
}

// ToRecord converts a seed record into a store record. Field values keep the types
// the YAML decoder produced.
func (r RecordSpec) ToRecord() store.Record {
	rec := store.Record{
		ID:     strings.TrimSpace(r.ID),
		Fields: store.Fields{},
	}
	for k, v := range r.Fields {
		rec.Fields[k] = normalizeValue(v)
	}
	if r.Created != "" {
		rec.CreatedTime = store.Fields{"created": r.Created}.Time("created")
	}
	return rec
}

// yaml.v3 decodes timestamps into time.Time and sequences into []any; dates
// are stored as the store would send them.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format(time.DateOnly)
		}
		return t.Format(time.RFC3339)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}
