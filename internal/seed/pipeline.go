// Package seed loads YAML seed files into tables of store records.
package seed

import (
	"os"
	"runtime"
	"sync"

	"inflections/internal/store"
)

type Warning struct {
	Path string
	Msg  string
}

type result struct {
	Path  string
	Files []File
	Warns []Warning
	Err   error
}

// Tables maps a table name to its records in seed order.
type Tables map[string][]store.Record

func (t Tables) Count() int {
	n := 0
	for _, rs := range t {
		n += len(rs)
	}
	return n
}

// Ingest parses every seed file under sourceDir with a worker pool and merges
// the result per table. Files are merged in path order so the outcome does
// not depend on scheduling.
func Ingest(sourceDir string) (Tables, []Warning, error) {
	files, err := DiscoverSource(sourceDir)
	if err != nil {
		return nil, nil, err
	}

	workers := runtime.GOMAXPROCS(0)
	jobs := make(chan SourceFile)
	results := make(chan result)

	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sf := range jobs {
				raw, readErr := os.ReadFile(sf.Path)
				if readErr != nil {
					results <- result{Path: sf.Path, Err: readErr}
					continue
				}
				parsed, parseErr := ParseFile(raw)
				if parseErr != nil {
					results <- result{Path: sf.Path, Warns: []Warning{{
						Path: sf.Path,
						Msg:  "failed to parse seed file: " + parseErr.Error(),
					}}}
					continue
				}
				results <- result{Path: sf.Path, Files: parsed}
			}
		}()
	}

	go func() {
		for _, f := range files {
			jobs <- f
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	byPath := make(map[string]result, len(files))
	var firstErr error
	for r := range results {
		if r.Err != nil && firstErr == nil {
			firstErr = r.Err
		}
		byPath[r.Path] = r
	}
	if firstErr != nil {
		return nil, nil, firstErr
	}

	tables := make(Tables)
	seen := make(map[string]map[string]struct{})
	var warns []Warning
	for _, sf := range files {
		r := byPath[sf.Path]
		warns = append(warns, r.Warns...)
		for _, f := range r.Files {
			ids, ok := seen[f.Table]
			if !ok {
				ids = make(map[string]struct{})
				seen[f.Table] = ids
			}
			for _, rs := range f.Records {
				rec := rs.ToRecord()
				if rec.ID == "" {
					warns = append(warns, Warning{Path: sf.Path, Msg: "record without id in " + f.Table + ", skipped"})
					continue
				}
				if _, dup := ids[rec.ID]; dup {
					warns = append(warns, Warning{Path: sf.Path, Msg: "duplicate record id, skipped: " + f.Table + "/" + rec.ID})
					continue
				}
				ids[rec.ID] = struct{}{}
				tables[f.Table] = append(tables[f.Table], rec)
			}
		}
	}
	return tables, warns, nil
}
