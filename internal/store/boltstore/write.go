package boltstore

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"inflections/internal/store"
)

// Update merges fields into an existing record.
func (s *Store) Update(ctx context.Context, table, id string, fields store.Fields) (store.Record, error) {
	if err := ctx.Err(); err != nil {
		return store.Record{}, err
	}
	var out store.Record
	err := s.db.Update(func(tx *bolt.Tx) error {
		recB := recordsBucket(tx, table)
		if recB == nil {
			return store.ErrNotFound
		}
		v := recB.Get([]byte(id))
		if v == nil {
			return store.ErrNotFound
		}
		var r store.Record
		if err := json.Unmarshal(v, &r); err != nil {
			return err
		}
		if r.Fields == nil {
			r.Fields = store.Fields{}
		}
		for k, val := range fields {
			if val == nil {
				delete(r.Fields, k)
				continue
			}
			r.Fields[k] = val
		}
		b, err := json.Marshal(r)
		if err != nil {
			return err
		}
		out = r
		return recB.Put([]byte(id), b)
	})
	return out, err
}

func (s *Store) Create(ctx context.Context, table string, fields store.Fields) (store.Record, error) {
	if err := ctx.Err(); err != nil {
		return store.Record{}, err
	}
	r := store.Record{
		ID:          newRecordID(),
		CreatedTime: s.now().UTC(),
		Fields:      fields.Clone(),
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		return putRecord(tx, table, r)
	})
	if err != nil {
		return store.Record{}, err
	}
	return r, nil
}

// Rebuild replaces the named tables with the given records in one
// transaction. Tables not mentioned are kept.
func (s *Store) Rebuild(tables map[string][]store.Record) error {
	now := s.now().UTC()
	return s.db.Update(func(tx *bolt.Tx) error {
		for table, records := range tables {
			_ = tx.DeleteBucket([]byte(table))
			for i, r := range records {
				if strings.TrimSpace(r.ID) == "" {
					r.ID = newRecordID()
				}
				if r.CreatedTime.IsZero() {
					// keep seed file order for records without timestamps
					r.CreatedTime = now.Add(time.Duration(i))
				}
				if r.Fields == nil {
					r.Fields = store.Fields{}
				}
				if err := putRecord(tx, table, r); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func putRecord(tx *bolt.Tx, table string, r store.Record) error {
	tb, err := tx.CreateBucketIfNotExists([]byte(table))
	if err != nil {
		return err
	}
	recB, err := tb.CreateBucketIfNotExists(bRecords)
	if err != nil {
		return err
	}
	orderB, err := tb.CreateBucketIfNotExists(bOrder)
	if err != nil {
		return err
	}
	b, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if err := recB.Put([]byte(r.ID), b); err != nil {
		return err
	}
	return orderB.Put(makeOrderKey(r.CreatedTime.UnixNano(), r.ID), []byte{1})
}

func newRecordID() string {
	return "rec" + strings.ReplaceAll(uuid.NewString(), "-", "")[:14]
}
