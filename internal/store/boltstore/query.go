package boltstore

import (
	"context"
	"encoding/json"
	"strings"

	bolt "go.etcd.io/bbolt"

	"inflections/internal/store"
)

var _ store.Store = (*Store)(nil)

// Select walks the table in creation order and applies q in memory.
func (s *Store) Select(ctx context.Context, table string, q store.Query) ([]store.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var all []store.Record
	err := s.db.View(func(tx *bolt.Tx) error {
		tb := tx.Bucket([]byte(table))
		if tb == nil {
			return nil
		}
		recB, orderB := tb.Bucket(bRecords), tb.Bucket(bOrder)
		if recB == nil || orderB == nil {
			return nil
		}
		cur := orderB.Cursor()
		for k, _ := cur.First(); k != nil; k, _ = cur.Next() {
			id := idFromOrderKey(k)
			if id == "" {
				continue
			}
			v := recB.Get([]byte(id))
			if v == nil {
				continue
			}
			var r store.Record
			if err := json.Unmarshal(v, &r); err != nil {
				continue
			}
			all = append(all, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return store.Apply(all, q), nil
}

func (s *Store) Find(ctx context.Context, table, id string) (store.Record, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return store.Record{}, store.ErrNotFound
	}
	var r store.Record
	err := s.db.View(func(tx *bolt.Tx) error {
		recB := recordsBucket(tx, table)
		if recB == nil {
			return store.ErrNotFound
		}
		v := recB.Get([]byte(id))
		if v == nil {
			return store.ErrNotFound
		}
		return json.Unmarshal(v, &r)
	})
	return r, err
}

// Tables lists the table names present in the file.
func (s *Store) Tables() ([]string, error) {
	var names []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			names = append(names, string(name))
			return nil
		})
	})
	return names, err
}

func recordsBucket(tx *bolt.Tx, table string) *bolt.Bucket {
	tb := tx.Bucket([]byte(table))
	if tb == nil {
		return nil
	}
	return tb.Bucket(bRecords)
}
