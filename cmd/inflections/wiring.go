package main

import (
	"context"
	"errors"
	"fmt"

	"inflections/internal/cache"
	"inflections/internal/domain/config"
	"inflections/internal/logger"
	"inflections/internal/magazine"
	"inflections/internal/schema"
	"inflections/internal/seed"
	"inflections/internal/store"
	"inflections/internal/store/airtable"
	"inflections/internal/store/boltstore"
)

// backend is the configured content store plus what runs on top of it.
type backend struct {
	store  store.Store
	bolt   *boltstore.Store
	schema schema.Schema
}

func openBackend(cfg config.Config) (*backend, error) {
	sc, err := schema.ByName(cfg.Store.Schema)
	if err != nil {
		return nil, err
	}
	switch cfg.Store.Driver {
	case config.DriverAirtable:
		at := cfg.Store.Airtable
		c, err := airtable.New(airtable.Options{
			BaseURL:           at.BaseURL,
			BaseID:            at.BaseID,
			APIKey:            at.APIKey,
			Timeout:           cfg.Store.Timeout,
			RequestsPerSecond: at.RequestsPerSecond,
		})
		if err != nil {
			return nil, err
		}
		return &backend{store: c, schema: sc}, nil
	case config.DriverBolt:
		st, err := boltstore.Open(boltstore.OpenOptions{Path: cfg.Store.Bolt.Path})
		if err != nil {
			return nil, fmt.Errorf("open local store: %w", err)
		}
		return &backend{store: st, bolt: st, schema: sc}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func (b *backend) Close() error {
	if b.bolt != nil {
		return b.bolt.Close()
	}
	return nil
}

func (b *backend) content(cfg config.Config, log *logger.Logger) (*magazine.Service, error) {
	c, err := cache.New(cache.Options{
		TTL:    cfg.Cache.TTL,
		Size:   cfg.Cache.Size,
		Routes: cfg.Cache.Routes,
	})
	if err != nil {
		return nil, err
	}
	return magazine.NewService(b.store, b.schema, c, log), nil
}

var errNoLocalStore = errors.New("seeding needs the bolt store driver")

// reseed replaces the local store's tables with the seed directory contents.
func (b *backend) reseed(ctx context.Context, dir string, log *logger.Logger) error {
	if b.bolt == nil {
		return errNoLocalStore
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	tables, warns, err := seed.Ingest(dir)
	if err != nil {
		return fmt.Errorf("ingest %s: %w", dir, err)
	}
	for _, w := range warns {
		log.Warn("seed warning", "path", w.Path, "msg", w.Msg)
	}
	if err := b.bolt.Rebuild(tables); err != nil {
		return fmt.Errorf("rebuild local store: %w", err)
	}
	log.Info("seed loaded", "dir", dir, "tables", len(tables), "records", tables.Count())
	return nil
}
