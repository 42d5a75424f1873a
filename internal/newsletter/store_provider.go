package newsletter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"inflections/internal/store"
)

const (
	DefaultTable = "Newsletter"

	fieldEmail      = "Email"
	fieldSubscribed = "Subscribed Date"
	fieldStatus     = "Status"
	statusActive    = "Active"
)

// StoreProvider keeps subscribers as records of a table in the content store.
type StoreProvider struct {
	store store.Store
	table string

	// serialises check-then-create within this process
	mu sync.Mutex
}

func NewStoreProvider(st store.Store, table string) *StoreProvider {
	if table == "" {
		table = DefaultTable
	}
	return &StoreProvider{store: st, table: table}
}

func (p *StoreProvider) Subscribe(ctx context.Context, email string, at time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	existing, err := p.store.Select(ctx, p.table, store.Query{
		Filter:     store.Eq(fieldEmail, email),
		MaxRecords: 1,
	})
	if err != nil {
		return fmt.Errorf("lookup subscriber: %w", err)
	}
	if len(existing) > 0 {
		return ErrAlreadySubscribed
	}

	_, err = p.store.Create(ctx, p.table, store.Fields{
		fieldEmail:      email,
		fieldSubscribed: at.Format(time.DateOnly),
		fieldStatus:     statusActive,
	})
	if err != nil {
		return fmt.Errorf("create subscriber: %w", err)
	}
	return nil
}
