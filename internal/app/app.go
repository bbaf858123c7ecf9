// Package app wires together configuration, the fetch client, and the local
// store into a single Deps struct that commands receive at runtime.
package app

import (
	"fmt"
	"sync"

	"github.com/derickschaefer/jstat/internal/config"
	"github.com/derickschaefer/jstat/internal/fetch"
	"github.com/derickschaefer/jstat/internal/store"
)

// Deps holds all runtime dependencies injected into command Run functions.
// Store is nil until RequireStore succeeds.
type Deps struct {
	Config *config.Config
	Client *fetch.Client
	Store  *store.Store

	mu       sync.Mutex
	storeErr error
}

// New builds a Deps from resolved config.
func New(cfg *config.Config) (*Deps, error) {
	client, err := fetch.NewClient(
		cfg.BaseURL,
		cfg.UserAgent,
		cfg.Timeout,
		cfg.Rate,
		cfg.Debug,
	)
	if err != nil {
		return nil, err
	}
	return &Deps{
		Config: cfg,
		Client: client,
	}, nil
}

// RequireStore opens the local store at Config.DBPath if it is not open
// yet. A failed open is remembered and returned on later calls.
func (d *Deps) RequireStore() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Store != nil {
		return nil
	}
	if d.storeErr != nil {
		return d.storeErr
	}
	if d.Config.DBPath == "" {
		d.storeErr = fmt.Errorf("no database path configured (set db_path or %s)", config.EnvDBPath)
		return d.storeErr
	}
	s, err := store.Open(d.Config.DBPath)
	if err != nil {
		d.storeErr = fmt.Errorf("opening store: %w", err)
		return d.storeErr
	}
	d.Store = s
	return nil
}

// Close releases the store if it was opened.
func (d *Deps) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.Store == nil {
		return nil
	}
	err := d.Store.Close()
	d.Store = nil
	return err
}
