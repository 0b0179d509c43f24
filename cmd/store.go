package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/flowatlas/flowmap-cli/internal/store"
)

// initStore opens the SQLite cache and applies migrations.
func initStore(ctx context.Context) (*store.SQLiteStore, error) {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}
