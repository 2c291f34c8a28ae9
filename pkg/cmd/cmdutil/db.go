package cmdutil

import (
	"context"
	"io"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/c9s/kfeed/pkg/archive"
	"github.com/c9s/kfeed/pkg/config"
)

func ConnectMySQL(dsn string) (*sqlx.DB, error) {
	config, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}

	config.ParseTime = true
	dsn = config.FormatDSN()
	return sqlx.Connect("mysql", dsn)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewArchiveStore opens the archive cache selected by the exchange config.
// The returned closer releases the database connection of the sql stores.
func NewArchiveStore(ctx context.Context, conf config.Exchange) (archive.Store, io.Closer, error) {
	switch conf.Store {
	case "", config.StoreTypeFile:
		cacheDir := conf.CacheDir
		if cacheDir == "" {
			cacheDir = config.DefaultCacheDir
		}
		return archive.NewFileStore(cacheDir, nil), nopCloser{}, nil

	case config.StoreTypeSQLite:
		store, err := archive.NewSQLStore(ctx, "sqlite3", conf.DSN, nil)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil

	case config.StoreTypeMySQL:
		db, err := ConnectMySQL(conf.DSN)
		if err != nil {
			return nil, nil, errors.Wrap(err, "connect mysql")
		}

		store := archive.NewSQLStoreWithDB(db, nil)
		if err := store.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return store, store, nil
	}

	return nil, nil, errors.Errorf("unsupported archive store %q", conf.Store)
}
