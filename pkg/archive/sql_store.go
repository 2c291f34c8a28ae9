package archive

import (
	"bytes"
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/c9s/kfeed/pkg/types"
)

const (
	klineTable = "archive_klines"
	unitTable  = "archive_units"

	insertBatchSize = 500
)

var schema = []string{
	"CREATE TABLE IF NOT EXISTS `" + klineTable + "` (" +
		"`symbol` VARCHAR(20) NOT NULL," +
		"`interval` VARCHAR(4) NOT NULL," +
		"`time` BIGINT NOT NULL," +
		"`open` DOUBLE NOT NULL," +
		"`high` DOUBLE NOT NULL," +
		"`low` DOUBLE NOT NULL," +
		"`close` DOUBLE NOT NULL," +
		"`volume` DOUBLE NOT NULL," +
		"PRIMARY KEY (`symbol`, `interval`, `time`))",
	"CREATE TABLE IF NOT EXISTS `" + unitTable + "` (" +
		"`symbol` VARCHAR(20) NOT NULL," +
		"`interval` VARCHAR(4) NOT NULL," +
		"`year` INT NOT NULL," +
		"`month` INT NOT NULL," +
		"`klines` INT NOT NULL," +
		"`fetched_at` BIGINT NOT NULL," +
		"PRIMARY KEY (`symbol`, `interval`, `year`, `month`))",
}

// SQLStore caches archive units in a sqlite or mysql database.
// A unit exists once its row in archive_units is committed together with its klines.
type SQLStore struct {
	DB *sqlx.DB

	source  Source
	decoder CSVKLineDecoder
}

// NewSQLStore connects with the "sqlite3" or "mysql" driver and creates the schema.
func NewSQLStore(ctx context.Context, driver, dsn string, source Source) (*SQLStore, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "connect %s", driver)
	}

	s := NewSQLStoreWithDB(db, source)
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func NewSQLStoreWithDB(db *sqlx.DB, source Source) *SQLStore {
	if source == nil {
		source = NewDownloader()
	}

	return &SQLStore{DB: db, source: source, decoder: BinanceCSVKLineDecoder}
}

func (s *SQLStore) Migrate(ctx context.Context) error {
	if s.DB.DriverName() == "sqlite3" {
		_, _ = s.DB.ExecContext(ctx, "PRAGMA journal_mode = WAL")
		_, _ = s.DB.ExecContext(ctx, "PRAGMA synchronous = NORMAL")
	}

	for _, stmt := range schema {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "migrate")
		}
	}
	return nil
}

func unitConditions(key UnitKey) sq.And {
	return sq.And{
		sq.Eq{"symbol": key.Symbol.String()},
		sq.Eq{"`interval`": key.Interval.String()},
	}
}

func (s *SQLStore) Exists(ctx context.Context, key UnitKey) (bool, error) {
	sql, args, err := sq.Select("COUNT(*)").
		From(unitTable).
		Where(append(unitConditions(key),
			sq.Eq{"`year`": key.Year},
			sq.Eq{"`month`": int(key.Month)},
		)).
		ToSql()
	if err != nil {
		return false, err
	}

	var count int
	if err := s.DB.GetContext(ctx, &count, sql, args...); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *SQLStore) Read(ctx context.Context, key UnitKey) ([]types.KLine, error) {
	sql, args, err := sq.Select("`time`", "`open`", "`high`", "`low`", "`close`", "`volume`").
		From(klineTable).
		Where(append(unitConditions(key),
			sq.Expr("`time` BETWEEN ? AND ?", key.Start().UnixMilli(), key.End().UnixMilli()),
		)).
		OrderBy("`time` ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	var klines []types.KLine
	if err := s.DB.SelectContext(ctx, &klines, sql, args...); err != nil {
		return nil, err
	}
	return klines, nil
}

func (s *SQLStore) Fetch(ctx context.Context, key UnitKey) error {
	content, err := s.source.Download(ctx, key)
	if err != nil {
		return err
	}

	klines, err := ReadKLines(bytes.NewReader(content), s.decoder)
	if err != nil {
		return errors.Wrapf(err, "decode %s", key)
	}

	return s.Import(ctx, key, klines)
}

// Import stores the klines as the complete content of the unit.
func (s *SQLStore) Import(ctx context.Context, key UnitKey, klines []types.KLine) error {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	if err := s.importTx(ctx, tx, key, klines); err != nil {
		if e := tx.Rollback(); e != nil {
			log.WithError(e).Errorf("cannot rollback import of %s", key)
		}
		return err
	}

	return tx.Commit()
}

func (s *SQLStore) importTx(ctx context.Context, tx *sqlx.Tx, key UnitKey, klines []types.KLine) error {
	for start := 0; start < len(klines); start += insertBatchSize {
		end := min(start+insertBatchSize, len(klines))

		builder := sq.Replace(klineTable).
			Columns("symbol", "`interval`", "`time`", "`open`", "`high`", "`low`", "`close`", "`volume`")
		for _, k := range klines[start:end] {
			builder = builder.Values(key.Symbol.String(), key.Interval.String(), k.Time, k.Open, k.High, k.Low, k.Close, k.Volume)
		}

		sql, args, err := builder.ToSql()
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, sql, args...); err != nil {
			return errors.Wrapf(err, "insert klines of %s", key)
		}
	}

	sql, args, err := sq.Replace(unitTable).
		Columns("symbol", "`interval`", "`year`", "`month`", "`klines`", "`fetched_at`").
		Values(key.Symbol.String(), key.Interval.String(), key.Year, int(key.Month), len(klines), time.Now().UnixMilli()).
		ToSql()
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, sql, args...); err != nil {
		return errors.Wrapf(err, "insert unit %s", key)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.DB.Close()
}

var _ Store = (*SQLStore)(nil)
