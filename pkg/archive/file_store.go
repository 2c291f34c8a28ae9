package archive

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/c9s/kfeed/pkg/types"
)

// FileStore caches archive units as CSV files under <dir>/binance.
type FileStore struct {
	dir     string
	source  Source
	decoder CSVKLineDecoder
}

func NewFileStore(cacheDir string, source Source) *FileStore {
	if source == nil {
		source = NewDownloader()
	}

	return &FileStore{
		dir:     filepath.Join(cacheDir, "binance"),
		source:  source,
		decoder: BinanceCSVKLineDecoder,
	}
}

// Path is the cache file of the unit, e.g. <dir>/binance/BTCUSDT-1m-2022-01.csv
func (s *FileStore) Path(key UnitKey) string {
	return filepath.Join(s.dir, key.Name()+".csv")
}

func (s *FileStore) Exists(_ context.Context, key UnitKey) (bool, error) {
	info, err := os.Stat(s.Path(key))
	if os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		return false, err
	}

	return !info.IsDir(), nil
}

func (s *FileStore) Read(_ context.Context, key UnitKey) ([]types.KLine, error) {
	f, err := os.Open(s.Path(key))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	klines, err := ReadKLines(f, s.decoder)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", s.Path(key))
	}
	return klines, nil
}

// lockRetryDelay is how often a blocked Fetch retries the unit lock.
const lockRetryDelay = 100 * time.Millisecond

// Fetch downloads the unit and renames it into place once fully written.
// The unit is locked with a lock file next to it so concurrent processes
// sharing the cache directory download it once.
func (s *FileStore) Fetch(ctx context.Context, key UnitKey) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errors.Wrapf(err, "mkdir %s", s.dir)
	}

	unitLock := flock.New(s.Path(key) + ".lock")
	locked, err := unitLock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return errors.Wrapf(err, "lock %s", key.Name())
	} else if !locked {
		return errors.Errorf("unable to lock %s", key.Name())
	}

	defer func() {
		if err := unitLock.Unlock(); err != nil {
			log.WithError(err).Errorf("archive unit unlock error: %s", key.Name())
		}
	}()

	// another process may have written the unit while we were waiting
	if exists, err := s.Exists(ctx, key); err != nil {
		return err
	} else if exists {
		return nil
	}

	content, err := s.source.Download(ctx, key)
	if err != nil {
		return err
	}

	return s.Write(key, bytes.NewReader(content))
}

// Write stores CSV content as the unit.
func (s *FileStore) Write(key UnitKey, content *bytes.Reader) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return errors.Wrapf(err, "mkdir %s", s.dir)
	}

	tmp, err := os.CreateTemp(s.dir, key.Name()+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := content.WriteTo(tmp); err != nil {
		_ = tmp.Close()
		return errors.Wrapf(err, "write %s", tmp.Name())
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), s.Path(key))
}

var _ Store = (*FileStore)(nil)
