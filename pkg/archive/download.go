package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const DefaultBaseURL = "https://data.binance.vision"

// Source returns the raw CSV content of a unit from upstream.
type Source interface {
	Download(ctx context.Context, key UnitKey) ([]byte, error)
}

// Downloader retrieves monthly spot kline archives from data.binance.vision.
type Downloader struct {
	BaseURL string
	Client  *http.Client

	// Limiter throttles the requests when set.
	Limiter *rate.Limiter
}

var _ Source = (*Downloader)(nil)

func NewDownloader() *Downloader {
	return &Downloader{
		BaseURL: DefaultBaseURL,
		Client:  &http.Client{Timeout: 5 * time.Minute},
		Limiter: rate.NewLimiter(rate.Every(time.Second), 5),
	}
}

// URL builds the archive URL of the unit, e.g.
// https://data.binance.vision/data/spot/monthly/klines/BTCUSDT/1m/BTCUSDT-1m-2022-01.zip
func (d *Downloader) URL(key UnitKey) string {
	return fmt.Sprintf("%s/data/spot/monthly/klines/%s/%s/%s.zip",
		d.BaseURL, key.Symbol.String(), key.Interval, key.Name())
}

// Download fetches the unit archive and returns the decompressed CSV content.
func (d *Downloader) Download(ctx context.Context, key UnitKey) ([]byte, error) {
	url := d.URL(key)

	if d.Limiter != nil {
		if err := d.Limiter.Wait(ctx); err != nil {
			return nil, errors.Wrapf(err, "rate limit, url %s", url)
		}
	}

	log.Infof("downloading %s", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "http get error, url %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unexpected status %s, url %s", resp.Status, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read response")
	}

	content, err := unzip(body)
	if err != nil {
		return nil, errors.Wrapf(err, "unzip %s", url)
	}

	return content, nil
}

// unzip returns the content of the first file in the zip archive.
func unzip(data []byte) ([]byte, error) {
	zipReader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	if len(zipReader.File) == 0 {
		return nil, errors.New("no data to unzip")
	}

	return readZipFile(zipReader.File[0])
}

func readZipFile(zf *zip.File) ([]byte, error) {
	f, err := zf.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
