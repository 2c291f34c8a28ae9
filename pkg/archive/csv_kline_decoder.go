package archive

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/c9s/kfeed/pkg/types"
)

var (
	// ErrNotEnoughColumns is returned when the CSV record does not have enough columns.
	ErrNotEnoughColumns = errors.New("not enough columns")

	// ErrInvalidTimeFormat is returned when the CSV time column is not unix milliseconds or microseconds.
	ErrInvalidTimeFormat = errors.New("cannot parse time string")

	// ErrInvalidPriceFormat is returned when the OHLC columns are not decimals.
	ErrInvalidPriceFormat = errors.New("OHLC prices must be in valid decimal format")

	// ErrInvalidVolumeFormat is returned when the volume column is not a decimal.
	ErrInvalidVolumeFormat = errors.New("volume must be in valid float format")
)

// Binance spot archives switched to microsecond open times in 2025.
const microsecondThreshold = 1_000_000_000_000_000

// CSVKLineDecoder decodes one CSV record into a kline.
type CSVKLineDecoder func(record []string) (types.KLine, error)

// BinanceCSVKLineDecoder decodes a data.binance.vision kline record:
// open time, open, high, low, close, volume, followed by columns we ignore.
func BinanceCSVKLineDecoder(record []string) (types.KLine, error) {
	var k types.KLine

	if len(record) < 6 {
		return k, ErrNotEnoughColumns
	}

	t, err := strconv.ParseInt(record[0], 10, 64)
	if err != nil {
		return k, ErrInvalidTimeFormat
	}
	if t >= microsecondThreshold {
		t /= 1000
	}
	k.Time = t

	prices := []*float64{&k.Open, &k.High, &k.Low, &k.Close}
	for i, p := range prices {
		if *p, err = strconv.ParseFloat(record[i+1], 64); err != nil {
			return types.KLine{}, ErrInvalidPriceFormat
		}
	}

	if k.Volume, err = strconv.ParseFloat(record[5], 64); err != nil {
		return types.KLine{}, ErrInvalidVolumeFormat
	}

	return k, nil
}

// isHeader reports whether the record is a column header row.
func isHeader(record []string) bool {
	if len(record) == 0 {
		return false
	}
	_, err := strconv.ParseInt(record[0], 10, 64)
	return err != nil
}

// ReadKLines reads all klines from a CSV stream, skipping a leading header row.
func ReadKLines(r io.Reader, decoder CSVKLineDecoder) ([]types.KLine, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = true

	var klines []types.KLine
	for line := 1; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}

		if line == 1 && isHeader(record) {
			continue
		}

		k, err := decoder(record)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}

		klines = append(klines, k)
	}

	return klines, nil
}
