package binance

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/valyala/fastjson"

	"github.com/c9s/kfeed/pkg/types"
)

/*
kline event of a combined stream:

{
  "stream": "btcusdt@kline_1m",
  "data": {
    "e": "kline",
    "E": 1640995260123,
    "s": "BTCUSDT",
    "k": {
      "t": 1640995200000,
      "T": 1640995259999,
      "s": "BTCUSDT",
      "i": "1m",
      "o": "46216.93",
      "c": "46250.00",
      "h": "46271.08",
      "l": "46208.37",
      "v": "40.57574",
      "x": true
    }
  }
}
*/
type KLineEvent struct {
	Symbol   string
	Interval types.Interval
	Closed   bool
	KLine    types.KLine
}

var parserPool fastjson.ParserPool

// parseKLineEvent accepts both the combined stream envelope and the raw event.
func parseKLineEvent(payload []byte) (*KLineEvent, error) {
	parser := parserPool.Get()
	defer parserPool.Put(parser)

	val, err := parser.ParseBytes(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse payload")
	}

	if data := val.Get("data"); data != nil {
		val = data
	}

	if eventType := string(val.GetStringBytes("e")); eventType != "kline" {
		return nil, errors.Errorf("unexpected event type %q", eventType)
	}

	k := val.Get("k")
	if k == nil {
		return nil, errors.New("kline event without kline body")
	}

	event := &KLineEvent{
		Symbol:   string(val.GetStringBytes("s")),
		Interval: types.Interval(k.GetStringBytes("i")),
		Closed:   k.GetBool("x"),
	}
	event.KLine.Time = k.GetInt64("t")

	fields := []struct {
		key string
		dst *float64
	}{
		{"o", &event.KLine.Open},
		{"h", &event.KLine.High},
		{"l", &event.KLine.Low},
		{"c", &event.KLine.Close},
		{"v", &event.KLine.Volume},
	}
	for _, f := range fields {
		v, err := strconv.ParseFloat(string(k.GetStringBytes(f.key)), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid kline field %s", f.key)
		}
		*f.dst = v
	}

	return event, nil
}
