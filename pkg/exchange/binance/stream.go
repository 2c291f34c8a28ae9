package binance

import (
	"context"
	"iter"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/c9s/kfeed/pkg/metrics"
	"github.com/c9s/kfeed/pkg/types"
	"github.com/c9s/kfeed/pkg/util/backoff"
)

const StreamBaseURL = "wss://stream.binance.com:9443"

// DefaultStreamRetry allows three connections in total.
var DefaultStreamRetry = backoff.Policy{
	Attempts:        3,
	InitialInterval: time.Second,
	MaxInterval:     10 * time.Second,
}

var errStopped = errors.New("stream stopped by consumer")

// StreamName returns the kline stream name, e.g. btcusdt@kline_1m
func StreamName(s types.Subscription) string {
	return strings.ToLower(s.Symbol.String()) + "@kline_" + s.Interval.String()
}

func (e *Exchange) streamURL(subscriptions []types.Subscription) string {
	names := make([]string, len(subscriptions))
	for i, s := range subscriptions {
		names[i] = StreamName(s)
	}
	return e.StreamBaseURL + "/stream?streams=" + strings.Join(names, "/")
}

// Stream emits the closed klines of the subscriptions. A dropped connection
// is reopened until the retry policy is exhausted, the stream then ends with
// an error wrapping types.ErrTransportFailure.
func (e *Exchange) Stream(ctx context.Context, subscriptions []types.Subscription) iter.Seq2[types.KLineEvent, error] {
	return func(yield func(types.KLineEvent, error) bool) {
		if err := types.ValidateSubscriptions(subscriptions); err != nil {
			yield(types.KLineEvent{}, err)
			return
		}

		subscribed := make(map[types.Subscription]struct{}, len(subscriptions))
		symbols := make(map[string]types.Symbol, len(subscriptions))
		for _, s := range subscriptions {
			subscribed[s] = struct{}{}
			symbols[s.Symbol.String()] = s.Symbol
		}

		endpoint := e.streamURL(subscriptions)
		attempts := 0
		err := backoff.Retry(ctx, e.StreamRetry, func() error {
			attempts++
			if attempts > 1 {
				metrics.StreamReconnectMetrics.WithLabelValues(e.Name().String()).Inc()
			}

			err := e.session(ctx, endpoint, func(event *KLineEvent) bool {
				symbol, ok := symbols[event.Symbol]
				if !ok {
					return true
				}

				sub := types.Subscription{Symbol: symbol, Interval: event.Interval}
				if _, ok := subscribed[sub]; !ok {
					return true
				}

				metrics.StreamKLineMetrics.WithLabelValues(e.Name().String(), event.Symbol, event.Interval.String()).Inc()
				return yield(types.KLineEvent{Symbol: symbol, KLine: event.KLine, Interval: event.Interval}, nil)
			})
			if errors.Is(err, errStopped) || ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}, func(err error, wait time.Duration) {
			log.WithError(err).Warnf("kline stream disconnected, reconnecting in %s", wait)
		})

		switch {
		case err == nil || errors.Is(err, errStopped):
		case ctx.Err() != nil:
			yield(types.KLineEvent{}, ctx.Err())
		default:
			yield(types.KLineEvent{}, errors.Wrapf(types.ErrTransportFailure, "gave up after %d connection attempts: %v", attempts, err))
		}
	}
}

// session reads one connection until it fails. Keep-alive PINGs are answered
// here, only closed klines reach emit. errStopped is returned once emit
// returns false.
func (e *Exchange) session(ctx context.Context, endpoint string, emit func(event *KLineEvent) bool) error {
	log.Infof("connecting to %s", endpoint)

	conn, _, err := e.Dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return errors.Wrap(err, "websocket dial error")
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			return errors.Wrap(err, "websocket read error")
		}

		if messageType == websocket.TextMessage && string(message) == "PING" {
			if err := conn.WriteMessage(websocket.TextMessage, []byte("PONG")); err != nil {
				return errors.Wrap(err, "websocket pong error")
			}
			continue
		}

		event, err := parseKLineEvent(message)
		if err != nil {
			log.WithError(err).Warnf("skipping message: %s", message)
			continue
		}

		if !event.Closed {
			continue
		}

		if !emit(event) {
			return errStopped
		}
	}
}
