package metrics

import "github.com/prometheus/client_golang/prometheus"

var ReplayEmittedKLinesMetrics = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kfeed_replay_emitted_klines_total",
		Help: "klines emitted by the replay engine",
	}, []string{"symbol", "interval"})

var ReplayCursorMetrics = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Name: "kfeed_replay_cursor_milliseconds",
		Help: "replay cursor, -1 when not started",
	})

var ReplayStatusMetrics = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "kfeed_replay_status",
		Help: "1 for the current replay status, 0 for the others",
	}, []string{"status"})

var RuntimePushedKLinesMetrics = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kfeed_runtime_pushed_klines_total",
		Help: "klines pushed into the runtime store",
	}, []string{"symbol", "interval"})

var RuntimeWindowLengthMetrics = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "kfeed_runtime_window_length",
		Help: "number of klines held per symbol and interval",
	}, []string{"symbol", "interval"})

func init() {
	prometheus.MustRegister(
		ReplayEmittedKLinesMetrics,
		ReplayCursorMetrics,
		ReplayStatusMetrics,
		RuntimePushedKLinesMetrics,
		RuntimeWindowLengthMetrics,
	)
}
