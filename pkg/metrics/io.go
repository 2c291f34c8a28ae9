package metrics

import "github.com/prometheus/client_golang/prometheus"

var ArchiveFetchMetrics = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kfeed_archive_fetch_total",
		Help: "archive unit fetches by result",
	}, []string{"store", "symbol", "interval", "result"})

var ArchiveReadKLinesMetrics = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kfeed_archive_read_klines_total",
		Help: "klines read from archive units",
	}, []string{"store", "symbol", "interval"})

var StreamReconnectMetrics = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kfeed_stream_reconnect_total",
		Help: "live stream connection attempts after the first one",
	}, []string{"exchange"})

var StreamKLineMetrics = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kfeed_stream_closed_klines_total",
		Help: "closed klines received from the live stream",
	}, []string{"exchange", "symbol", "interval"})

func init() {
	prometheus.MustRegister(
		ArchiveFetchMetrics,
		ArchiveReadKLinesMetrics,
		StreamReconnectMetrics,
		StreamKLineMetrics,
	)
}
