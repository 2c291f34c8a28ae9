package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/c9s/kfeed/pkg/indicator"
	"github.com/c9s/kfeed/pkg/replay"
	"github.com/c9s/kfeed/pkg/series"
	"github.com/c9s/kfeed/pkg/store"
	"github.com/c9s/kfeed/pkg/types"
)

const DefaultBind = ":8080"

// StatusReporter is implemented by the simulation exchange.
type StatusReporter interface {
	Status() replay.Status
}

type Server struct {
	Exchange types.Exchange
	Runtime  *store.Runtime
}

type statusResponse struct {
	Exchange types.ExchangeName   `json:"exchange"`
	Status   replay.Status        `json:"status,omitempty"`
	Time     *time.Time           `json:"time,omitempty"`
	Current  *types.Subscription  `json:"current,omitempty"`
	Keys     []types.Subscription `json:"keys"`
}

type seriesResponse struct {
	Symbol   types.Symbol   `json:"symbol"`
	Interval types.Interval `json:"interval"`
	Ready    bool           `json:"ready"`

	Time   []float64 `json:"time"`
	Open   []float64 `json:"open"`
	High   []float64 `json:"high"`
	Low    []float64 `json:"low"`
	Close  []float64 `json:"close"`
	Volume []float64 `json:"volume"`

	Indicators map[string][]float64 `json:"indicators,omitempty"`
}

// NewRouter sets up the status api and the metrics endpoint.
func (s *Server) NewRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:    []string{"*"},
		AllowHeaders:    []string{"Origin", "Content-Type"},
		ExposeHeaders:   []string{"Content-Length"},
		AllowMethods:    []string{"GET"},
		AllowWebSockets: false,
		MaxAge:          12 * time.Hour,
	}))

	r.GET("/api/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	r.GET("/api/status", s.handleStatus)
	r.GET("/api/series/:symbol/:interval", s.handleSeries)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func (s *Server) handleStatus(c *gin.Context) {
	resp := statusResponse{
		Exchange: s.Exchange.Name(),
		Keys:     s.Runtime.Keys(),
	}

	if reporter, ok := s.Exchange.(StatusReporter); ok {
		resp.Status = reporter.Status()
	}

	now, err := s.Exchange.Time(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	if !now.IsZero() {
		resp.Time = &now
	}

	if symbol, interval, ok := s.Runtime.Current(); ok {
		resp.Current = &types.Subscription{Symbol: symbol, Interval: interval}
	}

	c.JSON(http.StatusOK, resp)
}

// handleSeries returns the stored window newest first. The sma and ema
// query parameters add averages of the close with the given window.
func (s *Server) handleSeries(c *gin.Context) {
	symbol, err := types.ParseSymbol(c.Param("symbol"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	interval := types.Interval(c.Param("interval"))
	if err := interval.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snapshot := s.Runtime.Snapshot(symbol, interval)
	resp := seriesResponse{
		Symbol:   symbol,
		Interval: interval,
		Ready:    snapshot.Ready,
		Time:     series.Values[float64](snapshot.Time),
		Open:     series.Values[float64](snapshot.Open),
		High:     series.Values[float64](snapshot.High),
		Low:      series.Values[float64](snapshot.Low),
		Close:    series.Values[float64](snapshot.Close),
		Volume:   series.Values[float64](snapshot.Volume),
	}

	averages := map[string]func(series.Series[float64], int) *series.Indicator[float64]{
		"sma": indicator.SMA,
		"ema": indicator.EMA,
	}
	for name, fn := range averages {
		param, ok := c.GetQuery(name)
		if !ok {
			continue
		}

		window, err := strconv.Atoi(param)
		if err != nil || window <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + " window: " + param})
			return
		}

		if resp.Indicators == nil {
			resp.Indicators = make(map[string][]float64)
		}
		resp.Indicators[name+strconv.Itoa(window)] = series.Values[float64](fn(snapshot.Close, window))
	}

	c.JSON(http.StatusOK, resp)
}

// Run serves until the context is canceled.
func (s *Server) Run(ctx context.Context, bind string) error {
	if bind == "" {
		bind = DefaultBind
	}

	srv := &http.Server{
		Addr:    bind,
		Handler: s.NewRouter(),
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Error("server shutdown error")
		}
	}()

	logrus.Infof("serving status api at %s", bind)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}
