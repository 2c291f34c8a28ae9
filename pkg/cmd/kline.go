package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/c9s/kfeed/pkg/cmd/cmdutil"
	"github.com/c9s/kfeed/pkg/types"
)

// go run ./cmd/kfeed kline --symbol=BTC/USDT --interval=1m
var klineCmd = &cobra.Command{
	Use:   "kline",
	Short: "connect to the kline stream of binance and print the closed klines",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		symbolStr, err := cmd.Flags().GetString("symbol")
		if err != nil {
			return fmt.Errorf("can not get the symbol from flags: %w", err)
		}

		if symbolStr == "" {
			return fmt.Errorf("--symbol option is required")
		}

		symbol, err := types.ParseSymbol(symbolStr)
		if err != nil {
			return err
		}

		interval, err := cmd.Flags().GetString("interval")
		if err != nil {
			return err
		}

		ex, err := cmdutil.NewExchangeStandard(types.ExchangeBinance,
			viper.GetString("binance-api-key"),
			viper.GetString("binance-api-secret"),
			nil)
		if err != nil {
			return err
		}

		subscriptions := []types.Subscription{{Symbol: symbol, Interval: types.Interval(interval)}}

		log.Infof("connecting...")
		for event, err := range ex.Stream(ctx, subscriptions) {
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return err
			}

			log.Infof("kline closed: %s %s %s", event.Symbol, event.Interval, event.KLine.String())
		}

		return nil
	},
}

func init() {
	klineCmd.Flags().String("symbol", "", "the trading pair. e.g, BTC/USDT, ETH/BTC...")
	klineCmd.Flags().String("interval", "1m", "interval of the kline (candle), .e.g, 1m, 15m, 1h")
	RootCmd.AddCommand(klineCmd)
}
