package cmd

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/c9s/kfeed/pkg/archive"
	"github.com/c9s/kfeed/pkg/cmd/cmdutil"
	"github.com/c9s/kfeed/pkg/replay"
)

// go run ./cmd/kfeed fetch --config kfeed.yaml --concurrency 4
var fetchCmd = &cobra.Command{
	Use:          "fetch",
	Short:        "download the archive units of the configured backtest range",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		conf, err := loadConfig()
		if err != nil {
			return err
		}

		if conf.Backtest == nil {
			return errors.New("backtest section is required to fetch the archive")
		}

		timeRange, err := conf.Backtest.TimeRange()
		if err != nil {
			return err
		}

		concurrency, err := cmd.Flags().GetInt("concurrency")
		if err != nil {
			return err
		}

		store, closer, err := cmdutil.NewArchiveStore(ctx, conf.Exchange)
		if err != nil {
			return err
		}
		defer closer.Close()

		keys := replay.Units(conf.Subscriptions(), timeRange, time.Now())
		if len(keys) == 0 {
			log.Infof("no elapsed month in %s", timeRange)
			return nil
		}

		bar := pb.Full.Start(len(keys))
		bar.SetTemplateString(`{{ string . "unit" | green}} | {{counters . }} {{bar . }} {{percent . }} {{etime . }} {{rtime . "ETA %s"}}`)

		err = archive.Prefetch(ctx, store, keys, concurrency, func(key archive.UnitKey, err error) {
			bar.Set("unit", key.Name())
			bar.Increment()
		})
		bar.Finish()

		if err != nil {
			return err
		}

		log.Infof("%d archive units are ready", len(keys))
		return nil
	},
}

func init() {
	fetchCmd.Flags().Int("concurrency", 4, "number of concurrent downloads")
	RootCmd.AddCommand(fetchCmd)
}
