package cmd

import (
	"context"
	"os"
	"os/signal"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/c9s/kfeed/pkg/cmd/cmdutil"
	"github.com/c9s/kfeed/pkg/config"
	"github.com/c9s/kfeed/pkg/store"
	"github.com/c9s/kfeed/pkg/trader"
)

func newStrategy(conf *config.Config) trader.Strategy {
	switch len(conf.Strategies) {
	case 0:
		return nil
	case 1:
		return conf.Strategies[0]
	}
	return trader.Strategies(conf.Strategies)
}

// go run ./cmd/kfeed replay --config kfeed.yaml
var replayCmd = &cobra.Command{
	Use:          "replay",
	Short:        "replay the backtest range of the archive through the configured strategies",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
		defer cancel()

		conf, err := loadConfig()
		if err != nil {
			return err
		}

		archiveStore, closer, err := cmdutil.NewArchiveStore(ctx, conf.Exchange)
		if err != nil {
			return err
		}
		defer closer.Close()

		sim, err := cmdutil.NewSimulation(conf, archiveStore)
		if err != nil {
			return err
		}

		runs, err := cmd.Flags().GetInt("runs")
		if err != nil {
			return err
		}

		runtime := store.NewRuntime(conf.Runtime)
		t := trader.New(sim, runtime, newStrategy(conf))
		t.ContinueOnError, _ = cmd.Flags().GetBool("continue-on-error")

		for run := 1; run <= runs; run++ {
			if run > 1 {
				t.Reset()
			}

			runErr := t.Run(ctx, conf.Subscriptions())

			now, _ := sim.Time(ctx)
			log.Infof("replay run %d/%d %s, cursor at %s", run, runs, sim.Status(), now)

			balances, err := sim.Balance(ctx)
			if err != nil {
				return err
			}

			renderSummary(os.Stdout, runtime, balances)

			if runErr != nil {
				return runErr
			}
		}

		return nil
	},
}

func init() {
	replayCmd.Flags().Bool("continue-on-error", false, "keep replaying when a strategy returns an error")
	replayCmd.Flags().Int("runs", 1, "replay the range this many times, the simulation and the runtime are reset between runs")
	RootCmd.AddCommand(replayCmd)
}
