package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/c9s/kfeed/pkg/cmd/cmdutil"
	"github.com/c9s/kfeed/pkg/server"
	"github.com/c9s/kfeed/pkg/store"
	"github.com/c9s/kfeed/pkg/trader"
)

// go run ./cmd/kfeed serve --config kfeed.yaml
var serveCmd = &cobra.Command{
	Use:          "serve",
	Short:        "run the configured feed and strategies and serve the status api",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
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

		ex, err := cmdutil.NewExchange(conf, archiveStore)
		if err != nil {
			return err
		}

		runtime := store.NewRuntime(conf.Runtime)
		t := trader.New(ex, runtime, newStrategy(conf))
		t.ContinueOnError = true

		bind, _ := cmd.Flags().GetString("bind")
		if bind == "" && conf.Server != nil {
			bind = conf.Server.Bind
		}

		srv := &server.Server{Exchange: ex, Runtime: runtime}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return srv.Run(ctx, bind)
		})
		g.Go(func() error {
			if err := t.Run(ctx, conf.Subscriptions()); err != nil && ctx.Err() == nil {
				return err
			}

			// the status api stays up after a replay completes
			log.Infof("feed ended, serving until interrupted")
			return nil
		})

		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().String("bind", "", "bind address, overrides server.bind")
	RootCmd.AddCommand(serveCmd)
}
