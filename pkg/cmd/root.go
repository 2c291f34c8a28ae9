package cmd

import (
	"os"
	"path"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rifflock/lfshook"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/x-cray/logrus-prefixed-formatter"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/c9s/kfeed/pkg/cmd/cmdutil"
	"github.com/c9s/kfeed/pkg/config"

	// register the strategies
	_ "github.com/c9s/kfeed/pkg/strategy/smacross"
)

var RootCmd = &cobra.Command{
	Use:   "kfeed",
	Short: "kline feed and replay engine",
	Long:  "stream live klines or replay the monthly archive through the same strategy runtime",

	// SilenceUsage is an option to silence usage when an error occurs.
	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetBool("debug") {
			log.SetLevel(log.DebugLevel)
		}

		return loadDotenv(".env.local", ".env")
	},

	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	RootCmd.PersistentFlags().Bool("debug", false, "debug flag")
	RootCmd.PersistentFlags().String("config", "kfeed.yaml", "config file")
	cmdutil.PersistentFlags(RootCmd.PersistentFlags())
}

// loadDotenv loads the files that exist, variables already set are kept.
func loadDotenv(files ...string) error {
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}

		if err := godotenv.Load(file); err != nil {
			return err
		}

		log.Debugf("loaded dotenv file %s", file)
	}

	return nil
}

// loadConfig loads the config file and applies the flag overrides.
func loadConfig() (*config.Config, error) {
	conf, err := config.Load(viper.GetString("config"))
	if err != nil {
		return nil, err
	}

	if key := viper.GetString("binance-api-key"); key != "" {
		conf.Exchange.Key = key
		conf.Exchange.Secret = viper.GetString("binance-api-secret")
	}

	if cacheDir := viper.GetString("cache-dir"); cacheDir != "" {
		conf.Exchange.CacheDir = cacheDir
	}

	return conf, nil
}

func Execute() {
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	// Enable environment variable binding, the env vars are not overloaded yet.
	viper.AutomaticEnv()

	// Once the flags are defined, we can bind config keys with flags.
	if err := viper.BindPFlags(RootCmd.PersistentFlags()); err != nil {
		log.WithError(err).Errorf("failed to bind persistent flags. please check the flag settings.")
	}

	if err := viper.BindPFlags(RootCmd.Flags()); err != nil {
		log.WithError(err).Errorf("failed to bind local flags. please check the flag settings.")
	}

	log.SetFormatter(&prefixed.TextFormatter{})

	logger := log.StandardLogger()

	environment := os.Getenv("KFEED_ENV")
	switch environment {
	case "production", "prod":
		writer := &lumberjack.Logger{
			Filename:   path.Join("log", "kfeed.log"),
			MaxSize:    100,
			MaxBackups: 7,
			MaxAge:     28,
		}
		logger.AddHook(
			lfshook.NewHook(
				lfshook.WriterMap{
					log.DebugLevel: writer,
					log.InfoLevel:  writer,
					log.WarnLevel:  writer,
					log.ErrorLevel: writer,
					log.FatalLevel: writer,
				},
				&log.JSONFormatter{},
			),
		)
	}

	if err := RootCmd.Execute(); err != nil {
		log.WithError(err).Fatalf("cannot execute command")
	}
}
