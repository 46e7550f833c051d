package command

import (
	"fmt"
	"os"

	"github.com/ledgerd/node/config"
	"github.com/ledgerd/node/engine"
	"github.com/ledgerd/node/filestore"
	vers "github.com/ledgerd/node/version"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfg     *config.Config
	version *bool
)

func init() {
	cfg = config.NewDefaultConfig()

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfg.SelfID, "id", cfg.SelfID, "This node's peer id")
	rootCmd.PersistentFlags().StringVarP(&cfg.BindAddr, "listen", "l", cfg.BindAddr, "This node's IP:Port as shown in logs (peer RPCs are served on --service-listen)")
	rootCmd.PersistentFlags().StringVarP(&cfg.ServiceAddr, "service-listen", "s", cfg.ServiceAddr, "HTTP service listen IP:Port for peer RPCs")
	rootCmd.PersistentFlags().StringVar(&cfg.LogLevel, "log", cfg.LogLevel, "Log level (debug, info, warn, error, fatal, panic)")

	rootCmd.PersistentFlags().IntVar(&cfg.RecentSnapshotNumber, "recent-snapshot-number", cfg.RecentSnapshotNumber, "Truncation length of the recent-snapshots list")
	rootCmd.PersistentFlags().Int64Var(&cfg.SnapshotHeightRedownloadDelayInterval, "redownload-delay-interval", cfg.SnapshotHeightRedownloadDelayInterval, "Height gap beyond which this node redownloads")
	rootCmd.PersistentFlags().IntVar(&cfg.MaxInvalidSnapshotRate, "max-invalid-snapshot-rate", cfg.MaxInvalidSnapshotRate, "Percentage (0-100) of invalid verifications at which ShouldRunClusterCheck reports a cluster check is due")

	rootCmd.PersistentFlags().IntVar(&cfg.InConsensusCapacity, "in-consensus-capacity", cfg.InConsensusCapacity, "Capacity of the InConsensus, Accepted and Unknown substores")
	rootCmd.PersistentFlags().IntVar(&cfg.AcceptedCapacity, "accepted-capacity", cfg.AcceptedCapacity, "Accepted substore capacity (not read; --in-consensus-capacity sizes all three substores)")
	rootCmd.PersistentFlags().IntVar(&cfg.UnknownCapacity, "unknown-capacity", cfg.UnknownCapacity, "Unknown substore capacity (not read; --in-consensus-capacity sizes all three substores)")
	rootCmd.PersistentFlags().BoolVar(&cfg.CompatMetricsIndexBug, "compat-metrics-index-bug", cfg.CompatMetricsIndexBug, "Reproduce the documented getMetricsMap index bug")

	rootCmd.PersistentFlags().DurationVar(&cfg.BroadcastInterval, "broadcast-interval", cfg.BroadcastInterval, "Opportunistic verifyRecentSnapshots tick interval")
	rootCmd.PersistentFlags().DurationVar(&cfg.HealthCheckInterval, "health-check-interval", cfg.HealthCheckInterval, "Health-check tick interval")

	version = rootCmd.PersistentFlags().BoolP("version", "v", false, "Show version and exit")
}

func initConfig() {
	viper.SetConfigName("ledgerd")
	viper.AddConfigPath(".")
	viper.BindPFlags(rootCmd.PersistentFlags())

	if err := viper.ReadInConfig(); err != nil {
		cfg.Logger().WithError(err).Warn("no config file found, taking cli or default")
	}

	if err := viper.Unmarshal(cfg); err != nil {
		cfg.Logger().WithError(err).Warn("could not unmarshal config, taking cli or default")
	}
}

var rootCmd = &cobra.Command{
	Use:   "ledgerd",
	Short: "ledgerd consensus lifecycle and snapshot redownload node",
	Long:  "ledgerd consensus lifecycle and snapshot redownload node",
	Run: func(cmd *cobra.Command, args []string) {
		if *version {
			fmt.Println(vers.Version)
			return
		}

		logger := cfg.Logger()
		logger.WithFields(logrus.Fields{
			"id":                        cfg.SelfID,
			"listen":                    cfg.BindAddr,
			"service-listen":            cfg.ServiceAddr,
			"log":                       cfg.LogLevel,
			"recent-snapshot-number":    cfg.RecentSnapshotNumber,
			"redownload-delay-interval": cfg.SnapshotHeightRedownloadDelayInterval,
			"max-invalid-snapshot-rate": cfg.MaxInvalidSnapshotRate,
			"compat-metrics-index-bug":  cfg.CompatMetricsIndexBug,
		}).Debug("RUN")

		e := engine.New[engine.GenericItem](cfg, filestore.NullFileStore{})
		e.Run()
	},
}

// Execute runs the root command, exiting the process on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
