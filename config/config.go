// Package config defines the configuration for a ledgerd node.
//
// Regardless of how the node is started — directly from Go code via
// engine.Engine, or as a standalone process from cmd/ledgerd — it uses the
// Config object defined in this package to store and forward configuration
// options, following the same viper/mapstructure binding and logrus setup
// the teacher uses for its own Config.
package config

import (
	"testing"
	"time"

	"github.com/ledgerd/node/common"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Default configuration values (spec.md §6: recentSnapshotNumber,
// snapshotHeightRedownloadDelayInterval, maxInvalidSnapshotRate, and the
// per-substore capacity of 240 for InConsensus/Accepted/Unknown).
const (
	DefaultLogLevel                              = "debug"
	DefaultBindAddr                              = "127.0.0.1:1337"
	DefaultServiceAddr                           = "127.0.0.1:8000"
	DefaultRecentSnapshotNumber                  = 20
	DefaultSnapshotHeightRedownloadDelayInterval = int64(1000)
	DefaultMaxInvalidSnapshotRate                = 34 // percent, 0-100
	DefaultSubstoreCapacity                      = 240
	DefaultCompatMetricsIndexBug                 = true
	DefaultBroadcastInterval                     = 2 * time.Second
	DefaultHealthCheckInterval                   = 30 * time.Second
)

// Config contains all the configuration properties of a ledgerd node.
type Config struct {
	// SelfID identifies this node in SnapshotVerification responses and in
	// the peer directory it joins.
	SelfID string `mapstructure:"id"`

	// LogLevel determines the chattiness of the log output.
	LogLevel string `mapstructure:"log"`

	// BindAddr is this node's own address:port as shown in its log lines and
	// in Engine.String(). The engine opens no listener on it; the peer RPCs
	// are served on ServiceAddr.
	BindAddr string `mapstructure:"listen"`

	// ServiceAddr is the address:port where the HTTP service listens for
	// peer RPCs (/snapshot/verify, /snapshot/recent).
	ServiceAddr string `mapstructure:"service-listen"`

	// RecentSnapshotNumber is N, the truncation length of recentSnapshots
	// (I4).
	RecentSnapshotNumber int `mapstructure:"recent-snapshot-number"`

	// SnapshotHeightRedownloadDelayInterval is the height gap (C7
	// belowInterval) beyond which a node is considered too far behind.
	SnapshotHeightRedownloadDelayInterval int64 `mapstructure:"redownload-delay-interval"`

	// MaxInvalidSnapshotRate is the percentage (0-100) of SnapshotInvalid
	// responses at which snapshot.ShouldRunClusterCheck reports that an
	// out-of-band cluster check is due (C9's shouldRunClusterCheck). The
	// engine hands it to the broadcast loop, which stores it; nothing in the
	// engine calls ShouldRunClusterCheck, so it starts no cluster check.
	MaxInvalidSnapshotRate int `mapstructure:"max-invalid-snapshot-rate"`

	// InConsensusCapacity bounds the consensus lifecycle substores (C1):
	// engine.New passes it to consensus.WithCapacity, which applies it to
	// InConsensus, Accepted and Unknown alike. AcceptedCapacity and
	// UnknownCapacity are parsed but not read by the engine. Default 240 per
	// spec.md §6.
	InConsensusCapacity int `mapstructure:"in-consensus-capacity"`
	AcceptedCapacity    int `mapstructure:"accepted-capacity"`
	UnknownCapacity     int `mapstructure:"unknown-capacity"`

	// CompatMetricsIndexBug reproduces the documented getMetricsMap index
	// bug (spec.md §9) when true; set false for the corrected behavior.
	CompatMetricsIndexBug bool `mapstructure:"compat-metrics-index-bug"`

	// BroadcastInterval and HealthCheckInterval pace C9's opportunistic
	// verifyRecentSnapshots tick and C10's runClusterCheck tick.
	BroadcastInterval   time.Duration `mapstructure:"broadcast-interval"`
	HealthCheckInterval time.Duration `mapstructure:"health-check-interval"`

	// LogFile, when set, additionally writes Info, Warn and Error log lines
	// to that path via an lfshook hook, on top of the level-filtered stderr
	// output every *logrus.Entry already gets.
	LogFile string `mapstructure:"log-file"`

	logger *logrus.Logger
}

// NewDefaultConfig returns a config object with default values.
func NewDefaultConfig() *Config {
	return &Config{
		LogLevel:                               DefaultLogLevel,
		BindAddr:                                DefaultBindAddr,
		ServiceAddr:                             DefaultServiceAddr,
		RecentSnapshotNumber:                    DefaultRecentSnapshotNumber,
		SnapshotHeightRedownloadDelayInterval:   DefaultSnapshotHeightRedownloadDelayInterval,
		MaxInvalidSnapshotRate:                  DefaultMaxInvalidSnapshotRate,
		InConsensusCapacity:                     DefaultSubstoreCapacity,
		AcceptedCapacity:                        DefaultSubstoreCapacity,
		UnknownCapacity:                         DefaultSubstoreCapacity,
		CompatMetricsIndexBug:                   DefaultCompatMetricsIndexBug,
		BroadcastInterval:                       DefaultBroadcastInterval,
		HealthCheckInterval:                     DefaultHealthCheckInterval,
	}
}

// NewTestConfig returns a config object with default values and a special
// logger for debugging tests.
func NewTestConfig(t testing.TB) *Config {
	config := NewDefaultConfig()
	config.logger = common.NewTestLogger(t)
	return config
}

// MaxInvalidSnapshotRateFraction converts the configured 0-100 percentage
// into the 0-1 fraction snapshot.ShouldRunClusterCheck expects.
func (c *Config) MaxInvalidSnapshotRateFraction() float64 {
	return float64(c.MaxInvalidSnapshotRate) / 100.0
}

// Logger returns a formatted logrus Entry, with prefix set to "ledgerd". If
// LogFile is set, an lfshook hook additionally mirrors Info, Warn and Error
// lines to that file, the way the teacher's dummy client sets up a PathMap hook
// per level.
func (c *Config) Logger() *logrus.Entry {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Level = LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)

		if c.LogFile != "" {
			pathMap := lfshook.PathMap{
				logrus.InfoLevel:  c.LogFile,
				logrus.WarnLevel:  c.LogFile,
				logrus.ErrorLevel: c.LogFile,
			}
			c.logger.Hooks.Add(lfshook.NewHook(pathMap, new(prefixed.TextFormatter)))
		}
	}
	return c.logger.WithField("prefix", "ledgerd")
}

// LogLevel parses a string into a logrus log level.
func LogLevel(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.DebugLevel
	}
}
