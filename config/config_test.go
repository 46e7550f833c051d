package config

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewDefaultConfigSetsSubstoreCapacities(t *testing.T) {
	cfg := NewDefaultConfig()

	if cfg.InConsensusCapacity != DefaultSubstoreCapacity ||
		cfg.AcceptedCapacity != DefaultSubstoreCapacity ||
		cfg.UnknownCapacity != DefaultSubstoreCapacity {
		t.Fatalf("expected all substore capacities to default to %d, got %+v", DefaultSubstoreCapacity, cfg)
	}
}

func TestMaxInvalidSnapshotRateFraction(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.MaxInvalidSnapshotRate = 34

	got := cfg.MaxInvalidSnapshotRateFraction()
	if got != 0.34 {
		t.Fatalf("expected 0.34, got %v", got)
	}
}

func TestLoggerAddsFileHookWhenLogFileSet(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.LogFile = t.TempDir() + "/ledgerd.log"

	entry := cfg.Logger()

	if len(entry.Logger.Hooks[logrus.InfoLevel]) == 0 {
		t.Fatalf("expected an lfshook hook registered for InfoLevel")
	}
}

func TestLogLevelParsing(t *testing.T) {
	cases := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true, "bogus": true}
	for level := range cases {
		_ = LogLevel(level)
	}
}
