// Package config defines the configuration for a ledgerd node: peer
// identity, listen/service addresses, and the processing parameters the
// Consensus Lifecycle Store and Snapshot Majority & Redownload Engine run
// with (recentSnapshotNumber, snapshotHeightRedownloadDelayInterval,
// maxInvalidSnapshotRate, substore capacities).
package config
