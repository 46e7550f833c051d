// Package transport implements the peer HTTP client role (A6): the
// /snapshot/verify and /snapshot/recent RPCs, with the fixed 5-second
// timeout spec.md §6 requires. Every failure (dial, timeout, decode) is
// folded into a plain error for the caller to turn into a nil slot — this
// package never distinguishes transient-peer-failure subtypes, matching
// the teacher's NetworkTransport's flat ErrTransportShutdown style.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ledgerd/node/peers"
	"github.com/ledgerd/node/snapshot"
)

// Timeout is the fixed per-peer RPC timeout (spec.md §4.C9.3, §6).
const Timeout = 5 * time.Second

// Client issues the two peer RPCs over plain net/http, matching the
// teacher's choice to use the standard library directly rather than a
// router/framework on the client side.
type Client struct {
	http *http.Client
}

// NewClient builds a Client whose requests are bounded by Timeout.
func NewClient() *Client {
	return &Client{http: &http.Client{Timeout: Timeout}}
}

// VerifySnapshot POSTs a SnapshotCreated to peer's /snapshot/verify.
func (c *Client) VerifySnapshot(ctx context.Context, peer peers.PeerData, created snapshot.SnapshotCreated) (*snapshot.SnapshotVerification, error) {
	body, err := json.Marshal(created)
	if err != nil {
		return nil, fmt.Errorf("encoding SnapshotCreated: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, peer.Endpoint+"/snapshot/verify", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building verify request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("posting snapshot verify: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("snapshot verify returned status %d", resp.StatusCode)
	}

	var verification snapshot.SnapshotVerification
	if err := json.NewDecoder(resp.Body).Decode(&verification); err != nil {
		return nil, fmt.Errorf("decoding SnapshotVerification: %w", err)
	}

	return &verification, nil
}

// RecentSnapshots GETs peer's /snapshot/recent.
func (c *Client) RecentSnapshots(ctx context.Context, peer peers.PeerData) ([]snapshot.RecentSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, peer.Endpoint+"/snapshot/recent", nil)
	if err != nil {
		return nil, fmt.Errorf("building recent-snapshots request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("getting recent snapshots: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("snapshot recent returned status %d", resp.StatusCode)
	}

	var recent []snapshot.RecentSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&recent); err != nil {
		return nil, fmt.Errorf("decoding recent snapshots: %w", err)
	}

	return recent, nil
}
