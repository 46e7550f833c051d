// Package service implements the Peer Transport server half (A6): the
// two HTTP routes a peer's snapshot engine exposes to the rest of the
// cluster, adapted from the teacher's Service (HandleFunc on a plain
// http.ServeMux, no router library, CORS-wrapped handlers).
package service

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/ledgerd/node/snapshot"
	"github.com/sirupsen/logrus"
)

// Service exposes the cluster-facing side of the Snapshot Majority &
// Redownload Engine over plain net/http.
type Service struct {
	sync.Mutex

	bindAddress string
	selfID      string
	recent      *snapshot.RecentSnapshotsHolder
	logger      *logrus.Entry
	mux         *http.ServeMux
}

// NewService registers the handlers and returns a Service ready to Serve.
func NewService(bindAddress string, selfID string, recent *snapshot.RecentSnapshotsHolder, logger *logrus.Entry) *Service {
	service := Service{
		bindAddress: bindAddress,
		selfID:      selfID,
		recent:      recent,
		logger:      logger,
		mux:         http.NewServeMux(),
	}

	service.registerHandlers()

	return &service
}

// registerHandlers registers the API handlers with this Service's own
// ServeMux, so several Services (and engines) can coexist in one process.
func (s *Service) registerHandlers() {
	s.logger.Debug("registering snapshot engine API handlers")
	s.mux.HandleFunc("/snapshot/verify", s.makeHandler(s.VerifySnapshot))
	s.mux.HandleFunc("/snapshot/recent", s.makeHandler(s.RecentSnapshots))
}

func (s *Service) makeHandler(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Lock()
		defer s.Unlock()

		w.Header().Set("Access-Control-Allow-Origin", "*")

		fn(w, r)
	}
}

// Serve calls ListenAndServe on bindAddress with this Service's ServeMux.
// Blocking.
func (s *Service) Serve() {
	s.logger.WithField("bind_address", s.bindAddress).Debug("serving snapshot engine API")

	if err := http.ListenAndServe(s.bindAddress, s.mux); err != nil {
		s.logger.WithError(err).Error("snapshot engine API server stopped")
	}
}

// VerifySnapshot answers a peer's POST /snapshot/verify: does our own
// recent-snapshot history agree with the announced (hash, height)?
func (s *Service) VerifySnapshot(w http.ResponseWriter, r *http.Request) {
	var created snapshot.SnapshotCreated
	if err := json.NewDecoder(r.Body).Decode(&created); err != nil {
		s.logger.WithError(err).Error("decoding SnapshotCreated")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	own := s.recent.Get()
	verification := snapshot.SnapshotVerification{
		Id:             s.selfID,
		Status:         classifyVerification(own, created),
		RecentSnapshot: own,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(verification)
}

// RecentSnapshots answers a peer's GET /snapshot/recent with our current
// recentSnapshots list.
func (s *Service) RecentSnapshots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.recent.Get())
}

// classifyVerification decides a peer's verdict on an announced snapshot:
// SnapshotCorrect if we hold the same hash at that height, SnapshotInvalid
// if we hold a different one, SnapshotHeightAbove if we've already
// truncated past that height, and SnapshotCorrect by default when we have
// no record yet to contradict the announcement.
func classifyVerification(own []snapshot.RecentSnapshot, created snapshot.SnapshotCreated) snapshot.VerificationStatus {
	var maxHeight int64
	for i, s := range own {
		if i == 0 || s.Height > maxHeight {
			maxHeight = s.Height
		}
		if s.Height == created.Height {
			if s.Hash == created.Hash {
				return snapshot.SnapshotCorrect
			}
			return snapshot.SnapshotInvalid
		}
	}

	if len(own) > 0 && maxHeight > created.Height {
		return snapshot.SnapshotHeightAbove
	}

	return snapshot.SnapshotCorrect
}
