package snapshot

import (
	"sort"

	"github.com/ledgerd/node/peers"
)

// MajorityState is the Majority State Chooser (C6): a pure function from a
// node's own proposal and its peers' proposals to the agreed
// height -> hash mapping.
//
// peersSize counts self plus every peer, and is always the denominator for
// the clear-majority check in step 3 — a height seen by only a few peers
// can never reach 50% that way, even if every one of those few agreed.
func MajorityState(own SnapshotsAtHeight, peerProposals map[peers.PeerId]SnapshotsAtHeight) map[int64]string {
	peersSize := len(peerProposals) + 1

	heights := map[int64]struct{}{}
	for h := range own {
		heights[h] = struct{}{}
	}
	for _, proposal := range peerProposals {
		for h := range proposal {
			heights[h] = struct{}{}
		}
	}

	result := make(map[int64]string)

	for height := range heights {
		counts := map[string]int{}
		total := 0

		if hash, ok := own[height]; ok {
			counts[hash]++
			total++
		}
		for _, proposal := range peerProposals {
			if hash, ok := proposal[height]; ok {
				counts[hash]++
				total++
			}
		}

		occurrences := make([]Occurrences[string], 0, len(counts))
		for hash, n := range counts {
			occurrences = append(occurrences, Occurrences[string]{Value: hash, N: n, Of: total})
		}

		// Deterministic tie-break: sort by value ascending before applying
		// either selection rule.
		sort.Slice(occurrences, func(i, j int) bool {
			return occurrences[i].Value < occurrences[j].Value
		})

		if hash, ok := selectForHeight(occurrences, total, peersSize); ok {
			result[height] = hash
		}
	}

	return result
}

// selectForHeight applies the clear-majority rule, then the
// every-proposer-weighed-in fallback, then gives up.
func selectForHeight(occurrences []Occurrences[string], total, peersSize int) (string, bool) {
	for _, occ := range occurrences {
		if peersSize > 0 && float64(occ.N)/float64(peersSize) >= 0.5 {
			return occ.Value, true
		}
	}

	if total != peersSize || len(occurrences) == 0 {
		return "", false
	}

	best := occurrences[0]
	for _, occ := range occurrences[1:] {
		if occ.Percentage() > best.Percentage() {
			best = occ
		}
	}
	return best.Value, true
}
