package consensus

// MerklePool is the secondary mapping merkleRoot -> [hash] (C5). It is a
// pure append/lookup structure with no eviction; all mutation happens
// through the merklePoolUpdate lock held by Store, so MerklePool itself
// does no locking.
type MerklePool struct {
	byRoot map[string][]string
}

func newMerklePool() *MerklePool {
	return &MerklePool{byRoot: make(map[string][]string)}
}

// add appends hash to the list for merkleRoot.
func (m *MerklePool) add(merkleRoot, hash string) {
	m.byRoot[merkleRoot] = append(m.byRoot[merkleRoot], hash)
}

// Lookup returns the hashes recorded under merkleRoot.
func (m *MerklePool) Lookup(merkleRoot string) []string {
	return m.byRoot[merkleRoot]
}
