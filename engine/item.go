package engine

// GenericItem is a minimal consensus.Item for callers that don't need a
// richer application-defined item type — just enough identity (its own
// content hash) to flow through the lifecycle store (C1-C5).
type GenericItem struct {
	hash string
}

// NewGenericItem wraps a content hash as a consensus item.
func NewGenericItem(hash string) GenericItem {
	return GenericItem{hash: hash}
}

// Hash satisfies consensus.Item.
func (i GenericItem) Hash() string {
	return i.hash
}
