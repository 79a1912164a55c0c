package identity

// Index maps key strings to the positions of the records that produced them.
// Lower positions win when several records claim the same key.
type Index struct {
	byKey map[string]int
}

// NewIndex builds an index over the given key sets. Empty sets are skipped.
func NewIndex(sets []KeySet) *Index {
	idx := &Index{byKey: make(map[string]int)}
	for pos, set := range sets {
		idx.Add(pos, set)
	}
	return idx
}

// Add registers a key set at position pos without overriding earlier claims.
func (i *Index) Add(pos int, set KeySet) {
	for _, key := range set {
		s := key.String()
		if _, taken := i.byKey[s]; taken {
			continue
		}
		i.byKey[s] = pos
	}
}

// Match returns the position claimed by the most specific key in set.
func (i *Index) Match(set KeySet) (int, bool) {
	if i == nil {
		return 0, false
	}
	best, bestRank, found := 0, 0, false
	for _, key := range set {
		pos, ok := i.byKey[key.String()]
		if !ok {
			continue
		}
		rank := key.Kind.Rank()
		if !found || rank < bestRank {
			best, bestRank, found = pos, rank, true
		}
	}
	return best, found
}

// Has reports whether any key of set is indexed.
func (i *Index) Has(set KeySet) bool {
	_, ok := i.Match(set)
	return ok
}

// Len returns the number of indexed keys.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.byKey)
}
