package engine

// PawnEntry stores cached pawn structure evaluation.
type PawnEntry struct {
	Key     uint64
	MgScore int16 // Middlegame score
	EgScore int16 // Endgame score
	used    bool
}

// PawnTable is a hash table for caching pawn structure evaluations.
type PawnTable struct {
	entries []PawnEntry
	mask    uint64
}

// NewPawnTable creates a new pawn hash table with the given size in MB.
func NewPawnTable(sizeMB int) *PawnTable {
	const entrySize = 16
	size := roundDownToPowerOf2(uint64(max(sizeMB, 1)) * 1024 * 1024 / entrySize)
	return &PawnTable{
		entries: make([]PawnEntry, size),
		mask:    size - 1,
	}
}

// Probe looks up a pawn structure evaluation in the hash table.
// Returns the middlegame and endgame scores if found.
func (pt *PawnTable) Probe(key uint64) (mg, eg int, found bool) {
	entry := &pt.entries[key&pt.mask]
	if entry.used && entry.Key == key {
		return int(entry.MgScore), int(entry.EgScore), true
	}
	return 0, 0, false
}

// Store saves a pawn structure evaluation in the hash table.
func (pt *PawnTable) Store(key uint64, mg, eg int) {
	pt.entries[key&pt.mask] = PawnEntry{Key: key, MgScore: int16(mg), EgScore: int16(eg), used: true}
}

// Clear clears the pawn hash table.
func (pt *PawnTable) Clear() {
	clear(pt.entries)
}
