package core

import "github.com/jasonKoogler/procsim/internal/trace"

// Entry is the renamed, in-flight form of a trace instruction. A
// single Entry is shared by reference across the scheduling queue,
// the ROB, and (while executing) an FU pipe, all of which hold only
// its dynamic instruction id — the arena in Core.entries is the one
// place the Entry itself lives.
type Entry struct {
	Inst trace.Instruction

	Src1Preg int
	Src2Preg int
	DestPreg int
	PrevPreg int

	Fired     bool
	Completed bool

	// StoreBufferHit is set for a LOAD that forwarded from the store
	// buffer instead of going to the data cache.
	StoreBufferHit bool
}

func newEntry(inst trace.Instruction) *Entry {
	return &Entry{
		Inst:     inst,
		Src1Preg: -1,
		Src2Preg: -1,
		DestPreg: -1,
		PrevPreg: -1,
	}
}

// removeID returns ids with the first occurrence of target removed.
func removeID(ids []uint64, target uint64) []uint64 {
	for i, id := range ids {
		if id == target {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
