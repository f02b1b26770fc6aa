// Package oracle implements the fetch oracle the core pulls
// instructions from: one instruction per call, modeling the i-cache
// miss and branch-misprediction stall windows entirely outside the
// core's view.
package oracle

import "github.com/jasonKoogler/procsim/internal/trace"

// Oracle hands the core one instruction at a time from a pre-parsed
// trace, suppressing fetch during an i-cache miss stall or while a
// mispredicted branch is in flight and unretired.
type Oracle struct {
	insts []trace.Instruction
	idx   int

	missPenalty   int
	missesEnabled bool

	inMispredict bool

	inICacheMiss  bool
	iCacheMissCtr int
	finishedMiss  bool
}

// New builds an Oracle over insts. missPenalty is the number of
// cycles an i-cache miss stalls fetch (L1_MISS_PENALTY in the core).
// When missesEnabled is false, the oracle reports every instruction's
// mispredict/icache_miss/dcache_miss flags as false regardless of
// what the trace recorded, matching the "-D" CLI switch.
func New(insts []trace.Instruction, missPenalty int, missesEnabled bool) *Oracle {
	return &Oracle{
		insts:         insts,
		missPenalty:   missPenalty,
		missesEnabled: missesEnabled,
	}
}

// Len reports the total number of instructions in the trace.
func (o *Oracle) Len() int {
	return len(o.insts)
}

// InICacheMissStall reports whether fetch is currently suppressed by
// an i-cache miss window. The core's fetch stage watches this flag's
// false→true transitions to count i-cache misses.
func (o *Oracle) InICacheMissStall() bool {
	return o.inICacheMiss
}

// Next returns the next instruction to fetch, or ok=false if fetch is
// currently suppressed (end of trace, i-cache miss stall, or an
// unresolved in-flight mispredict).
func (o *Oracle) Next() (inst trace.Instruction, ok bool) {
	if o.inMispredict {
		return trace.Instruction{}, false
	}
	if o.inICacheMiss {
		return trace.Instruction{}, false
	}
	if o.idx >= len(o.insts) {
		return trace.Instruction{}, false
	}

	next := o.insts[o.idx]
	if !o.missesEnabled {
		next.Mispredict = false
		next.ICacheMiss = false
		next.DCacheMiss = false
	}

	if next.ICacheMiss {
		if !o.finishedMiss {
			o.inICacheMiss = true
			o.iCacheMissCtr = o.missPenalty
			o.finishedMiss = false
			return trace.Instruction{}, false
		}
		o.finishedMiss = false
	}

	if next.Mispredict {
		o.inMispredict = true
	}

	o.idx++
	return next, true
}

// Tick advances the i-cache miss countdown by one cycle. It must be
// called exactly once per cycle, regardless of whether Next was
// called or how many times.
func (o *Oracle) Tick() {
	if o.iCacheMissCtr != 0 {
		o.iCacheMissCtr--
	}
	if o.iCacheMissCtr == 0 && o.inICacheMiss {
		o.inICacheMiss = false
		o.finishedMiss = true
	}
}

// ResolveMispredict clears the in-flight mispredict suppression. The
// core calls this the cycle a mispredicted branch retires.
func (o *Oracle) ResolveMispredict() {
	o.inMispredict = false
}

// Exhausted reports whether every trace instruction has been fetched.
func (o *Oracle) Exhausted() bool {
	return o.idx >= len(o.insts)
}
