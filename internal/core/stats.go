package core

// Stats accumulates the raw, per-cycle counters the spec calls out.
// Derived ratios (averages, AATs, IPC) are computed once at the end
// of the run by Finish.
type Stats struct {
	Cycles               uint64
	InstructionsFetched   uint64
	InstructionsRetired   uint64
	InstructionsInTrace   uint64
	BranchMispredictions  uint64
	ICacheMisses          uint64
	Reads                 uint64
	StoreBufferReadHits   uint64
	DCacheReads           uint64
	DCacheReadMisses      uint64
	DCacheReadHits        uint64
	NoDispatchPregsCycles uint64
	RobStallCycles        uint64
	NoFireCycles          uint64

	DispQMaxSize  uint64
	SchedQMaxSize uint64
	RobMaxSize    uint64

	dispQAccum  uint64
	schedQAccum uint64
	robAccum    uint64
}

// Report is the finalized, immutable statistics snapshot printed at
// the end of a run.
type Report struct {
	Stats

	DispQAvgSize  float64
	SchedQAvgSize float64
	RobAvgSize    float64

	StoreBufferHitRatio float64
	DCacheReadMissRatio float64
	DCacheRatio         float64
	DCacheReadAAT       float64
	ReadAAT             float64

	IPC float64
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// Finish computes the derived statistics from the accumulated raw
// counters, guarding every division against a zero denominator.
func (s Stats) Finish() Report {
	r := Report{Stats: s}

	r.DispQAvgSize = safeDiv(float64(s.dispQAccum), float64(s.Cycles))
	r.SchedQAvgSize = safeDiv(float64(s.schedQAccum), float64(s.Cycles))
	r.RobAvgSize = safeDiv(float64(s.robAccum), float64(s.Cycles))

	r.StoreBufferHitRatio = safeDiv(float64(s.StoreBufferReadHits), float64(s.Reads))
	r.DCacheReadMissRatio = safeDiv(float64(s.DCacheReadMisses), float64(s.DCacheReads))
	r.DCacheRatio = safeDiv(float64(s.DCacheReads), float64(s.Reads))
	r.DCacheReadAAT = L1HitTime + r.DCacheReadMissRatio*L1MissPenalty
	r.ReadAAT = r.StoreBufferHitRatio*1 + r.DCacheRatio*r.DCacheReadAAT

	r.IPC = safeDiv(float64(s.InstructionsRetired), float64(s.Cycles))

	return r
}
