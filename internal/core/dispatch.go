package core

// stallReason records why the dispatch loop below stopped short of
// draining the dispatch queue, so the sole-cause stat counters can be
// incremented at most once per cycle.
type stallReason int

const (
	stallNone stallReason = iota
	stallROB
	stallPregs
	stallSchedQ
)

// dispatchStage drains the head of the dispatch queue in program
// order, allocating a scheduling-queue slot, a ROB slot and (if
// needed) a free physical register for each instruction, until a
// resource runs out or the queue empties.
func (c *Core) dispatchStage() {
	reason := stallNone

	for len(c.dispatchQ) > 0 {
		id := c.dispatchQ[0]
		e := c.mustEntry(id)

		if len(c.rob) >= c.robCapacity() {
			reason = stallROB
			break
		}

		destNeeded := e.Inst.Dest >= 0
		destPreg := -1
		if destNeeded {
			preg, ok := c.rf.allocFree()
			if !ok {
				reason = stallPregs
				break
			}
			destPreg = preg
		}

		if len(c.schedQ) >= c.schedQCapacity() {
			reason = stallSchedQ
			break
		}

		c.dispatchQ = c.dispatchQ[1:]

		if e.Inst.Src1 >= 0 {
			e.Src1Preg = c.rf.RAT(int(e.Inst.Src1))
		}
		if e.Inst.Src2 >= 0 {
			e.Src2Preg = c.rf.RAT(int(e.Inst.Src2))
		}

		if destNeeded {
			e.PrevPreg = c.rf.RAT(int(e.Inst.Dest))
			e.DestPreg = destPreg
			c.rf.markAllocated(destPreg)
			c.rf.SetRAT(int(e.Inst.Dest), destPreg)
		}

		c.schedQ = append(c.schedQ, id)
		c.rob = append(c.rob, id)

		reason = stallNone
	}

	switch reason {
	case stallROB:
		c.stats.RobStallCycles++
	case stallPregs:
		c.stats.NoDispatchPregsCycles++
	}
}
