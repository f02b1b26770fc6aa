package core

import "github.com/jasonKoogler/procsim/internal/trace"

// retireStage first drains the store buffer entries belonging to
// stores that retired last cycle, then retires completed ROB entries
// from the head in order, freeing the physical register each
// overwrote and tallying load statistics, stopping at an incomplete
// head or a retired mispredict.
func (c *Core) retireStage() {
	for i := 0; i < c.storesRetiredLastCycle && len(c.storeBuffer) > 0; i++ {
		c.storeBuffer = c.storeBuffer[1:]
	}

	storesRetired := 0
	retiredCount := 0
	c.retiredMispredict = false

	for len(c.rob) > 0 {
		headID := c.rob[0]
		e := c.mustEntry(headID)
		if !e.Completed {
			break
		}

		if e.PrevPreg >= NumArchRegs {
			c.rf.markFree(e.PrevPreg)
		}
		if e.Inst.Opcode == trace.STORE {
			storesRetired++
		}
		if e.Inst.Opcode == trace.LOAD {
			c.tallyLoadStats(e)
		}

		c.rob = c.rob[1:]
		delete(c.entries, headID)
		retiredCount++

		if e.Inst.Mispredict {
			c.retiredMispredict = true
			c.oracle.ResolveMispredict()
			break
		}
	}

	c.storesRetiredLastCycle = storesRetired
	c.stats.InstructionsRetired += uint64(retiredCount)
	if c.retiredMispredict {
		c.stats.BranchMispredictions++
	}
}

func (c *Core) tallyLoadStats(e *Entry) {
	c.stats.Reads++
	if e.StoreBufferHit {
		c.stats.StoreBufferReadHits++
		return
	}
	c.stats.DCacheReads++
	if e.Inst.DCacheMiss {
		c.stats.DCacheReadMisses++
	} else {
		c.stats.DCacheReadHits++
	}
}
