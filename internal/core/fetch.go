package core

// fetchStage pulls up to FetchWidth instructions from the oracle and
// appends them to the tail of the (unbounded) dispatch queue, stopping
// at the first instruction the oracle withholds.
func (c *Core) fetchStage() {
	for i := 0; i < c.cfg.FetchWidth; i++ {
		inst, ok := c.oracle.Next()

		stalled := c.oracle.InICacheMissStall()
		if stalled && !c.prevICacheStall {
			c.stats.ICacheMisses++
		}
		c.prevICacheStall = stalled

		if !ok {
			break
		}

		c.entries[inst.DynID] = newEntry(inst)
		c.dispatchQ = append(c.dispatchQ, inst.DynID)
		c.stats.InstructionsFetched++
	}
}
