package core

import "github.com/jasonKoogler/procsim/internal/trace"

// executeStage advances every FU pipe by one stage, handles store
// buffer writes/forwarding for the LSU pipes, and completes any head
// occupant that has reached its completion cycle, broadcasting its
// destination register as ready.
func (c *Core) executeStage() {
	for _, p := range c.alu {
		p.advance()
		c.completeHead(p, ALUStages)
	}
	for _, p := range c.mul {
		p.advance()
		c.completeHead(p, MULStages)
	}
	c.executeLSU()
}

func (c *Core) completeHead(p *fuPipe, completionCycle int) {
	head, ok := p.head()
	if !ok {
		return
	}
	if head.stage >= completionCycle {
		p.removeHead()
		c.completeEntry(head.id)
	}
}

// executeLSU handles the LSU pipes' extra behavior: pushing stores
// into the store buffer and checking loads for store-buffer hits, both
// keyed on an occupant's stage just becoming 1, followed by the usual
// head-completion check with its miss-extended latency.
func (c *Core) executeLSU() {
	for _, p := range c.lsu {
		p.advance()
	}

	// Stores entering the pipe publish to the store buffer first, so a
	// load entering on the very same cycle can still observe them.
	for _, p := range c.lsu {
		for _, occ := range p.q {
			if !justEnteredStage1(occ) {
				continue
			}
			e := c.mustEntry(occ.id)
			if e.Inst.Opcode == trace.STORE {
				c.storeBuffer = append(c.storeBuffer, storeBufEntry{id: occ.id, addr: e.Inst.Addr})
			}
		}
	}

	for _, p := range c.lsu {
		for _, occ := range p.q {
			if !justEnteredStage1(occ) {
				continue
			}
			e := c.mustEntry(occ.id)
			if e.Inst.Opcode == trace.LOAD && c.storeBufferHasAddr(e.Inst.Addr) {
				e.StoreBufferHit = true
			}
		}
	}

	for _, p := range c.lsu {
		head, ok := p.head()
		if !ok {
			continue
		}
		e := c.mustEntry(head.id)
		if head.stage >= c.lsuCompletionCycle(e) {
			p.removeHead()
			c.completeEntry(head.id)
		}
	}
}

func justEnteredStage1(occ fuOccupant) bool {
	return occ.prevStage == 0 && occ.stage == 1
}

// lsuCompletionCycle returns how many stages an LSU occupant must
// spend at the head before it completes: 1 for a STORE or a
// store-buffer-forwarded LOAD, otherwise the L1 hit time plus the
// miss penalty when the load misses in the data cache.
func (c *Core) lsuCompletionCycle(e *Entry) int {
	if e.Inst.Opcode == trace.STORE || e.StoreBufferHit {
		return 1
	}
	cycle := L1HitTime
	if e.Inst.DCacheMiss {
		cycle += L1MissPenalty
	}
	return cycle
}

func (c *Core) storeBufferHasAddr(addr uint64) bool {
	for _, sb := range c.storeBuffer {
		if sb.addr == addr {
			return true
		}
	}
	return false
}

// completeEntry marks an entry complete (which simultaneously marks
// its ROB mirror complete, since both are the same arena object),
// removes it from the scheduling queue, and wakes up its destination
// register. Schedule runs after execute within a cycle, so dependents
// can fire in the same cycle's schedule pass.
func (c *Core) completeEntry(id uint64) {
	e := c.mustEntry(id)
	e.Completed = true
	c.schedQ = removeID(c.schedQ, id)
	c.rf.markReady(e.DestPreg)
}
