package core

import "github.com/jasonKoogler/procsim/internal/trace"

// scheduleStage walks the scheduling queue in program order, firing
// every entry whose operands are ready into a free FU of the matching
// type. Memory disambiguation can skip a LOAD/STORE without blocking
// the entries behind it; running out of free FUs of one class stops
// further firing of that class for the cycle but not of the others.
func (c *Core) scheduleStage() {
	fired := false
	aluBlocked, mulBlocked, lsuBlocked := false, false, false

	for _, id := range c.schedQ {
		e := c.mustEntry(id)
		if e.Fired {
			continue
		}
		if !c.rf.isReady(e.Src1Preg) || !c.rf.isReady(e.Src2Preg) {
			continue
		}

		switch e.Inst.Opcode {
		case trace.ADD, trace.BRANCH:
			if aluBlocked {
				continue
			}
			if c.fireInto(c.alu, id) {
				fired = true
			} else {
				aluBlocked = true
			}

		case trace.MUL:
			if mulBlocked {
				continue
			}
			if c.fireInto(c.mul, id) {
				fired = true
			} else {
				mulBlocked = true
			}

		case trace.LOAD, trace.STORE:
			if lsuBlocked {
				continue
			}
			if !c.okToFireMemOp(id) {
				continue
			}
			if c.fireInto(c.lsu, id) {
				fired = true
			} else {
				lsuBlocked = true
			}
		}
	}

	if !fired {
		c.stats.NoFireCycles++
	}
}

// fireInto searches pipes in index order for one with a free first
// stage and inserts id into the first it finds.
func (c *Core) fireInto(pipes []*fuPipe, id uint64) bool {
	for _, p := range pipes {
		if p.hasFreeSlot() {
			p.insert(id)
			c.mustEntry(id).Fired = true
			return true
		}
	}
	return false
}

// okToFireMemOp applies the memory-disambiguation rule: a LOAD cannot
// fire while an earlier, not-yet-completed STORE is still in the
// scheduling queue; a STORE cannot fire while any earlier,
// not-yet-completed LOAD or STORE is still there.
func (c *Core) okToFireMemOp(id uint64) bool {
	e := c.mustEntry(id)

	for _, otherID := range c.schedQ {
		if otherID == id {
			break
		}
		other := c.mustEntry(otherID)
		if other.Completed {
			continue
		}
		switch e.Inst.Opcode {
		case trace.LOAD:
			if other.Inst.Opcode == trace.STORE {
				return false
			}
		case trace.STORE:
			if other.Inst.Opcode == trace.LOAD || other.Inst.Opcode == trace.STORE {
				return false
			}
		}
	}
	return true
}
