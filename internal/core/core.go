// Package core implements the per-cycle out-of-order backend: register
// renaming, the unified scheduling queue, pipelined functional units,
// the store buffer, and in-order retirement. Everything here is
// driven synchronously, one cycle at a time, by Core.Cycle.
package core

import (
	"fmt"

	"github.com/jasonKoogler/procsim/internal/config"
	"github.com/jasonKoogler/procsim/internal/oracle"
	"github.com/jasonKoogler/procsim/internal/trace"
)

// storeBufEntry is a minimal snapshot held in the store buffer: just
// enough to answer "is there an in-flight store to this address" for
// load forwarding, and to know how many entries to drop a cycle after
// a run of stores retires.
type storeBufEntry struct {
	id   uint64
	addr uint64
}

// Core is the entire backend state machine for a single pipeline: the
// register file/RAT, the dispatch queue, the unified scheduling queue,
// the ROB, the store buffer, the FU pipes, and the fetch oracle they
// all pull from. There is no process-wide shared state; every run
// constructs its own Core.
type Core struct {
	cfg    *config.Config
	oracle *oracle.Oracle

	rf *RegisterFile

	entries map[uint64]*Entry

	dispatchQ []uint64
	schedQ    []uint64
	rob       []uint64

	storeBuffer            []storeBufEntry
	storesRetiredLastCycle int

	alu []*fuPipe
	mul []*fuPipe
	lsu []*fuPipe

	stats Stats

	prevICacheStall   bool
	retiredMispredict bool
}

// New constructs a Core ready to simulate insts under cfg. cfg is
// assumed already validated (config.Validate).
func New(cfg *config.Config, insts []trace.Instruction) *Core {
	c := &Core{
		cfg:     cfg,
		oracle:  oracle.New(insts, L1MissPenalty, cfg.MissesEnabled),
		rf:      NewRegisterFile(cfg.NumPRegs),
		entries: make(map[uint64]*Entry),
		alu:     make([]*fuPipe, cfg.NumALU),
		mul:     make([]*fuPipe, cfg.NumMUL),
		lsu:     make([]*fuPipe, cfg.NumLSU),
	}
	for i := range c.alu {
		c.alu[i] = newFUPipe(ALUStages)
	}
	for i := range c.mul {
		c.mul[i] = newFUPipe(MULStages)
	}
	for i := range c.lsu {
		c.lsu[i] = newFUPipe(L1HitTime)
	}
	c.stats.InstructionsInTrace = uint64(len(insts))
	return c
}

func (c *Core) robCapacity() int {
	return c.cfg.NumROBEntries()
}

func (c *Core) schedQCapacity() int {
	return c.cfg.SchedQPerFU * (c.cfg.NumALU + c.cfg.NumMUL + c.cfg.NumLSU)
}

// Cycle runs one full cycle: retire, then (unless a mispredict just
// retired) execute, schedule, dispatch, and fetch, in that order —
// reverse program order within the cycle so each stage observes the
// prior cycle's state of the stage ahead of it. It returns true if a
// mispredict retired this cycle.
func (c *Core) Cycle() bool {
	c.retireStage()

	if !c.retiredMispredict {
		c.executeStage()
		c.scheduleStage()
		c.dispatchStage()
		c.fetchStage()
	}
	c.oracle.Tick()

	c.updateUtilizationStats()
	c.stats.Cycles++

	return c.retiredMispredict
}

// Exhausted reports whether the fetch oracle has delivered every
// instruction in the trace.
func (c *Core) Exhausted() bool {
	return c.oracle.Exhausted()
}

// Drained reports whether the backend holds no further in-flight
// work: nothing left to fetch, and every queue/ROB/pipe is empty.
func (c *Core) Drained() bool {
	if !c.Exhausted() {
		return false
	}
	if len(c.dispatchQ) != 0 || len(c.schedQ) != 0 || len(c.rob) != 0 {
		return false
	}
	for _, p := range c.alu {
		if p.len() != 0 {
			return false
		}
	}
	for _, p := range c.mul {
		if p.len() != 0 {
			return false
		}
	}
	for _, p := range c.lsu {
		if p.len() != 0 {
			return false
		}
	}
	return len(c.storeBuffer) == 0
}

func (c *Core) updateUtilizationStats() {
	dq, sq, rb := uint64(len(c.dispatchQ)), uint64(len(c.schedQ)), uint64(len(c.rob))

	c.stats.dispQAccum += dq
	c.stats.schedQAccum += sq
	c.stats.robAccum += rb

	if dq > c.stats.DispQMaxSize {
		c.stats.DispQMaxSize = dq
	}
	if sq > c.stats.SchedQMaxSize {
		c.stats.SchedQMaxSize = sq
	}
	if rb > c.stats.RobMaxSize {
		c.stats.RobMaxSize = rb
	}
}

// Finish finalizes the statistics for the run.
func (c *Core) Finish() Report {
	return c.stats.Finish()
}

// InstructionsRetired reports the running retirement count, for a
// caller that wants to detect forward progress without waiting for
// Finish (the deadlock watchdog in the simulator package).
func (c *Core) InstructionsRetired() uint64 {
	return c.stats.InstructionsRetired
}

// mustEntry looks up an in-flight entry by dynamic id. A miss means a
// structural invariant has been violated elsewhere in the core: the
// scheduling queue, ROB and FU pipes are only ever supposed to hold
// ids with a live arena entry.
func (c *Core) mustEntry(id uint64) *Entry {
	e, ok := c.entries[id]
	if !ok {
		panic(fmt.Sprintf("core: no entry for dynamic id %d", id))
	}
	return e
}
