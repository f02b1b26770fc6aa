// Package simulator drives a core.Core cycle by cycle until the trace
// drains or the backend stalls, exposing the same running/shutdown/reset
// control surface the rest of this codebase uses for long-lived workers.
package simulator

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/jasonKoogler/procsim/internal/config"
	"github.com/jasonKoogler/procsim/internal/core"
	"github.com/jasonKoogler/procsim/internal/trace"
)

// maxCyclesSinceRetire bounds how long the backend may run without
// retiring anything before Run gives up and reports a deadlock. A
// well-formed trace and configuration should never come close to this.
const maxCyclesSinceRetire = 128

// ErrDeadlock is returned by Run when no instruction retires for
// maxCyclesSinceRetire consecutive cycles, which otherwise would spin
// forever on a stuck configuration or a malformed trace.
var ErrDeadlock = errors.New("simulator: no instruction retired in 128 consecutive cycles")

// Simulator owns a single Core and runs it to completion.
type Simulator struct {
	cfg   *config.Config
	insts []trace.Instruction

	core *core.Core

	running    atomic.Bool
	stopChan   chan struct{}
	statsMutex sync.RWMutex
	report     core.Report
}

// New constructs a Simulator over cfg and insts. cfg is validated here;
// callers do not need to call config.Validate themselves.
func New(cfg *config.Config, insts []trace.Instruction) (*Simulator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil configuration provided")
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &Simulator{
		cfg:      cfg,
		insts:    insts,
		core:     core.New(cfg, insts),
		stopChan: make(chan struct{}),
	}, nil
}

// Run drives the backend one cycle at a time until the trace is fully
// drained, the caller calls Shutdown, or the deadlock watchdog trips.
func (s *Simulator) Run() error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("simulation is already running")
	}
	defer s.running.Store(false)

	var cyclesSinceRetire uint64
	lastRetired := s.core.InstructionsRetired()

	for !s.core.Drained() {
		select {
		case <-s.stopChan:
			return nil
		default:
		}

		s.core.Cycle()

		retired := s.core.InstructionsRetired()
		if retired > lastRetired {
			cyclesSinceRetire = 0
		} else {
			cyclesSinceRetire++
		}
		lastRetired = retired

		if cyclesSinceRetire >= maxCyclesSinceRetire {
			return ErrDeadlock
		}
	}

	s.statsMutex.Lock()
	s.report = s.core.Finish()
	s.statsMutex.Unlock()

	return nil
}

// Report returns the most recently finalized statistics. It is safe to
// call concurrently with Run, but only reflects a completed run.
func (s *Simulator) Report() core.Report {
	s.statsMutex.RLock()
	defer s.statsMutex.RUnlock()
	return s.report
}

// Shutdown asks a running simulation to stop at the next cycle
// boundary. It is a no-op if nothing is running.
func (s *Simulator) Shutdown() {
	if !s.running.Load() {
		return
	}
	close(s.stopChan)
}

// Reset rebuilds the underlying Core from the original trace and
// configuration, discarding all in-flight state, so the same Simulator
// can be run again from cycle zero.
func (s *Simulator) Reset() {
	s.statsMutex.Lock()
	defer s.statsMutex.Unlock()

	s.core = core.New(s.cfg, s.insts)
	s.stopChan = make(chan struct{})
	s.running.Store(false)
	s.report = core.Report{}
}
