package core

import (
	"testing"

	"github.com/jasonKoogler/procsim/internal/trace"
)

func TestRetireStage_RetiresCompletedHeadAndFreesPreg(t *testing.T) {
	cfg := minimalConfig()
	c := New(cfg, nil)

	inst := trace.Instruction{Opcode: trace.ADD, Dest: 1, Src1: -1, Src2: -1, DynID: 0}
	e := newEntry(inst)
	e.PrevPreg = NumArchRegs // the renaming register this instruction overwrote
	e.Completed = true
	c.entries[0] = e
	c.rob = append(c.rob, 0)
	c.rf.markAllocated(NumArchRegs)

	c.retireStage()

	if len(c.rob) != 0 {
		t.Fatalf("rob should be empty after retiring its only entry, has %v", c.rob)
	}
	if _, ok := c.entries[0]; ok {
		t.Error("retired entry should be removed from the arena")
	}
	if !c.rf.pregs[NumArchRegs].Free {
		t.Error("the overwritten physical register should be freed on retirement")
	}
	if c.stats.InstructionsRetired != 1 {
		t.Errorf("InstructionsRetired = %d, want 1", c.stats.InstructionsRetired)
	}
}

func TestRetireStage_StopsAtIncompleteHead(t *testing.T) {
	cfg := minimalConfig()
	c := New(cfg, nil)

	headPending := newEntry(trace.Instruction{Opcode: trace.ADD, Dest: -1, Src1: -1, Src2: -1, DynID: 0})
	behindDone := newEntry(trace.Instruction{Opcode: trace.ADD, Dest: -1, Src1: -1, Src2: -1, DynID: 1})
	behindDone.Completed = true

	c.entries[0] = headPending
	c.entries[1] = behindDone
	c.rob = []uint64{0, 1}

	c.retireStage()

	if len(c.rob) != 2 {
		t.Fatalf("rob should be untouched while its head is incomplete, has %v", c.rob)
	}
	if c.stats.InstructionsRetired != 0 {
		t.Errorf("InstructionsRetired = %d, want 0", c.stats.InstructionsRetired)
	}
}

func TestRetireStage_MispredictStopsRetirementAndResolvesOracle(t *testing.T) {
	cfg := minimalConfig()
	c := New(cfg, []trace.Instruction{
		{Opcode: trace.BRANCH, Dest: -1, Src1: -1, Src2: -1, DynID: 0, Mispredict: true},
		{Opcode: trace.ADD, Dest: 1, Src1: -1, Src2: -1, DynID: 1},
	})

	branch := newEntry(trace.Instruction{Opcode: trace.BRANCH, Dest: -1, Src1: -1, Src2: -1, DynID: 0, Mispredict: true})
	branch.Completed = true
	after := newEntry(trace.Instruction{Opcode: trace.ADD, Dest: -1, Src1: -1, Src2: -1, DynID: 1})
	after.Completed = true

	c.entries[0] = branch
	c.entries[1] = after
	c.rob = append(c.rob, 0, 1)

	// Manually put the oracle into the in-flight-mispredict state, as
	// fetching the branch itself would have.
	c.oracle.Next() // consumes the branch, enters in-flight mispredict

	c.retireStage()

	if len(c.rob) != 1 || c.rob[0] != 1 {
		t.Fatalf("rob should retain only the instruction behind the mispredict, has %v", c.rob)
	}
	if !c.retiredMispredict {
		t.Error("retiredMispredict should be set the cycle the mispredict retires")
	}
	if c.stats.BranchMispredictions != 1 {
		t.Errorf("BranchMispredictions = %d, want 1", c.stats.BranchMispredictions)
	}
	if _, ok := c.oracle.Next(); !ok {
		t.Error("oracle should resume fetching once the mispredict has been resolved")
	}
}

func TestRetireStage_StoreBufferEntriesDropOneCycleAfterStoreRetires(t *testing.T) {
	cfg := minimalConfig()
	c := New(cfg, nil)

	store := newEntry(trace.Instruction{Opcode: trace.STORE, Dest: -1, Src1: -1, Src2: -1, Addr: 0x10, DynID: 0})
	store.Completed = true
	c.entries[0] = store
	c.rob = append(c.rob, 0)
	c.storeBuffer = append(c.storeBuffer, storeBufEntry{id: 0, addr: 0x10})

	c.retireStage()

	if len(c.storeBuffer) != 1 {
		t.Fatalf("store buffer entry should survive the cycle its store retires, has %v", c.storeBuffer)
	}
	if c.storesRetiredLastCycle != 1 {
		t.Fatalf("storesRetiredLastCycle = %d, want 1", c.storesRetiredLastCycle)
	}

	c.retireStage() // next cycle: nothing new retires, but the stale entry drops

	if len(c.storeBuffer) != 0 {
		t.Errorf("store buffer entry should be dropped the cycle after its store retires, has %v", c.storeBuffer)
	}
}
