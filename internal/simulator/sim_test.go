package simulator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jasonKoogler/procsim/internal/config"
	"github.com/jasonKoogler/procsim/internal/trace"
)

func writeTrace(t *testing.T, lines []string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "trace.txt")
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write trace fixture: %v", err)
	}
	return path
}

func rawChainTrace(t *testing.T) []trace.Instruction {
	path := writeTrace(t, []string{
		"0x1000 2 1 0 0 0x0 0 0 0 0",
		"0x1004 2 2 1 0 0x0 1 0 0 0",
		"0x1008 2 3 2 0 0x0 2 0 0 0",
	})
	insts, err := trace.Load(path)
	if err != nil {
		t.Fatalf("trace.Load() error = %v", err)
	}
	return insts
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.TracePath = "unused"
	cfg.NumALU = 1
	return cfg
}

func TestNew(t *testing.T) {
	cfg := testConfig()
	insts := rawChainTrace(t)

	sim, err := New(cfg, insts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if sim == nil {
		t.Fatal("New() returned nil simulator")
	}
	if sim.running.Load() {
		t.Errorf("New() simulator should not be running initially")
	}
}

func TestNew_NilConfig(t *testing.T) {
	_, err := New(nil, nil)
	if err == nil {
		t.Fatal("New() with nil config should return error")
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.NumALU = 7
	_, err := New(cfg, rawChainTrace(t))
	if err == nil {
		t.Fatal("New() with invalid config should return error")
	}
}

func TestRun_DrainsRAWChain(t *testing.T) {
	cfg := testConfig()
	insts := rawChainTrace(t)

	sim, err := New(cfg, insts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := sim.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	report := sim.Report()
	if report.InstructionsRetired != 3 {
		t.Errorf("InstructionsRetired = %d, want 3", report.InstructionsRetired)
	}
	if report.InstructionsFetched != 3 {
		t.Errorf("InstructionsFetched = %d, want 3", report.InstructionsFetched)
	}
	if report.Cycles == 0 {
		t.Errorf("Cycles = 0, want > 0")
	}
	if report.IPC <= 0 {
		t.Errorf("IPC = %f, want > 0", report.IPC)
	}
}

func TestRun_AlreadyRunning(t *testing.T) {
	cfg := testConfig()
	sim, _ := New(cfg, rawChainTrace(t))

	sim.running.Store(true)

	if err := sim.Run(); err == nil {
		t.Fatal("Run() while already running should return error")
	}

	sim.running.Store(false)
}

func TestShutdown_NotRunningIsNoop(t *testing.T) {
	cfg := testConfig()
	sim, _ := New(cfg, rawChainTrace(t))

	sim.Shutdown()

	if err := sim.Run(); err != nil {
		t.Fatalf("Run() after no-op Shutdown() error = %v", err)
	}
}

func TestReset(t *testing.T) {
	cfg := testConfig()
	insts := rawChainTrace(t)
	sim, _ := New(cfg, insts)

	if err := sim.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	before := sim.Report()
	if before.Cycles == 0 {
		t.Fatal("Simulation should have generated some statistics")
	}

	sim.Reset()

	after := sim.Report()
	if after.Cycles != 0 {
		t.Errorf("After Reset(), Cycles = %d, want 0", after.Cycles)
	}

	if err := sim.Run(); err != nil {
		t.Fatalf("Run() after Reset() error = %v", err)
	}

	final := sim.Report()
	if final.InstructionsRetired != 3 {
		t.Errorf("After Reset() and Run(), InstructionsRetired = %d, want 3", final.InstructionsRetired)
	}
}

func TestRun_EmptyTraceDrainsImmediately(t *testing.T) {
	cfg := testConfig()
	sim, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := sim.Run(); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	report := sim.Report()
	if report.InstructionsRetired != 0 {
		t.Errorf("InstructionsRetired = %d, want 0", report.InstructionsRetired)
	}
}
