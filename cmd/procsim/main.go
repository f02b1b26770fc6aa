// Command procsim runs a single out-of-order backend against an
// instruction trace and reports the same statistics the original
// driver printed.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jasonKoogler/procsim/internal/config"
	"github.com/jasonKoogler/procsim/internal/core"
	"github.com/jasonKoogler/procsim/internal/simulator"
	"github.com/jasonKoogler/procsim/internal/trace"
)

func main() {
	tracePath := flag.String("I", "", "Path to the instruction trace file (required)")
	configPath := flag.String("config", "", "Path to a YAML configuration file layered under the flags below")
	fetchWidth := flag.Int("F", 2, "Fetch width: 2, 4, or 8")
	schedQPerFU := flag.Int("S", 2, "Scheduling queue entries per functional unit: 2, 4, or 8")
	numPRegs := flag.Int("P", 64, "Number of physical renaming registers: 64, 96, or 128")
	numALU := flag.Int("A", 2, "Number of ALU functional units: 1, 2, or 3")
	numMUL := flag.Int("M", 1, "Number of MUL functional units: 1 or 2")
	numLSU := flag.Int("L", 2, "Number of LSU functional units: 1, 2, or 3")
	disableMisses := flag.Bool("D", false, "Disable i-cache/d-cache miss and branch mispredict modeling")
	help := flag.Bool("H", false, "Print usage and exit")
	flag.Parse()

	if *help {
		flag.Usage()
		return
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			logger.Fatalf("failed to load configuration: %v", err)
		}
		cfg = loaded
	}

	visited := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { visited[f.Name] = true })

	if visited["F"] {
		cfg.FetchWidth = *fetchWidth
	}
	if visited["S"] {
		cfg.SchedQPerFU = *schedQPerFU
	}
	if visited["P"] {
		cfg.NumPRegs = *numPRegs
	}
	if visited["A"] {
		cfg.NumALU = *numALU
	}
	if visited["M"] {
		cfg.NumMUL = *numMUL
	}
	if visited["L"] {
		cfg.NumLSU = *numLSU
	}
	if visited["D"] {
		cfg.MissesEnabled = !*disableMisses
	}
	if visited["I"] {
		cfg.TracePath = *tracePath
	}

	if err := config.Validate(cfg); err != nil {
		flag.Usage()
		logger.Fatalf("invalid configuration: %v", err)
	}

	insts, err := trace.Load(cfg.TracePath)
	if err != nil {
		logger.Fatalf("failed to load trace: %v", err)
	}

	sim, err := simulator.New(cfg, insts)
	if err != nil {
		logger.Fatalf("failed to initialize simulator: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan error, 1)
	go func() {
		done <- sim.Run()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.Fatalf("simulation failed: %v", err)
		}
	case <-sigChan:
		logger.Println("received termination signal, shutting down...")
		sim.Shutdown()
		<-done
		logger.Println("simulation terminated early")
		return
	}

	printReport(sim.Report())
}

func printReport(r core.Report) {
	fmt.Println("Simulation Statistics:")
	fmt.Printf("  Cycles:                  %d\n", r.Cycles)
	fmt.Printf("  Instructions fetched:    %d\n", r.InstructionsFetched)
	fmt.Printf("  Instructions retired:    %d\n", r.InstructionsRetired)
	fmt.Printf("  Instructions in trace:   %d\n", r.InstructionsInTrace)
	fmt.Printf("  IPC:                     %.4f\n", r.IPC)
	fmt.Printf("  Branch mispredictions:   %d\n", r.BranchMispredictions)
	fmt.Printf("  I-cache misses:          %d\n", r.ICacheMisses)
	fmt.Println()
	fmt.Printf("  Reads:                   %d\n", r.Reads)
	fmt.Printf("  Store buffer read hits:  %d\n", r.StoreBufferReadHits)
	fmt.Printf("  D-cache reads:           %d\n", r.DCacheReads)
	fmt.Printf("  D-cache read hits:       %d\n", r.DCacheReadHits)
	fmt.Printf("  D-cache read misses:     %d\n", r.DCacheReadMisses)
	fmt.Printf("  Store buffer hit ratio:  %.4f\n", r.StoreBufferHitRatio)
	fmt.Printf("  D-cache read miss ratio: %.4f\n", r.DCacheReadMissRatio)
	fmt.Printf("  D-cache ratio:           %.4f\n", r.DCacheRatio)
	fmt.Printf("  D-cache read AAT:        %.4f\n", r.DCacheReadAAT)
	fmt.Printf("  Read AAT:                %.4f\n", r.ReadAAT)
	fmt.Println()
	fmt.Printf("  Dispatch queue avg size: %.4f (max %d)\n", r.DispQAvgSize, r.DispQMaxSize)
	fmt.Printf("  Sched queue avg size:    %.4f (max %d)\n", r.SchedQAvgSize, r.SchedQMaxSize)
	fmt.Printf("  ROB avg size:            %.4f (max %d)\n", r.RobAvgSize, r.RobMaxSize)
	fmt.Printf("  No-fire cycles:          %d\n", r.NoFireCycles)
	fmt.Printf("  ROB-full stall cycles:   %d\n", r.RobStallCycles)
	fmt.Printf("  No-free-preg cycles:     %d\n", r.NoDispatchPregsCycles)
}
