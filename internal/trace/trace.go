// Package trace parses the static instruction traces consumed by the
// processor core. A trace is a flat text file, one record per line,
// produced ahead of time from a real dynamic execution.
package trace

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Opcode identifies the class of a traced instruction. The numbering
// matches the trace file format and is not reused for anything else.
type Opcode int

const (
	ADD    Opcode = 2
	MUL    Opcode = 3
	LOAD   Opcode = 4
	STORE  Opcode = 5
	BRANCH Opcode = 6
)

func (o Opcode) String() string {
	switch o {
	case ADD:
		return "ADD"
	case MUL:
		return "MUL"
	case LOAD:
		return "LOAD"
	case STORE:
		return "STORE"
	case BRANCH:
		return "BRANCH"
	default:
		return fmt.Sprintf("Opcode(%d)", int(o))
	}
}

// Instruction is a single dynamically-executed instruction as recorded
// in the trace. It is read-only once parsed; the core never mutates
// the fields below, only the renamed copies it derives from them.
type Instruction struct {
	PC     uint64
	Opcode Opcode

	// Dest/Src1/Src2 are architectural register numbers, or -1 when
	// absent. A Dest of 0 is normalized to -1 at parse time since
	// register 0 is the hardwired-zero register and is never a real
	// destination; a source of 0 is kept as register 0.
	Dest int8
	Src1 int8
	Src2 int8

	// Addr is the effective address for LOAD/STORE; meaningless
	// otherwise.
	Addr uint64

	// DynID is the unique, monotonically increasing dynamic instruction
	// id used to correlate an instruction across the dispatch queue,
	// scheduling queue, ROB, FU pipes and store buffer.
	DynID uint64

	Mispredict bool
	ICacheMiss bool
	DCacheMiss bool
}

// Load reads and parses an entire trace file.
func Load(path string) ([]Instruction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("trace: open %s: %w", path, err)
	}
	defer f.Close()

	var insts []Instruction
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}

		inst, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("trace: %s:%d: %w", path, lineNo, err)
		}
		insts = append(insts, inst)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("trace: %s: %w", path, err)
	}

	return insts, nil
}

// parseLine parses one "pc opcode dest src1 src2 addr dyn_count
// mispred icache_miss dcache_miss" record.
func parseLine(line string) (Instruction, error) {
	var (
		pcStr, addrStr      string
		dyn                 uint64
		opcode              int
		dest, src1, src2    int
		mispred, icm, dcm   int
	)

	n, err := fmt.Sscanf(line, "%s %d %d %d %d %s %d %d %d %d",
		&pcStr, &opcode, &dest, &src1, &src2, &addrStr, &dyn, &mispred, &icm, &dcm)
	if err != nil || n != 10 {
		return Instruction{}, fmt.Errorf("malformed trace record (parsed %d/10 fields): %q", n, line)
	}

	// pc and addr are hex, with or without a 0x/0X prefix.
	pc, errPC := strconv.ParseUint(strings.TrimPrefix(strings.TrimPrefix(pcStr, "0x"), "0X"), 16, 64)
	addr, errAddr := strconv.ParseUint(strings.TrimPrefix(strings.TrimPrefix(addrStr, "0x"), "0X"), 16, 64)
	if errPC != nil || errAddr != nil {
		return Instruction{}, fmt.Errorf("malformed trace record (bad hex field): %q", line)
	}

	if dest == 0 {
		dest = -1
	}

	return Instruction{
		PC:         pc,
		Opcode:     Opcode(opcode),
		Dest:       int8(dest),
		Src1:       int8(src1),
		Src2:       int8(src2),
		Addr:       addr,
		DynID:      dyn,
		Mispredict: mispred != 0,
		ICacheMiss: icm != 0,
		DCacheMiss: dcm != 0,
	}, nil
}
