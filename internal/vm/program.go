// Package vm implements the register-based database machine (DBM): a
// small stack-free bytecode interpreter that drives the B-tree engine in
// internal/storage. Programs are produced by a SQL compiler that lives
// outside this repository; this package only executes them.
package vm

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/trace"

	"tinydb/internal/storage"
)

// RegType tags the value currently held by a Register: the four column
// kinds a record can carry (RegNull, the not-yet-written zero value,
// among them) plus RegRecord for MakeRecord's output. Grounded on virtualmachine/machine.go's reg enum
// (RegUnspecified/RegNull/RegInt32/RegString/RegBinary/RegRecord),
// trimmed to the set the spec's DBM state actually names.
type RegType uint8

const (
	RegNull RegType = iota
	RegInt32
	RegString
	RegBinary
	RegRecord
)

func (t RegType) String() string {
	switch t {
	case RegNull:
		return "null"
	case RegInt32:
		return "int32"
	case RegString:
		return "string"
	case RegBinary:
		return "binary"
	case RegRecord:
		return "record"
	default:
		return "unknown"
	}
}

// Register is one typed slot of a Program's register file. Only the
// field matching Type is meaningful; Bin additionally holds the
// serialized payload when Type is RegRecord (MakeRecord's output, ready
// to hand straight to Insert).
type Register struct {
	Type RegType
	Int  int32
	Str  string
	Bin  []byte
}

func nullRegister() Register { return Register{Type: RegNull} }

// Instruction is one DBM bytecode instruction: an opcode plus three
// integer operands and one opaque operand, per §4.4. P4 is a string for
// String and unused (nil) otherwise.
type Instruction struct {
	Op Op
	P1 int32
	P2 int32
	P3 int32
	P4 interface{}

	Comment string
}

func (i Instruction) String() string {
	return fmt.Sprintf("%-14s p1=%-4d p2=%-4d p3=%-4d p4=%-8v %s", i.Op, i.P1, i.P2, i.P3, i.P4, i.Comment)
}

// cursorState is the per-slot state of the DBM's cursor array: the
// B-tree a cursor was opened against plus the storage.Cursor walking
// it. cols is the column count passed to OpenRead/OpenWrite (0 for an
// index cursor), kept only so a future Column bounds check has
// something to check against.
type cursorState struct {
	tree *storage.BTree
	cur  *storage.Cursor
	cols int
}

// Program is one loaded, runnable DBM bytecode program: an instruction
// vector, a program counter, an auto-growing register file, an
// auto-growing cursor array, and the pager backing every B-tree a
// cursor in this program may open. Grounded on
// virtualmachine/program.go's Program (pc, regs, cursors, halted,
// results channel), generalized from its fixed 10-register/5-cursor
// arrays to unbounded auto-grow per §4.4.
type Program struct {
	log *logrus.Logger
	tr  trace.Trace

	pager        *storage.Pager
	instructions []Instruction
	pc           int

	regs    []Register
	cursors []*cursorState

	halted   bool
	exitCode int32
	runErr   error

	results chan []interface{}
}

// NewProgram returns a Program ready to run instructions against pager.
// log may be nil, in which case logrus.StandardLogger() is used.
func NewProgram(pager *storage.Pager, instructions []Instruction, log *logrus.Logger) *Program {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Program{
		log:          log,
		pager:        pager,
		instructions: instructions,
		results:      make(chan []interface{}),
	}
}

// reg returns the register at index i, growing the register file with
// freshly zeroed (RegNull) registers if i is beyond its current length.
func (p *Program) reg(i int32) *Register {
	idx := int(i)
	if idx >= len(p.regs) {
		grown := make([]Register, idx+1)
		copy(grown, p.regs)
		for j := len(p.regs); j <= idx; j++ {
			grown[j] = nullRegister()
		}
		p.regs = grown
	}
	return &p.regs[idx]
}

// cursorSlot returns the cursor slot at index i, growing the cursor
// array with nil slots if needed. cursor reads a slot for every opcode
// but OpenRead/OpenWrite/Close and panics on a nil one (a program bug),
// matching §7's "assertions guard invariants the caller must maintain."
func (p *Program) cursorSlot(i int32) **cursorState {
	idx := int(i)
	if idx >= len(p.cursors) {
		grown := make([]*cursorState, idx+1)
		copy(grown, p.cursors)
		p.cursors = grown
	}
	return &p.cursors[idx]
}

func (p *Program) cursor(i int32) *cursorState {
	cs := *p.cursorSlot(i)
	if cs == nil {
		panic(fmt.Sprintf("vm: instruction referenced unopened cursor %d", i))
	}
	return cs
}

// Results returns the channel ResultRow emissions are published on.
// Callers must drain it concurrently with Run, the way the teacher's
// backend consumes virtualmachine.Program.Results.
func (p *Program) Results() <-chan []interface{} {
	return p.results
}

// Run executes the program to completion: fetch, dispatch, advance,
// until Halt sets halted or an instruction errors. Per §5 the loop is
// synchronous and single-threaded with no suspend points; Run always
// returns on the calling goroutine.
func (p *Program) Run() (exitCode int32, err error) {
	p.tr = trace.New("vm.Program", fmt.Sprintf("len=%d", len(p.instructions)))
	defer p.tr.Finish()
	defer close(p.results)

	for !p.halted && p.pc < len(p.instructions) {
		ins := p.instructions[p.pc]
		handler, ok := opcodeTable[ins.Op]
		if !ok {
			p.tr.LazyPrintf("unknown opcode %v", ins.Op)
			return 0, fmt.Errorf("vm: unknown opcode %v at pc=%d", ins.Op, p.pc)
		}

		p.log.WithFields(logrus.Fields{"pc": p.pc, "op": ins.Op.String()}).Debug("vm: dispatch")

		jumpTo, jumped, err := handler(p, ins)
		if err != nil {
			p.tr.LazyPrintf("instruction %d (%v) failed: %v", p.pc, ins.Op, err)
			p.log.WithError(err).WithField("pc", p.pc).Error("vm: instruction failed")
			return 0, fmt.Errorf("vm: instruction %d (%v): %w", p.pc, ins.Op, err)
		}

		if p.halted {
			break
		}
		if jumped {
			p.pc = int(jumpTo)
			continue
		}
		p.pc++
	}

	return p.exitCode, nil
}
