package main

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/jcorbin/minic/internal/flushio"
)

// VM is the register/stack machine spec.md §4.5 describes: a four-word
// register set (pc, bp, sp, ax) plus one byte-addressed memory, so that a
// pointer value means the same thing whether it originated from a global,
// a string literal, the heap, or a stack frame (see DESIGN.md data.go
// entry for why this differs from the word-addressed text segment).
//
// Grounded on the teacher's step/run/exec loop shape in internals.go
// (fetch, dispatch, repeat) and on c4_rust_Alqattara's run(), corrected
// for that reference's LEV bug: Leave here reads both the restored bp and
// pc from the OLD bp before overwriting anything, rather than reading pc
// from an already-mutated bp. Unlike the teacher's exec, which polls ctx
// between steps, run only checks ctx once at entry (see run's doc
// comment).
type VM struct {
	text []int32
	mem  []byte

	dataEnd int32 // end of the compiled-in data/string region; heap starts here
	heapEnd int32 // current bump-allocator frontier

	pc, bp, sp, ax int32

	cycles     int64
	cycleLimit int64

	files  map[int32]*hostFile
	nextFD int32

	out flushio.WriteFlusher

	logging
}

const defaultStackSize = 64 * 1024

// newVM builds a VM ready to execute prog's text starting at entry, with
// prog's compiled data laid out at the bottom of a fresh memory arena sized
// per cfg.
func newVM(text []int32, data []byte, cfg runConfig) *VM {
	stackSize := cfg.stackSize
	if stackSize <= 0 {
		stackSize = defaultStackSize
	}
	memLimit := cfg.memLimit
	if memLimit <= 0 {
		memLimit = int32(len(data)) + stackSize
	}

	mem := make([]byte, memLimit+stackSize)
	copy(mem, data)

	vm := &VM{
		text:       text,
		mem:        mem,
		dataEnd:    int32(len(data)),
		heapEnd:    int32(len(data)),
		sp:         int32(len(mem)) - wordSize,
		cycleLimit: cfg.cycleLimit,
		files:      make(map[int32]*hostFile),
		out:        flushio.NewWriteFlusher(cfg.writer()),
	}
	vm.bp = vm.sp
	vm.logging.logfn = cfg.logf
	return vm
}

// watchdogWindow bounds how many consecutive steps the pc may sit still
// before run aborts with runtimeWatchdogStall (spec.md §4.5/§8, Glossary
// "Watchdog"). It is deliberately well above any cycleLimit a caller would
// set to catch a runaway loop quickly, so the cycle ceiling fires first in
// that case and the watchdog only catches a stall that cycleLimit doesn't
// bound (cycleLimit == 0, unlimited).
const watchdogWindow = 1 << 20

// Run drives the VM from a JSR into fn until it returns to a synthetic
// top-level return address, or a runtime error/watchdog stall occurs.
//
// ctx is honored only once, at entry: spec.md says cancellation is
// external and there is no cooperative cancellation within a run, so a
// program that is already executing runs to completion, a cycle-ceiling
// abort, or a watchdog stall, whichever comes first.
func (vm *VM) run(ctx context.Context, fn int32) (exitCode int32, err error) {
	const haltPC = -1

	if ctxErr := ctx.Err(); ctxErr != nil {
		return 0, ctxErr
	}

	vm.push(haltPC) // return address the entry call will Leave into
	vm.pc = fn

	prevPC := int32(haltPC)
	stall := int64(0)

	for {
		if vm.pc == haltPC {
			return vm.ax, nil
		}
		if vm.cycleLimit > 0 && vm.cycles >= vm.cycleLimit {
			return 0, runtimeError{kind: runtimeCycleCeiling, mess: fmt.Sprintf("exceeded %d cycles", vm.cycleLimit)}
		}
		if vm.pc == prevPC {
			stall++
			if stall >= watchdogWindow {
				return 0, runtimeError{kind: runtimeWatchdogStall, mess: fmt.Sprintf("pc stuck at %d for %d steps", vm.pc, stall)}
			}
		} else {
			stall = 0
		}
		prevPC = vm.pc

		vm.cycles++
		if err := vm.step(); err != nil {
			if es, ok := err.(exitSignal); ok {
				return es.code, nil
			}
			return 0, err
		}
	}
}

func (vm *VM) step() error {
	if vm.pc < 0 || int(vm.pc) >= len(vm.text) {
		return runtimeError{kind: runtimeBoundsViolation, mess: fmt.Sprintf("pc %d out of range", vm.pc)}
	}
	op := opcode(vm.text[vm.pc])
	vm.pc++

	var operand int32
	if op.hasOperand() {
		if int(vm.pc) >= len(vm.text) {
			return runtimeError{kind: runtimeBoundsViolation, mess: "truncated instruction"}
		}
		operand = vm.text[vm.pc]
		vm.pc++
	}

	if vm.logfn != nil {
		vm.logf("step", "@%d %s %d ax=%d sp=%d bp=%d", vm.pc, op, operand, vm.ax, vm.sp, vm.bp)
	}

	switch op {
	case opImm:
		vm.ax = operand
	case opLEA:
		vm.ax = vm.bp + operand*wordSize
	case opLI:
		v, err := vm.loadWord(vm.ax)
		if err != nil {
			return err
		}
		vm.ax = v
	case opLC:
		b, err := vm.loadByte(vm.ax)
		if err != nil {
			return err
		}
		vm.ax = int32(b)
	case opSI:
		addr, err := vm.pop()
		if err != nil {
			return err
		}
		if err := vm.storeWord(addr, vm.ax); err != nil {
			return err
		}
	case opSC:
		addr, err := vm.pop()
		if err != nil {
			return err
		}
		if err := vm.storeByte(addr, byte(vm.ax)); err != nil {
			return err
		}
	case opPush:
		if err := vm.push(vm.ax); err != nil {
			return err
		}
	case opJmp:
		vm.pc = operand
	case opJSR:
		if err := vm.push(vm.pc); err != nil {
			return err
		}
		vm.pc = operand
	case opBZ:
		if vm.ax == 0 {
			vm.pc = operand
		}
	case opBNZ:
		if vm.ax != 0 {
			vm.pc = operand
		}
	case opEnt:
		if err := vm.push(vm.bp); err != nil {
			return err
		}
		vm.bp = vm.sp
		vm.sp -= operand * wordSize
		if vm.sp < vm.heapEnd {
			return runtimeError{kind: runtimeStackOverflow, mess: "stack collided with heap"}
		}
	case opAdj:
		vm.sp += operand * wordSize
	case opLev:
		oldbp := vm.bp
		newbp, err := vm.loadWord(oldbp + wordSize)
		if err != nil {
			return err
		}
		newpc, err := vm.loadWord(oldbp + 2*wordSize)
		if err != nil {
			return err
		}
		vm.sp = oldbp + 2*wordSize
		vm.bp = newbp
		vm.pc = newpc

	case opOr, opXor, opAnd, opEq, opNe, opLt, opGt, opLe, opGe, opShl, opShr, opAdd, opSub, opMul, opDiv, opMod:
		if err := vm.binaryOp(op); err != nil {
			return err
		}

	case opPrintf, opMalloc, opMemset, opMemcmp, opOpen, opRead, opClose, opExit:
		if err := vm.primitive(op, operand); err != nil {
			return err
		}

	default:
		return runtimeError{kind: runtimeUnknownOpcode, mess: op.String()}
	}

	if vm.sp < 0 || int(vm.sp) >= len(vm.mem) || vm.bp < 0 || int(vm.bp) > len(vm.mem) {
		return runtimeError{kind: runtimeBoundsViolation, mess: "stack pointer escaped the stack region"}
	}
	return nil
}

func (vm *VM) binaryOp(op opcode) error {
	lhs, err := vm.pop()
	if err != nil {
		return err
	}
	rhs := vm.ax
	switch op {
	case opOr:
		vm.ax = lhs | rhs
	case opXor:
		vm.ax = lhs ^ rhs
	case opAnd:
		vm.ax = lhs & rhs
	case opEq:
		vm.ax = boolWord(lhs == rhs)
	case opNe:
		vm.ax = boolWord(lhs != rhs)
	case opLt:
		vm.ax = boolWord(lhs < rhs)
	case opGt:
		vm.ax = boolWord(lhs > rhs)
	case opLe:
		vm.ax = boolWord(lhs <= rhs)
	case opGe:
		vm.ax = boolWord(lhs >= rhs)
	case opShl:
		vm.ax = lhs << uint32(rhs)
	case opShr:
		vm.ax = lhs >> uint32(rhs)
	case opAdd:
		vm.ax = lhs + rhs
	case opSub:
		vm.ax = lhs - rhs
	case opMul:
		vm.ax = lhs * rhs
	case opDiv:
		if rhs == 0 {
			return runtimeError{kind: runtimeDivisionByZero, mess: "division by zero"}
		}
		vm.ax = lhs / rhs
	case opMod:
		if rhs == 0 {
			return runtimeError{kind: runtimeDivisionByZero, mess: "modulo by zero"}
		}
		vm.ax = lhs % rhs
	}
	return nil
}

func boolWord(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// push stores v at the current stack pointer, then moves it one word
// further from the stack's starting end (spec.md §4.5 "Push"). parser.go's
// function() doc comment derives the frame offsets from this exact
// ordering.
func (vm *VM) push(v int32) error {
	if vm.sp < vm.heapEnd {
		return runtimeError{kind: runtimeStackOverflow, mess: "stack overflow"}
	}
	if err := vm.storeWord(vm.sp, v); err != nil {
		return err
	}
	vm.sp -= wordSize
	return nil
}

func (vm *VM) pop() (int32, error) {
	addr := vm.sp + wordSize
	v, err := vm.loadWord(addr)
	if err != nil {
		return 0, runtimeError{kind: runtimeStackUnderflow, mess: "stack underflow"}
	}
	vm.sp = addr
	return v, nil
}

func (vm *VM) loadWord(addr int32) (int32, error) {
	if addr < 0 || int64(addr)+wordSize > int64(len(vm.mem)) {
		return 0, runtimeError{kind: runtimeBoundsViolation, mess: fmt.Sprintf("load at %d out of range", addr)}
	}
	return int32(binary.LittleEndian.Uint32(vm.mem[addr:])), nil
}

func (vm *VM) storeWord(addr int32, v int32) error {
	if addr < 0 || int64(addr)+wordSize > int64(len(vm.mem)) {
		return runtimeError{kind: runtimeBoundsViolation, mess: fmt.Sprintf("store at %d out of range", addr)}
	}
	binary.LittleEndian.PutUint32(vm.mem[addr:], uint32(v))
	return nil
}

func (vm *VM) loadByte(addr int32) (byte, error) {
	if addr < 0 || int(addr) >= len(vm.mem) {
		return 0, runtimeError{kind: runtimeBoundsViolation, mess: fmt.Sprintf("load at %d out of range", addr)}
	}
	return vm.mem[addr], nil
}

func (vm *VM) storeByte(addr int32, b byte) error {
	if addr < 0 || int(addr) >= len(vm.mem) {
		return runtimeError{kind: runtimeBoundsViolation, mess: fmt.Sprintf("store at %d out of range", addr)}
	}
	vm.mem[addr] = b
	return nil
}

// arg returns the k'th (1-based, left to right) argument of a call still
// sitting on the stack above the current sp, per the same push-order
// arithmetic parser.go's call() codegen relies on for frame offsets.
func (vm *VM) arg(argc, k int32) (int32, error) {
	return vm.loadWord(vm.sp + (argc-k+1)*wordSize)
}

// logging mirrors the teacher's logging embed in internals.go: a nil-safe
// leveled log function, used here to drive -trace output instead of
// FORTH step traces.
type logging struct {
	logfn func(mess string, args ...interface{})
}

func (l *logging) logf(level, mess string, args ...interface{}) {
	if l.logfn != nil {
		l.logfn(fmt.Sprintf(mess, args...))
	}
	_ = level
}

