package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// textOf builds a minimal text segment directly at the opcode level, for
// tests that exercise the VM's instruction semantics without going through
// the parser.
func textOf(words ...int32) []int32 { return words }

func TestVM_EnterLeaveRestoresStackAndBase(t *testing.T) {
	vm := newVM(textOf(
		int32(opEnt), 2, // reserve 2 locals
		int32(opLev),
	), nil, defaultRunConfig())

	bpBefore := vm.bp
	spBefore := vm.sp
	_, err := vm.run(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, bpBefore, vm.bp)
	require.Equal(t, spBefore, vm.sp)
}

func TestVM_PushImmAddPopsExactlyOneWord(t *testing.T) {
	vm := newVM(textOf(
		int32(opEnt), 0,
		int32(opImm), 3,
		int32(opPush),
		int32(opImm), 4,
		int32(opAdd),
		int32(opLev),
	), nil, defaultRunConfig())

	spBefore := vm.sp
	code, err := vm.run(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, int32(7), code)
	require.Equal(t, spBefore, vm.sp) // Push then Add's pop nets to zero
}

// Every step() call re-checks 0 <= sp < len(mem) and 0 <= bp <= len(mem)
// before returning, so a clean run (no error) is sufficient proof the
// invariant held across every instruction in between.
func TestVM_StackBoundsStayWithinMemoryAfterEveryStep(t *testing.T) {
	vm := newVM(textOf(
		int32(opEnt), 4,
		int32(opImm), 9,
		int32(opPush),
		int32(opAdj), 1,
		int32(opLev),
	), nil, defaultRunConfig())

	_, err := vm.run(context.Background(), 0)
	require.NoError(t, err)
}

func TestVM_DivisionByZeroIsRuntimeError(t *testing.T) {
	vm := newVM(textOf(
		int32(opImm), 1,
		int32(opPush),
		int32(opImm), 0,
		int32(opDiv),
		int32(opLev),
	), nil, defaultRunConfig())
	_, err := vm.run(context.Background(), 0)
	require.Error(t, err)
	re, ok := err.(runtimeError)
	require.True(t, ok)
	require.Equal(t, runtimeDivisionByZero, re.kind)
}

func TestVM_StackOverflowIsRuntimeError(t *testing.T) {
	cfg := defaultRunConfig()
	cfg.stackSize = 8 // tiny stack, data segment is empty
	vm := newVM(textOf(
		int32(opEnt), 1000,
		int32(opLev),
	), nil, cfg)
	_, err := vm.run(context.Background(), 0)
	require.Error(t, err)
	re, ok := err.(runtimeError)
	require.True(t, ok)
	require.Equal(t, runtimeStackOverflow, re.kind)
}

func TestVM_ExitPrimitiveShortCircuitsRun(t *testing.T) {
	vm := newVM(textOf(
		int32(opImm), 42,
		int32(opPush),
		int32(opExit), 1,
	), nil, defaultRunConfig())
	code, err := vm.run(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, int32(42), code)
}

func TestVM_CycleCeilingStopsInfiniteLoop(t *testing.T) {
	vm := newVM(textOf(
		int32(opJmp), 0, // jump to self forever
	), nil, defaultRunConfig())
	vm.cycleLimit = 100
	_, err := vm.run(context.Background(), 0)
	require.Error(t, err)
	re, ok := err.(runtimeError)
	require.True(t, ok)
	require.Equal(t, runtimeCycleCeiling, re.kind)
}

func TestVM_WatchdogStopsStalledPCWithNoCycleLimit(t *testing.T) {
	vm := newVM(textOf(
		int32(opJmp), 0, // jump to self forever, no cycle ceiling set
	), nil, defaultRunConfig())
	_, err := vm.run(context.Background(), 0)
	require.Error(t, err)
	re, ok := err.(runtimeError)
	require.True(t, ok)
	require.Equal(t, runtimeWatchdogStall, re.kind)
}

func TestVM_RunChecksContextOnlyAtEntry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	vm := newVM(textOf(
		int32(opImm), 42,
		int32(opLev),
	), nil, defaultRunConfig())
	_, err := vm.run(ctx, 0)
	require.Error(t, err)
	require.ErrorIs(t, err, context.Canceled)
}
