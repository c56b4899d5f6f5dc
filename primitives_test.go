package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// newPrimVM builds a VM over data, with out wired as the printf sink, ready
// for a primitive to be invoked directly after its arguments are pushed in
// left-to-right order (the same convention call() leaves them in).
func newPrimVM(data []byte, out *bytes.Buffer) *VM {
	cfg := defaultRunConfig()
	cfg.output = out
	vm := newVM(nil, data, cfg)
	return vm
}

func TestPrimitives_PrintfFormatsDAndS(t *testing.T) {
	data := append([]byte("n=%d s=%s\n\x00"), []byte("hey\x00")...)
	var out bytes.Buffer
	vm := newPrimVM(data, &out)

	fmtAddr := int32(0)
	strAddr := int32(len("n=%d s=%s\n\x00"))

	require.NoError(t, vm.push(fmtAddr))
	require.NoError(t, vm.push(7))
	require.NoError(t, vm.push(strAddr))
	require.NoError(t, vm.primitive(opPrintf, 3))
	require.Equal(t, "n=7 s=hey\n", out.String())
}

func TestPrimitives_PrintfPercentLiteral(t *testing.T) {
	data := []byte("100%%\n\x00")
	var out bytes.Buffer
	vm := newPrimVM(data, &out)
	require.NoError(t, vm.push(0))
	require.NoError(t, vm.primitive(opPrintf, 1))
	require.Equal(t, "100%\n", out.String())
}

func TestPrimitives_PrintfRequiresFormatArgument(t *testing.T) {
	var out bytes.Buffer
	vm := newPrimVM(nil, &out)
	err := vm.primitive(opPrintf, 0)
	require.Error(t, err)
	require.IsType(t, runtimeError{}, err)
}

func TestPrimitives_MallocBumpsHeapAndReturnsAddress(t *testing.T) {
	var out bytes.Buffer
	vm := newPrimVM(nil, &out)
	before := vm.heapEnd

	require.NoError(t, vm.push(16))
	require.NoError(t, vm.primitive(opMalloc, 1))
	require.Equal(t, before, vm.ax)
	require.Equal(t, before+16, vm.heapEnd)
}

func TestPrimitives_MallocFailsWhenHeapWouldCollideWithStack(t *testing.T) {
	cfg := defaultRunConfig()
	cfg.stackSize = 8
	cfg.output = &bytes.Buffer{}
	vm := newVM(nil, nil, cfg)

	require.NoError(t, vm.push(1<<20))
	require.NoError(t, vm.primitive(opMalloc, 1))
	require.Equal(t, int32(0), vm.ax)
}

func TestPrimitives_MemsetFillsRangeAndReturnsAddress(t *testing.T) {
	var out bytes.Buffer
	vm := newPrimVM(make([]byte, 8), &out)

	require.NoError(t, vm.push(2))  // addr
	require.NoError(t, vm.push('x')) // value
	require.NoError(t, vm.push(3))  // n
	require.NoError(t, vm.primitive(opMemset, 3))
	require.Equal(t, int32(2), vm.ax)
	require.Equal(t, []byte{0, 0, 'x', 'x', 'x', 0, 0, 0}, vm.mem[:8])
}

func TestPrimitives_MemcmpEqualBuffersReturnsZero(t *testing.T) {
	data := []byte("abcabc")
	var out bytes.Buffer
	vm := newPrimVM(data, &out)

	require.NoError(t, vm.push(0))
	require.NoError(t, vm.push(3))
	require.NoError(t, vm.push(3))
	require.NoError(t, vm.primitive(opMemcmp, 3))
	require.Equal(t, int32(0), vm.ax)
}

func TestPrimitives_MemcmpDiffersReturnsNonzero(t *testing.T) {
	data := []byte("abcabd")
	var out bytes.Buffer
	vm := newPrimVM(data, &out)

	require.NoError(t, vm.push(0))
	require.NoError(t, vm.push(3))
	require.NoError(t, vm.push(3))
	require.NoError(t, vm.primitive(opMemcmp, 3))
	require.NotEqual(t, int32(0), vm.ax)
}

func TestPrimitives_OpenMissingFileReturnsNegativeOne(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist")
	data := append([]byte(path), 0)
	var out bytes.Buffer
	vm := newPrimVM(data, &out)

	require.NoError(t, vm.push(0))
	require.NoError(t, vm.primitive(opOpen, 1))
	require.Equal(t, int32(-1), vm.ax)
}

func TestPrimitives_OpenReadCloseRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "greeting")
	require.NoError(t, os.WriteFile(path, []byte("hola"), 0o644))

	data := append([]byte(path), 0)
	data = append(data, make([]byte, 8)...)
	bufAddr := int32(len(path) + 1)

	var out bytes.Buffer
	vm := newPrimVM(data, &out)

	require.NoError(t, vm.push(0))
	require.NoError(t, vm.primitive(opOpen, 1))
	fd := vm.ax
	require.GreaterOrEqual(t, fd, int32(3))

	require.NoError(t, vm.push(fd))
	require.NoError(t, vm.push(bufAddr))
	require.NoError(t, vm.push(4))
	require.NoError(t, vm.primitive(opRead, 3))
	require.Equal(t, int32(4), vm.ax)
	require.Equal(t, []byte("hola"), vm.mem[bufAddr:bufAddr+4])

	require.NoError(t, vm.push(fd))
	require.NoError(t, vm.primitive(opClose, 1))
	require.Equal(t, int32(0), vm.ax)

	vm.closeFiles() // no remaining fds; must not panic
}

func TestPrimitives_ExitReturnsExitSignal(t *testing.T) {
	var out bytes.Buffer
	vm := newPrimVM(nil, &out)
	require.NoError(t, vm.push(5))
	err := vm.primitive(opExit, 1)
	require.Error(t, err)
	es, ok := err.(exitSignal)
	require.True(t, ok)
	require.Equal(t, int32(5), es.code)
}
