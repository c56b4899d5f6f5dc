package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpcode_HasOperandDistinguishesOneWordOps(t *testing.T) {
	require.True(t, opImm.hasOperand())
	require.True(t, opEnt.hasOperand())
	require.True(t, opExit.hasOperand())
	require.False(t, opAdd.hasOperand())
	require.False(t, opLev.hasOperand())
	require.False(t, opPush.hasOperand())
}

func TestOpcode_StringNamesKnownOps(t *testing.T) {
	require.Equal(t, "ADD", opAdd.String())
	require.Equal(t, "LEV", opLev.String())
}

func TestOpcode_StringFallsBackForUnknownValue(t *testing.T) {
	unknown := opcode(10000)
	require.Contains(t, unknown.String(), "opcode(10000)")
}

func TestTypeCode_PointerConversions(t *testing.T) {
	p := pointerTo(typeInt)
	require.True(t, isPointer(p))
	require.Equal(t, typeInt, pointee(p))
	require.False(t, isPointer(typeInt))
	require.False(t, isPointer(typeChar))
}

func TestTypeCode_StrideAndSizeof(t *testing.T) {
	require.Equal(t, int32(1), stride(typeChar))
	require.Equal(t, int32(1), stride(typeInt))
	require.Equal(t, int32(4), stride(pointerTo(typeInt)))

	require.Equal(t, int32(1), sizeofType(typeChar))
	require.Equal(t, int32(4), sizeofType(typeInt))
	require.Equal(t, int32(4), sizeofType(pointerTo(typeInt)))
}

func TestTypeCode_String(t *testing.T) {
	require.Equal(t, "int", typeInt.String())
	require.Equal(t, "char", typeChar.String())
	require.Equal(t, "int*", pointerTo(typeInt).String())
	require.Equal(t, "int**", pointerTo(pointerTo(typeInt)).String())
}
