package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSymtab_DeclareGlobalThenLookup(t *testing.T) {
	var st symtab
	sym, err := st.declareGlobal("x", symGlobal, typeInt, 4)
	require.NoError(t, err)
	require.Equal(t, sym, st.lookup("x"))
	require.Equal(t, symGlobal, sym.class)
	require.Equal(t, int32(4), sym.value)
}

func TestSymtab_DuplicateGlobalIsError(t *testing.T) {
	var st symtab
	_, err := st.declareGlobal("x", symGlobal, typeInt, 0)
	require.NoError(t, err)
	_, err = st.declareGlobal("x", symGlobal, typeInt, 4)
	require.ErrorIs(t, err, errDuplicateDefinition)
}

func TestSymtab_LocalShadowsThenRestoresGlobal(t *testing.T) {
	var st symtab
	_, err := st.declareGlobal("x", symGlobal, typeInt, 9)
	require.NoError(t, err)

	st.declareLocal("x", typeChar, -1)
	sym := st.lookup("x")
	require.Equal(t, symLocal, sym.class)
	require.Equal(t, typeChar, sym.typ)
	require.Equal(t, int32(-1), sym.value)

	st.unshadowFunctionLocals()
	sym = st.lookup("x")
	require.Equal(t, symGlobal, sym.class)
	require.Equal(t, int32(9), sym.value)
}

func TestSymtab_LocalWithNoPriorBindingUnresolvesAfterRestore(t *testing.T) {
	var st symtab
	st.declareLocal("n", typeInt, -1)
	require.NotNil(t, st.lookup("n"))

	st.unshadowFunctionLocals()
	require.Nil(t, st.lookup("n"))
}

func TestSymtab_DeclareEnum(t *testing.T) {
	var st symtab
	err := st.declareEnum([]string{"A", "B", "C"}, []int32{0, 5, 6})
	require.NoError(t, err)

	a, b, c := st.lookup("A"), st.lookup("B"), st.lookup("C")
	require.Equal(t, int32(0), a.value)
	require.Equal(t, int32(5), b.value)
	require.Equal(t, int32(6), c.value)
	require.Equal(t, symEnumerator, a.class)
}

func TestSymtab_SystemPrimitivesPreinstalled(t *testing.T) {
	var st symtab
	st.declareSystemPrimitives()
	sym := st.lookup("printf")
	require.NotNil(t, sym)
	require.Equal(t, symSystemCall, sym.class)
	require.Equal(t, int32(opPrintf), sym.value)
}
