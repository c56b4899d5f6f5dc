package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExitCodeFor_EachFailureKindIsNegativeAndDistinct(t *testing.T) {
	cases := []error{
		lexError{mess: "x"},
		parseError{mess: "x"},
		resolveError{mess: "x"},
		typeError{mess: "x"},
		runtimeError{kind: runtimeCycleCeiling},
		runtimeError{kind: runtimeWatchdogStall},
		runtimeError{kind: runtimeDivisionByZero},
		runtimeError{kind: runtimeStackOverflow},
		runtimeError{kind: runtimeStackUnderflow},
		runtimeError{kind: runtimeUnknownOpcode},
	}
	seen := map[int32]bool{}
	for _, err := range cases {
		code := exitCodeFor(err)
		require.Less(t, code, int32(0))
		seen[code] = true
	}
	// stack overflow and underflow intentionally share one code.
	require.Len(t, seen, len(cases)-1)
}

func TestExitCodeFor_NilFallsBackToMinusOne(t *testing.T) {
	require.Equal(t, int32(-1), exitCodeFor(nil))
}
