package main

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSegment_EmitReturnsSequentialIndices(t *testing.T) {
	var s segment
	i0 := s.emit(10)
	i1 := s.emit(20)
	require.Equal(t, 0, i0)
	require.Equal(t, 1, i1)
	require.Equal(t, 2, s.len())
}

func TestSegment_EmitOpStoresAsInt32(t *testing.T) {
	var s segment
	i := s.emitOp(opLev)
	require.Equal(t, int32(opLev), s.words[i])
}

func TestSegment_PatchOverwritesWord(t *testing.T) {
	var s segment
	i := s.emit(0)
	s.patch(i, 99)
	require.Equal(t, int32(99), s.words[i])
}

func TestSegment_BranchBindHereTargetsNextEmit(t *testing.T) {
	var s segment
	l := s.emitBranch(opBZ)
	s.emitOp(opImm)
	s.emit(7)
	l.bindHere()
	require.Equal(t, int32(s.len()), s.words[l.at])
}

func TestSegment_BranchBindToExplicitTarget(t *testing.T) {
	var s segment
	loopStart := s.len()
	s.emitOp(opImm)
	s.emit(1)
	l := s.emitBranch(opJmp)
	l.bindTo(loopStart)
	require.Equal(t, int32(loopStart), s.words[l.at])
}
