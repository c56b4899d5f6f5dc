package main

// segment is an append-only sequence of 32-bit words (spec.md §3: "text
// and data segments are monotonically appended; words are never deleted,
// only back-patched"). A plain growable slice is the right fit here — see
// DESIGN.md for why the teacher's paged internal/mem is not used: these
// segments only ever grow at their own end, never at arbitrary far
// offsets.
type segment struct {
	words []int32
}

// emit appends a word and returns its index.
func (s *segment) emit(w int32) int {
	i := len(s.words)
	s.words = append(s.words, w)
	return i
}

// emitOp appends an opcode.
func (s *segment) emitOp(op opcode) int { return s.emit(int32(op)) }

// len reports the segment's current size in words.
func (s *segment) len() int { return len(s.words) }

// patch overwrites an already-emitted word, used to back-patch branch
// targets once their destination is known (spec.md §3 "back-patched after
// the target is known").
func (s *segment) patch(i int, w int32) { s.words[i] = w }

// label is a typed hole for a not-yet-known branch target (REDESIGN
// FLAGS, "Back-patching": holes are represented explicitly and resolved
// at well-defined join points, rather than by ad hoc index arithmetic on
// the last emitted word).
type label struct {
	seg *segment
	at  int // index of the operand word to patch
}

// emitBranch appends op followed by a placeholder operand, returning a
// label that bindHere (or bindTo) later resolves.
func (s *segment) emitBranch(op opcode) label {
	s.emitOp(op)
	at := s.emit(0)
	return label{seg: s, at: at}
}

// bindHere patches the label's branch target to the segment's current
// end (the next instruction to be emitted).
func (l label) bindHere() { l.seg.patch(l.at, int32(l.seg.len())) }

// bindTo patches the label's branch target to an explicit index, for a
// backward branch whose target was recorded before the branch was
// emitted. The parser does not call it: whileStatement emits its
// loop-back jump with the recorded target directly.
func (l label) bindTo(target int) { l.seg.patch(l.at, int32(target)) }
