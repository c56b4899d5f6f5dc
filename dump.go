package main

import (
	"fmt"
	"io"
)

// vmDumper disassembles a compiled program's text segment and lists its
// resolved symbols, adapted from the teacher's dumper.go ("# VM Dump"
// section-header style, one-writer-method-per-section shape) to this
// domain's word-addressed instruction stream instead of a FORTH
// dictionary.
type vmDumper struct {
	prog *Program
	out  io.Writer
}

// Disassemble writes a human-readable listing of prog's text segment and
// resolved global symbols to w, for use by main.go's -dump flag.
func (prog *Program) Disassemble(w io.Writer) {
	dump := vmDumper{prog: prog, out: w}
	dump.dump()
}

func (dump vmDumper) dump() {
	fmt.Fprintf(dump.out, "# Program Dump\n")
	fmt.Fprintf(dump.out, "  entry: %d\n", dump.prog.entry)
	fmt.Fprintf(dump.out, "  text words: %d\n", len(dump.prog.text))
	fmt.Fprintf(dump.out, "  data bytes: %d\n", len(dump.prog.data))

	dump.dumpSymbols()
	dump.dumpText()
}

func (dump vmDumper) dumpSymbols() {
	if dump.prog.sym == nil {
		return
	}
	fmt.Fprintf(dump.out, "# Symbols\n")
	for _, sym := range dump.prog.sym.entries {
		if sym.class == symUnresolved {
			continue
		}
		fmt.Fprintf(dump.out, "  %-16s %-10s %-6s %d\n", sym.name, sym.class, sym.typ, sym.value)
	}
}

func (dump vmDumper) dumpText() {
	fmt.Fprintf(dump.out, "# Text\n")
	text := dump.prog.text
	for pc := 0; pc < len(text); {
		op := opcode(text[pc])
		if op.hasOperand() && pc+1 < len(text) {
			fmt.Fprintf(dump.out, "  @%-5d %-8s %d\n", pc, op, text[pc+1])
			pc += 2
		} else {
			fmt.Fprintf(dump.out, "  @%-5d %-8s\n", pc, op)
			pc++
		}
	}
}
