package main

import (
	"context"

	"github.com/jcorbin/minic/internal/panicerr"
)

// Program is a compiled translation unit, ready to run: the text segment
// and initial data image api.go's Compile produced, plus the entry point
// of its main function (spec.md §4.3 "a translation unit with no main is
// a ParseError").
type Program struct {
	text  []int32
	data  []byte
	entry int32
	sym   *symtab

	captured *capture
}

// capture backs Output() when the caller didn't supply their own
// WithOutput, mirroring the teacher's defaultOptions discard-by-default
// shape but keeping a copy around to read back.
type capture struct{ buf []byte }

func (c *capture) Write(p []byte) (int, error) {
	c.buf = append(c.buf, p...)
	return len(p), nil
}

// Compile lexes and parses src into a Program, or returns the first
// lexError/parseError/resolveError/typeError encountered (spec.md §7).
// name is recorded in each token's source location; error messages carry
// only the line number, not name. Pass "" if src has no file of its own.
func Compile(name string, src []byte) (*Program, error) {
	data := &dataArena{}
	text := &segment{}
	sym := &symtab{}

	lex := newLexer(newSource(name, src), data)
	p, err := newParser(lex, sym, text, data)
	if err != nil {
		return nil, err
	}
	if err := p.program(); err != nil {
		return nil, err
	}

	main := sym.lookup("main")
	if main == nil || main.class != symFunction {
		return nil, parseError{mess: "no main function defined"}
	}

	return &Program{text: text.words, data: data.bytes, entry: main.value, sym: sym}, nil
}

// Run drives the compiled program to completion, returning its exit code
// (spec.md §4.4 "return value of main is the program's exit code", §7 for
// negative codes on failure) and any non-exit error.
func (prog *Program) Run(ctx context.Context, opts ...VMOption) (int, error) {
	cfg := defaultRunConfig()
	captured := &capture{}
	cfg.output = captured
	VMOptions(opts...).apply(&cfg)

	prog.captured = nil
	if out, ok := cfg.output.(*capture); ok && out == captured {
		prog.captured = captured
	}

	vm := newVM(prog.text, prog.data, cfg)
	defer vm.closeFiles()

	var code int32
	err := panicerr.Recover("minic", func() error {
		var rerr error
		code, rerr = vm.run(ctx, prog.entry)
		return rerr
	})
	if err != nil {
		if rerr, ok := err.(runtimeError); ok {
			return int(exitCodeFor(rerr)), rerr
		}
		return -1, err
	}
	return int(code), nil
}

// Output returns the bytes written by the program's last run via the
// default captured-output sink; it is empty if the caller supplied its
// own WithOutput destination instead. WithTee alone keeps the default
// sink, so Output still returns what was printed.
func (prog *Program) Output() []byte {
	if prog.captured == nil {
		return nil
	}
	return prog.captured.buf
}

// CompileAndRun compiles src and runs its main to completion in one call,
// the common case for tests and the command-line driver in main.go.
func CompileAndRun(ctx context.Context, name string, src []byte, opts ...VMOption) (int, error) {
	prog, err := Compile(name, src)
	if err != nil {
		return int(exitCodeFor(err)), err
	}
	return prog.Run(ctx, opts...)
}
