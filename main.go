// Command minic compiles and runs a single translation unit of the C
// subset this module implements.
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"time"

	"github.com/jcorbin/minic/internal/logio"
)

func main() {
	var (
		memLimit   int
		cycleLimit int64
		stackSize  int
		timeout    time.Duration
		trace      bool
		dump       bool
	)
	flag.IntVar(&memLimit, "mem-limit", 0, "data+heap bytes below the stack (0: data size plus stack size)")
	flag.Int64Var(&cycleLimit, "cycle-limit", 0, "abort after this many instructions (0: unlimited)")
	flag.IntVar(&stackSize, "stack-size", 0, "stack byte capacity (0: default)")
	flag.DurationVar(&timeout, "timeout", 0, "wall-clock time limit (0: unlimited)")
	flag.BoolVar(&trace, "trace", false, "log every executed instruction")
	flag.BoolVar(&dump, "dump", false, "print a disassembly after compiling")
	flag.Parse()

	log := logio.Logger{}
	log.SetOutput(os.Stderr)

	var exitCode int
	defer func() { os.Exit(exitCode) }()
	defer log.Unwrap()

	args := flag.Args()
	var (
		src  []byte
		name string
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		name = "<stdin>"
		src, err = io.ReadAll(os.Stdin)
	} else {
		name = args[0]
		src, err = os.ReadFile(name)
	}
	if err != nil {
		log.Errorf("%s: %v", name, err)
		exitCode = 1
		return
	}

	prog, err := Compile(name, src)
	if err != nil {
		log.ErrorIf(err)
		exitCode = int(exitCodeFor(err))
		return
	}

	if dump {
		prog.Disassemble(os.Stderr)
	}

	ctx := context.Background()
	if timeout != 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	opts := []VMOption{
		WithOutput(os.Stdout),
		WithMemLimit(int32(memLimit)),
		WithCycleLimit(cycleLimit),
		WithStackSize(int32(stackSize)),
	}
	if trace {
		opts = append(opts, WithLogf(log.Leveledf("TRACE")))
	}

	code, err := prog.Run(ctx, opts...)
	log.ErrorIf(err)
	exitCode = code
}
