package main

import "io"

// VMOption configures a compiled program's run, following the teacher's
// functional-options shape in options.go: each option is a small typed
// value implementing apply, and VMOptions flattens any mix of options
// (including nested composites) into one.
type VMOption interface{ apply(cfg *runConfig) }

// runConfig accumulates options before a VM is built, since a couple of
// them (stack size, memory limit) size the VM's memory arena before one
// exists to apply onto directly.
type runConfig struct {
	output     io.Writer
	tee        io.Writer
	memLimit   int32
	cycleLimit int64
	stackSize  int32
	logf       func(mess string, args ...interface{})
}

func defaultRunConfig() runConfig {
	return runConfig{output: io.Discard}
}

// writer returns the configured output, tee'd to a second writer if one
// was given with WithTee.
func (cfg runConfig) writer() io.Writer {
	if cfg.tee != nil {
		return io.MultiWriter(cfg.output, cfg.tee)
	}
	return cfg.output
}

var defaultOptions = VMOptions()

// VMOptions flattens a sequence of options into one, the way the
// teacher's VMOptions collapses a VM's option list.
func VMOptions(opts ...VMOption) VMOption {
	var res options
	for _, opt := range opts {
		switch impl := opt.(type) {
		case nil, noption:
		case options:
			res = append(res, impl...)
		default:
			res = append(res, opt)
		}
	}
	switch len(res) {
	case 0:
		return noption{}
	case 1:
		return res[0]
	default:
		return res
	}
}

type noption struct{}

func (noption) apply(*runConfig) {}

type options []VMOption

func (opts options) apply(cfg *runConfig) {
	for _, opt := range opts {
		if opt != nil {
			opt.apply(cfg)
		}
	}
}

type outputOption struct{ io.Writer }
type teeOption struct{ io.Writer }
type memLimitOption int32
type cycleLimitOption int64
type stackSizeOption int32
type logfOption func(mess string, args ...interface{})

// WithOutput directs the VM's printf primitive to w (spec.md §4.4
// "printf"); without it, Program.Run keeps the output in memory for
// Program.Output.
func WithOutput(w io.Writer) VMOption { return outputOption{w} }

// WithTee additionally mirrors printf output to w, alongside whatever
// WithOutput configured.
func WithTee(w io.Writer) VMOption { return teeOption{w} }

// WithMemLimit sets the size of the memory region below the stack that
// holds the data segment and the malloc heap; the heap may also grow on
// into unused stack space, up to the current stack pointer. 0 (the
// default) uses the data segment's size plus the stack size.
func WithMemLimit(limit int32) VMOption { return memLimitOption(limit) }

// WithCycleLimit aborts the run with a runtimeCycleCeiling error once
// more than limit instructions have executed; 0 (the default) means
// unlimited (spec.md §4.5, §8 "cycle ceiling").
func WithCycleLimit(limit int64) VMOption { return cycleLimitOption(limit) }

// WithStackSize sets the VM stack's byte capacity; 0 uses defaultStackSize.
func WithStackSize(size int32) VMOption { return stackSizeOption(size) }

// WithLogf installs a function the VM calls once per instruction when
// tracing is enabled (see main.go's -trace flag).
func WithLogf(logf func(mess string, args ...interface{})) VMOption { return logfOption(logf) }

func (o outputOption) apply(cfg *runConfig)     { cfg.output = o.Writer }
func (o teeOption) apply(cfg *runConfig)        { cfg.tee = o.Writer }
func (l memLimitOption) apply(cfg *runConfig)   { cfg.memLimit = int32(l) }
func (l cycleLimitOption) apply(cfg *runConfig) { cfg.cycleLimit = int64(l) }
func (s stackSizeOption) apply(cfg *runConfig)  { cfg.stackSize = int32(s) }
func (f logfOption) apply(cfg *runConfig)       { cfg.logf = f }
