package main

import (
	"fmt"
	"os"
)

// primitives.go implements the host system calls spec.md §4.4 exposes to
// the C subset (REDESIGN FLAGS "Runtime primitives"): printf, malloc,
// memset, memcmp, open, read, close, exit. Each reads its arguments
// directly off the VM stack via vm.arg, since the call site leaves them
// there (uncleaned) until the following Adjust instruction — see
// parser.go's call().

// exitSignal unwinds the VM's run loop cleanly on an explicit exit() call,
// distinct from a runtimeError: it is not a failure, just an alternate way
// of choosing the process exit code (spec.md §4.4 "exit").
type exitSignal struct{ code int32 }

func (e exitSignal) Error() string { return fmt.Sprintf("exit(%d)", e.code) }

// hostFile is the per-VM file table entry backing open/read/close.
type hostFile struct {
	f *os.File
}

func (vm *VM) primitive(op opcode, argc int32) error {
	switch op {
	case opPrintf:
		return vm.primPrintf(argc)
	case opMalloc:
		return vm.primMalloc(argc)
	case opMemset:
		return vm.primMemset(argc)
	case opMemcmp:
		return vm.primMemcmp(argc)
	case opOpen:
		return vm.primOpen(argc)
	case opRead:
		return vm.primRead(argc)
	case opClose:
		return vm.primClose(argc)
	case opExit:
		return vm.primExit(argc)
	default:
		return runtimeError{kind: runtimeUnknownOpcode, mess: op.String()}
	}
}

// cString reads a NUL-terminated byte string starting at addr.
func (vm *VM) cString(addr int32) (string, error) {
	var buf []byte
	for {
		b, err := vm.loadByte(addr)
		if err != nil {
			return "", err
		}
		if b == 0 {
			break
		}
		buf = append(buf, b)
		addr++
	}
	return string(buf), nil
}

// primPrintf implements a fixed, non-variadic %d/%c/%s/%x/%p/%% formatter
// over the format string and remaining call arguments (spec.md §4.4
// "printf" — no host Go variadics are involved, since the argument count
// and types are only known from the VM call site, not from Go's type
// system).
func (vm *VM) primPrintf(argc int32) error {
	if argc < 1 {
		return runtimeError{kind: runtimeBoundsViolation, mess: "printf requires a format argument"}
	}
	fmtAddr, err := vm.arg(argc, 1)
	if err != nil {
		return err
	}
	format, err := vm.cString(fmtAddr)
	if err != nil {
		return err
	}

	nextArg := int32(2)
	n := 0
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			n++
			if _, err := vm.out.Write([]byte{c}); err != nil {
				return err
			}
			continue
		}
		i++
		if i >= len(format) {
			break
		}
		if format[i] == '%' {
			n++
			if _, err := vm.out.Write([]byte{'%'}); err != nil {
				return err
			}
			continue
		}
		var av int32
		if nextArg <= argc {
			av, err = vm.arg(argc, nextArg)
			if err != nil {
				return err
			}
		}
		nextArg++

		var out string
		switch format[i] {
		case 'd':
			out = fmt.Sprintf("%d", av)
		case 'c':
			out = string(rune(byte(av)))
		case 'x':
			out = fmt.Sprintf("%x", uint32(av))
		case 'p':
			out = fmt.Sprintf("%#x", uint32(av))
		case 's':
			s, err := vm.cString(av)
			if err != nil {
				return err
			}
			out = s
		default:
			out = "%" + string(format[i])
		}
		n += len(out)
		if _, err := vm.out.Write([]byte(out)); err != nil {
			return err
		}
	}
	if err := vm.out.Flush(); err != nil {
		return err
	}
	vm.ax = int32(n)
	return nil
}

// primMalloc bump-allocates n bytes above the compiled data region and
// returns their address, or 0 if the heap has grown into the stack
// (spec.md §4.4 "malloc": host-managed, never reclaimed).
func (vm *VM) primMalloc(argc int32) error {
	n, err := vm.arg(argc, 1)
	if err != nil {
		return err
	}
	if n < 0 {
		vm.ax = 0
		return nil
	}
	addr := vm.heapEnd
	newEnd := addr + n
	if int64(newEnd) > int64(vm.sp) {
		vm.ax = 0
		return nil
	}
	vm.heapEnd = newEnd
	vm.ax = addr
	return nil
}

func (vm *VM) primMemset(argc int32) error {
	addr, err := vm.arg(argc, 1)
	if err != nil {
		return err
	}
	val, err := vm.arg(argc, 2)
	if err != nil {
		return err
	}
	n, err := vm.arg(argc, 3)
	if err != nil {
		return err
	}
	for i := int32(0); i < n; i++ {
		if err := vm.storeByte(addr+i, byte(val)); err != nil {
			return err
		}
	}
	vm.ax = addr
	return nil
}

func (vm *VM) primMemcmp(argc int32) error {
	a, err := vm.arg(argc, 1)
	if err != nil {
		return err
	}
	b, err := vm.arg(argc, 2)
	if err != nil {
		return err
	}
	n, err := vm.arg(argc, 3)
	if err != nil {
		return err
	}
	for i := int32(0); i < n; i++ {
		ab, err := vm.loadByte(a + i)
		if err != nil {
			return err
		}
		bb, err := vm.loadByte(b + i)
		if err != nil {
			return err
		}
		if ab != bb {
			vm.ax = int32(ab) - int32(bb)
			return nil
		}
	}
	vm.ax = 0
	return nil
}

func (vm *VM) primOpen(argc int32) error {
	pathAddr, err := vm.arg(argc, 1)
	if err != nil {
		return err
	}
	path, err := vm.cString(pathAddr)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		vm.ax = -1
		return nil
	}
	if vm.nextFD == 0 {
		vm.nextFD = 3
	}
	fd := vm.nextFD
	vm.nextFD++
	vm.files[fd] = &hostFile{f: f}
	vm.ax = fd
	return nil
}

func (vm *VM) primRead(argc int32) error {
	fd, err := vm.arg(argc, 1)
	if err != nil {
		return err
	}
	bufAddr, err := vm.arg(argc, 2)
	if err != nil {
		return err
	}
	n, err := vm.arg(argc, 3)
	if err != nil {
		return err
	}
	hf, ok := vm.files[fd]
	if !ok {
		vm.ax = -1
		return nil
	}
	buf := make([]byte, n)
	read, rerr := hf.f.Read(buf)
	if rerr != nil && read == 0 {
		vm.ax = 0
		return nil
	}
	for i := 0; i < read; i++ {
		if err := vm.storeByte(bufAddr+int32(i), buf[i]); err != nil {
			return err
		}
	}
	vm.ax = int32(read)
	return nil
}

func (vm *VM) primClose(argc int32) error {
	fd, err := vm.arg(argc, 1)
	if err != nil {
		return err
	}
	hf, ok := vm.files[fd]
	if !ok {
		vm.ax = -1
		return nil
	}
	err = hf.f.Close()
	delete(vm.files, fd)
	if err != nil {
		vm.ax = -1
		return nil
	}
	vm.ax = 0
	return nil
}

func (vm *VM) primExit(argc int32) error {
	code, err := vm.arg(argc, 1)
	if err != nil {
		return err
	}
	return exitSignal{code: code}
}

// closeFiles releases any file descriptors the program left open when its
// run ended (spec.md §4.4 "open/read/close" — a program that forgets to
// close must not leak host file handles past the VM's own lifetime).
func (vm *VM) closeFiles() {
	for fd, hf := range vm.files {
		hf.f.Close()
		delete(vm.files, fd)
	}
}
