// Command rvm assembles and runs a single .vm source file against the
// register-based virtual machine implemented in package vm.
package main

import (
	"flag"
	"fmt"
	"os"

	"rvm/vm"
)

func main() {
	debug := flag.Bool("debug", false, "run in interactive single-step/breakpoint mode")
	dump := flag.Bool("dump", false, "print the decoded instruction stream instead of running it")
	memWords := flag.Int("mem", 0, "linear memory size in 32-bit words (0 selects the default)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: rvm [-debug] [-dump] [-mem words] <file.vm>")
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *debug, *dump, *memWords); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(path string, debug, dump bool, memWords int) error {
	source, err := readSourceFile(path)
	if err != nil {
		return err
	}

	prog, err := vm.Assemble(vm.Tokenize(source))
	if err != nil {
		return fmt.Errorf("assemble %s: %w", path, err)
	}

	if dump {
		for i, line := range prog.Disassemble() {
			fmt.Printf(" %d: %s\n", i, line)
		}
		return nil
	}

	m := vm.NewMachine(prog, memWords, os.Stdout, os.Stderr)
	if debug {
		return m.RunDebug(os.Stdin, os.Stdout)
	}
	return m.Run()
}

// readSourceFile opens path, trying the bare name first and falling
// back to path+".vm" if that bare name doesn't exist.
func readSourceFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		return string(data), nil
	}
	if !os.IsNotExist(err) {
		return "", err
	}

	data, err2 := os.ReadFile(path + ".vm")
	if err2 != nil {
		return "", err
	}
	return string(data), nil
}
