package vm

import (
	"bufio"
	"io"
)

// flag bits set by cmp and read by the conditional-branch family.
const (
	flagEqual   uint8 = 1 << 0
	flagGreater uint8 = 1 << 1
)

// Default linear memory size, in 32-bit words: 2 MiB worth of words,
// kept word-addressed internally (see DESIGN.md).
const defaultMemoryWords = (2 << 20) / 4

// Machine holds the register file, FLAGS, the remainder scalar, and the
// linear memory/stack for one program run. It owns all of this storage
// exclusively for its lifetime; a *Program is attached but not owned.
type Machine struct {
	registers [numRegisters]int32
	flags     uint8
	remainder int32

	// memory is word-addressed: memory[i] is the 32-bit signed word at
	// address i. The stack lives at the top of this array and grows
	// toward index 0.
	memory []int32

	program *Program

	stdout *bufio.Writer
	stderr io.Writer

	// errcode records the most recent fault or halt reason, inspected
	// by callers after Run returns.
	errcode error
}

// NewMachine allocates a fresh machine with memWords words of linear
// memory (0 selects the default) and attaches prog for execution.
// esp and ebp are set one word past the top of memory, so the first
// push lands at the last valid index.
func NewMachine(prog *Program, memWords int, stdout io.Writer, stderr io.Writer) *Machine {
	if memWords <= 0 {
		memWords = defaultMemoryWords
	}

	m := &Machine{
		memory:  make([]int32, memWords),
		program: prog,
		stdout:  bufio.NewWriter(stdout),
		stderr:  stderr,
	}
	m.registers[RegESP] = int32(memWords)
	m.registers[RegEBP] = int32(memWords)
	return m
}

// Flush ensures any buffered prn output has reached stdout. Callers
// should defer this after constructing a Machine.
func (m *Machine) Flush() {
	m.stdout.Flush()
}

// Registers returns a copy of the live register file, useful for tests
// and for the debug-mode state dump.
func (m *Machine) Registers() [numRegisters]int32 {
	return m.registers
}

// Flags returns the current FLAGS word (only bits 0-1 ever set).
func (m *Machine) Flags() uint8 {
	return m.flags
}

// Remainder returns the scalar most recently produced by mod.
func (m *Machine) Remainder() int32 {
	return m.remainder
}

func (m *Machine) readWord(addr int32) int32 {
	return m.memory[addr]
}

func (m *Machine) writeWord(addr int32, v int32) {
	m.memory[addr] = v
}

// push decrements esp by one word and writes value at the new top.
func (m *Machine) push(value int32) {
	m.registers[RegESP]--
	m.memory[m.registers[RegESP]] = value
}

// pop reads the current top word and increments esp past it.
func (m *Machine) pop() int32 {
	v := m.memory[m.registers[RegESP]]
	m.registers[RegESP]++
	return v
}
