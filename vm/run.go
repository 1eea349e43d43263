package vm

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// recoverFault converts a panic from an out-of-range stack/memory access
// or an integer division by zero into errRuntimeFault.
func recoverFault(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %v", errRuntimeFault, r)
	}
}

// Run executes the attached program from its current eip (0 on a fresh
// Machine) until the terminal sentinel is reached or a fault occurs.
// Single-threaded, sequential, no suspension points: program order is
// execution order modulo branches.
func (m *Machine) Run() (err error) {
	defer recoverFault(&err)
	defer m.Flush()

	for {
		eip := m.registers[RegEIP]
		if eip < 0 || int(eip) >= len(m.program.opcode) {
			return fmt.Errorf("%w: eip out of range: %d", errRuntimeFault, eip)
		}
		if m.program.opcode[eip] == opHalt {
			m.errcode = errProgramFinished
			return nil
		}

		jumped, stepErr := m.step(int(eip))
		if stepErr != nil {
			m.errcode = stepErr
			return stepErr
		}
		if !jumped {
			m.registers[RegEIP]++
		}
	}
}

// RunDebug is an interactive single-step/breakpoint driver over in.
// Commands:
//
//	n, next         execute one instruction
//	r, run          run to completion or to the next breakpoint
//	b <addr>        toggle a breakpoint at an instruction index
//	program         print the decoded instruction stream
func (m *Machine) RunDebug(in io.Reader, out io.Writer) (err error) {
	defer recoverFault(&err)
	defer m.Flush()

	reader := bufio.NewReader(in)
	breakpoints := make(map[int32]struct{})
	running := false

	fmt.Fprintln(out, "commands: n|next, r|run, b <addr>, program")

	for {
		eip := m.registers[RegEIP]
		if eip < 0 || int(eip) >= len(m.program.opcode) {
			return fmt.Errorf("%w: eip out of range: %d", errRuntimeFault, eip)
		}
		if m.program.opcode[eip] == opHalt {
			m.errcode = errProgramFinished
			return nil
		}

		if running {
			if _, hit := breakpoints[eip]; hit {
				fmt.Fprintf(out, "breakpoint at %d\n", eip)
				running = false
			}
		}

		if !running {
			fmt.Fprintf(out, "%d: %s\n-> ", eip, m.program.debugSym[int(eip)])
			line, _ := reader.ReadString('\n')
			cmd, arg := splitCommand(strings.ToLower(strings.TrimSpace(line)))

			switch cmd {
			case "n", "next":
				// fall through to the step below
			case "r", "run":
				running = true
				continue
			case "b", "break":
				addr, convErr := parseBreakAddr(arg)
				if convErr != nil {
					fmt.Fprintln(out, "unknown address:", convErr)
					continue
				}
				if _, ok := breakpoints[addr]; ok {
					delete(breakpoints, addr)
				} else {
					breakpoints[addr] = struct{}{}
				}
				continue
			case "program":
				for i, line := range m.program.Disassemble() {
					fmt.Fprintf(out, " %d: %s\n", i, line)
				}
				continue
			default:
				continue
			}
		}

		jumped, stepErr := m.step(int(eip))
		if stepErr != nil {
			m.errcode = stepErr
			return stepErr
		}
		if !jumped {
			m.registers[RegEIP]++
		}

		if !running {
			fmt.Fprintf(out, "  registers> %v\n", m.registers)
		}
	}
}

// splitCommand splits an already-lowercased, already-trimmed debug
// command line into its command word and the remainder of the line.
func splitCommand(line string) (cmd, arg string) {
	cmd, arg, _ = strings.Cut(line, " ")
	return cmd, strings.TrimSpace(arg)
}

func parseBreakAddr(arg string) (int32, error) {
	var n int32
	_, err := fmt.Sscanf(arg, "%d", &n)
	return n, err
}
