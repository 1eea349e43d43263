package vm

import (
	"fmt"
	"strconv"
	"strings"
)

// Program is the assembled instruction stream: two parallel arrays
// indexed by instruction number, plus the label table kept around for
// diagnostics (see Labels). opcode is always terminated by opHalt.
type Program struct {
	opcode []Opcode
	args   [][]operand

	labels map[string]int

	// debugSym maps instruction index -> the original source line that
	// produced it, shown at each debug-mode prompt.
	debugSym map[int]string
}

// Len returns the number of real instructions (excluding the terminal
// sentinel).
func (p *Program) Len() int {
	return len(p.opcode) - 1
}

// Labels returns a copy of the resolved label table.
func (p *Program) Labels() map[string]int {
	out := make(map[string]int, len(p.labels))
	for k, v := range p.labels {
		out[k] = v
	}
	return out
}

type sourceLine struct {
	tokens []string
	lineNo int // 1-based, for diagnostics
}

// Assemble runs the two-pass builder over an already-tokenized source
// (comments stripped, lines split on whitespace/commas by the lexer
// collaborator). Pass 1 resolves label addresses; pass 2 binds
// operands and emits the opcode/args arrays.
func Assemble(lines [][]string) (*Program, error) {
	if len(lines) == 0 {
		return nil, ErrEmptySource
	}

	labels := make(map[string]int)
	instrLines := make([]sourceLine, 0, len(lines))

	k := 0
	for i, tokens := range lines {
		if len(tokens) == 0 {
			continue
		}

		first := tokens[0]
		if len(tokens) == 1 && strings.HasSuffix(first, ":") {
			name := strings.TrimSuffix(first, ":")
			if _, exists := labels[name]; exists {
				return nil, fmt.Errorf("line %d: %w: %s", i+1, ErrDuplicateLabel, name)
			}
			labels[name] = k
			continue
		}

		instrLines = append(instrLines, sourceLine{tokens: tokens, lineNo: i + 1})
		k++
	}

	prog := &Program{
		labels:   labels,
		debugSym: make(map[int]string, len(instrLines)),
		opcode:   make([]Opcode, 0, len(instrLines)+1),
		args:     make([][]operand, 0, len(instrLines)+1),
	}

	for idx, line := range instrLines {
		mnemonic := line.tokens[0]
		op, ok := mnemonicToOpcode[mnemonic]
		if !ok {
			return nil, fmt.Errorf("line %d: %w: %s", line.lineNo, ErrUnknownOpcode, mnemonic)
		}

		want := op.Arity()
		got := len(line.tokens) - 1
		if got != want {
			return nil, fmt.Errorf("line %d: %w: %s wants %d operand(s), got %d",
				line.lineNo, ErrArityError, op, want, got)
		}

		ops := make([]operand, 0, want)
		for _, tok := range line.tokens[1:] {
			o, err := classifyOperand(tok, labels)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line.lineNo, err)
			}
			ops = append(ops, o)
		}

		prog.opcode = append(prog.opcode, op)
		prog.args = append(prog.args, ops)
		prog.debugSym[idx] = strings.Join(line.tokens, " ")
	}

	// Pass 1 finished with k == len(instrLines); append the terminal
	// sentinel so the executor has something distinct to halt on.
	prog.opcode = append(prog.opcode, opHalt)
	prog.args = append(prog.args, nil)

	return prog, nil
}

// classifyOperand binds one source token to a live operand descriptor:
// a register, a resolved label address, an integer literal, or a
// memory-indirect [reg], [reg+N], [reg-N] form.
func classifyOperand(tok string, labels map[string]int) (operand, error) {
	if strings.HasPrefix(tok, "[") {
		return classifyMemoryOperand(tok)
	}

	if idx, ok := registerNameToIndex[tok]; ok {
		return registerOperand(idx), nil
	}

	if addr, ok := labels[tok]; ok {
		return immediateOperand(int32(addr)), nil
	}

	if looksNumeric(tok) {
		v, err := parseIntLiteral(tok)
		if err != nil {
			return operand{}, fmt.Errorf("%w: %s: %v", ErrUnknownIdentifier, tok, err)
		}
		return immediateOperand(v), nil
	}

	return operand{}, fmt.Errorf("%w: %s", ErrUnknownIdentifier, tok)
}

func looksNumeric(tok string) bool {
	if tok == "" {
		return false
	}
	s := tok
	if s[0] == '-' {
		s = s[1:]
	}
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

func parseIntLiteral(tok string) (int32, error) {
	neg := strings.HasPrefix(tok, "-")
	s := strings.TrimPrefix(tok, "-")

	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		s = s[2:]
	}

	v, err := strconv.ParseInt(s, base, 32)
	if err != nil {
		return 0, err
	}
	if neg {
		v = -v
	}
	return int32(v), nil
}

// classifyMemoryOperand handles the bracketed [reg], [reg+N], [reg-N]
// indirect forms. Anything else bracketed is rejected as Unsupported.
func classifyMemoryOperand(tok string) (operand, error) {
	if !strings.HasSuffix(tok, "]") {
		return operand{}, fmt.Errorf("%w: %s", ErrUnsupported, tok)
	}
	inner := tok[1 : len(tok)-1]

	regPart, offsetPart := inner, ""
	for i := 1; i < len(inner); i++ {
		if inner[i] == '+' || inner[i] == '-' {
			regPart, offsetPart = inner[:i], inner[i:]
			break
		}
	}

	regIdx, ok := registerNameToIndex[regPart]
	if !ok {
		return operand{}, fmt.Errorf("%w: %s", ErrUnsupported, tok)
	}

	var offset int32
	if offsetPart != "" {
		n, err := strconv.ParseInt(offsetPart, 10, 32)
		if err != nil {
			return operand{}, fmt.Errorf("%w: %s", ErrUnsupported, tok)
		}
		offset = int32(n)
	}

	return memoryOperand(regIdx, offset), nil
}

// Disassemble renders the program one instruction per line, in the
// mnemonic + resolved-operand form accepted back by Assemble (modulo
// label names, which have already been resolved to addresses).
func (p *Program) Disassemble() []string {
	out := make([]string, 0, p.Len())
	for i := 0; i < p.Len(); i++ {
		line := p.opcode[i].String()
		for _, a := range p.args[i] {
			line += " " + a.String()
		}
		out = append(out, line)
	}
	return out
}
