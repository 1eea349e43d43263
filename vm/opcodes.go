package vm

// Opcode is the numeric tag for one instruction. The assignment mirrors
// the wire format a disassembler or any other cross-component consumer
// would expect (see the mnemonic table below for the authoritative
// string <-> value mapping).
type Opcode byte

const (
	OpNop   Opcode = 0x00
	OpInt   Opcode = 0x01
	OpMov   Opcode = 0x02
	OpPush  Opcode = 0x03
	OpPop   Opcode = 0x04
	OpPushf Opcode = 0x05
	OpPopf  Opcode = 0x06
	OpInc   Opcode = 0x07
	OpDec   Opcode = 0x08
	OpAdd   Opcode = 0x09
	OpSub   Opcode = 0x0A
	OpMul   Opcode = 0x0B
	OpDiv   Opcode = 0x0C
	OpMod   Opcode = 0x0D
	OpRem   Opcode = 0x0E
	OpNot   Opcode = 0x0F
	OpXor   Opcode = 0x10
	OpOr    Opcode = 0x11
	OpAnd   Opcode = 0x12
	OpShl   Opcode = 0x13
	OpShr   Opcode = 0x14
	OpCmp   Opcode = 0x15
	OpJmp   Opcode = 0x16
	OpCall  Opcode = 0x17
	OpRet   Opcode = 0x18
	OpJe    Opcode = 0x19
	OpJne   Opcode = 0x1A
	OpJg    Opcode = 0x1B
	OpJge   Opcode = 0x1C
	OpJl    Opcode = 0x1D
	OpJle   Opcode = 0x1E
	OpPrn   Opcode = 0x1F

	// opHalt is the terminal sentinel appended by the builder after the
	// last real instruction. It is distinct from every mnemonic above
	// and is never produced by the assembler from source text.
	opHalt Opcode = 0xFF
)

var mnemonicToOpcode = map[string]Opcode{
	"nop":   OpNop,
	"int":   OpInt,
	"mov":   OpMov,
	"push":  OpPush,
	"pop":   OpPop,
	"pushf": OpPushf,
	"popf":  OpPopf,
	"inc":   OpInc,
	"dec":   OpDec,
	"add":   OpAdd,
	"sub":   OpSub,
	"mul":   OpMul,
	"div":   OpDiv,
	"mod":   OpMod,
	"rem":   OpRem,
	"not":   OpNot,
	"xor":   OpXor,
	"or":    OpOr,
	"and":   OpAnd,
	"shl":   OpShl,
	"shr":   OpShr,
	"cmp":   OpCmp,
	"jmp":   OpJmp,
	"call":  OpCall,
	"ret":   OpRet,
	"je":    OpJe,
	"jne":   OpJne,
	"jg":    OpJg,
	"jge":   OpJge,
	"jl":    OpJl,
	"jle":   OpJle,
	"prn":   OpPrn,
}

// opcodeToMnemonic is built once from mnemonicToOpcode so the two never
// drift apart.
var opcodeToMnemonic map[Opcode]string

func init() {
	opcodeToMnemonic = make(map[Opcode]string, len(mnemonicToOpcode))
	for s, op := range mnemonicToOpcode {
		opcodeToMnemonic[op] = s
	}
}

// String lets an Opcode be used directly with Print/Sprint and in error
// messages produced by the assembler.
func (op Opcode) String() string {
	if op == opHalt {
		return "halt"
	}
	if s, ok := opcodeToMnemonic[op]; ok {
		return s
	}
	return "?unknown?"
}

// Arity returns the fixed number of operands this opcode takes, or -1 if
// op isn't a recognized mnemonic.
func (op Opcode) Arity() int {
	switch op {
	case OpNop, OpPushf, OpRet, OpInt:
		// int is reserved; since it's treated as a diagnosed nop, it
		// takes no operands either.
		return 0
	case OpPush, OpPop, OpPopf, OpInc, OpDec, OpRem, OpNot,
		OpJmp, OpCall, OpJe, OpJne, OpJg, OpJge, OpJl, OpJle, OpPrn:
		return 1
	case OpMov, OpAdd, OpSub, OpMul, OpDiv, OpMod, OpXor, OpOr, OpAnd, OpShl, OpShr, OpCmp:
		return 2
	default:
		return -1
	}
}

// IsBranch reports whether op unconditionally or conditionally transfers
// control (and so must be given a valid jump target as its first operand).
func (op Opcode) IsBranch() bool {
	switch op {
	case OpJmp, OpCall, OpJe, OpJne, OpJg, OpJge, OpJl, OpJle:
		return true
	default:
		return false
	}
}
