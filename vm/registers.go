package vm

// Register indices: 0x0-0x5 general purpose, 0x6 stack pointer, 0x7
// base pointer, 0x8 instruction pointer, 0x9-0x10 the extra
// general-purpose bank.
const (
	RegEAX = 0x0
	RegEBX = 0x1
	RegECX = 0x2
	RegEDX = 0x3
	RegESI = 0x4
	RegEDI = 0x5
	RegESP = 0x6
	RegEBP = 0x7
	RegEIP = 0x8
	RegR08 = 0x9
	RegR09 = 0xA
	RegR0A = 0xB
	RegR0B = 0xC
	RegR0C = 0xD
	RegR0D = 0xE
	RegR0E = 0xF
	RegR0F = 0x10

	numRegisters = 0x11
)

var registerNameToIndex = map[string]int{
	"eax": RegEAX,
	"ebx": RegEBX,
	"ecx": RegECX,
	"edx": RegEDX,
	"esi": RegESI,
	"edi": RegEDI,
	"esp": RegESP,
	"ebp": RegEBP,
	"eip": RegEIP,
	"r08": RegR08,
	"r09": RegR09,
	"r0a": RegR0A,
	"r0b": RegR0B,
	"r0c": RegR0C,
	"r0d": RegR0D,
	"r0e": RegR0E,
	"r0f": RegR0F,
}

var registerIndexToName map[int]string

func init() {
	registerIndexToName = make(map[int]string, len(registerNameToIndex))
	for name, idx := range registerNameToIndex {
		registerIndexToName[idx] = name
	}
}
