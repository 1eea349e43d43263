package vm

import "fmt"

// step executes the single instruction at index i and reports whether
// it moved eip to its final target itself (a taken branch or a call).
// When jumped is false, Run advances eip by one; ret relies on this,
// writing the call site's index into eip and leaving jumped false.
func (m *Machine) step(i int) (jumped bool, err error) {
	op := m.program.opcode[i]
	args := m.program.args[i]

	var a, b operand
	if len(args) > 0 {
		a = args[0]
	}
	if len(args) > 1 {
		b = args[1]
	}

	switch op {
	case OpNop:
		// no effect

	case OpInt:
		// Reserved opcode, no defined behavior. Treated as nop with a
		// diagnostic.
		fmt.Fprintf(m.stderr, "int: unimplemented, treated as nop at instruction %d\n", i)

	case OpMov:
		a.Set(m, b.Get(m))

	case OpPush:
		m.push(a.Get(m))

	case OpPop:
		a.Set(m, m.pop())

	case OpPushf:
		m.push(int32(m.flags))

	case OpPopf:
		// Pops into FLAGS regardless of the named operand: the popped
		// value needs to land in FLAGS for branches to see it.
		m.flags = uint8(m.pop()) & (flagEqual | flagGreater)

	case OpInc:
		a.Set(m, a.Get(m)+1)

	case OpDec:
		a.Set(m, a.Get(m)-1)

	case OpAdd:
		a.Set(m, a.Get(m)+b.Get(m))

	case OpSub:
		a.Set(m, a.Get(m)-b.Get(m))

	case OpMul:
		a.Set(m, a.Get(m)*b.Get(m))

	case OpDiv:
		a.Set(m, a.Get(m)/b.Get(m))

	case OpMod:
		// a is left unchanged; only the remainder register is updated.
		m.remainder = a.Get(m) % b.Get(m)

	case OpRem:
		a.Set(m, m.remainder)

	case OpNot:
		a.Set(m, ^a.Get(m))

	case OpXor:
		a.Set(m, a.Get(m)^b.Get(m))

	case OpOr:
		a.Set(m, a.Get(m)|b.Get(m))

	case OpAnd:
		a.Set(m, a.Get(m)&b.Get(m))

	case OpShl:
		a.Set(m, a.Get(m)<<uint32(b.Get(m)))

	case OpShr:
		// Logical shift: widen to unsigned so the vacated high bits are
		// filled with zero rather than sign-extended.
		a.Set(m, int32(uint32(a.Get(m))>>uint32(b.Get(m))))

	case OpCmp:
		x, y := a.Get(m), b.Get(m)
		var flags uint8
		if x == y {
			flags |= flagEqual
		}
		if x > y {
			flags |= flagGreater
		}
		m.flags = flags

	case OpJmp:
		m.registers[RegEIP] = a.Get(m)
		jumped = true

	case OpCall:
		// Push the call instruction's own index (eip hasn't advanced
		// yet), then jump like jmp.
		m.push(int32(i))
		m.registers[RegEIP] = a.Get(m)
		jumped = true

	case OpRet:
		// Popping the call site's own index and letting the driver's
		// post-increment apply lands eip one past the call.
		m.registers[RegEIP] = m.pop()

	case OpJe:
		jumped = m.branchIf(m.flags&flagEqual != 0, a)
	case OpJne:
		jumped = m.branchIf(m.flags&flagEqual == 0, a)
	case OpJg:
		jumped = m.branchIf(m.flags&flagGreater != 0, a)
	case OpJge:
		// Bits 0 and 1 are never both set by cmp, so "equal or greater"
		// collapses to "either bit set" -- do not "fix" this encoding.
		jumped = m.branchIf(m.flags&(flagEqual|flagGreater) != 0, a)
	case OpJl:
		jumped = m.branchIf(m.flags&(flagEqual|flagGreater) == 0, a)
	case OpJle:
		jumped = m.branchIf(m.flags&flagGreater == 0, a)

	case OpPrn:
		fmt.Fprintln(m.stdout, a.Get(m))

	default:
		return false, errUnknownInstruction
	}

	return jumped, nil
}

func (m *Machine) branchIf(cond bool, target operand) bool {
	if !cond {
		return false
	}
	m.registers[RegEIP] = target.Get(m)
	return true
}
