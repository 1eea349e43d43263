package vm

import (
	"bytes"
	"os"
	"strconv"
	"strings"
	"testing"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

// runSource assembles and runs source, returning everything written to
// stdout by prn.
func runSource(t *testing.T, source string) string {
	t.Helper()

	prog, err := Assemble(Tokenize(source))
	assert(t, err == nil, "failed to assemble: %v", err)

	var stdout, stderr bytes.Buffer
	m := NewMachine(prog, 0, &stdout, &stderr)

	err = m.Run()
	assert(t, err == nil, "failed to run: %v", err)

	return stdout.String()
}

func TestMovAndPrn(t *testing.T) {
	out := runSource(t, `
		mov eax, 1
		prn eax
	`)
	assert(t, out == "1\n", "got %q", out)
}

func TestPushPopRoundTrip(t *testing.T) {
	out := runSource(t, `
		push 2
		pop eax
		prn eax
	`)
	assert(t, out == "2\n", "got %q", out)
}

func TestCmpPushfPopEax(t *testing.T) {
	cases := []struct {
		x, y int32
		want string
	}{
		{1, 1, "1\n"},
		{1, 2, "0\n"},
		{2, 1, "2\n"},
	}
	for _, c := range cases {
		src := strings.NewReplacer("$X", itoa32(c.x), "$Y", itoa32(c.y)).Replace(`
			cmp $X, $Y
			pushf
			pop eax
			prn eax
		`)
		out := runSource(t, src)
		assert(t, out == c.want, "cmp %d,%d: got %q want %q", c.x, c.y, out, c.want)
	}
}

func TestCallReturnsPastCallSite(t *testing.T) {
	out := runSource(t, `
		call callee
		prn 11
		jmp after_callee
		callee:
		prn 10
		ret
		after_callee:
	`)
	assert(t, out == "10\n11\n", "got %q", out)
}

// TestCallSurvivesCalleeStackUse checks that call returns to the
// instruction after the call regardless of how many pushes/pops the
// callee performs, as long as esp is restored.
func TestCallSurvivesCalleeStackUse(t *testing.T) {
	out := runSource(t, `
		call callee
		prn 99
		jmp done
		callee:
		push 1
		push 2
		pop ebx
		pop ebx
		ret
		done:
	`)
	assert(t, out == "99\n", "got %q", out)
}

func TestArithmeticOps(t *testing.T) {
	cases := []struct {
		name, src, want string
	}{
		{"add", `mov eax, 4
			mov ebx, 3
			add eax, ebx
			prn eax`, "7\n"},
		{"sub", `mov eax, 4
			mov ebx, 3
			sub eax, ebx
			prn eax`, "1\n"},
		{"mul", `mov eax, 4
			mov ebx, 3
			mul eax, ebx
			prn eax`, "12\n"},
		{"div", `mov eax, 17
			mov ebx, 5
			div eax, ebx
			prn eax`, "3\n"},
	}
	for _, c := range cases {
		out := runSource(t, c.src)
		assert(t, out == c.want, "%s: got %q want %q", c.name, out, c.want)
	}
}

func TestIncDec(t *testing.T) {
	out := runSource(t, `
		mov eax, 4
		inc eax
		inc eax
		dec eax
		prn eax
	`)
	assert(t, out == "5\n", "got %q", out)
}

func TestBitwiseOps(t *testing.T) {
	cases := []struct {
		name, src, want string
	}{
		{"not", `mov eax, 0
			not eax
			prn eax`, "-1\n"},
		{"xor", `mov eax, 6
			mov ebx, 3
			xor eax, ebx
			prn eax`, "5\n"},
		{"or", `mov eax, 6
			mov ebx, 3
			or eax, ebx
			prn eax`, "7\n"},
		{"and", `mov eax, 6
			mov ebx, 3
			and eax, ebx
			prn eax`, "2\n"},
	}
	for _, c := range cases {
		out := runSource(t, c.src)
		assert(t, out == c.want, "%s: got %q want %q", c.name, out, c.want)
	}
}

func TestShiftOps(t *testing.T) {
	out := runSource(t, `
		mov eax, 1
		shl eax, 3
		prn eax
	`)
	assert(t, out == "8\n", "shl: got %q", out)

	// shr is a logical shift: the vacated high bits are zero-filled,
	// not sign-extended, so shifting -1 right still ends up positive.
	out = runSource(t, `
		mov eax, -1
		shr eax, 28
		prn eax
	`)
	assert(t, out == "15\n", "shr: got %q", out)
}

func TestNopIsNoEffect(t *testing.T) {
	out := runSource(t, `
		mov eax, 5
		nop
		prn eax
	`)
	assert(t, out == "5\n", "got %q", out)
}

// TestPopfUpdatesFlags checks that popf's popped value lands in FLAGS
// (not its nominal operand) and is visible to a subsequent conditional
// branch.
func TestPopfUpdatesFlags(t *testing.T) {
	out := runSource(t, `
		push 1
		popf eax
		je taken
		prn 0
		jmp end
		taken:
		prn 1
		end:
	`)
	assert(t, out == "1\n", "got %q", out)
}

func TestModRemIdiom(t *testing.T) {
	out := runSource(t, `
		mov eax, 14
		mod eax, 4
		rem eax
		prn eax
	`)
	assert(t, out == "2\n", "got %q", out)
}

func TestModLeavesOperandUnchanged(t *testing.T) {
	out := runSource(t, `
		mov eax, 14
		mod eax, 4
		prn eax
	`)
	assert(t, out == "14\n", "got %q", out)
}

// TestComparisonLadder checks that cmp followed by exactly one
// conditional branch takes it iff the usual signed comparison predicate
// holds, for every branch and every ordering of a small pair.
func TestComparisonLadder(t *testing.T) {
	branches := []struct {
		mnemonic string
		predicate func(x, y int32) bool
	}{
		{"je", func(x, y int32) bool { return x == y }},
		{"jne", func(x, y int32) bool { return x != y }},
		{"jg", func(x, y int32) bool { return x > y }},
		{"jge", func(x, y int32) bool { return x >= y }},
		{"jl", func(x, y int32) bool { return x < y }},
		{"jle", func(x, y int32) bool { return x <= y }},
	}
	pairs := [][2]int32{{1, 1}, {1, 2}, {2, 1}}

	for _, pair := range pairs {
		for _, b := range branches {
			src := strings.NewReplacer(
				"$X", itoa32(pair[0]),
				"$Y", itoa32(pair[1]),
				"$B", b.mnemonic,
			).Replace(`
				cmp $X, $Y
				$B taken
				prn 0
				jmp end
				taken:
				prn 1
				end:
			`)
			out := runSource(t, src)
			want := "0\n"
			if b.predicate(pair[0], pair[1]) {
				want = "1\n"
			}
			assert(t, out == want, "%s %d,%d: got %q want %q", b.mnemonic, pair[0], pair[1], out, want)
		}
	}
}

// TestCmpNeverSetsBothFlagBits checks that FLAGS only ever ends up as
// 0b00, 0b01, or 0b10 after cmp.
func TestCmpNeverSetsBothFlagBits(t *testing.T) {
	pairs := [][2]int32{{1, 1}, {1, 2}, {2, 1}, {0, 0}, {-5, 5}, {5, -5}}
	for _, pair := range pairs {
		src := strings.NewReplacer("$X", itoa32(pair[0]), "$Y", itoa32(pair[1])).Replace(`
			cmp $X, $Y
		`)
		prog, err := Assemble(Tokenize(src))
		assert(t, err == nil, "failed to assemble: %v", err)

		var stdout, stderr bytes.Buffer
		m := NewMachine(prog, 0, &stdout, &stderr)
		assert(t, m.Run() == nil, "failed to run")

		assert(t, m.Flags() != 0b11, "cmp %d,%d: both flag bits set", pair[0], pair[1])
		assert(t, m.Flags()&^0b11 == 0, "cmp %d,%d: bits >= 2 set: %#x", pair[0], pair[1], m.Flags())
	}
}

func TestMemoryIndirectAddressing(t *testing.T) {
	out := runSource(t, `
		mov ebx, 0
		mov eax, 42
		mov [ebx], eax
		mov ecx, [ebx]
		prn ecx
	`)
	assert(t, out == "42\n", "got %q", out)
}

func TestDivisionByZeroTrapsAsRuntimeFault(t *testing.T) {
	prog, err := Assemble(Tokenize(`
		mov eax, 1
		mov ebx, 0
		div eax, ebx
	`))
	assert(t, err == nil, "failed to assemble: %v", err)

	var stdout, stderr bytes.Buffer
	m := NewMachine(prog, 0, &stdout, &stderr)
	err = m.Run()
	assert(t, err != nil, "expected a runtime fault, got none")
}

// TestInstructionsFixture reproduces the bundled conformance program's
// stdout byte-for-byte.
func TestInstructionsFixture(t *testing.T) {
	source, err := os.ReadFile("../testdata/instructions.vm")
	assert(t, err == nil, "failed to read fixture: %v", err)

	want, err := os.ReadFile("../testdata/instructions.golden")
	assert(t, err == nil, "failed to read golden file: %v", err)

	prog, err := Assemble(Tokenize(string(source)))
	assert(t, err == nil, "failed to assemble fixture: %v", err)

	var stdout, stderr bytes.Buffer
	m := NewMachine(prog, 0, &stdout, &stderr)
	assert(t, m.Run() == nil, "failed to run fixture: %v", err)

	assert(t, stdout.String() == string(want), "fixture stdout mismatch:\ngot:\n%s\nwant:\n%s", stdout.String(), string(want))
}

func itoa32(v int32) string {
	return strconv.FormatInt(int64(v), 10)
}
