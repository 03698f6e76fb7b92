package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble renders a Chunk as a human-readable instruction listing,
// one line per instruction: index, source line (or "|" when unchanged
// from the previous instruction), mnemonic, and operand. It never
// touches disk — there is no binary encode/decode round trip in this
// module, only this text form, used by the debugger's `list` command
// and by cmd/bang's `disassemble` subcommand.
func (c *Chunk) Disassemble(name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)

	prevLine := -1
	for i, ins := range c.Instructions {
		line := c.LineFor(i)
		if line == prevLine {
			fmt.Fprintf(&b, "%04d    | %-14s", i, ins.Op)
		} else {
			fmt.Fprintf(&b, "%04d %4d %-14s", i, line, ins.Op)
			prevLine = line
		}

		switch ins.Op {
		case OpConstant, OpGetGlobal, OpSetGlobal, OpDefineGlobal, OpClosure, OpImport:
			if ins.Operand >= 0 && ins.Operand < len(c.Constants) {
				fmt.Fprintf(&b, " %4d '%s'", ins.Operand, c.Constants[ins.Operand])
			} else {
				fmt.Fprintf(&b, " %4d", ins.Operand)
			}
		case OpPop, OpDup, OpAdd, OpSubtract, OpMultiply, OpDivide, OpNegate,
			OpEqual, OpNotEqual, OpLess, OpGreater, OpLessEqual, OpGreaterEqual,
			OpNot, OpReturn, OpIndex, OpIndexSet, OpNull, OpTrue, OpFalse:
			// no operand
		default:
			fmt.Fprintf(&b, " %4d", ins.Operand)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
