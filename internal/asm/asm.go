// Package asm is the code emitter: LIR -> 32-bit ARM assembly text. Every
// function gets a fixed-size stack frame computed up front; registers
// follow one fixed convention throughout (r0 accumulator, r1 left operand
// or store-through pointer, r2 division scratch, r12 the address of the
// caller-supplied return slot) so no register allocator is needed.
package asm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/arcturus-lang/armc/internal/binops"
	"github.com/arcturus-lang/armc/internal/cerrors"
	"github.com/arcturus-lang/armc/internal/ids"
	"github.com/arcturus-lang/armc/internal/lir"
)

// maxCallArgs is the largest argument count the emitter can pass in
// registers (r1-r4); calls and function definitions beyond this arity fail
// with UnsupportedArity rather than silently miscompiling.
const maxCallArgs = 4

// frame is one function's stack layout. Each chunk (argument, local, or
// compiler temporary) occupies [fp-offset, fp-offset+size): offsets[id] is
// the distance from fp down to the chunk's base, so a field at byte f
// within the chunk lives at fp-(offset-f). Fields ascend in address as
// their layout offset grows, matching the positive deref offsets the LIR
// builder computes for access through a reference.
type frame struct {
	size    int
	offsets map[ids.CellID]int
}

func buildFrame(chunks map[ids.CellID]int) frame {
	ids_ := make([]ids.CellID, 0, len(chunks))
	for id := range chunks {
		ids_ = append(ids_, id)
	}
	sort.Slice(ids_, func(i, j int) bool { return ids_[i].Raw() < ids_[j].Raw() })

	offsets := make(map[ids.CellID]int, len(chunks))
	total := 0
	for _, id := range ids_ {
		total += chunks[id]
		offsets[id] = total
	}
	return frame{size: total, offsets: offsets}
}

// addr is the fp-relative distance of a (chunk, byte-offset) pair: the
// chunk's base lies offsets[base] bytes below fp and fields grow upward
// from it.
func (fr frame) addr(base ids.CellID, offset int) int {
	return fr.offsets[base] - offset
}

// Compile renders a whole LIR program as ARM assembly text.
func Compile(program *lir.Program) (string, error) {
	c := &compiler{}
	if err := c.compileProgram(program); err != nil {
		return "", err
	}
	return c.buf.String(), nil
}

type compiler struct {
	buf strings.Builder
}

func (c *compiler) emit(line string) {
	c.buf.WriteString(line)
	c.buf.WriteByte('\n')
}

func (c *compiler) emitf(format string, args ...any) {
	c.emit(fmt.Sprintf(format, args...))
}

func (c *compiler) compileProgram(program *lir.Program) error {
	c.emit(".align 8")
	c.emit(".data")
	c.emit(`fmt: .asciz "%d\n"`)
	c.emit(".text")
	c.emit(".global main")
	c.emit(".extern printf")

	funcIDs := make([]ids.FuncID, 0, len(program.Functions))
	for id := range program.Functions {
		funcIDs = append(funcIDs, id)
	}
	sort.Slice(funcIDs, func(i, j int) bool { return funcIDs[i].Raw() < funcIDs[j].Raw() })

	for _, id := range funcIDs {
		if err := c.compileFunction(id, program.Functions[id]); err != nil {
			return err
		}
	}

	c.emit("main:")
	c.emit("    push {fp, lr}")
	c.emit("    mov fp, sp")
	c.emit("    sub sp, sp, #16")
	c.emit("    sub r12, fp, #8")
	c.emitf("    bl func_%d", program.Entry.Raw())
	c.emit("    ldr r0, [r12]")
	c.emit("    add sp, sp, #16")
	c.emit("    pop {fp, lr}")
	c.emit("    bx lr")
	return nil
}

func (c *compiler) compileFunction(funcID ids.FuncID, fn *lir.Function) error {
	if len(fn.Args) > maxCallArgs {
		return cerrors.New(cerrors.UnsupportedArity,
			"function declares %d arguments; only up to %d are supported", len(fn.Args), maxCallArgs)
	}

	fr := buildFrame(fn.Chunks)

	c.emitf("func_%d:", funcID.Raw())
	c.emit("    push {fp, lr}")
	c.emit("    mov fp, sp")
	c.emitf("    sub sp, sp, #%d", fr.size)

	for i, arg := range fn.Args {
		c.emitf("    str r%d, [fp, #-%d]", i+1, fr.offsets[arg])
	}

	c.emitf("    b block_%d", fn.Entry.Raw())

	blockIDs := make([]ids.BlockID, 0, len(fn.Blocks))
	for id := range fn.Blocks {
		blockIDs = append(blockIDs, id)
	}
	sort.Slice(blockIDs, func(i, j int) bool { return blockIDs[i].Raw() < blockIDs[j].Raw() })

	for _, id := range blockIDs {
		if err := c.compileBlock(id, fn.Blocks[id], fr, funcID); err != nil {
			return err
		}
	}

	c.emitf("ret_%d:", funcID.Raw())
	c.emit("    str r0, [r12]")
	c.emitf("    add sp, sp, #%d", fr.size)
	c.emit("    pop {fp, lr}")
	c.emit("    bx lr")
	return nil
}

func (c *compiler) compileBlock(id ids.BlockID, block *lir.Block, fr frame, funcID ids.FuncID) error {
	c.emitf("block_%d:", id.Raw())
	for _, stmt := range block.Statements {
		if err := c.compileStmt(stmt, fr); err != nil {
			return err
		}
	}
	return c.compileTerminator(block.Terminator, fr, funcID)
}

func (c *compiler) compileStmt(stmt lir.Statement, fr frame) error {
	switch s := stmt.(type) {
	case lir.Store:
		c.emitOperandLoad(s.Value, fr)
		c.emitPlaceStore(s.Dest, fr)
		return nil

	case lir.BinOp:
		c.emitOperandLoad(s.Left, fr)
		c.emit("    mov r1, r0")
		c.emitOperandLoad(s.Right, fr)
		c.compileBinOp(s.Op)
		c.emitPlaceStore(s.Dest, fr)
		return nil

	case lir.Call:
		if len(s.Args) > maxCallArgs {
			return cerrors.New(cerrors.UnsupportedArity,
				"call passes %d arguments; only up to %d are supported", len(s.Args), maxCallArgs)
		}
		for i, arg := range s.Args {
			c.emitOperandLoad(lir.Value{Size: arg.Size, Kind: lir.PlaceVal{Place: arg}}, fr)
			c.emitf("    mov r%d, r0", i+1)
		}
		c.emit("    push {r12}")
		switch base := s.Dest.Kind.(type) {
		case lir.Local:
			c.emitf("    sub r12, fp, #%d", fr.addr(base.Base, base.Offset))
			c.emitf("    bl func_%d", s.Func.Raw())
		case lir.Deref:
			c.emitf("    ldr r0, [fp, #-%d]", fr.offsets[base.Pointer])
			c.emitf("    add r0, r0, #%d", base.Offset)
			c.emit("    mov r12, r0")
			c.emitf("    bl func_%d", s.Func.Raw())
		default:
			return cerrors.New(cerrors.UnsupportedArity, "asm: call destination is neither a local nor a deref place")
		}
		c.emit("    pop {r12}")
		return nil

	case lir.Print:
		c.emitOperandLoad(s.Value, fr)
		c.emit("    mov r1, r0")
		c.emit("    ldr r0, =fmt")
		c.emit("    push {r12}")
		c.emit("    bl printf")
		c.emit("    pop {r12}")
		return nil

	default:
		return cerrors.New(cerrors.UnsupportedArity, "asm: unknown LIR statement kind")
	}
}

func (c *compiler) compileBinOp(op binops.Operator) {
	switch op {
	case binops.Add:
		c.emit("    add r0, r1, r0")
	case binops.Sub:
		c.emit("    sub r0, r1, r0")
	case binops.Mul:
		c.emit("    mul r0, r1, r0")
	case binops.Equals:
		c.emit("    cmp r1, r0")
		c.emit("    mov r0, #0")
		c.emit("    moveq r0, #1")
	case binops.Less:
		c.emit("    cmp r1, r0")
		c.emit("    mov r0, #0")
		c.emit("    movlt r0, #1")
	case binops.Modulo:
		c.emit("    sdiv r2, r1, r0")
		c.emit("    mul r2, r0, r2")
		c.emit("    sub r0, r1, r2")
	}
}

func (c *compiler) compileTerminator(term lir.Terminator, fr frame, funcID ids.FuncID) error {
	switch t := term.(type) {
	case lir.Goto:
		c.emitf("    b block_%d", t.Target.Raw())
		return nil

	case lir.Branch:
		c.emitOperandLoad(t.Condition, fr)
		c.emit("    cmp r0, #1")
		c.emitf("    beq block_%d", t.Then.Raw())
		c.emitf("    b block_%d", t.Else.Raw())
		return nil

	case lir.Return:
		if t.HasValue {
			c.emitOperandLoad(t.Value, fr)
		}
		c.emitf("    b ret_%d", funcID.Raw())
		return nil

	default:
		return cerrors.New(cerrors.UnsupportedArity, "asm: unknown LIR terminator kind")
	}
}

func (c *compiler) emitOperandLoad(operand lir.Value, fr frame) {
	switch v := operand.Kind.(type) {
	case lir.PlaceVal:
		c.emitPlaceLoad(v.Place, fr)
	case lir.IntLiteral:
		c.emitf("    ldr r0, =%d", v.Value)
	case lir.BoolTrue:
		c.emit("    ldr r0, =1")
	case lir.BoolFalse:
		c.emit("    ldr r0, =0")
	case lir.ReferenceVal:
		switch base := v.Place.Kind.(type) {
		case lir.Local:
			c.emitf("    sub r0, fp, #%d", fr.addr(base.Base, base.Offset))
		case lir.Deref:
			panic("asm: taking a reference to a deref place is not produced by any lowering stage")
		}
	default:
		panic("asm: unknown LIR value kind")
	}
}

func (c *compiler) emitPlaceLoad(place lir.Place, fr frame) {
	switch base := place.Kind.(type) {
	case lir.Local:
		c.emitf("    ldr r0, [fp, #-%d]", fr.addr(base.Base, base.Offset))
	case lir.Deref:
		c.emitf("    ldr r0, [fp, #-%d]", fr.offsets[base.Pointer])
		c.emitf("    ldr r0, [r0, #%d]", base.Offset)
	default:
		panic("asm: unknown LIR place kind")
	}
}

func (c *compiler) emitPlaceStore(place lir.Place, fr frame) {
	switch base := place.Kind.(type) {
	case lir.Local:
		c.emitf("    str r0, [fp, #-%d]", fr.addr(base.Base, base.Offset))
	case lir.Deref:
		c.emitf("    ldr r1, [fp, #-%d]", fr.offsets[base.Pointer])
		c.emitf("    str r0, [r1, #%d]", base.Offset)
	default:
		panic("asm: unknown LIR place kind")
	}
}
