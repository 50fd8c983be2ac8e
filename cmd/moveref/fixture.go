package main

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/moveref/cfg"
	"github.com/viant/moveref/ir"
	"gopkg.in/yaml.v3"
)

// fixture is the on-disk shape of one function to analyze: its locals, its
// bytecode, and the successor edges between offsets. It is intentionally
// thin — just enough to exercise the analyzer end to end from a file.
type fixture struct {
	Name       string            `yaml:"name"`
	ParamCount int               `yaml:"paramCount"`
	Locals     []localFixture    `yaml:"locals"`
	Code       []instrFixture    `yaml:"code"`
	Entry      ir.CodeOffset     `yaml:"entry"`
	Successors map[string][]int  `yaml:"successors"`
}

type localFixture struct {
	Name      string `yaml:"name"`
	Reference bool   `yaml:"reference"`
	Mutable   bool   `yaml:"mutable"`
}

type instrFixture struct {
	Offset      ir.CodeOffset  `yaml:"offset"`
	Op          string         `yaml:"op"`
	Dest        ir.TempIndex   `yaml:"dest"`
	Src         ir.TempIndex   `yaml:"src"`
	AssignKind  string         `yaml:"assignKind"`
	FieldOffset ir.FieldID     `yaml:"fieldOffset"`
	Dests       []ir.TempIndex `yaml:"dests"`
	Srcs        []ir.TempIndex `yaml:"srcs"`
	Call        string         `yaml:"call"`
}

var opcodeByName = map[string]ir.Opcode{
	"Assign":       ir.OpAssign,
	"BorrowLoc":    ir.OpBorrowLoc,
	"BorrowGlobal": ir.OpBorrowGlobal,
	"BorrowField":  ir.OpBorrowField,
	"ReadRef":      ir.OpReadRef,
	"WriteRef":     ir.OpWriteRef,
	"FreezeRef":    ir.OpFreezeRef,
	"MoveFrom":     ir.OpMoveFrom,
	"Call":         ir.OpCall,
	"Ret":          ir.OpRet,
	"Other":        ir.OpOther,
}

var assignKindByName = map[string]ir.AssignKind{
	"Move":     ir.AssignMove,
	"Copy":     ir.AssignCopy,
	"Inferred": ir.AssignInferred,
}

// loadFixture downloads url (any scheme afs.Service understands: file://,
// s3://, mem://, ...) and decodes it into a FunctionTarget and the
// control-flow graph describing it.
func loadFixture(ctx context.Context, url string) (*ir.FunctionTarget, *cfg.Graph, error) {
	fs := afs.New()
	content, err := fs.DownloadWithURL(ctx, url)
	if err != nil {
		return nil, nil, fmt.Errorf("loading fixture %s: %w", url, err)
	}

	var f fixture
	if err := yaml.Unmarshal(content, &f); err != nil {
		return nil, nil, fmt.Errorf("decoding fixture %s: %w", url, err)
	}

	locals := make([]ir.LocalType, len(f.Locals))
	for i, l := range f.Locals {
		locals[i] = ir.LocalType{Name: l.Name, Reference: l.Reference, Mutable: l.Mutable}
	}

	code := make([]ir.Instruction, len(f.Code))
	for i, instr := range f.Code {
		op, ok := opcodeByName[instr.Op]
		if !ok {
			return nil, nil, fmt.Errorf("fixture %s: unknown opcode %q at offset %d", url, instr.Op, instr.Offset)
		}
		var call ir.Call
		if instr.Op == "Call" {
			call = ir.Call{Operation: ir.OpUserFunction, Name: instr.Call}
		}
		code[i] = ir.Instruction{
			Offset:      instr.Offset,
			Op:          op,
			Dest:        instr.Dest,
			Src:         instr.Src,
			AssignKind:  assignKindByName[instr.AssignKind],
			FieldOffset: instr.FieldOffset,
			Dests:       instr.Dests,
			Srcs:        instr.Srcs,
			Call:        call,
		}
	}

	target := &ir.FunctionTarget{
		Name:       f.Name,
		Locals:     locals,
		ParamCount: f.ParamCount,
		Code:       code,
	}

	offsets := make([]ir.CodeOffset, len(code))
	successors := map[ir.CodeOffset][]ir.CodeOffset{}
	for i, instr := range code {
		offsets[i] = instr.Offset
	}
	for from, tos := range f.Successors {
		var fromOffset int
		if _, err := fmt.Sscanf(from, "%d", &fromOffset); err != nil {
			return nil, nil, fmt.Errorf("fixture %s: invalid successor key %q", url, from)
		}
		succs := make([]ir.CodeOffset, len(tos))
		for i, to := range tos {
			succs[i] = ir.CodeOffset(to)
		}
		successors[ir.CodeOffset(fromOffset)] = succs
	}

	graph := cfg.NewGraph(f.Entry, offsets, successors)
	return target, graph, nil
}
