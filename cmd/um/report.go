// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/xlab/treeprint"

	"github.com/ezrec/rum/cpu"
	"github.com/ezrec/rum/emulator"
)

// writeProfile renders the executed instruction mix as an HTML bar chart.
func writeProfile(w io.Writer, name string, emu *emulator.Emulator) (err error) {
	ops := make([]string, 0, cpu.OPCODE_COUNT)
	counts := make([]opts.BarData, 0, cpu.OPCODE_COUNT)
	for op, count := range emu.Profile {
		ops = append(ops, cpu.Opcode(op).String())
		counts = append(counts, opts.BarData{Value: count})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    name,
			Subtitle: fmt.Sprintf("%d instructions", emu.Ticks()),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(ops).AddSeries("executed", counts)

	err = bar.Render(w)
	return
}

// writeListing writes the assembled program as a tree of source lines
// and their instruction words.
func writeListing(w io.Writer, name string, prog *cpu.Program) (err error) {
	tree := treeprint.New()
	tree.SetValue(name)

	for _, op := range prog.Opcodes {
		branch := tree.AddBranch(fmt.Sprintf("%d: %v", op.LineNo, strings.Join(op.Words, " ")))
		for n, code := range op.Codes {
			branch.AddNode(fmt.Sprintf("%08x: %08x %v", op.Ip+n, code.Word, code))
		}
	}

	_, err = io.WriteString(w, tree.String())
	return
}
