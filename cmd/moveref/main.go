// Command moveref analyzes a single function's bytecode, described by a
// YAML fixture, for reference-safety violations and prints every
// diagnostic it finds.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/viant/moveref"
	"github.com/viant/moveref/diag"
	"github.com/viant/moveref/ir"
)

func main() {
	url := flag.String("fixture", "", "URL of the function fixture to analyze (file://, mem://, ...)")
	noSafety := flag.Bool("no-safety", false, "compute the borrow graph without reporting diagnostics")
	hintLimit := flag.Int("hint-limit", 0, "cap the number of hints attached to each diagnostic (0 = unlimited)")
	flag.Parse()

	if *url == "" {
		fmt.Fprintln(os.Stderr, "usage: moveref -fixture <url>")
		os.Exit(2)
	}

	ctx := context.Background()
	target, graph, err := loadFixture(ctx, *url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	target.Env = ir.NewEnvironment(false)

	var opts []moveref.Option
	if *noSafety {
		opts = append(opts, moveref.WithNoSafety())
	}
	if *hintLimit > 0 {
		opts = append(opts, moveref.WithHintLimit(*hintLimit))
	}

	live := conservativeLiveness(target)
	if _, err := moveref.New(opts...).Process(target, graph, live); err != nil {
		fmt.Fprintf(os.Stderr, "analyzing %s: %v\n", target.Name, err)
		os.Exit(1)
	}

	diags := target.Env.Diagnostics()
	if len(diags) == 0 {
		fmt.Printf("%s: no reference-safety violations found\n", target.Name)
		return
	}

	fmt.Printf("%s: %d violation(s)\n", target.Name, len(diags))
	for _, d := range diags {
		printDiagnostic(d)
	}
	os.Exit(1)
}

func printDiagnostic(d diag.Diagnostic) {
	fmt.Printf("  [%s] %s\n", d.Severity, d.Message)
	for _, h := range d.Hints {
		fmt.Printf("    - %s\n", h.Message)
	}
}

// conservativeLiveness treats every reference-typed temp as alive both
// before and after every offset, which is sound (never drops a binding too
// early) if imprecise. A real caller wires in a
// proper liveness pass instead; this CLI has no such pass available.
func conservativeLiveness(target *ir.FunctionTarget) ir.LiveVarAnnotation {
	anno := ir.LiveVarAnnotation{}
	for _, instr := range target.Code {
		anno[instr.Offset] = ir.LiveVarInfo{Before: allReferenceTemps(target), After: allReferenceTemps(target)}
	}
	return anno
}

func allReferenceTemps(target *ir.FunctionTarget) map[ir.TempIndex]bool {
	out := map[ir.TempIndex]bool{}
	for temp := range target.Locals {
		if target.IsReference(temp) {
			out[temp] = true
		}
	}
	return out
}
