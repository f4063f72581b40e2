// Package main is the synduce CLI: a thin driver that parses a problem
// file, builds a Context and a Config from flags, and threads both
// through internal/refine.Run. It is grounded on the teacher's
// cmd/orizon-compiler flag-based entry point (flag.Bool/flag.String,
// a showUsage helper, a single positional input file) but reports a
// distinct exit code per outcome class instead of log.Fatalf'ing on the
// first error, since spec.md §7's taxonomy requires the caller to tell
// Realizable apart from Unrealizable apart from Unknown apart from a
// bad input file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/synduce/synduce/internal/diagnostics"
	"github.com/synduce/synduce/internal/frontend"
	"github.com/synduce/synduce/internal/grammar"
	"github.com/synduce/synduce/internal/pmrs"
	"github.com/synduce/synduce/internal/position"
	"github.com/synduce/synduce/internal/refine"
	"github.com/synduce/synduce/internal/solver"
	"github.com/synduce/synduce/internal/solver/remote"
	"github.com/synduce/synduce/internal/solver/subprocess"
	"github.com/synduce/synduce/internal/solver/z3adapter"
	"github.com/synduce/synduce/internal/stats"
	"github.com/synduce/synduce/internal/synctx"
	"github.com/synduce/synduce/internal/typeterm"
	"github.com/synduce/synduce/internal/verifier"
	"github.com/synduce/synduce/internal/watch"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

// exit codes, per spec.md §7: one per outcome class, distinguishing a
// bad problem from a solve that legitimately concluded Unrealizable.
const (
	exitRealizable   = 0
	exitUnrealizable = 1
	exitUnknown      = 2
	exitInputError   = 3
)

func main() {
	var (
		outDir     = flag.String("o", "", "write solution + stats JSON next to input, under DIR")
		targetName = flag.String("target", "target", "target function/non-terminal name")
		specName   = flag.String("spec", "spec", "reference function/non-terminal name")
		reprName   = flag.String("repr", "repr", "representation function/non-terminal name")
		tinvName   = flag.String("tinv", "tinv", "precondition function/non-terminal name")

		reductionLimit     = flag.Int("reduction-limit", 1000, "bound on reduce steps")
		expandDepth        = flag.Int("expand-depth", 3, "bound on expansion depth")
		expandCut          = flag.Int("expand-cut", 30, "bound on cumulative expanded term count")
		numExpansionsCheck = flag.Int("num-expansions-check", 10, "bound on verifier expansions")
		lemmaAttempts      = flag.Int("lemma-attempts", 5, "bound on lemma inner-loop attempts")

		inductionTlimit    = flag.Duration("induction-tlimit", 5*time.Second, "unbounded lemma SMT timeout")
		waitParallelTlimit = flag.Duration("wait-parallel-tlimit", 10*time.Second, "outer bounded/unbounded race timeout")

		smtBackend     = flag.String("smt-backend", "subprocess", "subprocess|z3-inprocess")
		solverBin      = flag.String("solver-bin", "cvc5", "subprocess solver binary")
		solverEndpoint = flag.String("solver-endpoint", "", "optional remote solver gateway (quic://host:port)")

		useSyntactic       = flag.Bool("use-syntactic-definitions", true, "")
		partialCorrectness = flag.Bool("partial-correctness", true, "")
		lifting            = flag.Bool("lifting", false, "enable lifting on unrealizability")
		watchMode          = flag.Bool("watch", false, "re-solve on input file change")
		jsonOut            = flag.Bool("json", false, "emit machine-readable stats only")
		showVersion        = flag.Bool("version", false, "show version information")
		showHelp           = flag.Bool("help", false, "show help information")
	)

	flag.Parse()

	if *showVersion {
		fmt.Printf("synduce %s (%s)\n", version, commit)
		return
	}

	if *showHelp {
		showUsage()
		return
	}

	args := flag.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "error: expected exactly one input file")
		showUsage()
		os.Exit(exitInputError)
	}

	names := frontend.Names{Target: *targetName, Spec: *specName, Repr: *reprName, TInv: *tinvName}

	cfg := runConfig{
		names:              names,
		outDir:             *outDir,
		reductionLimit:     *reductionLimit,
		expandDepth:        *expandDepth,
		expandCut:          *expandCut,
		numExpansionsCheck: *numExpansionsCheck,
		lemmaAttempts:      *lemmaAttempts,
		inductionTlimit:    *inductionTlimit,
		waitParallelTlimit: *waitParallelTlimit,
		smtBackend:         *smtBackend,
		solverBin:          *solverBin,
		solverEndpoint:     *solverEndpoint,
		useSyntactic:       *useSyntactic,
		partialCorrectness: *partialCorrectness,
		lifting:            *lifting,
		jsonOut:            *jsonOut,
	}

	inputPath := args[0]

	if !*watchMode {
		os.Exit(runOnce(inputPath, cfg))
	}

	runWatch(inputPath, cfg)
}

func showUsage() {
	fmt.Println("synduce - synthesis by reduction over recursion schemes")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("    synduce [flags] <input.ml|input.pmrs>")
	fmt.Println()
	flag.PrintDefaults()
}

// runConfig holds every flag the rest of main.go needs, so runOnce/
// runWatch don't each take a dozen positional arguments.
type runConfig struct {
	names frontend.Names

	outDir string

	reductionLimit, expandDepth, expandCut, numExpansionsCheck, lemmaAttempts int
	inductionTlimit, waitParallelTlimit                                      time.Duration

	smtBackend, solverBin, solverEndpoint string

	useSyntactic, partialCorrectness, lifting, jsonOut bool
}

// runOnce parses inputPath, builds one Context, solves once, reports the
// result, and returns the process exit code.
func runOnce(inputPath string, cfg runConfig) int {
	rep := diagnostics.NewReporter()

	src, err := os.ReadFile(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitInputError
	}

	rep.Manager().AddSource(inputPath, string(src))

	prog, registry, ok := parseInput(rep, inputPath, string(src), cfg.names)
	if !ok {
		printDiagnostics(rep, cfg.jsonOut)
		return exitInputError
	}

	if prog.Target == nil || prog.Spec == nil {
		rep.InputError(fmt.Sprintf("missing required %q or %q definition", cfg.names.Target, cfg.names.Spec), position.Span{}, inputPath)
		printDiagnostics(rep, cfg.jsonOut)
		return exitInputError
	}

	adapters, resourceErr := buildAdapters(cfg)
	if resourceErr != nil {
		rep.ResourceError("could not initialize a solver backend", resourceErr.Error())
		printDiagnostics(rep, cfg.jsonOut)
		return exitUnknown
	}

	sctx := synctx.New(adapters)
	sctx.Registry = registry

	result, collector := solveOnce(sctx, prog, cfg)

	writeOutputs(cfg, inputPath, result, collector)
	printResult(rep, result, cfg.jsonOut)

	return exitCodeFor(result.Status)
}

// runWatch re-runs runOnce-equivalent work every time the input file (or
// a sibling .synduce-config.json) changes, per C16. It never exits on
// its own; the operator interrupts the process.
func runWatch(inputPath string, cfg runConfig) {
	configPath := ""
	if sibling := filepath.Join(filepath.Dir(inputPath), ".synduce-config.json"); fileExists(sibling) {
		configPath = sibling
	}

	fw, err := watch.New(inputPath, configPath, 200*time.Millisecond)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not start file watcher: %v\n", err)
		os.Exit(exitUnknown)
	}

	defer fw.Close()

	fmt.Printf("watching %s for changes (ctrl-c to stop)...\n", inputPath)
	runOnce(inputPath, cfg)

	for ev := range fw.Events() {
		if ev.Err != nil {
			fmt.Fprintf(os.Stderr, "watch error: %v\n", ev.Err)
			continue
		}

		fmt.Printf("\n--- %s changed, re-solving ---\n", ev.Path)
		runOnce(inputPath, cfg)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// parseInput dispatches on file extension to the .ml or .pmrs dialect
// and lowers it to a four-role Program, reporting every front-end error
// through rep as it goes. ok is false if any error was reported, in
// which case the caller must not proceed to a solve.
func parseInput(rep *diagnostics.Reporter, path, src string, names frontend.Names) (*frontend.Program, *typeterm.Registry, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pmrs":
		return parsePMRSInput(rep, path, src, names)
	default:
		return parseMLInput(rep, path, src, names)
	}
}

func parseMLInput(rep *diagnostics.Reporter, path, src string, names frontend.Names) (*frontend.Program, *typeterm.Registry, bool) {
	f, errs := frontend.ParseFile(path, src)
	frontend.Report(rep, path, errs)

	if len(errs) > 0 {
		return nil, nil, false
	}

	prog, errs := frontend.BuildProgram(f, names)
	frontend.Report(rep, path, errs)

	if len(errs) > 0 {
		return nil, nil, false
	}

	return prog, prog.Registry, true
}

// parsePMRSInput lowers one .pmrs file into up to four independent
// PMRS values, one per role, by re-lowering the same rule set with a
// different Main non-terminal each time — the .pmrs dialect has no
// per-role file separation, so every role's rules live in one shared
// declaration list and are distinguished purely by non-terminal name.
func parsePMRSInput(rep *diagnostics.Reporter, path, src string, names frontend.Names) (*frontend.Program, *typeterm.Registry, bool) {
	pf, errs := frontend.ParsePMRSFile(path, src)
	frontend.Report(rep, path, errs)

	if len(errs) > 0 {
		return nil, nil, false
	}

	declared := map[string]bool{}
	for _, nt := range pf.NTs {
		declared[nt.Name] = true
	}

	prog := &frontend.Program{Registry: typeterm.NewRegistry()}

	roles := []struct {
		name       string
		allowHoles bool
		dst        **pmrs.PMRS
	}{
		{names.Target, true, &prog.Target},
		{names.Spec, false, &prog.Spec},
		{names.Repr, false, &prog.Repr},
		{names.TInv, false, &prog.TInv},
	}

	ok := true

	for _, role := range roles {
		if !declared[role.name] {
			continue
		}

		p, errs := frontend.LowerPMRSFile(pf, role.name, role.allowHoles)
		frontend.Report(rep, path, errs)

		if len(errs) > 0 {
			ok = false
			continue
		}

		*role.dst = p

		if role.allowHoles {
			prog.Holes = p.Params
		}
	}

	if !ok {
		return nil, nil, false
	}

	return prog, prog.Registry, true
}

// buildAdapters constructs the SyGuS/SMT port pair per -smt-backend/
// -solver-endpoint. SyGuS synthesis always goes through the subprocess
// adapter unless a remote gateway is configured: z3adapter implements
// only the SMT port (verification and lemma checking), not SyGuS — there
// is no in-process hole-synthesis grammar enumerator in this build, so
// -smt-backend=z3-inprocess narrows only the verifier/lemma path, not C6.
func buildAdapters(cfg runConfig) (synctx.Adapters, error) {
	if cfg.solverEndpoint != "" {
		gw, err := remote.Dial(context.Background(), cfg.solverEndpoint, cfg.waitParallelTlimit, false)
		if err != nil {
			return synctx.Adapters{}, err
		}

		return synctx.Adapters{SyGuS: gw, SMT: gw}, nil
	}

	sygus := subprocess.NewSyGuS(cfg.solverBin, cfg.waitParallelTlimit)

	var smt solver.SMTSolver

	switch cfg.smtBackend {
	case "z3-inprocess":
		smt = z3adapter.New()
	default:
		s, err := subprocess.NewSMT(context.Background(), cfg.solverBin)
		if err != nil {
			return synctx.Adapters{}, err
		}

		smt = s
	}

	return synctx.Adapters{SyGuS: sygus, SMT: smt}, nil
}

// defaultOpSet is the SyGuS grammar's operator set; unlike the bounds
// above, this isn't exposed as a flag since spec.md §4.14 doesn't name
// one, so a fixed reasonable default (linear arithmetic plus ite) is
// used for every run.
func defaultOpSet() grammar.OpSet {
	return grammar.OpSet{
		Ops:                        []string{"+", "-", "*", "ite"},
		AllowMultiplicationByConst: true,
	}
}

func solveOnce(sctx *synctx.Context, prog *frontend.Program, cfg runConfig) (refine.Result, *stats.Collector) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.waitParallelTlimit)
	defer cancel()

	collector := stats.NewCollector()

	rcfg := refine.Config{
		ReductionLimit:          cfg.reductionLimit,
		ExpandDepth:             cfg.expandDepth,
		ExpandCut:               cfg.expandCut,
		NumExpansionsCheck:      cfg.numExpansionsCheck,
		LemmaAttempts:           cfg.lemmaAttempts,
		OpSet:                   defaultOpSet(),
		UseSyntacticDefinitions: cfg.useSyntactic,
		PartialCorrectness:      cfg.partialCorrectness,
		Lifting:                 cfg.lifting,
		MaxLiftAttempts:         3,
		SimpleInit:              true,
		MaxRefinementSteps:      500,
	}

	result, _ := refine.Run(ctx, sctx, prog.Spec, prog.Target, prog.Repr, prog.TInv, rcfg)

	return result, collector
}

func exitCodeFor(status refine.Status) int {
	switch status {
	case refine.Realizable:
		return exitRealizable
	case refine.Unrealizable:
		return exitUnrealizable
	default:
		return exitUnknown
	}
}

func writeOutputs(cfg runConfig, inputPath string, result refine.Result, collector *stats.Collector) {
	if cfg.outDir == "" {
		return
	}

	if err := os.MkdirAll(cfg.outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not create output directory: %v\n", err)
		return
	}

	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))

	rec := collector.Finish(result.Steps, result.Status.String())
	if err := stats.Write(cfg.outDir, base, rec); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not write stats: %v\n", err)
	}

	if result.Status == refine.Realizable {
		solPath := filepath.Join(cfg.outDir, base+".solution")
		if err := os.WriteFile(solPath, []byte(renderSolution(result.Candidates)), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not write solution: %v\n", err)
		}
	}
}

func renderSolution(candidates map[string]verifier.Candidate) string {
	var out strings.Builder

	names := make([]string, 0, len(candidates))
	for name := range candidates {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		c := candidates[name]
		fmt.Fprintf(&out, "%s(%s) = %s\n", name, strings.Join(c.Params, ", "), c.Body.String())
	}

	return out.String()
}

func printDiagnostics(rep *diagnostics.Reporter, jsonOut bool) {
	rep.Manager().Sort()

	if jsonOut {
		data, _ := json.MarshalIndent(rep.Manager().Summary(), "", "  ")
		fmt.Println(string(data))

		return
	}

	for _, d := range rep.Manager().Diagnostics() {
		fmt.Fprintln(os.Stderr, rep.Manager().Format(d, true))
	}
}

func printResult(rep *diagnostics.Reporter, result refine.Result, jsonOut bool) {
	if jsonOut {
		payload := struct {
			Status string `json:"status"`
			Steps  int    `json:"steps"`
		}{Status: result.Status.String(), Steps: result.Steps}

		data, _ := json.MarshalIndent(payload, "", "  ")
		fmt.Println(string(data))

		return
	}

	fmt.Printf("%s (%d refinement steps)\n", result.Status.String(), result.Steps)

	if result.Status == refine.Realizable {
		fmt.Print(renderSolution(result.Candidates))
	}

	printDiagnostics(rep, false)
}
