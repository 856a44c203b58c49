package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/wasm-interp/interp"
	"github.com/wippyai/wasm-interp/wasm"
)

func main() {
	var (
		list        = flag.Bool("list", false, "List exported functions and exit")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		logLevel    = flag.String("log-level", "", "Log level (debug, info, warn, error); also WASMINTERP_LOG")
	)
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: run [-list] [-i] [-log-level LEVEL] <module.wasm> <function> [arg...]")
		os.Exit(1)
	}

	if err := setupLogging(*logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	modulePath := flag.Arg(0)

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode requires a terminal")
			os.Exit(1)
		}
		if err := runInteractive(modulePath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(modulePath, *list, flag.Args()[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging(level string) error {
	if level == "" {
		level = os.Getenv("WASMINTERP_LOG")
	}
	if level == "" {
		return nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("log level %q: %w", level, err)
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := cfg.Build()
	if err != nil {
		return err
	}
	wasm.SetLogger(logger)
	interp.SetLogger(logger)
	return nil
}

func run(modulePath string, listOnly bool, rest []string) error {
	data, err := os.ReadFile(modulePath)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	module, err := wasm.ParseModule(data)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	instance, err := interp.NewInstance(module)
	if err != nil {
		return fmt.Errorf("instantiate: %w", err)
	}

	if listOnly {
		printExports(instance)
		return nil
	}

	if len(rest) < 1 {
		return fmt.Errorf("no function name given")
	}
	funcName := rest[0]

	funcs := instance.ExportedFunctions()
	sig, ok := funcs[funcName]
	if !ok {
		return fmt.Errorf("no exported function %q", funcName)
	}

	args, err := parseArgs(sig.Params, rest[1:])
	if err != nil {
		return err
	}

	result, err := instance.Call(funcName, args)
	if err != nil {
		return err
	}
	fmt.Println(result)
	return nil
}

func printExports(instance *interp.Instance) {
	funcs := instance.ExportedFunctions()
	names := make([]string, 0, len(funcs))
	for name := range funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s%s\n", name, signatureString(funcs[name]))
	}
}

func signatureString(ft wasm.FuncType) string {
	params := make([]string, len(ft.Params))
	for i, p := range ft.Params {
		params[i] = p.String()
	}
	s := "(" + strings.Join(params, ", ") + ")"
	if len(ft.Results) > 0 {
		results := make([]string, len(ft.Results))
		for i, r := range ft.Results {
			results[i] = r.String()
		}
		s += " -> " + strings.Join(results, ", ")
	}
	return s
}

// parseArgs converts CLI argument strings according to the function's
// parameter types.
func parseArgs(params []wasm.ValType, raw []string) ([]interp.Value, error) {
	if len(raw) != len(params) {
		return nil, fmt.Errorf("function takes %d arguments, got %d", len(params), len(raw))
	}
	args := make([]interp.Value, len(raw))
	for i, s := range raw {
		v, err := parseArg(params[i], s)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		args[i] = v
	}
	return args, nil
}

func parseArg(t wasm.ValType, s string) (interp.Value, error) {
	switch t {
	case wasm.ValI32:
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return interp.Value{}, fmt.Errorf("%q is not an i32: %w", s, err)
		}
		return interp.I32(int32(v)), nil
	case wasm.ValI64:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return interp.Value{}, fmt.Errorf("%q is not an i64: %w", s, err)
		}
		return interp.I64(v), nil
	case wasm.ValF32:
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return interp.Value{}, fmt.Errorf("%q is not an f32: %w", s, err)
		}
		return interp.F32(float32(v)), nil
	case wasm.ValF64:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return interp.Value{}, fmt.Errorf("%q is not an f64: %w", s, err)
		}
		return interp.F64(v), nil
	default:
		return interp.Value{}, fmt.Errorf("unsupported parameter type %s", t)
	}
}
