// Quorlin CLI - compiles IR modules to execution targets and runs QVM bytecode
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/holiman/uint256"
	"github.com/tliron/commonlog"

	"github.com/EmekaIwuagwu/quorlin-lang-sub001/manifest"
	"github.com/EmekaIwuagwu/quorlin-lang-sub001/pkg/bytecode"
	"github.com/EmekaIwuagwu/quorlin-lang-sub001/pkg/codegen"
	"github.com/EmekaIwuagwu/quorlin-lang-sub001/pkg/ir"
	"github.com/EmekaIwuagwu/quorlin-lang-sub001/pkg/storage"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	verbose := flag.Bool("v", false, "Verbose output")
	targetList := flag.String("t", "", "Comma-separated targets (default: manifest targets, or qvm)")
	outDir := flag.String("o", "", "Output directory (default: manifest output, or out)")
	runFn := flag.String("run", "", "Execute the named function instead of compiling")
	runArgs := flag.String("args", "", "Comma-separated decimal arguments for -run")
	storePath := flag.String("store", "", "SQLite slot store for -run (default: manifest store, or in-memory)")
	disasm := flag.Bool("disasm", false, "Print a bytecode listing instead of compiling")
	trace := flag.Bool("trace", false, "Log every dispatched instruction during -run")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: quorlin [options] [module.qir | module.qbc]\n\n")
		fmt.Fprintf(os.Stderr, "Compiles a Quorlin IR module to the configured targets, or runs QVM bytecode.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nTargets: %s\n", strings.Join(codegen.Targets(), ", "))
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  quorlin counter.qir                    # Compile per quorlin.toml\n")
		fmt.Fprintf(os.Stderr, "  quorlin -t yul,qvm -o out counter.qir  # Compile two targets\n")
		fmt.Fprintf(os.Stderr, "  quorlin -disasm out/counter.qbc        # Show a bytecode listing\n")
		fmt.Fprintf(os.Stderr, "  quorlin -run increment -args 5 counter.qbc\n")
		fmt.Fprintf(os.Stderr, "  quorlin -run get -store state.db counter.qbc\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	m, err := manifest.FindAndLoad(".")
	if err != nil {
		fatal(err)
	}

	input := ""
	switch flag.NArg() {
	case 0:
		if m == nil {
			flag.Usage()
			os.Exit(2)
		}
		input = m.InputPath()
	case 1:
		input = flag.Arg(0)
	default:
		fatal(fmt.Errorf("expected one input file, got %d", flag.NArg()))
	}

	data, err := os.ReadFile(input)
	if err != nil {
		fatal(err)
	}

	switch {
	case *runFn != "":
		err = runBytecode(input, data, *runFn, *runArgs, pickStore(*storePath, m), *trace)
	case *disasm:
		err = printListing(input, data)
	default:
		err = compile(input, data, pickTargets(*targetList, m), pickOutDir(*outDir, m), *verbose)
	}
	if err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func pickTargets(flagVal string, m *manifest.Manifest) []string {
	if flagVal != "" {
		return strings.Split(flagVal, ",")
	}
	if m != nil {
		return m.Build.Targets
	}
	return []string{"qvm"}
}

func pickOutDir(flagVal string, m *manifest.Manifest) string {
	if flagVal != "" {
		return flagVal
	}
	if m != nil {
		return m.OutputDir()
	}
	return "out"
}

func pickStore(flagVal string, m *manifest.Manifest) string {
	if flagVal != "" {
		return flagVal
	}
	if m != nil {
		return m.StorePath()
	}
	return ""
}

// compile decodes the IR module and writes one artifact per target into
// outDir, named after the input file.
func compile(input string, data []byte, targets []string, outDir string, verbose bool) error {
	mod, err := ir.Decode(data)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	for _, target := range targets {
		out, err := codegen.Generate(target, mod)
		if err != nil {
			return fmt.Errorf("target %s: %w", target, err)
		}
		path := filepath.Join(outDir, base+out.Ext)
		payload := []byte(out.Text)
		if out.Binary {
			payload = out.Bytes
		}
		if err := os.WriteFile(path, payload, 0644); err != nil {
			return err
		}
		if verbose {
			fmt.Printf("%s: wrote %s (%d bytes)\n", target, path, len(payload))
		}
	}
	return nil
}

// loadOrAssemble accepts either serialized bytecode or a CBOR IR module,
// assembling the latter on the fly.
func loadOrAssemble(input string, data []byte) (*bytecode.Module, error) {
	if filepath.Ext(input) == ".qir" {
		mod, err := ir.Decode(data)
		if err != nil {
			return nil, err
		}
		ir.ResolveModuleLayouts(mod)
		return bytecode.Assemble(mod)
	}
	return bytecode.Load(data)
}

func printListing(input string, data []byte) error {
	mod, err := loadOrAssemble(input, data)
	if err != nil {
		return err
	}
	fmt.Print(mod.Disassemble())
	return nil
}

func runBytecode(input string, data []byte, fn, argList, storePath string, trace bool) error {
	mod, err := loadOrAssemble(input, data)
	if err != nil {
		return err
	}

	var store storage.Store
	if storePath != "" {
		sqlStore, err := storage.NewSQLiteStore(storePath)
		if err != nil {
			return err
		}
		defer sqlStore.Close()
		store = sqlStore
	} else {
		store = storage.NewMemStore()
	}

	var args []*uint256.Int
	if argList != "" {
		for _, raw := range strings.Split(argList, ",") {
			v, err := uint256.FromDecimal(strings.TrimSpace(raw))
			if err != nil {
				return fmt.Errorf("argument %q: %w", raw, err)
			}
			args = append(args, v)
		}
	}

	vm := bytecode.NewVM(mod, store)
	vm.Trace = trace
	result, err := vm.Call(fn, args)
	if err != nil {
		return err
	}
	if result != nil {
		fmt.Println(result.Dec())
	}
	return nil
}
