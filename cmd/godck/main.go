package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"github.com/plan-systems/klog"
	"github.com/pytrnsys/godck/batch"
	"github.com/pytrnsys/godck/libdck"
	"github.com/pytrnsys/godck/libdck/scalars"
)

const usage = `usage: godck [-v N] <command> [args]

commands:
  extract [-equations] FILE.dck         print the constants a deck declares
  batch [-config f.hcl] [-db path] [-workers n] [-pattern glob] [-csv path] [DIR]
                                        extract every simulation folder under DIR
  table -db path [-out path]            write a scalar table as CSV
  functions                             list the supported deck functions
  py [-out path] [script.py]            run a python script (or a REPL) with the dck module
`

func main() {
	fset := flag.NewFlagSet("godck", flag.ContinueOnError)
	klog.InitFlags(fset)
	fset.Set("logtostderr", "true")
	fset.Set("v", "1")
	klog.SetFormatter(&klog.FmtConstWidth{
		FileNameCharWidth: 16,
		UseColor:          true,
	})
	fset.Usage = func() {
		fmt.Fprint(fset.Output(), usage)
	}

	if err := fset.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	err := run(os.Stdout, fset.Args())
	klog.Flush()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run dispatches a command line (without the program name) and writes command output to outW.
func run(outW io.Writer, args []string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	cmd, args := args[0], args[1:]
	switch cmd {
	case "extract":
		return runExtract(outW, args)
	case "batch":
		return runBatch(outW, args)
	case "table":
		return runTable(outW, args)
	case "functions":
		return runFunctions(outW)
	case "py":
		return runPy(args)
	case "help", "-h", "-help":
		fmt.Fprint(outW, usage)
		return nil
	}
	return errors.Errorf("unknown command %q\n%s", cmd, usage)
}

func runExtract(outW io.Writer, args []string) error {
	fset := flag.NewFlagSet("extract", flag.ContinueOnError)
	equations := fset.Bool("equations", false, "print each declaration as name=expression instead of evaluating")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if fset.NArg() != 1 {
		return errors.New("extract: expected one deck file")
	}

	pathname := fset.Arg(0)
	deckText, err := batch.ReadDeck(pathname)
	if err != nil {
		return err
	}

	if *equations {
		for _, eq := range libdck.Equations(deckText) {
			fmt.Fprintln(outW, eq)
		}
		return nil
	}

	constants, diags := libdck.Extract(deckText)
	for _, diag := range diags {
		klog.Warningf("%s: %s", pathname, diag.String())
	}
	for _, name := range constants.Names() {
		fmt.Fprintf(outW, "%s = %v\n", name, constants[name])
	}
	return nil
}

func runBatch(outW io.Writer, args []string) error {
	fset := flag.NewFlagSet("batch", flag.ContinueOnError)
	configPathname := fset.String("config", "", "HCL batch config file")
	dbPathName := fset.String("db", "", "scalar store directory (in-memory if empty)")
	workers := fset.Int("workers", 0, "simulations processed at once (0 means one per CPU)")
	pattern := fset.String("pattern", "", "deck file name pattern (default \""+batch.DefaultDeckPattern+"\")")
	csvPathname := fset.String("csv", "", "write the scalar table to this file when done (\"-\" for stdout)")
	if err := fset.Parse(args); err != nil {
		return err
	}

	cfg := &batch.Config{}
	if *configPathname != "" {
		var err error
		if cfg, err = batch.LoadConfig(*configPathname); err != nil {
			return err
		}
	}

	// flags given on the command line override the config file
	fset.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "db":
			cfg.DbPathName = *dbPathName
		case "workers":
			cfg.Workers = *workers
		case "pattern":
			cfg.DeckPattern = *pattern
		}
	})
	if fset.NArg() > 0 {
		cfg.ResultsDir = fset.Arg(0)
	}
	if cfg.ResultsDir == "" {
		return errors.New("batch: no results folder given")
	}

	store, err := scalars.Open(scalars.Opts{
		DbPathName: cfg.DbPathName,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := batch.Run(ctx, *cfg, store)
	if err != nil {
		return err
	}
	fmt.Fprintf(outW, "processed %d simulations, %d failed\n", results.Processed, results.Errors)
	for _, name := range results.Failed {
		fmt.Fprintf(outW, "  failed: %s\n", name)
	}

	if *csvPathname == "" {
		return nil
	}
	return writeTable(outW, store, *csvPathname)
}

func runTable(outW io.Writer, args []string) error {
	fset := flag.NewFlagSet("table", flag.ContinueOnError)
	dbPathName := fset.String("db", "", "scalar store directory")
	outPathname := fset.String("out", "-", "CSV file to write (\"-\" for stdout)")
	if err := fset.Parse(args); err != nil {
		return err
	}
	if *dbPathName == "" {
		return errors.New("table: -db is required")
	}

	store, err := scalars.Open(scalars.Opts{
		DbPathName: *dbPathName,
		ReadOnly:   true,
	})
	if err != nil {
		return err
	}
	defer store.Close()

	return writeTable(outW, store, *outPathname)
}

func writeTable(outW io.Writer, store *scalars.Store, pathname string) error {
	tbl, err := store.Table()
	if err != nil {
		return err
	}
	if pathname == "-" {
		return tbl.WriteCSV(outW)
	}

	file, err := os.OpenFile(pathname, os.O_TRUNC|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	err = tbl.WriteCSV(file)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	return errors.Wrap(err, pathname)
}

func runFunctions(outW io.Writer) error {
	for _, name := range libdck.FuncNames() {
		fn, _ := libdck.LookupFunc(name)
		fmt.Fprintf(outW, "%-6s %s\n", name, fn.Doc)
	}
	return nil
}

func runPy(args []string) error {
	fset := flag.NewFlagSet("py", flag.ContinueOnError)
	outPathname := fset.String("out", "", "redirect the script's stdout to this file")
	if err := fset.Parse(args); err != nil {
		return err
	}
	return runPython(fset.Arg(0), *outPathname)
}
