// Copyright 2026 The ink Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Command inkctl deploys and calls the bundled contracts against a
// snapshot file.
//
//	inkctl selector Token::transfer
//	inkctl handlers -contract ledger
//	inkctl deploy -config inkctl.toml -message new -args 0x81f4
//	inkctl call -config inkctl.toml -input 0x11223344
//	inkctl dump -store ink.snap
package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"github.com/prosopo-io/ink"
	"github.com/prosopo-io/ink/dispatch"
	"github.com/prosopo-io/ink/engine"
	"github.com/prosopo-io/ink/env"
	"github.com/prosopo-io/ink/internal/contracts/flipper"
	"github.com/prosopo-io/ink/internal/contracts/ledger"
	"github.com/prosopo-io/ink/internal/snapshot"
)

var contracts = map[string]func(opts ...ink.Option) (ink.Executable, error){
	flipper.Name: func(opts ...ink.Option) (ink.Executable, error) {
		c, err := flipper.New(opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	},
	ledger.Name: func(opts ...ink.Option) (ink.Executable, error) {
		c, err := ledger.New(opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	},
}

// errCallFailed is returned after a reverted or trapped call has been
// reported, so main only sets the exit status.
var errCallFailed = errors.New("call failed")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errCallFailed) {
			fmt.Fprintf(os.Stderr, "inkctl: %v\n", err)
		}
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: inkctl <selector|handlers|deploy|call|dump> [flags]")
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		usage(stderr)
		return errors.New("missing command")
	}
	switch cmd, rest := args[0], args[1:]; cmd {
	case "selector":
		return runSelector(rest, stdout, stderr)
	case "handlers":
		return runHandlers(rest, stdout, stderr)
	case "deploy":
		return runExec(dispatch.KindConstructor, rest, stdout, stderr)
	case "call":
		return runExec(dispatch.KindMessage, rest, stdout, stderr)
	case "dump":
		return runDump(rest, stdout, stderr)
	case "help", "-h", "--help":
		usage(stdout)
		return nil
	default:
		usage(stderr)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runSelector(args []string, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("selector", flag.ContinueOnError)
	flags.SetOutput(stderr)
	namespace := flags.String("namespace", "", "namespace qualifying the label")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return errors.New("selector: expected exactly one name")
	}
	name := dispatch.ComposeName(*namespace, flags.Arg(0))
	fmt.Fprintf(stdout, "%s\t%s\n", dispatch.SelectorFor(name), name)
	return nil
}

func runHandlers(args []string, stdout, stderr io.Writer) error {
	flags := flag.NewFlagSet("handlers", flag.ContinueOnError)
	flags.SetOutput(stderr)
	name := flags.String("contract", flipper.Name, "contract to describe")
	if err := flags.Parse(args); err != nil {
		return err
	}
	c, err := newContract(*name, zerolog.Nop())
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SELECTOR\tKIND\tNAME\tFLAGS")
	for _, h := range c.Handlers() {
		var tags []string
		if h.Mutates {
			tags = append(tags, "mutates")
		}
		if h.Payable {
			tags = append(tags, "payable")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", h.Selector, h.Kind, h.Name, strings.Join(tags, ","))
	}
	return tw.Flush()
}

func newContract(name string, logger zerolog.Logger) (ink.Executable, error) {
	newFn, ok := contracts[name]
	if !ok {
		return nil, fmt.Errorf("unknown contract %q", name)
	}
	return newFn(ink.WithLogger(logger))
}

type execFlags struct {
	config   string
	store    string
	contract string
	input    string
	message  string
	args     string
	value    string
	dryRun   bool
}

func (f *execFlags) register(set *flag.FlagSet) {
	set.StringVar(&f.config, "config", "", "path to an inkctl TOML config")
	set.StringVar(&f.store, "store", "", "snapshot file, overrides the config")
	set.StringVar(&f.contract, "contract", "", "contract name, overrides the config")
	set.StringVar(&f.input, "input", "", "raw call input as 0x-prefixed hex")
	set.StringVar(&f.message, "message", "", "handler name, e.g. new or Token::transfer")
	set.StringVar(&f.args, "args", "", "encoded arguments appended to the selector, as hex")
	set.StringVar(&f.value, "value", "0", "transferred value")
	set.BoolVar(&f.dryRun, "dry-run", false, "run the call without saving the snapshot")
}

func (f *execFlags) resolve() (config, error) {
	cfg, err := loadConfig(f.config)
	if err != nil {
		return config{}, err
	}
	if f.store != "" {
		cfg.Store = f.store
	}
	if f.contract != "" {
		cfg.Contract = f.contract
	}
	return cfg, cfg.validate()
}

func decodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	return hex.DecodeString(s)
}

// callInput builds the raw input from either -input or -message/-args.
func callInput(c ink.Executable, kind dispatch.Kind, f *execFlags) ([]byte, error) {
	switch {
	case f.input != "" && f.message != "":
		return nil, errors.New("-input and -message are mutually exclusive")
	case f.input != "":
		return decodeHex(f.input)
	case f.message == "":
		return nil, errors.New("one of -input or -message is required")
	}
	args, err := decodeHex(f.args)
	if err != nil {
		return nil, fmt.Errorf("decode -args: %w", err)
	}
	for _, h := range c.Handlers() {
		if h.Kind == kind && h.Name == f.message {
			return h.Selector.Input(args), nil
		}
	}
	return nil, fmt.Errorf("%s has no %s named %q", c.Name(), kind, f.message)
}

func openStore(path string) (*snapshot.Table, error) {
	t, err := snapshot.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return t, err
}

func runExec(kind dispatch.Kind, args []string, stdout, stderr io.Writer) error {
	var f execFlags
	flags := flag.NewFlagSet(kind.String(), flag.ContinueOnError)
	flags.SetOutput(stderr)
	f.register(flags)
	if err := flags.Parse(args); err != nil {
		return err
	}
	cfg, err := f.resolve()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, stderr)

	c, err := newContract(cfg.Contract, logger)
	if err != nil {
		return err
	}
	input, err := callInput(c, kind, &f)
	if err != nil {
		return err
	}
	value, err := env.ParseBalance(f.value)
	if err != nil {
		return err
	}

	table, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	if table != nil {
		defer func() { _ = table.Close() }()
	}
	host := snapshot.NewHost(table)
	e := engine.New(host, engine.WithLogger(logger))

	var out engine.Outcome
	if kind == dispatch.KindConstructor {
		out = e.Instantiate(c, input, value)
	} else {
		out = e.Call(c, input, value)
	}

	fmt.Fprintf(stdout, "call_id\t%s\n", out.CallID)
	fmt.Fprintf(stdout, "status\t%s\n", out.Status)
	fmt.Fprintf(stdout, "return_code\t%d\n", uint32(out.ReturnCode()))
	if out.Output != nil {
		fmt.Fprintf(stdout, "output\t0x%x\n", out.Output)
	}
	if out.Err != nil {
		fmt.Fprintf(stdout, "error\t%v\n", out.Err)
	}
	if out.Status != engine.StatusSuccess {
		return errCallFailed
	}
	if f.dryRun || !host.Dirty() {
		return nil
	}

	saved, err := host.Save(cfg.Store, snapshot.WithBuilderLogger(logger))
	if err != nil {
		return fmt.Errorf("save %s: %w", cfg.Store, err)
	}
	fmt.Fprintf(stdout, "records\t%d\n", saved.Len())
	return saved.Close()
}

func runDump(args []string, stdout, stderr io.Writer) error {
	var f execFlags
	flags := flag.NewFlagSet("dump", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&f.config, "config", "", "path to an inkctl TOML config")
	flags.StringVar(&f.store, "store", "", "snapshot file, overrides the config")
	if err := flags.Parse(args); err != nil {
		return err
	}
	cfg, err := f.resolve()
	if err != nil {
		return err
	}
	table, err := snapshot.Open(cfg.Store)
	if err != nil {
		return err
	}
	defer func() { _ = table.Close() }()

	host := snapshot.NewHost(table)
	entries, err := host.Entries()
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Fprintf(stdout, "%s\t0x%x\n", e.Key, e.Value)
	}
	return nil
}
