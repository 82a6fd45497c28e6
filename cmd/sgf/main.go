// sgf inspects and edits saved game containers: tar archives, optionally
// compressed, holding JSON documents.
//
// Usage:
//
//	sgf --file save.sgf --command list
//	sgf --file save.sgf --subfile state.json --read_key level
//	sgf --file save.sgf --command update --subfile state.json \
//	    --write_key level --write_value 12 --output patched.sgf
//
// Rewritten containers are always bzip2 compressed GNU tar archives.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"

	"github.com/spf13/pflag"

	sgf "github.com/BenjamenMeyer/saved-game-format"
	"github.com/BenjamenMeyer/saved-game-format/internal/command"
	"github.com/BenjamenMeyer/saved-game-format/internal/config"
)

// Exit codes.
const (
	exitOK = iota
	exitInvalidParameter
	exitMissingInput
	exitLoadFailed
)

const rule = "---------------------------------------------------------------"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	file       string
	command    command.Command
	subfile    string
	readKey    string
	writeKey   string
	writeValue string
	output     string
	configPath string
	logLevel   string
	filter     string
	help       bool
}

func newFlagSet(opts *options, stderr io.Writer) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("sgf", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&opts.file, "file", "", "file to operate on")
	opts.command = command.Default
	flagSet.Var(&opts.command, "command", "command to perform: ["+strings.Join(command.Names(), ", ")+"]")
	flagSet.StringVar(&opts.subfile, "subfile", "", "internal file to read")
	flagSet.StringVar(&opts.readKey, "read_key", "", "key to read from the internal file")
	flagSet.StringVar(&opts.writeKey, "write_key", "", "key within the internal file to write")
	flagSet.StringVar(&opts.writeValue, "write_value", "", "value to set the key to")
	flagSet.StringVar(&opts.output, "output", "", "file to save the rewritten container to")
	flagSet.StringVar(&opts.configPath, "config", "", "config file (default: $"+config.EnvVar+")")
	flagSet.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flagSet.StringVar(&opts.filter, "input-filter", "", "input compression: auto, none, gzip, bzip2, xz, zstd or lz4")
	flagSet.BoolVarP(&opts.help, "help", "h", false, "display the help screen")
	return flagSet
}

func run(args []string, stdout, stderr io.Writer) int {
	var opts options
	flagSet := newFlagSet(&opts, stderr)

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			printHelp(stdout, flagSet)
			return exitOK
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		printHelp(stdout, flagSet)
		return exitInvalidParameter
	}
	if opts.help {
		printHelp(stdout, flagSet)
		return exitOK
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		fmt.Fprintf(stderr, "Error: unexpected argument: %s\n", rest[0])
		printHelp(stdout, flagSet)
		return exitInvalidParameter
	}

	cfg, err := config.Load(config.Resolve(opts.configPath))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitInvalidParameter
	}
	if flagSet.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flagSet.Changed("input-filter") {
		cfg.InputFilter = opts.filter
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitInvalidParameter
		}
	}
	level, err := cfg.Level()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitInvalidParameter
	}
	policy, err := cfg.Policy()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitInvalidParameter
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	if opts.file == "" {
		fmt.Fprintln(stderr, "Missing input file")
		printHelp(stdout, flagSet)
		return exitMissingInput
	}
	if err := sgf.Validate(opts.file); err != nil {
		fmt.Fprintf(stderr, "Invalid input file: %v\n", err)
		printHelp(stdout, flagSet)
		return exitMissingInput
	}
	if err := checkArgs(&opts); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitInvalidParameter
	}

	printSummary(stdout, &opts)

	libOpts := []sgf.Option{
		sgf.WithLogger(logger),
		sgf.WithBlockSize(cfg.BlockSize),
		sgf.WithCompressionLevel(cfg.CompressionLevel),
		sgf.WithShortWritePolicy(policy),
		sgf.WithInputFilter(cfg.InputFilter),
	}

	switch opts.command {
	case command.List:
		err = runList(stdout, &opts, libOpts)
	case command.Dump:
		err = runDump(stdout, &opts, libOpts)
	case command.Update, command.Add:
		err = runUpdate(stdout, &opts, libOpts)
	case command.Inspect:
		err = runInspect(stdout, &opts, libOpts)
	default:
		fmt.Fprintln(stdout, "Unknown Operation")
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitLoadFailed
	}
	return exitOK
}

// checkArgs enforces the flags each command depends on.
func checkArgs(opts *options) error {
	if opts.command.NeedsEntry() && opts.subfile == "" {
		return fmt.Errorf("--subfile is required for %s", opts.command)
	}
	if opts.command.NeedsOutput() {
		if opts.writeKey == "" {
			return fmt.Errorf("--write_key is required for %s", opts.command)
		}
		if opts.output == "" {
			return fmt.Errorf("--output is required for %s", opts.command)
		}
	}
	return nil
}

func printSummary(w io.Writer, opts *options) {
	fmt.Fprintf(w, "Processing File: %s\n", opts.file)
	fmt.Fprintf(w, "Command: %s\n", opts.command)
	fmt.Fprintf(w, "[optional] Internal File: %s\n", opts.subfile)
	fmt.Fprintf(w, "[optional] Read Key: %s\n", opts.readKey)
	fmt.Fprintf(w, "[optional] Write Key: %s\n", opts.writeKey)
	fmt.Fprintf(w, "[optional] Write Value: %s\n", opts.writeValue)
	fmt.Fprintf(w, "[optional] Output File: %s\n", opts.output)
}

func runList(w io.Writer, opts *options, libOpts []sgf.Option) error {
	fmt.Fprintln(w, "List files")
	names, err := sgf.ListEntries(opts.file, libOpts...)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Entry Count: %d\n", len(names))
	for _, name := range names {
		fmt.Fprintf(w, "\t%s\n", name)
	}
	return nil
}

func runDump(w io.Writer, opts *options, libOpts []sgf.Option) error {
	fmt.Fprintln(w, "Dump sub-file contents")
	if opts.readKey != "" {
		value, found, err := sgf.ReadKey(opts.file, opts.subfile, opts.readKey, libOpts...)
		if err != nil {
			return err
		}
		if !found {
			value = "null"
		}
		fmt.Fprintf(w, "Key %s = %s\n", opts.readKey, value)
		return nil
	}

	contents, err := sgf.ExtractEntry(opts.file, opts.subfile, libOpts...)
	if err != nil {
		return err
	}
	printContents(w, contents)
	return nil
}

func runUpdate(w io.Writer, opts *options, libOpts []sgf.Option) error {
	mustExist := opts.command == command.Update
	if mustExist {
		fmt.Fprintln(w, "Update key-value pair")
	} else {
		fmt.Fprintln(w, "Insert key-value pair")
	}

	report, err := sgf.UpdateDocument(opts.file, opts.output, opts.subfile, opts.writeKey, opts.writeValue, mustExist, libOpts...)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Entries Written: %d\n", report.Entries)
	fmt.Fprintf(w, "Entries Replaced: %d\n", report.Replaced)
	if report.Suspect() {
		fmt.Fprintf(w, "Write Errors: %d (output may be incomplete)\n", len(report.WriteErrors))
	}

	// Output is always bzip2, whatever filter the input was forced to.
	outOpts := append(slices.Clip(libOpts), sgf.WithInputFilter(sgf.AutoFilter))
	keys, err := sgf.DocumentKeys(opts.output, opts.subfile, outOpts...)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Updated Keys: %s\n", strings.Join(keys, ", "))
	return nil
}

func runInspect(w io.Writer, opts *options, libOpts []sgf.Option) error {
	fmt.Fprintln(w, "Inspect container")
	result, err := sgf.Inspect(opts.file, libOpts...)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Filter: %s\n", result.Filter)
	fmt.Fprintf(w, "Size: %d\n", result.Size)
	fmt.Fprintf(w, "Entry Count: %d\n", len(result.Entries))
	for _, e := range result.Entries {
		fmt.Fprintf(w, "\t%s\t%d\t%s\t%s\n", e.Path, e.Size, e.Mode, e.Digest)
	}
	return nil
}

func printContents(w io.Writer, contents []byte) {
	fmt.Fprintf(w, "File Contents Size: %d\n", len(contents))
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "Begin File Contents")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "%s\n", contents)
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "End File Contents")
	fmt.Fprintln(w, rule)
}

func printHelp(w io.Writer, flagSet *pflag.FlagSet) {
	fmt.Fprintf(w, `sgf reads and edits saved game containers.

Usage: sgf --file <container> [--command <command>] [flags]

Commands:
  list     list the entries of the container
  dump     print an entry, or one key of its JSON document (default)
  update   set an existing key and write the result to --output
  add      set a key, adding it if missing, and write to --output
  inspect  list entries with their size, mode and sha256 digest

Allowed arguments:
%s`, flagSet.FlagUsages())
}
