package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Michael-Bailar/Computer-Architecture/emulator"
	"github.com/Michael-Bailar/Computer-Architecture/translate"
)

var f = translate.From

// Process exit status codes.
const (
	EXIT_OK    = 0 // Program halted.
	EXIT_USAGE = 1 // Bad command line.
	EXIT_LOAD  = 2 // Program file missing, unreadable or malformed.
	EXIT_FAULT = 3 // Program faulted while running.
)

var (
	ErrUsage  = errors.New(f("expected exactly one program file"))
	ErrDefine = errors.New(f("define must be NAME=VALUE"))
)

// exitError carries the process exit status for an error.
type exitError struct {
	Code int
	Name string // File or argument the error relates to, if any.
	Err  error
}

func (err *exitError) Error() string {
	if len(err.Name) == 0 {
		return err.Err.Error()
	}
	return f("%v: %v", err.Name, err.Err)
}

func (err *exitError) Unwrap() error {
	return err.Err
}

func newRootCommand() *cobra.Command {
	var verbose bool
	var assemble bool
	var defines []string

	cmd := &cobra.Command{
		Use:   "ls8 [flags] program",
		Short: "LS-8 8-bit computer emulator",
		Long: "Loads a program into the memory of an LS-8 computer, and runs it until it halts.\n" +
			"Programs are text files of one 8-digit binary literal per line, or assembler\n" +
			"source when --asm is given or the file name ends in .asm. Assembler source\n" +
			"may use equates predefined with --define NAME=VALUE.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return &exitError{Code: EXIT_USAGE, Err: ErrUsage}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			src := &emulator.Source{
				Verbose:  verbose,
				Assemble: assemble,
				Define:   map[string]string{},
			}
			for _, define := range defines {
				name, value, ok := strings.Cut(define, "=")
				if !ok || len(name) == 0 {
					return &exitError{Code: EXIT_USAGE, Name: define, Err: ErrDefine}
				}
				src.Define[name] = value
			}
			return run(cmd.OutOrStdout(), args[0], src)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Trace assembly and every instruction to stderr")
	cmd.Flags().BoolVarP(&assemble, "asm", "a", false, "Assemble the program from mnemonic source")
	cmd.Flags().StringArrayVarP(&defines, "define", "D", nil, "Predefine an assembler equate, as NAME=VALUE")

	return cmd
}

// run loads and executes a program, writing PRN output to out.
func run(out io.Writer, filename string, src *emulator.Source) (err error) {
	inf, err := os.Open(filename)
	if err != nil {
		return &exitError{Code: EXIT_LOAD, Err: err}
	}
	defer inf.Close()

	prog, err := src.Parse(filename, inf)
	if err != nil {
		return &exitError{Code: EXIT_LOAD, Name: filename, Err: err}
	}

	emu := emulator.NewEmulator()
	emu.Verbose = src.Verbose
	emu.Program = prog
	emu.Console.Output = out

	err = emu.Reset()
	if err != nil {
		return &exitError{Code: EXIT_LOAD, Name: filename, Err: err}
	}

	err = emu.Run()
	if err != nil {
		return &exitError{Code: EXIT_FAULT, Name: filename, Err: err}
	}

	return
}

// execute runs the command line, and returns the process exit status.
func execute(args []string, stdout io.Writer, stderr io.Writer) int {
	if args == nil {
		// cobra falls back to os.Args on nil.
		args = []string{}
	}

	log.SetFlags(0)
	log.SetOutput(stderr)

	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return EXIT_OK
	}

	var exit *exitError
	if !errors.As(err, &exit) {
		// Flag parsing errors.
		exit = &exitError{Code: EXIT_USAGE, Err: err}
	}

	fmt.Fprintf(stderr, "%v: %v\n", cmd.Name(), exit)
	if exit.Code == EXIT_USAGE {
		cmd.SetOut(stderr)
		cmd.Usage()
	}

	return exit.Code
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}
