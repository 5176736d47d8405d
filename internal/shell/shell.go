// Package shell implements the interactive shell: the read/eval loop,
// the command parser, the builtin commands, the process launcher, and
// the signal router. The job table in internal/job is the single
// piece of state they all share.
package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ncsaky/Tiny-Shell/internal/config"
	"github.com/ncsaky/Tiny-Shell/internal/job"
)

// Shell ties the REPL to the job table and the launcher.
type Shell struct {
	cfg      *config.Config
	table    *job.Table
	launcher *Launcher

	in  *bufio.Reader
	out io.Writer

	emitPrompt bool
	exit       func(code int)
}

// Option configures a Shell.
type Option func(*Shell)

// WithPrompt controls whether the prompt is printed before each read.
func WithPrompt(emit bool) Option {
	return func(s *Shell) { s.emitPrompt = emit }
}

// WithExit replaces the process-exit hook, for tests.
func WithExit(exit func(int)) Option {
	return func(s *Shell) { s.exit = exit }
}

// New returns a shell reading commands from in and writing everything
// to out.
func New(cfg *config.Config, table *job.Table, in *os.File, out io.Writer, opts ...Option) *Shell {
	s := &Shell{
		cfg:        cfg,
		table:      table,
		launcher:   NewLauncher(table, out, in),
		in:         bufio.NewReader(in),
		out:        out,
		emitPrompt: true,
		exit:       os.Exit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run is the read/eval loop. It returns nil on EOF (ctrl-d) and an
// error only when reading the input stream itself fails.
func (s *Shell) Run() error {
	for {
		if s.emitPrompt {
			fmt.Fprint(s.out, s.cfg.Prompt)
		}

		line, err := s.in.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				// Run whatever precedes the EOF, then exit cleanly.
				if line != "" {
					if evalErr := s.Eval(line); evalErr != nil {
						return evalErr
					}
				}
				return nil
			}
			return fmt.Errorf("reading command line: %w", err)
		}

		if err := s.Eval(line); err != nil {
			return err
		}
	}
}

// Eval runs one command line: builtins execute in-process, anything
// else is handed to the launcher. Errors returned here are fatal to
// the shell; user errors have already been printed and swallowed.
func (s *Shell) Eval(line string) error {
	argv, bg, err := Parse(line)
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
		return nil
	}
	if len(argv) == 0 {
		return nil
	}

	if handled, err := s.runBuiltin(argv); handled {
		return err
	}

	return s.launcher.Launch(argv, bg, strings.TrimRight(line, "\n"))
}
