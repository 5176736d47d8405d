// Command tsh is a tiny shell with job control: it runs external
// programs as jobs in their own process groups and supports quit,
// jobs, bg, and fg plus ctrl-c/ctrl-z forwarding to the foreground
// job.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/oklog/run"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/ncsaky/Tiny-Shell/internal/config"
	"github.com/ncsaky/Tiny-Shell/internal/job"
	"github.com/ncsaky/Tiny-Shell/internal/shell"
)

func usage() {
	fmt.Printf("Usage: tsh [-hvp]\n")
	fmt.Printf("   -h   Print this message\n")
	fmt.Printf("   -v   Print additional diagnostic information\n")
	fmt.Printf("   -p   Do not emit a command prompt\n")
	os.Exit(1)
}

func main() {
	fs := flag.NewFlagSet("tsh", flag.ContinueOnError)
	fs.Usage = usage
	help := fs.Bool("h", false, "print usage")
	verbose := fs.Bool("v", false, "verbose diagnostics")
	noPrompt := fs.Bool("p", false, "suppress the prompt")
	fs.SetOutput(os.Stdout)
	if err := fs.Parse(os.Args[1:]); err != nil {
		usage()
	}
	if *help {
		usage()
	}

	// All shell output shares one stream, like the original's
	// dup2(stdout, stderr).
	if err := unix.Dup2(int(os.Stdout.Fd()), int(os.Stderr.Fd())); err != nil {
		fmt.Printf("dup2 error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadDefault()
	if err != nil {
		fmt.Printf("config error: %v\n", err)
		os.Exit(1)
	}
	if *verbose {
		cfg.Verbose = true
	}

	table := job.NewTable(cfg.MaxJobs)
	if cfg.Verbose {
		table.SetVerbose(os.Stdout)
	}

	// The prompt is for humans: suppressed with -p or when stdin is
	// not a terminal (scripted input).
	emitPrompt := !*noPrompt && term.IsTerminal(int(os.Stdin.Fd()))

	sh := shell.New(cfg, table, os.Stdin, os.Stdout, shell.WithPrompt(emitPrompt))
	router := shell.NewRouter(table, os.Stdout)

	// The REPL and the signal router run as a pair: whichever stops
	// first takes the other down with it.
	ctx, cancel := context.WithCancel(context.Background())
	var g run.Group
	g.Add(func() error {
		return sh.Run()
	}, func(error) {
		cancel()
	})
	g.Add(func() error {
		return router.Run(ctx)
	}, func(error) {
		cancel()
	})

	if err := g.Run(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}
}
