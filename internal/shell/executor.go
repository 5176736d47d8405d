package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"

	"github.com/ncsaky/Tiny-Shell/internal/job"
)

// Launcher starts external commands as tracked jobs. Each child is
// placed in its own process group so keyboard signals aimed at the
// foreground job never reach the shell or the background jobs.
type Launcher struct {
	table *job.Table
	out   io.Writer
	stdin *os.File
}

// NewLauncher returns a launcher registering jobs in table and
// writing user-facing messages to out. Foreground children inherit
// stdin.
func NewLauncher(table *job.Table, out io.Writer, stdin *os.File) *Launcher {
	return &Launcher{table: table, out: out, stdin: stdin}
}

// splitRedirection strips < and > tokens (each consuming the
// following filename) from argv and returns the cleaned vector with
// the redirection targets.
func splitRedirection(argv []string) (clean []string, inFile, outFile string, err error) {
	for i := 0; i < len(argv); i++ {
		switch argv[i] {
		case "<":
			if i+1 >= len(argv) {
				return nil, "", "", errors.New("missing input file after <")
			}
			inFile = argv[i+1]
			i++
		case ">":
			if i+1 >= len(argv) {
				return nil, "", "", errors.New("missing output file after >")
			}
			outFile = argv[i+1]
			i++
		default:
			clean = append(clean, argv[i])
		}
	}
	return clean, inFile, outFile, nil
}

// Launch runs argv as a child process. Background jobs return
// immediately after registration; foreground jobs block until the
// child leaves the foreground (terminates or stops).
//
// A non-nil error means the shell itself is in trouble (the original
// treats a failed fork as fatal resource exhaustion); per-command
// failures are printed and swallowed.
func (l *Launcher) Launch(argv []string, bg bool, cmdline string) error {
	clean, inFile, outFile, err := splitRedirection(argv)
	if err != nil {
		fmt.Fprintf(l.out, "Error: %v\n", err)
		return nil
	}
	if len(clean) == 0 {
		return nil
	}

	cmd := exec.Command(clean[0], clean[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Stdout = l.out
	cmd.Stderr = l.out

	// Redirection targets are opened before the child starts; an
	// unopenable file aborts the command, never the shell.
	if inFile != "" {
		f, err := os.Open(inFile)
		if err != nil {
			fmt.Fprintf(l.out, "Error: Cannot open %s for input: %v\n", inFile, err)
			return nil
		}
		defer f.Close()
		cmd.Stdin = f
	} else if bg {
		// Background jobs must not compete for the terminal.
		devNull, err := os.Open(os.DevNull)
		if err != nil {
			fmt.Fprintf(l.out, "Error: Cannot open %s: %v\n", os.DevNull, err)
			return nil
		}
		defer devNull.Close()
		cmd.Stdin = devNull
	} else {
		cmd.Stdin = l.stdin
	}

	if outFile != "" {
		f, err := os.OpenFile(outFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
		if err != nil {
			fmt.Fprintf(l.out, "Error: Cannot open %s for output: %v\n", outFile, err)
			return nil
		}
		defer f.Close()
		cmd.Stdout = f
	}

	state := job.Foreground
	if bg {
		state = job.Background
	}

	// Start and register atomically: the reaper cannot act on the new
	// pid until the job is in the table.
	pid, jid, err := l.table.AddStarted(state, cmdline, func() (int, error) {
		if err := cmd.Start(); err != nil {
			return 0, err
		}
		return cmd.Process.Pid, nil
	})
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			fmt.Fprintf(l.out, "%s: Command not found\n", clean[0])
			return nil
		}
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(l.out, "%s: Command not found\n", clean[0])
			return nil
		}
		return fmt.Errorf("starting %s: %w", clean[0], err)
	}
	if jid == 0 {
		// The child is already running; the reaper will still collect
		// it, it just is not addressable as a job.
		fmt.Fprintln(l.out, "Tried to create too many jobs")
		return nil
	}

	if bg {
		fmt.Fprintf(l.out, "[%d] (%d) %s\n", jid, pid, cmdline)
		return nil
	}

	l.table.WaitFg(pid)
	return nil
}
