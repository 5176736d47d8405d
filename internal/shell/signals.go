package shell

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"

	"github.com/ncsaky/Tiny-Shell/internal/job"
)

// Router owns the shell's asynchronous signal handling. One goroutine
// drains a notification channel: SIGCHLD triggers a full reap pass,
// SIGINT and SIGTSTP are forwarded to the foreground job's process
// group, SIGQUIT terminates the shell (used by test drivers).
//
// The router is the only writer of reap-driven state transitions; the
// keyboard handlers never touch the table, they only send signals and
// let the resulting SIGCHLD report back.
type Router struct {
	table *job.Table
	out   io.Writer
	sigc  chan os.Signal

	// exit is swappable so tests can observe SIGQUIT handling.
	exit func(code int)
}

// NewRouter installs the shell's signal handlers and returns the
// router. Run must be called for any signal to be acted on.
func NewRouter(table *job.Table, out io.Writer) *Router {
	sigc := make(chan os.Signal, 64)
	signal.Notify(sigc, unix.SIGCHLD, unix.SIGINT, unix.SIGTSTP, unix.SIGQUIT)
	return &Router{table: table, out: out, sigc: sigc, exit: os.Exit}
}

// Run dispatches signals until ctx is cancelled.
func (r *Router) Run(ctx context.Context) error {
	defer signal.Stop(r.sigc)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sig := <-r.sigc:
			switch sig {
			case unix.SIGCHLD:
				r.reap()
			case unix.SIGINT:
				r.forward(unix.SIGINT)
			case unix.SIGTSTP:
				r.forward(unix.SIGTSTP)
			case unix.SIGQUIT:
				fmt.Fprintln(r.out, "Terminating after receipt of SIGQUIT signal")
				r.exit(1)
			}
		}
	}
}

// reap collects every pending child status change in one pass. Signal
// delivery does not queue: one SIGCHLD may stand for several children,
// so the loop polls until wait4 has nothing left.
func (r *Router) reap() {
	for {
		var ws unix.WaitStatus
		pid, err := unix.Wait4(-1, &ws, unix.WNOHANG|unix.WUNTRACED|unix.WCONTINUED, nil)
		if err == unix.EINTR {
			continue
		}
		if err != nil || pid <= 0 {
			return
		}

		switch {
		case ws.Stopped():
			if r.table.SetState(pid, job.Stopped) {
				fmt.Fprintf(r.out, "Job [%d] (%d) stopped by signal %d\n",
					r.table.JIDOf(pid), pid, ws.StopSignal())
			}

		case ws.Continued():
			// Only lift Stopped jobs back to Background. A foreground
			// resume was already recorded by the fg builtin before it
			// sent SIGCONT; there is one writer per transition.
			if j, ok := r.table.ByPID(pid); ok && j.State == job.Stopped {
				r.table.SetState(pid, job.Background)
			}

		case ws.Signaled():
			jid := r.table.JIDOf(pid)
			if r.table.Remove(pid) {
				fmt.Fprintf(r.out, "Job [%d] (%d) terminated by signal %d\n",
					jid, pid, ws.Signal())
			}

		default:
			// Normal exit. Untracked children (table overflow) land
			// here too; Remove is simply a no-op for them.
			r.table.Remove(pid)
		}
	}
}

// forward relays a keyboard signal to the foreground job's entire
// process group. Without a foreground job there is nothing to do.
func (r *Router) forward(sig unix.Signal) {
	if pid := r.table.FgPID(); pid > 0 {
		_ = unix.Kill(-pid, sig)
	}
}
