package shell

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/ncsaky/Tiny-Shell/internal/job"
)

// Builtin is a command executed inside the shell process.
type Builtin struct {
	Name        string
	Description string
	Run         func(s *Shell, argv []string) error
}

var builtins = map[string]Builtin{
	"quit": {
		Name:        "quit",
		Description: "Terminate the shell",
		Run:         quitCmd,
	},
	"jobs": {
		Name:        "jobs",
		Description: "List tracked jobs",
		Run:         jobsCmd,
	},
	"bg": {
		Name:        "bg",
		Description: "Resume a stopped job in the background",
		Run:         bgfgCmd,
	},
	"fg": {
		Name:        "fg",
		Description: "Move a job to the foreground",
		Run:         bgfgCmd,
	},
}

// runBuiltin executes argv if it names a builtin, reporting whether
// it did. Builtin names are case-sensitive.
func (s *Shell) runBuiltin(argv []string) (bool, error) {
	b, ok := builtins[argv[0]]
	if !ok {
		return false, nil
	}
	return true, b.Run(s, argv)
}

func quitCmd(s *Shell, argv []string) error {
	s.exit(0)
	return nil
}

func jobsCmd(s *Shell, argv []string) error {
	s.table.List(s.out)
	return nil
}

// bgfgCmd implements both bg and fg. bg resumes a stopped job in the
// background; fg moves a stopped or background job to the foreground
// and blocks until it leaves it again. All resolution failures are
// user errors: printed, command dropped, shell unaffected.
func bgfgCmd(s *Shell, argv []string) error {
	name := argv[0]
	if len(argv) < 2 {
		fmt.Fprintf(s.out, "%s command requires PID or %%jobid argument\n", name)
		return nil
	}

	j, ok := s.resolveJob(name, argv[1])
	if !ok {
		return nil
	}

	switch name {
	case "bg":
		s.table.SetState(j.PID, job.Background)
		_ = unix.Kill(-j.PID, unix.SIGCONT)
		fmt.Fprintf(s.out, "[%d] (%d) %s\n", j.JID, j.PID, j.Cmdline)
	case "fg":
		// Record the foreground transition before SIGCONT so a child
		// that dies instantly is still seen leaving the foreground.
		s.table.SetState(j.PID, job.Foreground)
		if j.State == job.Stopped {
			_ = unix.Kill(-j.PID, unix.SIGCONT)
		}
		s.table.WaitFg(j.PID)
	}
	return nil
}

// resolveJob turns a bg/fg argument into a job: %N looks up a job id,
// a bare number looks up a pid. Failures are printed and reported via
// ok=false.
func (s *Shell) resolveJob(name, arg string) (job.Job, bool) {
	if strings.HasPrefix(arg, "%") {
		jid, err := strconv.Atoi(arg[1:])
		if err != nil {
			fmt.Fprintf(s.out, "%s: argument must be a PID or %%jobid\n", name)
			return job.Job{}, false
		}
		j, ok := s.table.ByJID(jid)
		if !ok {
			fmt.Fprintf(s.out, "%%%d: No such job\n", jid)
			return job.Job{}, false
		}
		return j, true
	}

	pid, err := strconv.Atoi(arg)
	if err != nil {
		fmt.Fprintf(s.out, "%s: argument must be a PID or %%jobid\n", name)
		return job.Job{}, false
	}
	j, ok := s.table.ByPID(pid)
	if !ok {
		fmt.Fprintf(s.out, "(%d): No such process\n", pid)
		return job.Job{}, false
	}
	return j, true
}
