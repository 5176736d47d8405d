// Package job tracks the shell's child processes. Every launched
// command becomes a Job in a fixed-capacity Table shared between the
// REPL and the signal router; the Table's lock is what keeps the two
// from observing each other's half-finished updates.
package job

// State is the lifecycle state of a tracked job. The zero value is
// reserved for unused table slots, not a real state.
type State int

const (
	// Foreground is the job currently blocking the REPL. At most one
	// job may be Foreground at any instant.
	Foreground State = iota + 1
	// Background jobs run without blocking the REPL.
	Background
	// Stopped jobs are suspended by SIGTSTP/SIGSTOP and resumable
	// with SIGCONT.
	Stopped
)

// String returns the display name used by the jobs builtin.
func (s State) String() string {
	switch s {
	case Foreground:
		return "Foreground"
	case Background:
		return "Running"
	case Stopped:
		return "Stopped"
	}
	return "Undefined"
}

// Job is one tracked child process. Each child leads its own process
// group with pgid == PID, so signalling the job means signalling -PID.
type Job struct {
	PID     int
	JID     int
	State   State
	Cmdline string
}
