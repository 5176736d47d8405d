package job

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// DefaultCapacity matches the original shell's 16-job limit.
const DefaultCapacity = 16

// Table is the shell's registry of live jobs. It is a fixed array of
// slots: a slot with PID 0 is unused. Lookups are linear scans; the
// capacity is small and fixed, so a hash index would buy nothing.
//
// The mutex serializes the REPL against the signal router. The cond
// is broadcast on every state change so WaitFg can sleep instead of
// polling.
type Table struct {
	mu   sync.Mutex
	cond *sync.Cond

	slots   []Job
	verbose bool
	diag    io.Writer
}

// NewTable returns an empty table with the given capacity, or
// DefaultCapacity if capacity is not positive.
func NewTable(capacity int) *Table {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	t := &Table{
		slots: make([]Job, capacity),
		diag:  os.Stdout,
	}
	t.cond = sync.NewCond(&t.mu)
	return t
}

// SetVerbose enables a diagnostic line on every successful Add,
// written to w.
func (t *Table) SetVerbose(w io.Writer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.verbose = true
	if w != nil {
		t.diag = w
	}
}

// Capacity returns the fixed number of slots.
func (t *Table) Capacity() int {
	return len(t.slots)
}

// freeJID returns the smallest job id not used by any live slot, or 0
// if every id up to capacity is taken. Caller holds t.mu.
func (t *Table) freeJID() int {
	taken := make([]bool, len(t.slots)+1)
	for i := range t.slots {
		if jid := t.slots[i].JID; jid > 0 && jid <= len(t.slots) {
			taken[jid] = true
		}
	}
	for id := 1; id <= len(t.slots); id++ {
		if !taken[id] {
			return id
		}
	}
	return 0
}

// add registers pid in the first unused slot. Caller holds t.mu.
func (t *Table) add(pid int, state State, cmdline string) int {
	if pid < 1 {
		return 0
	}
	jid := t.freeJID()
	if jid == 0 {
		return 0
	}
	for i := range t.slots {
		if t.slots[i].PID == 0 {
			t.slots[i] = Job{PID: pid, JID: jid, State: state, Cmdline: cmdline}
			if t.verbose {
				fmt.Fprintf(t.diag, "Added job [%d] %d %s\n", jid, pid, cmdline)
			}
			return jid
		}
	}
	return 0
}

// Add registers a new job and assigns it the smallest free job id.
// It fails when pid is not a valid process id or the table is full.
func (t *Table) Add(pid int, state State, cmdline string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.add(pid, state, cmdline) != 0
}

// AddStarted starts a child and registers it as a single atomic step:
// start runs with the table lock held, so the reaper cannot apply a
// termination or stop status for the new pid before the job exists.
// This is the moral equivalent of blocking SIGCHLD across fork and
// registration.
//
// The returned jid is 0 when the table was full; the child is running
// regardless and will still be reaped, it just is not addressable as
// a job.
func (t *Table) AddStarted(state State, cmdline string, start func() (int, error)) (pid, jid int, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	pid, err = start()
	if err != nil {
		return 0, 0, err
	}
	jid = t.add(pid, state, cmdline)
	return pid, jid, nil
}

// Remove clears the slot holding pid and reclaims its job id. It
// returns false if no live job has that pid. Called exactly once per
// job, by the reaper, when the process has terminated.
func (t *Table) Remove(pid int) bool {
	if pid < 1 {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.slots {
		if t.slots[i].PID == pid {
			t.slots[i] = Job{}
			t.cond.Broadcast()
			return true
		}
	}
	return false
}

// SetState updates the state of the job with the given pid. It
// returns false if the pid is not tracked.
func (t *Table) SetState(pid int, state State) bool {
	if pid < 1 {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.slots {
		if t.slots[i].PID == pid {
			t.slots[i].State = state
			t.cond.Broadcast()
			return true
		}
	}
	return false
}

// fgPID returns the pid of the foreground job, 0 if none. Caller
// holds t.mu.
func (t *Table) fgPID() int {
	for i := range t.slots {
		if t.slots[i].PID != 0 && t.slots[i].State == Foreground {
			return t.slots[i].PID
		}
	}
	return 0
}

// FgPID returns the pid of the current foreground job, or 0 if there
// is none.
func (t *Table) FgPID() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fgPID()
}

// ByPID returns a copy of the job with the given pid.
func (t *Table) ByPID(pid int) (Job, bool) {
	if pid < 1 {
		return Job{}, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.slots {
		if t.slots[i].PID == pid {
			return t.slots[i], true
		}
	}
	return Job{}, false
}

// ByJID returns a copy of the job with the given job id.
func (t *Table) ByJID(jid int) (Job, bool) {
	if jid < 1 {
		return Job{}, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.slots {
		if t.slots[i].PID != 0 && t.slots[i].JID == jid {
			return t.slots[i], true
		}
	}
	return Job{}, false
}

// JIDOf maps a pid to its job id, 0 if the pid is not tracked.
func (t *Table) JIDOf(pid int) int {
	j, ok := t.ByPID(pid)
	if !ok {
		return 0
	}
	return j.JID
}

// Jobs returns a consistent snapshot of the live jobs, in slot order.
func (t *Table) Jobs() []Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	var jobs []Job
	for i := range t.slots {
		if t.slots[i].PID != 0 {
			jobs = append(jobs, t.slots[i])
		}
	}
	return jobs
}

// List writes the job table to w in the shell's display format. The
// snapshot is taken under the lock, so a reap landing mid-listing
// cannot corrupt the output.
func (t *Table) List(w io.Writer) {
	for _, j := range t.Jobs() {
		fmt.Fprintf(w, "[%d] (%d) %s %s\n", j.JID, j.PID, j.State, j.Cmdline)
	}
}

// WaitFg blocks until pid is no longer the foreground job: either the
// reaper removed it (terminated) or moved it to Stopped. The cond
// wait is atomic with releasing the lock, so a state change between
// the check and the sleep cannot be missed.
func (t *Table) WaitFg(pid int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for t.fgPID() == pid {
		t.cond.Wait()
	}
}
