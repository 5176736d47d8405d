package job

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestAddAssignsSmallestFreeID(t *testing.T) {
	tbl := NewTable(8)

	for i, pid := range []int{101, 102, 103} {
		if !tbl.Add(pid, Background, "cmd") {
			t.Fatalf("add %d failed", pid)
		}
		if jid := tbl.JIDOf(pid); jid != i+1 {
			t.Errorf("expected jid %d for pid %d, got %d", i+1, pid, jid)
		}
	}

	if !tbl.Remove(102) {
		t.Fatal("remove 102 failed")
	}
	if !tbl.Add(104, Background, "cmd") {
		t.Fatal("add 104 failed")
	}
	if jid := tbl.JIDOf(104); jid != 2 {
		t.Errorf("expected reclaimed jid 2, got %d", jid)
	}
}

func TestJIDsUniqueUnderChurn(t *testing.T) {
	tbl := NewTable(8)

	pid := 100
	live := map[int]bool{}
	for round := 0; round < 50; round++ {
		pid++
		if tbl.Add(pid, Background, "cmd") {
			live[pid] = true
		}
		if round%3 == 0 {
			for p := range live {
				tbl.Remove(p)
				delete(live, p)
				break
			}
		}

		seen := map[int]bool{}
		for _, j := range tbl.Jobs() {
			if seen[j.JID] {
				t.Fatalf("round %d: duplicate jid %d", round, j.JID)
			}
			seen[j.JID] = true
		}
	}
}

func TestAddRejectsInvalidPID(t *testing.T) {
	tbl := NewTable(4)
	if tbl.Add(0, Background, "cmd") {
		t.Error("expected add with pid 0 to fail")
	}
	if tbl.Add(-5, Background, "cmd") {
		t.Error("expected add with negative pid to fail")
	}
}

func TestAddFailsWhenFull(t *testing.T) {
	tbl := NewTable(2)
	if !tbl.Add(101, Background, "a") || !tbl.Add(102, Background, "b") {
		t.Fatal("setup adds failed")
	}
	if tbl.Add(103, Background, "c") {
		t.Error("expected add on full table to fail")
	}
	tbl.Remove(101)
	if !tbl.Add(103, Background, "c") {
		t.Error("expected add to succeed after removal")
	}
}

func TestLookupRoundTrip(t *testing.T) {
	tbl := NewTable(4)
	if !tbl.Add(200, Stopped, "sleep 100") {
		t.Fatal("add failed")
	}

	byPID, ok := tbl.ByPID(200)
	if !ok {
		t.Fatal("ByPID failed for live job")
	}
	byJID, ok := tbl.ByJID(byPID.JID)
	if !ok {
		t.Fatal("ByJID failed for live job")
	}
	if byPID != byJID {
		t.Errorf("lookups disagree: %+v vs %+v", byPID, byJID)
	}
	if byPID.State != Stopped || byPID.Cmdline != "sleep 100" {
		t.Errorf("unexpected job fields: %+v", byPID)
	}

	tbl.Remove(200)
	if _, ok := tbl.ByPID(200); ok {
		t.Error("ByPID succeeded after removal")
	}
	if _, ok := tbl.ByJID(byPID.JID); ok {
		t.Error("ByJID succeeded after removal")
	}
}

func TestFgPID(t *testing.T) {
	tbl := NewTable(4)
	tbl.Add(301, Background, "a")
	tbl.Add(302, Background, "b")
	if pid := tbl.FgPID(); pid != 0 {
		t.Errorf("expected no foreground job, got pid %d", pid)
	}

	tbl.Add(303, Foreground, "c")
	if pid := tbl.FgPID(); pid != 303 {
		t.Errorf("expected foreground pid 303, got %d", pid)
	}

	fg := 0
	for _, j := range tbl.Jobs() {
		if j.State == Foreground {
			fg++
		}
	}
	if fg != 1 {
		t.Errorf("expected exactly 1 foreground job, got %d", fg)
	}
}

func TestWaitFgReturnsOnRemove(t *testing.T) {
	tbl := NewTable(4)
	tbl.Add(400, Foreground, "cmd")

	done := make(chan struct{})
	go func() {
		tbl.WaitFg(400)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	tbl.Remove(400)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("WaitFg did not return after job removal")
	}
}

func TestWaitFgReturnsOnStop(t *testing.T) {
	tbl := NewTable(4)
	tbl.Add(401, Foreground, "cmd")

	done := make(chan struct{})
	go func() {
		tbl.WaitFg(401)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	tbl.SetState(401, Stopped)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("WaitFg did not return after job stopped")
	}
}

func TestAddStartedRegistersBeforeReaper(t *testing.T) {
	tbl := NewTable(4)

	// A concurrent Remove (the reaper acting on an instantly-dead
	// child) must not run before the registration completes, even
	// though it is issued mid-start.
	removed := make(chan bool, 1)
	pid, jid, err := tbl.AddStarted(Background, "cmd", func() (int, error) {
		go func() {
			removed <- tbl.Remove(500)
		}()
		time.Sleep(50 * time.Millisecond)
		return 500, nil
	})
	if err != nil {
		t.Fatalf("AddStarted failed: %v", err)
	}
	if pid != 500 || jid == 0 {
		t.Fatalf("expected pid 500 with a jid, got pid %d jid %d", pid, jid)
	}

	select {
	case ok := <-removed:
		if !ok {
			t.Error("reaper ran before the job was registered")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("concurrent remove never completed")
	}
}

func TestListFormat(t *testing.T) {
	tbl := NewTable(4)
	tbl.Add(601, Background, "sleep 100 &")
	tbl.Add(602, Stopped, "cat")

	var buf bytes.Buffer
	tbl.List(&buf)

	want := "[1] (601) Running sleep 100 &\n[2] (602) Stopped cat\n"
	if got := buf.String(); got != want {
		t.Errorf("unexpected listing:\ngot  %q\nwant %q", got, want)
	}
}

func TestVerboseAdd(t *testing.T) {
	tbl := NewTable(4)
	var buf bytes.Buffer
	tbl.SetVerbose(&buf)

	tbl.Add(700, Background, "echo hi")
	if !strings.Contains(buf.String(), "Added job [1] 700 echo hi") {
		t.Errorf("expected verbose add line, got %q", buf.String())
	}
}
