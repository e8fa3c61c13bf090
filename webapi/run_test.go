package webapi

import (
	"errors"
	"testing"
)

func TestRun_SnapshotReflectsProgress(t *testing.T) {
	r := &Run{id: "run-1", status: RunStatusRunning}
	r.setTotalSteps(10)
	r.setStepsDone(3)

	snap := r.snapshot()
	if snap.ID != "run-1" {
		t.Errorf("ID = %q, want run-1", snap.ID)
	}
	if snap.Status != RunStatusRunning {
		t.Errorf("Status = %q, want running", snap.Status)
	}
	if snap.StepsDone != 3 || snap.TotalSteps != 10 {
		t.Errorf("StepsDone/TotalSteps = %d/%d, want 3/10", snap.StepsDone, snap.TotalSteps)
	}
	if r.isDone() {
		t.Errorf("isDone() = true, want false while running")
	}
}

func TestRun_FailSetsErrorAndCompletedAt(t *testing.T) {
	r := &Run{id: "run-2", status: RunStatusRunning}
	r.fail(errors.New("boom"))

	snap := r.snapshot()
	if snap.Status != RunStatusFailed {
		t.Errorf("Status = %q, want failed", snap.Status)
	}
	if snap.Error != "boom" {
		t.Errorf("Error = %q, want boom", snap.Error)
	}
	if snap.CompletedAt == nil {
		t.Errorf("CompletedAt not set after fail()")
	}
	if !r.isDone() {
		t.Errorf("isDone() = false, want true after fail()")
	}
}

func TestRun_CompleteMarksDone(t *testing.T) {
	r := &Run{id: "run-3", status: RunStatusRunning}
	r.complete()

	if !r.isDone() {
		t.Errorf("isDone() = false, want true after complete()")
	}
	snap := r.snapshot()
	if snap.Status != RunStatusCompleted {
		t.Errorf("Status = %q, want completed", snap.Status)
	}
	if snap.Error != "" {
		t.Errorf("Error = %q, want empty on success", snap.Error)
	}
}

type fakeConn struct {
	messages [][]byte
	failAt   int
	calls    int
}

func (f *fakeConn) WriteMessage(messageType int, data []byte) error {
	f.calls++
	if f.failAt > 0 && f.calls >= f.failAt {
		return errors.New("connection closed")
	}
	f.messages = append(f.messages, data)
	return nil
}

func TestServer_SendSnapshot_MarshalsRunState(t *testing.T) {
	s := &Server{}
	r := &Run{id: "run-4", status: RunStatusRunning}
	r.setTotalSteps(5)
	r.setStepsDone(2)

	conn := &fakeConn{}
	if err := s.sendSnapshot(conn, r); err != nil {
		t.Fatalf("sendSnapshot failed: %v", err)
	}
	if len(conn.messages) != 1 {
		t.Fatalf("expected 1 message written, got %d", len(conn.messages))
	}
	if got := string(conn.messages[0]); got == "" {
		t.Errorf("expected non-empty JSON payload")
	}
}

func TestServer_SendSnapshot_PropagatesWriteError(t *testing.T) {
	s := &Server{}
	r := &Run{id: "run-5", status: RunStatusRunning}
	conn := &fakeConn{failAt: 1}

	if err := s.sendSnapshot(conn, r); err == nil {
		t.Errorf("expected an error when the connection write fails")
	}
}
