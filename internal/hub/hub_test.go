package hub

import (
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/forgewave/bombard/internal/audit"
	"github.com/forgewave/bombard/internal/model"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	log := zap.NewNop()
	auditLog := audit.NewLogger(log, 100)
	return New(Config{
		Log:                 log,
		AuditLog:            auditLog,
		ReportDir:           t.TempDir(),
		AllowPrivateTargets: true,
	})
}

func validAdmission() AdmissionRequest {
	return AdmissionRequest{
		Config:   model.ExecConfig{ThreadCount: 1, Iterations: 1, RampUpTime: 1},
		Requests: []model.RequestTemplate{{Name: "ping", URL: "https://example.com/ping"}},
		EnvMap:   map[string]string{},
	}
}

func TestAdmitRejectsWhenNoNodesRegistered(t *testing.T) {
	h := newTestHub(t)
	if _, err := h.Admit(validAdmission()); err != ErrNoNodesRegistered {
		t.Fatalf("Admit() error = %v, want ErrNoNodesRegistered", err)
	}
}

func TestAdmitRejectsInvalidTarget(t *testing.T) {
	h := newTestHub(t)
	h.registry.Register("node-1")

	req := validAdmission()
	req.Requests[0].URL = "http://192.168.1.5/ping"
	h.allowPrivateTargets = false

	if _, err := h.Admit(req); err == nil {
		t.Fatal("expected Admit to reject a private-network target")
	}
}

func TestAdmitDispatchesToEveryRegisteredNode(t *testing.T) {
	h := newTestHub(t)
	send1 := h.registry.Register("node-1")
	send2 := h.registry.Register("node-2")

	jobID, err := h.Admit(validAdmission())
	if err != nil {
		t.Fatalf("Admit() returned error: %v", err)
	}
	if jobID == "" {
		t.Fatal("expected a non-empty job id")
	}

	select {
	case <-send1:
	case <-time.After(time.Second):
		t.Fatal("node-1 never received the dispatched job")
	}
	select {
	case <-send2:
	case <-time.After(time.Second):
		t.Fatal("node-2 never received the dispatched job")
	}

	available, bombarding := h.NodeCounts()
	if available != 0 || bombarding != 2 {
		t.Errorf("NodeCounts() = (%d, %d), want (0, 2)", available, bombarding)
	}
}

func TestAdmitRejectsSecondJobWhileNodeBombarding(t *testing.T) {
	h := newTestHub(t)
	h.registry.Register("node-1")

	if _, err := h.Admit(validAdmission()); err != nil {
		t.Fatalf("first Admit() returned error: %v", err)
	}
	if _, err := h.Admit(validAdmission()); err != ErrNodesBusy {
		t.Fatalf("second Admit() error = %v, want ErrNodesBusy", err)
	}
}

func TestNodeDoneRetiresJobOnceEveryNodeReports(t *testing.T) {
	h := newTestHub(t)
	h.registry.Register("node-1")
	h.registry.Register("node-2")

	jobID, err := h.Admit(validAdmission())
	if err != nil {
		t.Fatalf("Admit() returned error: %v", err)
	}

	h.NodeDone("node-1")
	h.mu.Lock()
	stillActive := h.job != nil
	h.mu.Unlock()
	if !stillActive {
		t.Fatal("job should still be active after only one of two nodes reports done")
	}

	h.NodeDone("node-2")
	h.mu.Lock()
	retired := h.job == nil
	h.mu.Unlock()
	if !retired {
		t.Fatalf("job %s should be retired once every dispatched node reports done", jobID)
	}
}

func TestRequestStopWithNoActiveJobReturnsFalse(t *testing.T) {
	h := newTestHub(t)
	if _, ok := h.RequestStop(); ok {
		t.Fatal("expected RequestStop to report no active job")
	}
}

func TestRequestStopMarksActiveJob(t *testing.T) {
	h := newTestHub(t)
	h.registry.Register("node-1")
	jobID, err := h.Admit(validAdmission())
	if err != nil {
		t.Fatalf("Admit() returned error: %v", err)
	}

	stoppedID, ok := h.RequestStop()
	if !ok || stoppedID != jobID {
		t.Fatalf("RequestStop() = (%q, %v), want (%q, true)", stoppedID, ok, jobID)
	}
}
