package stats

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/forgewave/bombard/internal/model"
)

type fakeSocket struct {
	mu      sync.Mutex
	batches [][]model.Stat
	done    bool
}

func (f *fakeSocket) WriteStatsBatch(batch []model.Stat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, batch)
	return nil
}

func (f *fakeSocket) WriteDone() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.done = true
	return nil
}

func TestPipelineFlushesToCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	csvSink, err := NewCSVSink(path)
	if err != nil {
		t.Fatalf("NewCSVSink returned error: %v", err)
	}

	p := New(Config{CSV: csvSink}, zap.NewNop())
	done := make(chan struct{})
	go func() {
		p.Run()
		close(done)
	}()

	for i := 0; i < 3; i++ {
		p.Emit(model.Stat{Timestamp: time.Now(), Name: "getHome", Status: 200, LatencyMS: 10})
	}
	p.Stop()
	<-done
	csvSink.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading report file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 4 { // header + 3 rows
		t.Errorf("expected 4 lines, got %d: %q", len(lines), data)
	}
}

func TestPipelineDistributedSendsDoneFrame(t *testing.T) {
	socket := &fakeSocket{}
	p := New(Config{Distributed: true, Socket: socket}, zap.NewNop())

	done := make(chan struct{})
	go func() {
		p.Run()
		close(done)
	}()

	p.Emit(model.Stat{Timestamp: time.Now(), Name: "x", Status: 200, LatencyMS: 5})
	p.Stop()
	<-done

	if !socket.done {
		t.Error("expected WriteDone to be called for distributed pipeline")
	}
	if len(socket.batches) != 1 || len(socket.batches[0]) != 1 {
		t.Errorf("expected one batch of one stat, got %v", socket.batches)
	}
}

func TestPipelineFlushesAtThreshold(t *testing.T) {
	socket := &fakeSocket{}
	p := New(Config{Distributed: true, Socket: socket}, zap.NewNop())

	done := make(chan struct{})
	go func() {
		p.Run()
		close(done)
	}()

	for i := 0; i < batchThreshold; i++ {
		p.Emit(model.Stat{Timestamp: time.Now(), Name: "x", Status: 200, LatencyMS: 1})
	}

	// Give the consumer a moment to flush the full batch before Stop.
	time.Sleep(50 * time.Millisecond)
	p.Stop()
	<-done

	socket.mu.Lock()
	defer socket.mu.Unlock()
	if len(socket.batches) == 0 {
		t.Fatal("expected at least one batch flushed at threshold")
	}
	if len(socket.batches[0]) != batchThreshold {
		t.Errorf("expected first batch to have %d stats, got %d", batchThreshold, len(socket.batches[0]))
	}
}
