package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/forgewave/bombard/internal/httpclient"
	"github.com/forgewave/bombard/internal/model"
	"github.com/forgewave/bombard/internal/reqcache"
	"github.com/forgewave/bombard/internal/stats"
)

func newTestClient(t *testing.T) *httpclient.Client {
	t.Helper()
	client, err := httpclient.Build(model.ExecConfig{DefaultTimeoutMS: 5000}, zap.NewNop())
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	return client
}

func TestEngineRunIterationMode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := model.ExecConfig{ThreadCount: 2, Iterations: 3, RampUpTime: 1}
	templates := []model.RequestTemplate{{ID: "t1", Name: "getOK", Method: "GET", URL: server.URL}}

	reportPath := filepath.Join(t.TempDir(), "report.csv")
	csvSink, err := stats.NewCSVSink(reportPath)
	if err != nil {
		t.Fatalf("NewCSVSink returned error: %v", err)
	}
	pipeline := stats.New(stats.Config{CSV: csvSink}, zap.NewNop())

	e := New(cfg, templates, map[string]string{}, newTestClient(t), reqcache.New(), nil, pipeline, zap.NewNop())
	e.Run(context.Background())
	csvSink.Close()

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	// header + 2 workers * 3 iterations = 7 lines
	if len(lines) != 7 {
		t.Errorf("expected 7 lines (header + 6 rows), got %d: %q", len(lines), data)
	}
}

func TestEngineRunTimeMode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := model.ExecConfig{ThreadCount: 1, ExecutionTime: 1, RampUpTime: 1}
	templates := []model.RequestTemplate{{ID: "t1", Name: "getOK", Method: "GET", URL: server.URL}}

	reportPath := filepath.Join(t.TempDir(), "report.csv")
	csvSink, err := stats.NewCSVSink(reportPath)
	if err != nil {
		t.Fatalf("NewCSVSink returned error: %v", err)
	}
	pipeline := stats.New(stats.Config{CSV: csvSink}, zap.NewNop())

	e := New(cfg, templates, map[string]string{}, newTestClient(t), reqcache.New(), nil, pipeline, zap.NewNop())

	start := time.Now()
	e.Run(context.Background())
	csvSink.Close()

	if time.Since(start) < time.Second {
		t.Error("expected run to last at least execution_time seconds")
	}
}

func TestEngineStopsOnErrorWithoutContinueOnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/fail") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := model.ExecConfig{ThreadCount: 1, Iterations: 2, RampUpTime: 1, ContinueOnError: false}
	templates := []model.RequestTemplate{
		{ID: "t1", Name: "getOK", Method: "GET", URL: server.URL + "/ok"},
		{ID: "t2", Name: "getFail", Method: "GET", URL: server.URL + "/fail"},
		{ID: "t3", Name: "getOK2", Method: "GET", URL: server.URL + "/ok"},
	}

	reportPath := filepath.Join(t.TempDir(), "report.csv")
	csvSink, err := stats.NewCSVSink(reportPath)
	if err != nil {
		t.Fatalf("NewCSVSink returned error: %v", err)
	}
	pipeline := stats.New(stats.Config{CSV: csvSink}, zap.NewNop())

	e := New(cfg, templates, map[string]string{}, newTestClient(t), reqcache.New(), nil, pipeline, zap.NewNop())
	e.Run(context.Background())
	csvSink.Close()

	data, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	// header + 2 iterations * 2 stats each (getOK, getFail; getOK2 skipped) = 5 lines
	if len(lines) != 5 {
		t.Errorf("expected 5 lines (header + 4 rows), got %d: %q", len(lines), data)
	}
}
