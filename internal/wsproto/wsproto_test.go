package wsproto

import (
	"encoding/json"
	"testing"

	"github.com/forgewave/bombard/internal/model"
)

func TestParseFrameDone(t *testing.T) {
	kind, _, _ := ParseFrame([]byte("done"))
	if kind != FrameDone {
		t.Errorf("expected FrameDone, got %v", kind)
	}
}

func TestParseFrameJob(t *testing.T) {
	job := model.Job{ID: "job-1", Requests: []model.RequestTemplate{{Name: "getHome"}}}
	payload, _ := json.Marshal(jobEnvelope{Kind: "job", Job: job})

	kind, parsed, _ := ParseFrame(payload)
	if kind != FrameJob {
		t.Fatalf("expected FrameJob, got %v", kind)
	}
	if parsed.ID != "job-1" || len(parsed.Requests) != 1 {
		t.Errorf("unexpected decoded job: %+v", parsed)
	}
}

func TestParseFrameStatsBatch(t *testing.T) {
	payload, _ := json.Marshal(statsEnvelope{Kind: "stats", Stats: []model.Stat{{Name: "getHome", Status: 200}}})

	kind, _, stats := ParseFrame(payload)
	if kind != FrameStatsBatch {
		t.Fatalf("expected FrameStatsBatch, got %v", kind)
	}
	if len(stats) != 1 || stats[0].Name != "getHome" {
		t.Errorf("unexpected decoded stats: %+v", stats)
	}
}

func TestParseFrameUnknown(t *testing.T) {
	kind, _, _ := ParseFrame([]byte(`{"kind":"mystery"}`))
	if kind != FrameUnknown {
		t.Errorf("expected FrameUnknown, got %v", kind)
	}
}
