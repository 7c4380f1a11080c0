package reporting

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeReport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestReadCSVParsesRowsInTimestampOrder(t *testing.T) {
	content := "timestamp, thread_count, status, latency, name\n" +
		"2026-01-01T00:00:02Z, 4, 200, 20, login\n" +
		"2026-01-01T00:00:01Z, 4, 200, 10, login\n"
	rows, err := ReadCSV(writeReport(t, content))
	if err != nil {
		t.Fatalf("ReadCSV returned error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if !rows[0].Timestamp.Before(rows[1].Timestamp) {
		t.Errorf("rows not sorted by timestamp: %v then %v", rows[0].Timestamp, rows[1].Timestamp)
	}
	if rows[0].LatencyMS != 10 || rows[0].Name != "login" {
		t.Errorf("unexpected first row: %+v", rows[0])
	}
}

func TestReadCSVRejectsEmptyFile(t *testing.T) {
	if _, err := ReadCSV(writeReport(t, "")); err == nil {
		t.Fatal("expected error for empty report file")
	}
}

func TestReadCSVRejectsHeaderOnlyFile(t *testing.T) {
	content := "timestamp, thread_count, status, latency, name\n"
	if _, err := ReadCSV(writeReport(t, content)); err == nil {
		t.Fatal("expected error for report file with no data rows")
	}
}

func TestPercentileClampsToFirstElementAtLowIndex(t *testing.T) {
	sorted := []int64{10, 20, 30, 40}
	if got := percentile(sorted, 1); got != 10 {
		t.Errorf("percentile(1) = %d, want 10", got)
	}
}

func TestPercentileIndexesIntoSortedSlice(t *testing.T) {
	sorted := []int64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
	if got := percentile(sorted, 90); got != 90 {
		t.Errorf("percentile(90) = %d, want 90", got)
	}
}

func TestSummarizeGroupsByNameAndComputesTotals(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []Row{
		{Timestamp: base, ThreadCount: 1, Status: 200, LatencyMS: 10, Name: "login"},
		{Timestamp: base.Add(1 * time.Second), ThreadCount: 1, Status: 200, LatencyMS: 20, Name: "login"},
		{Timestamp: base.Add(2 * time.Second), ThreadCount: 1, Status: 500, LatencyMS: 30, Name: "checkout"},
	}

	summary, err := Summarize(rows)
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}
	if len(summary.Requests) != 2 {
		t.Fatalf("expected 2 request groups, got %d", len(summary.Requests))
	}
	if summary.Requests[0].Name != "login" || summary.Requests[1].Name != "checkout" {
		t.Errorf("expected first-seen order login,checkout, got %s,%s", summary.Requests[0].Name, summary.Requests[1].Name)
	}
	if summary.TotalHits != 3 {
		t.Errorf("TotalHits = %d, want 3", summary.TotalHits)
	}
	if summary.TotalErrors != 1 {
		t.Errorf("TotalErrors = %d, want 1", summary.TotalErrors)
	}
	checkout := summary.Requests[1]
	if checkout.Errors != 1 || checkout.ErrorRate != 100 {
		t.Errorf("checkout group = %+v, want Errors=1 ErrorRate=100", checkout)
	}
}

func TestSummarizeRejectsEmptyInput(t *testing.T) {
	if _, err := Summarize(nil); err == nil {
		t.Fatal("expected error summarizing no rows")
	}
}

func TestExecutionSecondsSpansFirstRequestStartToLastResponse(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 10, 0, time.UTC)
	rows := []Row{
		{Timestamp: base, LatencyMS: 1000},
		{Timestamp: base.Add(5 * time.Second), LatencyMS: 200},
	}
	got := executionSeconds(rows)
	want := 6.0
	if got != want {
		t.Errorf("executionSeconds = %v, want %v", got, want)
	}
}

func TestExecutionSecondsFloorsAtOneSecond(t *testing.T) {
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := []Row{
		{Timestamp: ts, LatencyMS: 0},
		{Timestamp: ts, LatencyMS: 0},
	}
	if got := executionSeconds(rows); got != 1 {
		t.Errorf("executionSeconds = %v, want 1 for a zero-width window", got)
	}
}
