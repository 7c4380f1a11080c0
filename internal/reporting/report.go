// Package reporting reads back a completed run's CSV report and renders
// per-request and summary tables from it, for runs whose report file is
// inspected after the fact.
package reporting

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Row is one CSV line written by a stats.CSVSink: one HTTP call's outcome.
type Row struct {
	Timestamp   time.Time
	ThreadCount int
	Status      int
	LatencyMS   int64
	Name        string
}

// ReadCSV parses a report file written by stats.CSVSink. Fields are comma
// separated with a leading space on every column but the first, matching
// the sink's "%s, %d, %d, %d, %s" row format.
func ReadCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening report file: %w", err)
	}
	defer f.Close()
	return parseCSV(f)
}

func parseCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing report file: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("report file has no rows")
	}

	rows := make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) < 5 {
			continue
		}
		row, err := parseRow(rec)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("report file declares no data rows")
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Timestamp.Before(rows[j].Timestamp) })
	return rows, nil
}

func parseRow(rec []string) (Row, error) {
	ts, err := time.Parse(time.RFC3339, strings.TrimSpace(rec[0]))
	if err != nil {
		return Row{}, fmt.Errorf("parsing timestamp %q: %w", rec[0], err)
	}
	threadCount, err := strconv.Atoi(strings.TrimSpace(rec[1]))
	if err != nil {
		return Row{}, fmt.Errorf("parsing thread_count %q: %w", rec[1], err)
	}
	status, err := strconv.Atoi(strings.TrimSpace(rec[2]))
	if err != nil {
		return Row{}, fmt.Errorf("parsing status %q: %w", rec[2], err)
	}
	latency, err := strconv.ParseInt(strings.TrimSpace(rec[3]), 10, 64)
	if err != nil {
		return Row{}, fmt.Errorf("parsing latency %q: %w", rec[3], err)
	}
	return Row{
		Timestamp:   ts,
		ThreadCount: threadCount,
		Status:      status,
		LatencyMS:   latency,
		Name:        strings.TrimSpace(rec[4]),
	}, nil
}

// RequestSummary aggregates every row sharing one request name.
type RequestSummary struct {
	Name       string
	TotalHits  int
	HitsPerSec float64
	MinMS      int64
	AvgMS      int64
	MaxMS      int64
	P90MS      int64
	P95MS      int64
	P99MS      int64
	Errors     int
	ErrorRate  float64
}

// Summary is the full report: one row per request name plus the totals.
type Summary struct {
	Requests         []RequestSummary
	ExecutionSeconds float64
	TotalHits        int
	TotalHitsPerSec  float64
	TotalErrors      int
	ErrorRate        float64
}

// Summarize computes per-request and overall statistics from a parsed
// report, in first-seen request-name order.
func Summarize(rows []Row) (Summary, error) {
	if len(rows) == 0 {
		return Summary{}, fmt.Errorf("no rows to summarize")
	}

	execSeconds := executionSeconds(rows)

	byName := map[string][]Row{}
	var order []string
	for _, row := range rows {
		if _, seen := byName[row.Name]; !seen {
			order = append(order, row.Name)
		}
		byName[row.Name] = append(byName[row.Name], row)
	}

	summary := Summary{ExecutionSeconds: execSeconds}
	for _, name := range order {
		group := byName[name]
		rs := summarizeGroup(name, group, execSeconds)
		summary.Requests = append(summary.Requests, rs)
		summary.TotalHits += rs.TotalHits
		summary.TotalErrors += rs.Errors
	}

	if execSeconds > 0 {
		summary.TotalHitsPerSec = float64(summary.TotalHits) / execSeconds
	}
	if summary.TotalHits > 0 {
		summary.ErrorRate = float64(summary.TotalErrors) * 100 / float64(summary.TotalHits)
	}
	return summary, nil
}

func summarizeGroup(name string, rows []Row, execSeconds float64) RequestSummary {
	latencies := make([]int64, len(rows))
	var sum int64
	errors := 0
	for i, row := range rows {
		latencies[i] = row.LatencyMS
		sum += row.LatencyMS
		if row.Status >= 400 {
			errors++
		}
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	num := len(rows)
	rs := RequestSummary{
		Name:      name,
		TotalHits: num,
		MinMS:     latencies[0],
		MaxMS:     latencies[num-1],
		AvgMS:     sum / int64(num),
		P90MS:     percentile(latencies, 90),
		P95MS:     percentile(latencies, 95),
		P99MS:     percentile(latencies, 99),
		Errors:    errors,
	}
	if execSeconds > 0 {
		rs.HitsPerSec = float64(num) / execSeconds
	}
	if num > 0 {
		rs.ErrorRate = float64(errors) * 100 / float64(num)
	}
	return rs
}

// percentile follows original_source's get_percentile: index = p*len/100,
// clamped to the first element when that index is zero.
func percentile(sorted []int64, p int) int64 {
	length := len(sorted)
	idx := p * length / 100
	if idx == 0 {
		return sorted[0]
	}
	return sorted[idx-1]
}

// executionSeconds derives the run's wall-clock span from the first row's
// timestamp minus its own latency (the moment that request was issued)
// through the last row's timestamp, mirroring original_source's
// get_execution_time.
func executionSeconds(rows []Row) float64 {
	start := rows[0].Timestamp.Add(-time.Duration(rows[0].LatencyMS) * time.Millisecond)
	end := rows[len(rows)-1].Timestamp
	seconds := end.Sub(start).Seconds()
	if seconds <= 0 {
		return 1
	}
	return seconds
}
