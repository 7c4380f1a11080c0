package stats

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/forgewave/bombard/internal/model"
)

// CSVSink appends one row per stat to a file, writing the header row once
// at creation.
type CSVSink struct {
	mu   sync.Mutex
	file *os.File
}

// NewCSVSink creates (or truncates) path and writes the header row.
func NewCSVSink(path string) (*CSVSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: creating report file: %v", model.ErrSinkWriteFailure, err)
	}
	if _, err := f.WriteString("timestamp, thread_count, status, latency, name\n"); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: writing report header: %v", model.ErrSinkWriteFailure, err)
	}
	return &CSVSink{file: f}, nil
}

// Write appends batch to the report file in a single write. A failed write
// fails the whole batch and is returned for the caller to log.
func (s *CSVSink) Write(batch []model.Stat) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	for _, stat := range batch {
		fmt.Fprintf(&buf, "%s, %d, %d, %d, %s\n",
			stat.Timestamp.Format(time.RFC3339), stat.ConcurrentWorkers, stat.Status, stat.LatencyMS, stat.Name)
	}
	if _, err := s.file.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("%w: %v", model.ErrSinkWriteFailure, err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// InfluxDBSink writes a batch as InfluxDB line-protocol points via a single
// HTTP POST to {URL}/write?db={Name}&precision=ms.
type InfluxDBSink struct {
	http     *http.Client
	url      string
	database string
	user     string
	password string
}

// NewInfluxDBSink builds a sink targeting an InfluxDB 1.x HTTP write
// endpoint. Basic auth is added only when user is non-empty.
func NewInfluxDBSink(url, database, user, password string) *InfluxDBSink {
	return &InfluxDBSink{
		http:     &http.Client{Timeout: 10 * time.Second},
		url:      url,
		database: database,
		user:     user,
		password: password,
	}
}

// Write POSTs batch as line-protocol points: one line per stat in the form
// "stats,request=<name> latency=<ms>,status=<code> <unix-ms>".
func (s *InfluxDBSink) Write(batch []model.Stat) error {
	var buf bytes.Buffer
	for _, stat := range batch {
		fmt.Fprintf(&buf, "stats,request=%s latency=%d,status=%d %d\n",
			stat.Name, stat.LatencyMS, stat.Status, stat.Timestamp.UnixMilli())
	}

	endpoint := fmt.Sprintf("%s/write?db=%s&precision=ms", s.url, s.database)
	req, err := http.NewRequest(http.MethodPost, endpoint, &buf)
	if err != nil {
		return fmt.Errorf("%w: building influxdb request: %v", model.ErrSinkWriteFailure, err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if s.user != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(s.user + ":" + s.password))
		req.Header.Set("Authorization", "Basic "+credentials)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: writing to influxdb: %v", model.ErrSinkWriteFailure, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("%w: influxdb returned status %d", model.ErrSinkWriteFailure, resp.StatusCode)
	}
	return nil
}

// SocketWriter is implemented by the wire layer used to forward a node's
// stats upstream to the hub. Defined here rather than imported from
// wsproto to keep this package free of a dependency on the websocket
// connection lifecycle; wsproto's connection wrapper satisfies it.
type SocketWriter interface {
	WriteStatsBatch(batch []model.Stat) error
	WriteDone() error
}
