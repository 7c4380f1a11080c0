// Package hub implements C9: a REST admission endpoint and websocket
// registry that fans a single job out to every registered node and
// aggregates the stats they report back into one consolidated report.
package hub

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/forgewave/bombard/internal/audit"
	"github.com/forgewave/bombard/internal/metrics"
	"github.com/forgewave/bombard/internal/model"
	"github.com/forgewave/bombard/internal/scenario"
	"github.com/forgewave/bombard/internal/stats"
	"github.com/forgewave/bombard/internal/storage/postgres"
	"github.com/forgewave/bombard/internal/wsproto"
)

func jobPayload(job model.Job) ([]byte, error) {
	return wsproto.EncodeJob(job)
}

// activeJob tracks the one job the hub may have in flight at a time.
// Admission refuses a new job while any node is bombarding, so at most one
// activeJob exists; it is retired once every dispatched node reports done.
type activeJob struct {
	id            string
	pipeline      *stats.Pipeline
	expectedNodes int
	doneCount     int
	totalStats    int64
	stopRequested bool
}

// Hub owns the node registry, the current job's aggregation pipeline, and
// the optional run-report persistence and metrics collaborators.
type Hub struct {
	registry *Registry
	log      *zap.Logger
	auditLog *audit.Logger
	metrics  *metrics.Collector
	reports  *postgres.RunReportRepository

	reportDir           string
	allowPrivateTargets bool

	mu  sync.Mutex
	job *activeJob
}

// Config configures a Hub's optional collaborators. Reports is nil when no
// database DSN was configured; run reports are then tracked in memory only
// for the lifetime of the process.
type Config struct {
	Log                 *zap.Logger
	AuditLog            *audit.Logger
	Collector           *metrics.Collector
	Reports             *postgres.RunReportRepository
	ReportDir           string
	AllowPrivateTargets bool
}

// New returns a Hub ready to register node connections and admit jobs.
func New(cfg Config) *Hub {
	registry := NewRegistry(cfg.Log, cfg.AuditLog, cfg.Collector)
	return &Hub{
		registry:            registry,
		log:                 cfg.Log,
		auditLog:            cfg.AuditLog,
		metrics:             cfg.Collector,
		reports:             cfg.Reports,
		reportDir:           cfg.ReportDir,
		allowPrivateTargets: cfg.AllowPrivateTargets,
	}
}

// AdmissionRequest is the parsed form of a POST /bombardier/v1/bombard
// multipart request.
type AdmissionRequest struct {
	Config      model.ExecConfig
	Requests    []model.RequestTemplate
	EnvMap      map[string]string
	DataContent []byte
}

// ErrNoNodesRegistered and ErrNodesBusy are the two admission rejection
// reasons the REST handler maps to 409 Conflict.
var (
	ErrNoNodesRegistered = fmt.Errorf("%w: no nodes registered", model.ErrHubAdmission)
	ErrNodesBusy         = fmt.Errorf("%w: a job is already running", model.ErrHubAdmission)
)

// Admit validates a parsed admission request, builds a Job, and fans it
// out to every registered node. Returns the new job's id.
func (h *Hub) Admit(req AdmissionRequest) (string, error) {
	available, bombarding := h.registry.Counts()
	if available+bombarding == 0 {
		return "", ErrNoNodesRegistered
	}
	if h.registry.AnyBombarding() {
		return "", ErrNodesBusy
	}

	if _, err := req.Config.Validate(); err != nil {
		return "", err
	}
	if err := scenario.ValidateTargets(req.Requests, h.allowPrivateTargets); err != nil {
		return "", err
	}

	jobID := uuid.NewString()
	job := model.Job{
		ID:          jobID,
		Config:      req.Config,
		EnvMap:      req.EnvMap,
		Requests:    req.Requests,
		DataContent: req.DataContent,
	}

	payload, err := jobPayload(job)
	if err != nil {
		return "", fmt.Errorf("%w: encoding job: %v", model.ErrHubAdmission, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	dispatched := h.registry.DispatchToAll(payload)
	if dispatched == 0 {
		return "", ErrNoNodesRegistered
	}

	pipeline := h.newAggregationPipeline(jobID, req.Config)
	go pipeline.Run()

	h.job = &activeJob{id: jobID, pipeline: pipeline, expectedNodes: dispatched}

	if h.reports != nil {
		report := &model.RunReport{RunID: jobID, NodeCount: dispatched, DispatchedAt: time.Now()}
		if err := h.reports.Create(report); err != nil {
			h.log.Error("failed to persist run report", zap.Error(err))
		}
	}
	h.auditLog.Log(audit.AuditEvent{EventType: audit.EventJobDispatched, ResourceID: jobID, Details: map[string]interface{}{"node_count": dispatched}})
	h.log.Info("job dispatched", zap.String("job_id", jobID), zap.Int("node_count", dispatched))

	return jobID, nil
}

func (h *Hub) newAggregationPipeline(jobID string, cfg model.ExecConfig) *stats.Pipeline {
	sinkCfg := stats.Config{}

	reportPath := cfg.ReportFile
	if reportPath == "" {
		reportPath = h.reportDir + "/" + jobID + ".csv"
	}
	if csvSink, err := stats.NewCSVSink(reportPath); err != nil {
		h.log.Error("failed to open aggregate report sink", zap.Error(err))
	} else {
		sinkCfg.CSV = csvSink
	}

	if cfg.Database.Type == "influxdb" && cfg.Database.URL != "" {
		sinkCfg.InfluxDB = stats.NewInfluxDBSink(cfg.Database.URL, cfg.Database.Name, cfg.Database.User, cfg.Database.Password)
	} else if cfg.Database.Type != "" && cfg.Database.Type != "influxdb" {
		h.log.Error("unrecognized database type, no database sink configured", zap.String("type", cfg.Database.Type))
	}

	return stats.New(sinkCfg, h.log)
}

// IngestStats feeds one node-reported batch into the current job's
// aggregation pipeline. The hub writes exactly one CSV row per stat
// received on any node socket, regardless of which node emitted it.
func (h *Hub) IngestStats(batch []model.Stat) {
	h.mu.Lock()
	job := h.job
	h.mu.Unlock()

	if job == nil {
		return
	}
	for _, stat := range batch {
		job.pipeline.Emit(stat)
		failed := stat.Status >= 400
		if h.metrics != nil {
			h.metrics.RecordLoadRequest(job.id, stat.Name, fmt.Sprintf("%d", stat.Status), int64(stat.LatencyMS), failed)
		}
	}

	h.mu.Lock()
	job.totalStats += int64(len(batch))
	total := job.totalStats
	h.mu.Unlock()

	if h.reports != nil {
		if err := h.reports.UpdateProgress(job.id, total); err != nil {
			h.log.Error("failed to update run report progress", zap.Error(err))
		}
	}
}

// NodeDone marks one node's contribution to the current job finished; once
// every dispatched node has reported done, the aggregation pipeline is
// stopped and the run report finalized.
func (h *Hub) NodeDone(connID string) {
	h.registry.MarkIdle(connID)

	h.mu.Lock()
	job := h.job
	if job == nil {
		h.mu.Unlock()
		return
	}
	job.doneCount++
	complete := job.doneCount >= job.expectedNodes
	if complete {
		h.job = nil
	}
	h.mu.Unlock()

	if !complete {
		return
	}

	job.pipeline.Stop()
	h.log.Info("job complete", zap.String("job_id", job.id), zap.Int64("total_stats", job.totalStats))

	if h.reports != nil {
		if err := h.reports.MarkCompleted(job.id, job.totalStats); err != nil {
			h.log.Error("failed to mark run report completed", zap.Error(err))
		}
	}
}

// RequestStop records a best-effort stop request against the current job.
// There is no cooperative cancellation once nodes are running: a stop is a
// signal recorded in the audit trail and run report, not a guaranteed
// abort (workers observe stop conditions only at iteration boundaries).
func (h *Hub) RequestStop() (jobID string, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.job == nil {
		return "", false
	}
	h.job.stopRequested = true
	jobID = h.job.id

	h.auditLog.Log(audit.AuditEvent{EventType: audit.EventJobStopped, ResourceID: jobID})
	if h.reports != nil {
		if err := h.reports.MarkStopRequested(jobID); err != nil {
			h.log.Error("failed to record stop request", zap.Error(err))
		}
	}
	return jobID, true
}

// NodeCounts exposes the registry's available/bombarding counts for the
// GET /nodes endpoint.
func (h *Hub) NodeCounts() (available, bombarding int) {
	return h.registry.Counts()
}
