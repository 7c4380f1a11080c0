package model

import "time"

// Job is the unit dispatched from the hub to a node: everything a Load
// Engine needs to run a scenario independent of any file on the node's
// local disk.
type Job struct {
	ID       string            `json:"id"`
	Config   ExecConfig        `json:"config"`
	EnvMap   map[string]string `json:"env_map"`
	Requests []RequestTemplate `json:"requests"`
	DataFile string            `json:"data_file,omitempty"`

	// DataContent carries the uploaded data-file bytes when the job was
	// admitted through the hub: a node has no access to the hub's local
	// filesystem, so the hub embeds the CSV directly and the node writes
	// it to its own temp file before opening it with dataprovider.Open.
	DataContent []byte `json:"data_content,omitempty"`
}

// NodeState is the lifecycle state of a single hub-to-node websocket
// connection, per the registered/bombarding/idle/removed state machine.
type NodeState string

const (
	NodeRegistered NodeState = "registered"
	NodeBombarding NodeState = "bombarding"
	NodeIdle       NodeState = "idle"
	NodeRemoved    NodeState = "removed"
)

// NodeSummary is the public, REST-facing view of a node connection.
type NodeSummary struct {
	ConnID string    `json:"conn_id"`
	State  NodeState `json:"state"`
}

// RunReport is the hub's operational record of a dispatched job, persisted
// to Postgres when a database DSN is configured. It is distinct from the
// per-stat time-series sink: one RunReport row exists per dispatched job,
// not per stat.
type RunReport struct {
	RunID           string     `json:"run_id"`
	NodeCount       int        `json:"node_count"`
	DispatchedAt    time.Time  `json:"dispatched_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	TotalStats      int64      `json:"total_stats"`
	StopRequestedAt *time.Time `json:"stop_requested_at,omitempty"`
}
