package model

import "time"

// Stat is a single request-outcome record. Stats are append-only; ordering
// by Timestamp is reconstructible at report time even though the pipeline
// does not guarantee cross-worker ordering.
type Stat struct {
	Timestamp         time.Time `json:"timestamp"`
	Name              string    `json:"name"`
	Status            uint16    `json:"status"`
	LatencyMS         uint32    `json:"latency_ms"`
	ConcurrentWorkers uint16    `json:"concurrent_workers"`
}
