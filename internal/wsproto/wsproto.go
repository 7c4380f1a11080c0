// Package wsproto defines the hub-node wire protocol and the gorilla
// websocket helpers shared by both ends: one Job frame hub-to-node, any
// number of stats-batch frames node-to-hub, and exactly one "done" frame
// closing out a node's reporting for the job.
package wsproto

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/forgewave/bombard/internal/model"
)

// doneFrame is the exact text sent once a node has finished reporting all
// of its stats for the current job.
const doneFrame = "done"

// FrameKind classifies a decoded incoming frame.
type FrameKind int

const (
	FrameUnknown FrameKind = iota
	FrameJob
	FrameStatsBatch
	FrameDone
)

// statsEnvelope distinguishes a stats-batch frame from a Job frame on the
// wire: both are JSON objects, so each carries a "kind" discriminator.
type statsEnvelope struct {
	Kind  string       `json:"kind"`
	Stats []model.Stat `json:"stats"`
}

type jobEnvelope struct {
	Kind string    `json:"kind"`
	Job  model.Job `json:"job"`
}

// EncodeJob returns the wire bytes for a job frame, for callers (the hub's
// registry) that queue a frame onto a channel rather than write directly.
func EncodeJob(job model.Job) ([]byte, error) {
	payload, err := json.Marshal(jobEnvelope{Kind: "job", Job: job})
	if err != nil {
		return nil, fmt.Errorf("%w: encoding job frame: %v", model.ErrNodeProtocol, err)
	}
	return payload, nil
}

// WriteJob sends job to conn as a single text frame.
func WriteJob(conn *websocket.Conn, job model.Job) error {
	payload, err := EncodeJob(job)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, payload)
}

// WriteStatsBatch sends batch to conn as a single text frame.
func WriteStatsBatch(conn *websocket.Conn, batch []model.Stat) error {
	payload, err := json.Marshal(statsEnvelope{Kind: "stats", Stats: batch})
	if err != nil {
		return fmt.Errorf("%w: encoding stats frame: %v", model.ErrNodeProtocol, err)
	}
	return conn.WriteMessage(websocket.TextMessage, payload)
}

// WriteDone sends the terminal "done" text frame.
func WriteDone(conn *websocket.Conn) error {
	return conn.WriteMessage(websocket.TextMessage, []byte(doneFrame))
}

// ParseFrame classifies and decodes one text frame's payload.
func ParseFrame(data []byte) (FrameKind, model.Job, []model.Stat) {
	if string(data) == doneFrame {
		return FrameDone, model.Job{}, nil
	}

	var discriminator struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &discriminator); err != nil {
		return FrameUnknown, model.Job{}, nil
	}

	switch discriminator.Kind {
	case "job":
		var env jobEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			return FrameUnknown, model.Job{}, nil
		}
		return FrameJob, env.Job, nil
	case "stats":
		var env statsEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			return FrameUnknown, model.Job{}, nil
		}
		return FrameStatsBatch, model.Job{}, env.Stats
	default:
		return FrameUnknown, model.Job{}, nil
	}
}

// Conn adapts a *websocket.Conn to stats.SocketWriter so a node's Stats
// Pipeline can forward batches straight to its hub connection. Writes are
// serialized with a mutex since gorilla's Conn forbids concurrent writers.
type Conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

// NewConn wraps ws for use as a stats.SocketWriter.
func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{ws: ws}
}

func (c *Conn) WriteStatsBatch(batch []model.Stat) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return WriteStatsBatch(c.ws, batch)
}

func (c *Conn) WriteDone() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return WriteDone(c.ws)
}
