// Package node implements C8: a process that dials a hub's websocket
// registry, runs each Job frame it receives through the Load Engine (one at
// a time; a Job frame arriving mid-run is rejected), and forwards its stats
// upstream over the same connection.
package node

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/forgewave/bombard/internal/dataprovider"
	"github.com/forgewave/bombard/internal/engine"
	"github.com/forgewave/bombard/internal/httpclient"
	"github.com/forgewave/bombard/internal/model"
	"github.com/forgewave/bombard/internal/reqcache"
	"github.com/forgewave/bombard/internal/stats"
	"github.com/forgewave/bombard/internal/wsproto"
)

// Node holds the connection to a hub and a guard against accepting a
// second concurrent job.
type Node struct {
	hubAddress string
	log        *zap.Logger
	bombarding int32
}

// New returns a Node that will dial hubAddress (host:port, no scheme) on Run.
func New(hubAddress string, log *zap.Logger) *Node {
	return &Node{hubAddress: hubAddress, log: log}
}

// Run connects to the hub and processes frames until the connection closes
// or ctx is cancelled.
func (n *Node) Run(ctx context.Context) error {
	url := fmt.Sprintf("ws://%s/ws", n.hubAddress)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("%w: dialing hub at %s: %v", model.ErrNodeProtocol, url, err)
	}
	defer conn.Close()

	n.log.Info("connected to hub", zap.String("hub_address", n.hubAddress))

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			n.log.Info("hub connection closed", zap.Error(err))
			return nil
		}
		if msgType == websocket.CloseMessage {
			return nil
		}
		if msgType != websocket.TextMessage {
			continue
		}

		kind, job, _ := wsproto.ParseFrame(data)
		switch kind {
		case wsproto.FrameJob:
			n.acceptJob(ctx, conn, job)
		default:
			n.log.Debug("ignoring non-job frame")
		}
	}
}

func (n *Node) acceptJob(ctx context.Context, conn *websocket.Conn, job model.Job) {
	if !atomic.CompareAndSwapInt32(&n.bombarding, 0, 1) {
		n.log.Warn("job frame received while already bombarding, rejecting", zap.String("job_id", job.ID))
		return
	}

	go func() {
		defer atomic.StoreInt32(&n.bombarding, 0)
		n.runJob(ctx, conn, job)
	}()
}

func (n *Node) runJob(ctx context.Context, conn *websocket.Conn, job model.Job) {
	log := n.log.With(zap.String("job_id", job.ID))

	client, err := httpclient.Build(job.Config, log)
	if err != nil {
		log.Error("failed to build http client for job", zap.Error(err))
		return
	}

	var provider *dataprovider.Provider
	switch {
	case len(job.DataContent) > 0:
		path, cleanup, writeErr := spoolDataContent(job.ID, job.DataContent)
		if writeErr != nil {
			log.Error("failed to spool job data content", zap.Error(writeErr))
			return
		}
		defer cleanup()
		provider, err = dataprovider.Open(path)
		if err != nil {
			log.Error("failed to open spooled data file for job", zap.Error(err))
			return
		}
		defer provider.Close()
	case job.DataFile != "":
		provider, err = dataprovider.Open(job.DataFile)
		if err != nil {
			log.Error("failed to open data file for job", zap.Error(err))
			return
		}
		defer provider.Close()
	}

	socket := wsproto.NewConn(conn)
	pipeline := stats.New(stats.Config{Distributed: true, Socket: socket}, log)

	e := engine.New(job.Config, job.Requests, job.EnvMap, client, reqcache.New(), provider, pipeline, log)
	e.Run(ctx)

	log.Info("bombarding complete")
}

func spoolDataContent(jobID string, content []byte) (path string, cleanup func(), err error) {
	dir, err := os.MkdirTemp("", "bombard-job-"+jobID)
	if err != nil {
		return "", nil, err
	}
	path = filepath.Join(dir, "data.csv")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		os.RemoveAll(dir)
		return "", nil, err
	}
	return path, func() { os.RemoveAll(dir) }, nil
}
